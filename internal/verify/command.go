package verify

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/featcheck/featcheck/internal/githubapi"
	"github.com/featcheck/featcheck/internal/githubauth"
)

const (
	commandNameConstant             = "verify"
	commandShortDescription         = "Verify the feature-tracking document against commit history"
	commandLongDescription          = "Fetches the feature-tracking document from the configured repository and branch, parses its feature table, and cross-checks the recorded features against expected SHAs, authors, messages, and dates."
	flagEnvFileName                 = "env"
	flagEnvFileDefault              = ".env"
	flagEnvFileDescription          = "path to the environment file carrying the access token and organization"
	credentialResolutionErrorFormat = "resolving credentials: %w"
	fetcherConstructionErrorFormat  = "constructing repository client: %w"
	verificationFailedErrorFormat   = "verification failed at step %s: %s"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the verification settings resolved by the
// application configuration layer.
type ConfigurationProvider func() CommandConfiguration

// CredentialsResolver loads the access token and organization, consulting the
// environment file at the given path.
type CredentialsResolver func(environmentFilePath string) (githubauth.Credentials, error)

// FetcherFactory constructs the remote content fetcher from resolved
// credentials.
type FetcherFactory func(credentials githubauth.Credentials, logger *zap.Logger) (ContentFetcher, error)

// CommandBuilder assembles the verify cobra command with configurable
// dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	CredentialsResolver   CredentialsResolver
	FetcherFactory        FetcherFactory
}

// Build constructs the cobra command for the verification pipeline.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandNameConstant,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		RunE:  builder.run,
	}

	command.Flags().String(flagEnvFileName, flagEnvFileDefault, flagEnvFileDescription)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration().sanitize()
	if validationError := configuration.Validate(); validationError != nil {
		return validationError
	}

	environmentFilePath, _ := command.Flags().GetString(flagEnvFileName)

	credentials, credentialsError := builder.resolveCredentials(environmentFilePath)
	if credentialsError != nil {
		return fmt.Errorf(credentialResolutionErrorFormat, credentialsError)
	}

	logger := builder.resolveLogger()

	fetcher, fetcherError := builder.resolveFetcher(credentials, logger)
	if fetcherError != nil {
		return fmt.Errorf(fetcherConstructionErrorFormat, fetcherError)
	}

	service := NewService(fetcher, logger, command.OutOrStdout(), command.ErrOrStderr(), credentials.Organization)

	report := service.Run(command.Context(), configuration)
	if report.Passed {
		return nil
	}

	failedStep, _ := report.FirstFailure()
	return fmt.Errorf(verificationFailedErrorFormat, failedStep.Name, failedStep.Detail)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return CommandConfiguration{}
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveCredentials(environmentFilePath string) (githubauth.Credentials, error) {
	if builder.CredentialsResolver == nil {
		return githubauth.LoadCredentials(environmentFilePath)
	}
	return builder.CredentialsResolver(environmentFilePath)
}

func (builder *CommandBuilder) resolveFetcher(credentials githubauth.Credentials, logger *zap.Logger) (ContentFetcher, error) {
	if builder.FetcherFactory == nil {
		return githubapi.NewClient(credentials.Token, credentials.Organization, logger), nil
	}
	return builder.FetcherFactory(credentials, logger)
}
