package githubauth_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/featcheck/featcheck/internal/githubauth"
)

const (
	testEnvironmentFileNameConstant      = ".env"
	testTokenValueConstant               = "ghp_testtoken"
	testPreferredTokenValueConstant      = "ghp_preferred"
	testOrganizationValueConstant        = "example-org"
	testEnvironmentFileTemplateConstant  = "%s=%s\n%s=%s\n"
	credentialsSubtestTemplateConstant   = "%d_%s"
	testCaseFileCredentialsNameConstant  = "credentials_from_file"
	testCaseTokenPreferenceNameConstant  = "token_preference_order"
	testCaseMissingTokenNameConstant     = "missing_token"
	testCaseMissingOrgNameConstant       = "missing_organization"
	testCaseMissingEnvFileNameConstant   = "missing_environment_file"
	testMissingEnvironmentFileConstant   = "absent.env"
	testWhitespaceOnlyTokenValueConstant = "   "
)

func clearCredentialEnvironment(testInstance *testing.T) {
	testInstance.Helper()
	environmentKeys := []string{
		githubauth.EnvGitHubCLIToken,
		githubauth.EnvGitHubToken,
		githubauth.EnvGitHubAPIToken,
		githubauth.EnvGitHubOrganization,
	}
	for _, environmentKey := range environmentKeys {
		testInstance.Setenv(environmentKey, "")
		require.NoError(testInstance, os.Unsetenv(environmentKey))
	}
}

func writeEnvironmentFile(testInstance *testing.T, fileContent string) string {
	testInstance.Helper()
	environmentFilePath := filepath.Join(testInstance.TempDir(), testEnvironmentFileNameConstant)
	require.NoError(testInstance, os.WriteFile(environmentFilePath, []byte(fileContent), 0o600))
	return environmentFilePath
}

func TestLoadCredentials(testInstance *testing.T) {
	testCases := []struct {
		name                 string
		fileContent          string
		processEnvironment   map[string]string
		useMissingFile       bool
		expectedToken        string
		expectedOrganization string
		expectedError        error
		expectAnyError       bool
	}{
		{
			name: testCaseFileCredentialsNameConstant,
			fileContent: fmt.Sprintf(testEnvironmentFileTemplateConstant,
				githubauth.EnvGitHubToken, testTokenValueConstant,
				githubauth.EnvGitHubOrganization, testOrganizationValueConstant),
			expectedToken:        testTokenValueConstant,
			expectedOrganization: testOrganizationValueConstant,
		},
		{
			name: testCaseTokenPreferenceNameConstant,
			fileContent: fmt.Sprintf(testEnvironmentFileTemplateConstant,
				githubauth.EnvGitHubToken, testTokenValueConstant,
				githubauth.EnvGitHubOrganization, testOrganizationValueConstant),
			processEnvironment:   map[string]string{githubauth.EnvGitHubCLIToken: testPreferredTokenValueConstant},
			expectedToken:        testPreferredTokenValueConstant,
			expectedOrganization: testOrganizationValueConstant,
		},
		{
			name: testCaseMissingTokenNameConstant,
			fileContent: fmt.Sprintf(testEnvironmentFileTemplateConstant,
				githubauth.EnvGitHubToken, testWhitespaceOnlyTokenValueConstant,
				githubauth.EnvGitHubOrganization, testOrganizationValueConstant),
			expectedError: githubauth.ErrMissingToken,
		},
		{
			name: testCaseMissingOrgNameConstant,
			fileContent: fmt.Sprintf(testEnvironmentFileTemplateConstant,
				githubauth.EnvGitHubToken, testTokenValueConstant,
				githubauth.EnvGitHubOrganization, ""),
			expectedError: githubauth.ErrMissingOrganization,
		},
		{
			name:           testCaseMissingEnvFileNameConstant,
			useMissingFile: true,
			expectAnyError: true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(credentialsSubtestTemplateConstant, testCaseIndex, testCase.name), func(subtestInstance *testing.T) {
			clearCredentialEnvironment(subtestInstance)

			environmentFilePath := filepath.Join(subtestInstance.TempDir(), testMissingEnvironmentFileConstant)
			if !testCase.useMissingFile {
				environmentFilePath = writeEnvironmentFile(subtestInstance, testCase.fileContent)
			}

			for environmentKey, environmentValue := range testCase.processEnvironment {
				subtestInstance.Setenv(environmentKey, environmentValue)
			}

			resolvedCredentials, loadError := githubauth.LoadCredentials(environmentFilePath)

			switch {
			case testCase.expectedError != nil:
				require.ErrorIs(subtestInstance, loadError, testCase.expectedError)
			case testCase.expectAnyError:
				require.Error(subtestInstance, loadError)
			default:
				require.NoError(subtestInstance, loadError)
				require.Equal(subtestInstance, testCase.expectedToken, resolvedCredentials.Token)
				require.Equal(subtestInstance, testCase.expectedOrganization, resolvedCredentials.Organization)
			}
		})
	}
}
