// Package githubauth resolves GitHub credentials from dotenv files and the
// process environment.
package githubauth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names used by GitHub authentication helpers.
const (
	EnvGitHubCLIToken     = "GH_TOKEN"
	EnvGitHubToken        = "GITHUB_TOKEN"
	EnvGitHubAPIToken     = "GITHUB_API_TOKEN"
	EnvGitHubOrganization = "GITHUB_ORG"
)

const (
	environmentFileErrorTemplateConstant = "unable to load environment file %s: %w"
	missingTokenMessageConstant          = "github token not configured"
	missingOrganizationMessageConstant   = "github organization not configured"
)

var tokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// Credential resolution failure modes, distinct from configuration validation.
var (
	ErrMissingToken        = errors.New(missingTokenMessageConstant)
	ErrMissingOrganization = errors.New(missingOrganizationMessageConstant)
)

// Credentials carries the access token and organization identifier required
// for authenticated repository access.
type Credentials struct {
	Token        string
	Organization string
}

// LoadCredentials loads the named dotenv file into the process environment and
// resolves the token and organization. A missing file, token, or organization
// each fail with a distinct error.
func LoadCredentials(environmentFilePath string) (Credentials, error) {
	if loadError := godotenv.Load(environmentFilePath); loadError != nil {
		return Credentials{}, fmt.Errorf(environmentFileErrorTemplateConstant, environmentFilePath, loadError)
	}

	resolvedToken, tokenFound := ResolveToken()
	if !tokenFound {
		return Credentials{}, ErrMissingToken
	}

	resolvedOrganization, organizationFound := lookupEnvironmentValue(EnvGitHubOrganization)
	if !organizationFound {
		return Credentials{}, ErrMissingOrganization
	}

	return Credentials{Token: resolvedToken, Organization: resolvedOrganization}, nil
}

// ResolveToken returns the first non-empty GitHub authentication token
// observed in the process environment, honoring the preference order
// GH_TOKEN, GITHUB_TOKEN, GITHUB_API_TOKEN.
func ResolveToken() (string, bool) {
	for _, environmentKey := range tokenPreference {
		if tokenValue, found := lookupEnvironmentValue(environmentKey); found {
			return tokenValue, true
		}
	}
	return "", false
}

func lookupEnvironmentValue(environmentKey string) (string, bool) {
	rawValue, exists := os.LookupEnv(environmentKey)
	if !exists {
		return "", false
	}
	trimmedValue := strings.TrimSpace(rawValue)
	if len(trimmedValue) == 0 {
		return "", false
	}
	return trimmedValue, true
}
