// Package githubapi wraps the GitHub REST API operations required to verify
// feature-tracking documents: repository file content lookups and commit
// metadata lookups.
package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	clientUserAgentConstant                 = "featcheck-commit-verifier"
	diagnosticBodyLimitConstant             = 100
	fileNotFoundErrorTemplateConstant       = "file %s does not exist on branch %s: %w"
	commitNotFoundErrorTemplateConstant     = "commit %s does not exist: %w"
	fileRequestErrorTemplateConstant        = "file content request failed: %w"
	commitRequestErrorTemplateConstant      = "commit request failed: %w"
	contentDecodeErrorTemplateConstant      = "unable to decode file content: %w"
	directoryContentMessageTemplateConstant = "path %s resolves to a directory, not a file"
	remoteStatusErrorTemplateConstant       = "unexpected status %d: %s"
	fileFetchedMessageConstant              = "fetched repository file"
	commitFetchedMessageConstant            = "fetched commit metadata"
	logFieldRepositoryConstant              = "repository"
	logFieldFilePathConstant                = "file_path"
	logFieldBranchConstant                  = "branch"
	logFieldCommitConstant                  = "commit_sha"
	logFieldContentSizeConstant             = "content_size"
	logFieldAuthorLoginConstant             = "author_login"
	fileNotFoundMessageConstant             = "file not found"
	commitNotFoundMessageConstant           = "commit not found"
)

// Sentinel errors distinguishing absent remote objects from transport failures.
var (
	ErrFileNotFound   = errors.New(fileNotFoundMessageConstant)
	ErrCommitNotFound = errors.New(commitNotFoundMessageConstant)
)

// RemoteStatusError reports a non-200, non-404 response with a truncated
// diagnostic taken from the response body.
type RemoteStatusError struct {
	StatusCode int
	Diagnostic string
}

// Error describes the unexpected remote status.
func (statusError RemoteStatusError) Error() string {
	return fmt.Sprintf(remoteStatusErrorTemplateConstant, statusError.StatusCode, statusError.Diagnostic)
}

// CommitDetail exposes the live commit metadata consumed during verification.
type CommitDetail struct {
	AuthorLogin string
	Message     string
}

// Client performs authenticated GitHub API requests for one organization.
type Client struct {
	apiClient    *github.Client
	logger       *zap.Logger
	organization string
}

// NewClient constructs a client authenticated with the provided access token.
// Every outbound request carries the bearer token, the GitHub REST accept
// header, and the featcheck client identifier.
func NewClient(accessToken string, organization string, logger *zap.Logger) *Client {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	authenticatedTransport := oauth2.NewClient(context.Background(), tokenSource)

	apiClient := github.NewClient(authenticatedTransport)
	apiClient.UserAgent = clientUserAgentConstant

	return &Client{
		apiClient:    apiClient,
		logger:       logger,
		organization: organization,
	}
}

// NewClientWithEndpoint constructs a client against an alternate API base URL,
// supporting GitHub Enterprise hosts.
func NewClientWithEndpoint(endpointURL string, accessToken string, organization string, logger *zap.Logger) (*Client, error) {
	baseClient := NewClient(accessToken, organization, logger)

	enterpriseClient, endpointError := baseClient.apiClient.WithEnterpriseURLs(endpointURL, endpointURL)
	if endpointError != nil {
		return nil, endpointError
	}
	enterpriseClient.UserAgent = clientUserAgentConstant
	baseClient.apiClient = enterpriseClient

	return baseClient, nil
}

// FetchFileContent retrieves the decoded text content of a repository file at
// the given path and branch. Base64 payloads are decoded to UTF-8.
func (client *Client) FetchFileContent(executionContext context.Context, repository string, filePath string, branch string) (string, error) {
	contentOptions := &github.RepositoryContentGetOptions{Ref: branch}
	fileContent, _, _, contentError := client.apiClient.Repositories.GetContents(executionContext, client.organization, repository, filePath, contentOptions)
	if contentError != nil {
		if responseStatusCode(contentError) == http.StatusNotFound {
			return "", fmt.Errorf(fileNotFoundErrorTemplateConstant, filePath, branch, ErrFileNotFound)
		}
		if statusError, classified := classifyStatusError(contentError); classified {
			return "", statusError
		}
		return "", fmt.Errorf(fileRequestErrorTemplateConstant, contentError)
	}

	if fileContent == nil {
		return "", fmt.Errorf(directoryContentMessageTemplateConstant, filePath)
	}

	decodedContent, decodeError := fileContent.GetContent()
	if decodeError != nil {
		return "", fmt.Errorf(contentDecodeErrorTemplateConstant, decodeError)
	}

	client.logger.Debug(
		fileFetchedMessageConstant,
		zap.String(logFieldRepositoryConstant, repository),
		zap.String(logFieldFilePathConstant, filePath),
		zap.String(logFieldBranchConstant, branch),
		zap.Int(logFieldContentSizeConstant, len(decodedContent)),
	)

	return decodedContent, nil
}

// GetCommit retrieves the author login and full commit message for a SHA.
func (client *Client) GetCommit(executionContext context.Context, repository string, commitSHA string) (CommitDetail, error) {
	repositoryCommit, _, commitError := client.apiClient.Repositories.GetCommit(executionContext, client.organization, repository, commitSHA, nil)
	if commitError != nil {
		if responseStatusCode(commitError) == http.StatusNotFound {
			return CommitDetail{}, fmt.Errorf(commitNotFoundErrorTemplateConstant, commitSHA, ErrCommitNotFound)
		}
		if statusError, classified := classifyStatusError(commitError); classified {
			return CommitDetail{}, statusError
		}
		return CommitDetail{}, fmt.Errorf(commitRequestErrorTemplateConstant, commitError)
	}

	commitDetail := CommitDetail{
		AuthorLogin: repositoryCommit.GetAuthor().GetLogin(),
		Message:     repositoryCommit.GetCommit().GetMessage(),
	}

	client.logger.Debug(
		commitFetchedMessageConstant,
		zap.String(logFieldRepositoryConstant, repository),
		zap.String(logFieldCommitConstant, commitSHA),
		zap.String(logFieldAuthorLoginConstant, commitDetail.AuthorLogin),
	)

	return commitDetail, nil
}

func responseStatusCode(requestError error) int {
	var errorResponse *github.ErrorResponse
	if errors.As(requestError, &errorResponse) && errorResponse.Response != nil {
		return errorResponse.Response.StatusCode
	}
	return 0
}

func classifyStatusError(requestError error) (RemoteStatusError, bool) {
	statusCode := responseStatusCode(requestError)
	if statusCode == 0 {
		return RemoteStatusError{}, false
	}

	var errorResponse *github.ErrorResponse
	_ = errors.As(requestError, &errorResponse)

	return RemoteStatusError{
		StatusCode: statusCode,
		Diagnostic: truncateDiagnostic(errorResponse.Message),
	}, true
}

func truncateDiagnostic(diagnosticText string) string {
	if len(diagnosticText) <= diagnosticBodyLimitConstant {
		return diagnosticText
	}
	return diagnosticText[:diagnosticBodyLimitConstant]
}
