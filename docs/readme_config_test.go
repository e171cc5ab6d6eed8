package docs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const (
	readmeFileNameConstant           = "README.md"
	yamlFenceStartConstant           = "```yaml"
	yamlFenceEndConstant             = "```"
	configHeaderMarkerConstant       = "# config.yaml"
	parentDirectoryReferenceConstant = ".."
	missingHeaderMessageConstant     = "README example missing config header marker"
	missingStartFenceMessageConstant = "README example missing yaml fence start"
	missingEndFenceMessageConstant   = "README example missing yaml fence end"
)

type readmeApplicationConfiguration struct {
	Common readmeCommonConfiguration `yaml:"common"`
	Verify readmeVerifyConfiguration `yaml:"verify"`
}

type readmeCommonConfiguration struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

type readmeVerifyConfiguration struct {
	TargetRepository string            `yaml:"target_repo"`
	TargetBranch     string            `yaml:"target_branch"`
	FeatureDocPath   string            `yaml:"feature_doc_path"`
	TableHeader      string            `yaml:"table_header"`
	RequiredSections []string          `yaml:"required_sections"`
	MinFeatureCount  int               `yaml:"min_feature_count"`
	ExpectedFeatures map[string]string `yaml:"expected_features"`
	ExpectedAuthors  map[string]string `yaml:"expected_authors"`
	ExpectedMessages map[string]string `yaml:"expected_messages"`
	ExpectedDates    map[string]string `yaml:"expected_dates"`
}

func TestReadmeVerifyConfigurationParses(testInstance *testing.T) {
	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	readmePath := filepath.Join(workingDirectory, parentDirectoryReferenceConstant, readmeFileNameConstant)
	contentBytes, readError := os.ReadFile(readmePath)
	require.NoError(testInstance, readError)

	contentText := string(contentBytes)
	headerIndex := strings.Index(contentText, configHeaderMarkerConstant)
	require.NotEqual(testInstance, -1, headerIndex, missingHeaderMessageConstant)

	fenceStartIndex := strings.LastIndex(contentText[:headerIndex], yamlFenceStartConstant)
	require.NotEqual(testInstance, -1, fenceStartIndex, missingStartFenceMessageConstant)

	remainingText := contentText[headerIndex:]
	fenceEndRelativeIndex := strings.Index(remainingText, yamlFenceEndConstant)
	require.NotEqual(testInstance, -1, fenceEndRelativeIndex, missingEndFenceMessageConstant)
	fenceEndIndex := headerIndex + fenceEndRelativeIndex

	snippetContent := strings.TrimSpace(contentText[fenceStartIndex+len(yamlFenceStartConstant) : fenceEndIndex])

	var applicationConfiguration readmeApplicationConfiguration
	require.NoError(testInstance, yaml.Unmarshal([]byte(snippetContent), &applicationConfiguration))

	require.NotEmpty(testInstance, applicationConfiguration.Common.LogLevel)
	require.NotEmpty(testInstance, applicationConfiguration.Common.LogFormat)

	verifyConfiguration := applicationConfiguration.Verify
	require.NotEmpty(testInstance, verifyConfiguration.TargetRepository)
	require.NotEmpty(testInstance, verifyConfiguration.TargetBranch)
	require.NotEmpty(testInstance, verifyConfiguration.FeatureDocPath)
	require.NotEmpty(testInstance, verifyConfiguration.TableHeader)
	require.NotEmpty(testInstance, verifyConfiguration.RequiredSections)
	require.Positive(testInstance, verifyConfiguration.MinFeatureCount)
	require.NotEmpty(testInstance, verifyConfiguration.ExpectedFeatures)
	require.NotEmpty(testInstance, verifyConfiguration.ExpectedAuthors)
	require.NotEmpty(testInstance, verifyConfiguration.ExpectedMessages)
	require.NotEmpty(testInstance, verifyConfiguration.ExpectedDates)

	for expectedName, expectedSHA := range verifyConfiguration.ExpectedFeatures {
		require.NotEmpty(testInstance, expectedName)
		require.Contains(testInstance, verifyConfiguration.ExpectedAuthors, expectedSHA)
		require.Contains(testInstance, verifyConfiguration.ExpectedMessages, expectedSHA)
		require.Contains(testInstance, verifyConfiguration.ExpectedDates, expectedSHA)
	}
}
