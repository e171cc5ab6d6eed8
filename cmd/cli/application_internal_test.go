package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testConfigurationContentConstant = `common:
  log_level: warn
  log_format: console
verify:
  target_repo: example-repo
  target_branch: release
  feature_doc_path: docs/FEATURES.md
  table_header: "Feature | Commit SHA"
  required_sections:
    - "## Overview"
  min_feature_count: 1
  expected_features:
    Auth Flow: abc123def456
  expected_authors:
    abc123def456: alice
  expected_messages:
    abc123def456: Add login
  expected_dates:
    abc123def456: "2024-01-15"
`

func TestInitializeConfigurationLoadsVerifySection(testInstance *testing.T) {
	configurationPath := filepath.Join(testInstance.TempDir(), "config.yaml")
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(testConfigurationContentConstant), 0o600))

	application := NewApplication()
	application.configurationFilePath = configurationPath

	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))

	require.Equal(testInstance, "warn", application.configuration.Common.LogLevel)
	require.Equal(testInstance, "console", application.configuration.Common.LogFormat)
	require.Equal(testInstance, "example-repo", application.verifyConfiguration.TargetRepository)
	require.Equal(testInstance, "release", application.verifyConfiguration.TargetBranch)
	require.Equal(testInstance, "docs/FEATURES.md", application.verifyConfiguration.FeatureDocPath)
	// Map keys keep their exact case when the verify section is decoded.
	require.Equal(testInstance, map[string]string{"Auth Flow": "abc123def456"}, application.verifyConfiguration.ExpectedFeatures)
	require.Equal(testInstance, map[string]string{"abc123def456": "alice"}, application.verifyConfiguration.ExpectedAuthors)
}

func TestInitializeConfigurationHonorsFlagOverrides(testInstance *testing.T) {
	application := NewApplication()

	require.NoError(testInstance, application.rootCommand.PersistentFlags().Set(logLevelFlagNameConstant, "debug"))
	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))

	require.Equal(testInstance, "debug", application.configuration.Common.LogLevel)
}
