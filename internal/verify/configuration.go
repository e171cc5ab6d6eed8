package verify

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	configurationInvalidTemplateConstant   = "invalid verification configuration: %w"
	configurationReadErrorTemplateConstant = "unable to read configuration file %s: %w"
	configurationParseErrorTemplate        = "unable to parse configuration file %s: %w"
)

// CommandConfiguration captures the persistent settings for the verify
// command. All ten fields are required; validation fails at startup when any
// is absent.
type CommandConfiguration struct {
	TargetRepository string            `yaml:"target_repo" validate:"required"`
	TargetBranch     string            `yaml:"target_branch" validate:"required"`
	FeatureDocPath   string            `yaml:"feature_doc_path" validate:"required"`
	TableHeader      string            `yaml:"table_header" validate:"required"`
	RequiredSections []string          `yaml:"required_sections" validate:"required"`
	MinFeatureCount  int               `yaml:"min_feature_count" validate:"required"`
	ExpectedFeatures map[string]string `yaml:"expected_features" validate:"required"`
	ExpectedAuthors  map[string]string `yaml:"expected_authors" validate:"required"`
	ExpectedMessages map[string]string `yaml:"expected_messages" validate:"required"`
	ExpectedDates    map[string]string `yaml:"expected_dates" validate:"required"`
}

type configurationDocument struct {
	Verify CommandConfiguration `yaml:"verify"`
}

// LoadConfiguration reads the verify section of the named YAML configuration
// file. The section is decoded directly so that map keys keep their exact
// case; feature names and SHAs match case-sensitively during verification.
func LoadConfiguration(configurationFilePath string) (CommandConfiguration, error) {
	configurationBytes, readError := os.ReadFile(configurationFilePath)
	if readError != nil {
		return CommandConfiguration{}, fmt.Errorf(configurationReadErrorTemplateConstant, configurationFilePath, readError)
	}

	var parsedDocument configurationDocument
	if parseError := yaml.Unmarshal(configurationBytes, &parsedDocument); parseError != nil {
		return CommandConfiguration{}, fmt.Errorf(configurationParseErrorTemplate, configurationFilePath, parseError)
	}

	return parsedDocument.Verify, nil
}

// Validate confirms every required configuration field is present.
func (configuration CommandConfiguration) Validate() error {
	structValidator := validator.New()
	if validationError := structValidator.Struct(configuration); validationError != nil {
		return fmt.Errorf(configurationInvalidTemplateConstant, validationError)
	}
	return nil
}

// sanitize trims whitespace from the repository coordinate fields. The table
// header and section markers are matched verbatim and stay untouched.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.TargetRepository = strings.TrimSpace(configuration.TargetRepository)
	sanitized.TargetBranch = strings.TrimSpace(configuration.TargetBranch)
	sanitized.FeatureDocPath = strings.TrimSpace(configuration.FeatureDocPath)
	return sanitized
}
