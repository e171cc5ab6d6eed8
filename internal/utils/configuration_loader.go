package utils

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	environmentKeyDotSeparatorConstant         = "."
	environmentKeyUnderscoreSeparatorConstant  = "_"
	configurationReadErrorTemplateConstant     = "failed to read configuration: %w"
	configurationDecodeErrorTemplateConstant   = "failed to parse configuration: %w"
	embeddedDefaultsMergeErrorTemplateConstant = "failed to merge embedded defaults: %w"
)

// ConfigurationLoader wraps Viper to resolve configuration from embedded
// defaults, configuration files, and prefixed environment variables.
type ConfigurationLoader struct {
	configurationName      string
	configurationType      string
	environmentPrefix      string
	searchPaths            []string
	environmentKeyReplacer *strings.Replacer
	embeddedDefaults       []byte
	embeddedDefaultsType   string
}

// LoadedConfiguration surfaces metadata about the resolved configuration.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// NewConfigurationLoader creates a loader that searches the provided paths and
// honors environment variables carrying the given prefix.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	copiedSearchPaths := make([]string, len(searchPaths))
	copy(copiedSearchPaths, searchPaths)

	return &ConfigurationLoader{
		configurationName:      configurationName,
		configurationType:      configurationType,
		environmentPrefix:      environmentPrefix,
		searchPaths:            copiedSearchPaths,
		environmentKeyReplacer: strings.NewReplacer(environmentKeyDotSeparatorConstant, environmentKeyUnderscoreSeparatorConstant),
	}
}

// SetEmbeddedDefaults stores embedded configuration data merged before any
// user-provided configuration file.
func (loader *ConfigurationLoader) SetEmbeddedDefaults(configurationData []byte, configurationType string) {
	if loader == nil {
		return
	}

	loader.embeddedDefaults = nil
	loader.embeddedDefaultsType = strings.TrimSpace(configurationType)

	if len(configurationData) == 0 {
		return
	}

	copiedData := make([]byte, len(configurationData))
	copy(copiedData, configurationData)
	loader.embeddedDefaults = copiedData
}

// LoadConfiguration populates targetConfiguration from defaults, embedded
// data, configuration files, and environment overrides, in that order.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.configurationName)
	viperInstance.SetConfigType(loader.configurationType)

	if len(loader.embeddedDefaults) > 0 {
		embeddedType := loader.configurationType
		if len(loader.embeddedDefaultsType) > 0 {
			embeddedType = loader.embeddedDefaultsType
		}

		viperInstance.SetConfigType(embeddedType)
		if mergeError := viperInstance.MergeConfig(bytes.NewReader(loader.embeddedDefaults)); mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedDefaultsMergeErrorTemplateConstant, mergeError)
		}
		viperInstance.SetConfigType(loader.configurationType)
	}

	for _, searchPath := range loader.searchPaths {
		viperInstance.AddConfigPath(searchPath)
	}

	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	if loader.environmentKeyReplacer != nil {
		viperInstance.SetEnvKeyReplacer(loader.environmentKeyReplacer)
	}
	viperInstance.AutomaticEnv()

	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if len(configurationFilePath) > 0 {
		viperInstance.SetConfigFile(configurationFilePath)
	}

	if readError := viperInstance.MergeInConfig(); readError != nil {
		if _, notFound := readError.(viper.ConfigFileNotFoundError); !notFound {
			return LoadedConfiguration{}, fmt.Errorf(configurationReadErrorTemplateConstant, readError)
		}
	}

	if decodeError := viperInstance.Unmarshal(targetConfiguration); decodeError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationDecodeErrorTemplateConstant, decodeError)
	}

	return LoadedConfiguration{ConfigFileUsed: viperInstance.ConfigFileUsed()}, nil
}
