package utils

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	environmentKeySeparatorOldConstant              = "."
	environmentKeySeparatorNewConstant              = "_"
	sliceSeparatorConstant                          = ","
	configurationReadErrorTemplateConstant          = "failed to read configuration: %w"
	configurationUnmarshalErrorTemplateConstant     = "failed to parse configuration: %w"
	embeddedConfigurationMergeErrorTemplateConstant = "failed to merge embedded configuration: %w"
	configurationInvalidErrorTemplateConstant       = "%w: %s"
	configurationFieldErrorTemplateConstant         = "%s violates %s"
	configurationFieldParameterTemplateConstant     = "%s=%s"
	configurationFieldErrorSeparatorConstant        = "; "
	configurationKeyTagConstant                     = "mapstructure"
	configurationKeyTagSeparatorConstant            = ","
	configurationKeyIgnoredConstant                 = "-"
)

// ErrInvalidConfiguration indicates decoded values that fail their validate tags.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ConfigurationLoader wraps Viper to load structured configuration files and environment overrides.
type ConfigurationLoader struct {
	configurationName         string
	configurationType         string
	environmentPrefix         string
	searchPaths               []string
	environmentKeyReplacer    *strings.Replacer
	embeddedConfiguration     []byte
	embeddedConfigurationType string
	configurationValidator    *validator.Validate
}

// LoadedConfiguration surfaces metadata about the resolved configuration.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// NewConfigurationLoader creates a loader that searches known paths and respects an environment prefix.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	duplicatedSearchPaths := make([]string, len(searchPaths))
	copy(duplicatedSearchPaths, searchPaths)

	return &ConfigurationLoader{
		configurationName:      configurationName,
		configurationType:      configurationType,
		environmentPrefix:      environmentPrefix,
		searchPaths:            duplicatedSearchPaths,
		environmentKeyReplacer: strings.NewReplacer(environmentKeySeparatorOldConstant, environmentKeySeparatorNewConstant),
		configurationValidator: newConfigurationValidator(),
	}
}

// SetEmbeddedConfiguration stores embedded configuration data merged before user-provided configuration files.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(configurationData []byte, configurationType string) {
	if loader == nil {
		return
	}

	loader.embeddedConfiguration = nil
	loader.embeddedConfigurationType = strings.TrimSpace(configurationType)

	if len(configurationData) == 0 {
		return
	}

	duplicatedData := make([]byte, len(configurationData))
	copy(duplicatedData, configurationData)
	loader.embeddedConfiguration = duplicatedData
}

// LoadConfiguration populates targetConfiguration using embedded data, configuration files, defaults, and environment variables.
// Duration strings such as "1s" or "5m" decode into time.Duration fields. Struct targets are then
// checked against their validate tags and violations are reported by configuration key.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.configurationName)
	viperInstance.SetConfigType(loader.configurationType)

	if len(loader.embeddedConfiguration) > 0 {
		configurationType := loader.configurationType
		if len(loader.embeddedConfigurationType) > 0 {
			configurationType = loader.embeddedConfigurationType
		}

		viperInstance.SetConfigType(configurationType)
		mergeError := viperInstance.MergeConfig(bytes.NewReader(loader.embeddedConfiguration))
		if mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationMergeErrorTemplateConstant, mergeError)
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

	readError := viperInstance.MergeInConfig()
	if readError != nil {
		var notFoundError viper.ConfigFileNotFoundError
		if !errors.As(readError, &notFoundError) {
			return LoadedConfiguration{}, fmt.Errorf(configurationReadErrorTemplateConstant, readError)
		}
	}

	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(sliceSeparatorConstant),
	))
	unmarshalError := viperInstance.Unmarshal(targetConfiguration, decodeHook)
	if unmarshalError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationUnmarshalErrorTemplateConstant, unmarshalError)
	}

	validationError := loader.validate(targetConfiguration)
	if validationError != nil {
		return LoadedConfiguration{}, validationError
	}

	loadedConfiguration := LoadedConfiguration{
		ConfigFileUsed: viperInstance.ConfigFileUsed(),
	}

	return loadedConfiguration, nil
}

func (loader *ConfigurationLoader) validate(targetConfiguration any) error {
	configurationValidator := loader.configurationValidator
	if configurationValidator == nil {
		configurationValidator = newConfigurationValidator()
	}

	validationError := configurationValidator.Struct(targetConfiguration)
	if validationError == nil {
		return nil
	}

	var invalidTargetError *validator.InvalidValidationError
	if errors.As(validationError, &invalidTargetError) {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(validationError, &fieldErrors) {
		return fmt.Errorf(configurationInvalidErrorTemplateConstant, ErrInvalidConfiguration, validationError.Error())
	}

	violations := make([]string, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		constraint := fieldError.Tag()
		if len(fieldError.Param()) > 0 {
			constraint = fmt.Sprintf(configurationFieldParameterTemplateConstant, constraint, fieldError.Param())
		}
		violations = append(violations, fmt.Sprintf(configurationFieldErrorTemplateConstant, configurationKey(fieldError.Namespace()), constraint))
	}
	return fmt.Errorf(configurationInvalidErrorTemplateConstant, ErrInvalidConfiguration, strings.Join(violations, configurationFieldErrorSeparatorConstant))
}

// configurationKey drops the root struct name from a validator namespace.
func configurationKey(namespace string) string {
	separatorIndex := strings.Index(namespace, environmentKeySeparatorOldConstant)
	if separatorIndex < 0 {
		return namespace
	}
	return namespace[separatorIndex+1:]
}

func newConfigurationValidator() *validator.Validate {
	configurationValidator := validator.New()
	configurationValidator.RegisterTagNameFunc(func(field reflect.StructField) string {
		keyName := strings.SplitN(field.Tag.Get(configurationKeyTagConstant), configurationKeyTagSeparatorConstant, 2)[0]
		if keyName == configurationKeyIgnoredConstant {
			return ""
		}
		if len(keyName) == 0 {
			return strings.ToLower(field.Name)
		}
		return keyName
	})
	return configurationValidator
}
