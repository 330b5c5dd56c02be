package utils_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/sfdxwatch/internal/utils"
)

const (
	testEnvironmentPrefixConstant                  = "TESTSFDXWATCH"
	testMonitorSectionKeyConstant                  = "monitor"
	testPollIntervalKeyConstant                    = testMonitorSectionKeyConstant + ".poll_interval"
	testFailureTextsKeyConstant                    = testMonitorSectionKeyConstant + ".failure_texts"
	testDefaultPollIntervalConstant                = "1s"
	testEmbeddedPollIntervalConstant               = "2s"
	testFilePollIntervalConstant                   = "3s"
	testEnvironmentPollIntervalConstant            = "4s"
	testConfigFileNameConstant                     = "config.yaml"
	testConfigContentTemplateConstant              = "monitor:\n  poll_interval: %s\n"
	testCaseEmbeddedMessageConstant                = "embedded configuration merges"
	testCaseDefaultsMessageConstant                = "defaults are applied"
	testCaseFileMessageConstant                    = "config file overrides embedded"
	testCaseEnvironmentMessageConstant             = "environment overrides file"
	testConfigurationNameConstant                  = "config"
	testConfigurationTypeConstant                  = "yaml"
	configurationLoaderSubtestNameTemplateConstant = "%d_%s"
	testMalformedConfigurationContentConstant      = "monitor: [unterminated"
	testNegativePollIntervalConstant               = "-1s"
	testNegativePollIntervalViolationConstant      = "monitor.poll_interval violates gte=0"
	testBlankFailureTextViolationConstant          = "monitor.failure_texts[1] violates required"
)

type configurationFixture struct {
	Monitor monitorConfigurationFixture `mapstructure:"monitor"`
}

type monitorConfigurationFixture struct {
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gte=0"`
	FailureTexts []string      `mapstructure:"failure_texts" validate:"dive,required"`
}

func TestConfigurationLoaderLoadConfiguration(testInstance *testing.T) {
	testCases := []struct {
		name                     string
		embeddedPollInterval     string
		filePollInterval         string
		environmentPollInterval  string
		expectedPollInterval     time.Duration
		expectConfigurationUsage bool
	}{
		{
			name:                 testCaseEmbeddedMessageConstant,
			embeddedPollInterval: testEmbeddedPollIntervalConstant,
			expectedPollInterval: 2 * time.Second,
		},
		{
			name:                 testCaseDefaultsMessageConstant,
			expectedPollInterval: time.Second,
		},
		{
			name:                     testCaseFileMessageConstant,
			embeddedPollInterval:     testEmbeddedPollIntervalConstant,
			filePollInterval:         testFilePollIntervalConstant,
			expectedPollInterval:     3 * time.Second,
			expectConfigurationUsage: true,
		},
		{
			name:                     testCaseEnvironmentMessageConstant,
			embeddedPollInterval:     testEmbeddedPollIntervalConstant,
			filePollInterval:         testFilePollIntervalConstant,
			environmentPollInterval:  testEnvironmentPollIntervalConstant,
			expectedPollInterval:     4 * time.Second,
			expectConfigurationUsage: true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(configurationLoaderSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			tempDirectory := testInstance.TempDir()
			configurationFilePath := ""
			if len(testCase.filePollInterval) > 0 {
				configurationFilePath = filepath.Join(tempDirectory, testConfigFileNameConstant)
				configurationContent := fmt.Sprintf(testConfigContentTemplateConstant, testCase.filePollInterval)
				require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(configurationContent), 0o600))
			}

			if len(testCase.environmentPollInterval) > 0 {
				environmentVariableName := fmt.Sprintf("%s_%s", testEnvironmentPrefixConstant, strings.ToUpper(strings.ReplaceAll(testPollIntervalKeyConstant, ".", "_")))
				testInstance.Setenv(environmentVariableName, testCase.environmentPollInterval)
			}

			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{tempDirectory})
			if len(testCase.embeddedPollInterval) > 0 {
				configurationLoader.SetEmbeddedConfiguration([]byte(fmt.Sprintf(testConfigContentTemplateConstant, testCase.embeddedPollInterval)), testConfigurationTypeConstant)
			}

			defaultValues := map[string]any{
				testPollIntervalKeyConstant: testDefaultPollIntervalConstant,
			}

			loadedConfiguration := configurationFixture{}
			metadata, loadError := configurationLoader.LoadConfiguration(configurationFilePath, defaultValues, &loadedConfiguration)
			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expectedPollInterval, loadedConfiguration.Monitor.PollInterval)

			if testCase.expectConfigurationUsage {
				require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
			} else {
				require.Empty(testInstance, metadata.ConfigFileUsed)
			}
		})
	}
}

func TestConfigurationLoaderDecodesCommaSeparatedSlices(testInstance *testing.T) {
	testInstance.Setenv(testEnvironmentPrefixConstant+"_MONITOR_FAILURE_TEXTS", "first,second")

	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{testInstance.TempDir()})
	defaultValues := map[string]any{
		testPollIntervalKeyConstant: testDefaultPollIntervalConstant,
		testFailureTextsKeyConstant: []string{},
	}

	loadedConfiguration := configurationFixture{}
	_, loadError := configurationLoader.LoadConfiguration("", defaultValues, &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, []string{"first", "second"}, loadedConfiguration.Monitor.FailureTexts)
}

func TestConfigurationLoaderRejectsMalformedFile(testInstance *testing.T) {
	tempDirectory := testInstance.TempDir()
	configurationFilePath := filepath.Join(tempDirectory, testConfigFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(testMalformedConfigurationContentConstant), 0o600))

	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, nil)
	loadedConfiguration := configurationFixture{}
	_, loadError := configurationLoader.LoadConfiguration(configurationFilePath, nil, &loadedConfiguration)
	require.Error(testInstance, loadError)
}

func TestConfigurationLoaderRejectsInvalidValues(testInstance *testing.T) {
	testCases := []struct {
		name               string
		fileContent        string
		environmentValues  map[string]string
		expectedViolations []string
	}{
		{
			name:               "negative_file_value",
			fileContent:        fmt.Sprintf(testConfigContentTemplateConstant, testNegativePollIntervalConstant),
			expectedViolations: []string{testNegativePollIntervalViolationConstant},
		},
		{
			name:        "negative_environment_value",
			fileContent: fmt.Sprintf(testConfigContentTemplateConstant, testFilePollIntervalConstant),
			environmentValues: map[string]string{
				testEnvironmentPrefixConstant + "_MONITOR_POLL_INTERVAL": testNegativePollIntervalConstant,
			},
			expectedViolations: []string{testNegativePollIntervalViolationConstant},
		},
		{
			name:        "every_violation_reported",
			fileContent: "monitor:\n  poll_interval: -2s\n  failure_texts:\n    - first\n    - \"\"\n",
			expectedViolations: []string{
				testNegativePollIntervalViolationConstant,
				testBlankFailureTextViolationConstant,
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			for environmentKey, environmentValue := range testCase.environmentValues {
				testInstance.Setenv(environmentKey, environmentValue)
			}

			configurationFilePath := filepath.Join(testInstance.TempDir(), testConfigFileNameConstant)
			require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(testCase.fileContent), 0o600))

			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, nil)
			defaultValues := map[string]any{
				testPollIntervalKeyConstant: testDefaultPollIntervalConstant,
				testFailureTextsKeyConstant: []string{},
			}
			loadedConfiguration := configurationFixture{}
			_, loadError := configurationLoader.LoadConfiguration(configurationFilePath, defaultValues, &loadedConfiguration)
			require.ErrorIs(testInstance, loadError, utils.ErrInvalidConfiguration)
			for _, expectedViolation := range testCase.expectedViolations {
				require.Contains(testInstance, loadError.Error(), expectedViolation)
			}
		})
	}
}

func TestConfigurationLoaderSkipsValidationForMapTargets(testInstance *testing.T) {
	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{testInstance.TempDir()})
	defaultValues := map[string]any{testPollIntervalKeyConstant: testNegativePollIntervalConstant}

	loadedConfiguration := map[string]any{}
	_, loadError := configurationLoader.LoadConfiguration("", defaultValues, &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Contains(testInstance, loadedConfiguration, testMonitorSectionKeyConstant)
}
