package docs_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/sfdxwatch/internal/catalog"
)

const (
	readmeFileNameConstant = "README.md"
	yamlFenceStartConstant           = "```yaml"
	yamlFenceEndConstant             = "```"
	configHeaderMarkerConstant       = "# config.yaml"
	catalogHeaderMarkerConstant      = "# catalog.yaml"
	readmeCatalogFileNameConstant    = "catalog.yaml"
	parentDirectoryReferenceConstant = ".."
	missingHeaderMessageConstant     = "README example missing header marker %s"
	missingStartFenceMessageConstant = "README example missing yaml fence start"
	missingEndFenceMessageConstant   = "README example missing yaml fence end"
)

var expectedReadmeCatalogCommands = []string{"org-open", "apex-test-class"}

type readmeApplicationConfiguration struct {
	Common struct {
		LogLevel  string `yaml:"log_level"`
		LogFormat string `yaml:"log_format"`
	} `yaml:"common"`
	Monitor struct {
		PollInterval        string `yaml:"poll_interval"`
		DisplayDuration     string `yaml:"display_duration"`
		CompletionTimeout   string `yaml:"completion_timeout"`
		ConfirmationTimeout string `yaml:"confirmation_timeout"`
	} `yaml:"monitor"`
	Telemetry struct {
		Enabled      bool   `yaml:"enabled"`
		DatabasePath string `yaml:"database_path"`
		QueueSize    int    `yaml:"queue_size"`
	} `yaml:"telemetry"`
	Catalog struct {
		Path string `yaml:"path"`
	} `yaml:"catalog"`
	CLI struct {
		Program string `yaml:"program"`
	} `yaml:"cli"`
}

func TestReadmeConfigurationUsesKnownKeys(testInstance *testing.T) {
	snippetContent := readmeSnippet(testInstance, configHeaderMarkerConstant)

	decoder := yaml.NewDecoder(bytes.NewReader([]byte(snippetContent)))
	decoder.KnownFields(true)

	var applicationConfiguration readmeApplicationConfiguration
	require.NoError(testInstance, decoder.Decode(&applicationConfiguration))
	require.True(testInstance, applicationConfiguration.Telemetry.Enabled)
	require.NotEmpty(testInstance, applicationConfiguration.Monitor.PollInterval)
}

func TestReadmeCatalogExampleLoads(testInstance *testing.T) {
	snippetContent := readmeSnippet(testInstance, catalogHeaderMarkerConstant)

	catalogPath := filepath.Join(testInstance.TempDir(), readmeCatalogFileNameConstant)
	require.NoError(testInstance, os.WriteFile(catalogPath, []byte(snippetContent), 0o600))

	loadedCatalog, loadError := catalog.Load(catalogPath)
	require.NoError(testInstance, loadError)

	for _, commandName := range expectedReadmeCatalogCommands {
		_, lookupError := loadedCatalog.Lookup(commandName)
		require.NoError(testInstance, lookupError)
	}
}

func readmeSnippet(testInstance *testing.T, headerMarker string) string {
	testInstance.Helper()

	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	readmePath := filepath.Join(workingDirectory, parentDirectoryReferenceConstant, readmeFileNameConstant)
	contentBytes, readError := os.ReadFile(readmePath)
	require.NoError(testInstance, readError)

	contentText := string(contentBytes)
	headerIndex := strings.Index(contentText, headerMarker)
	require.NotEqualf(testInstance, -1, headerIndex, missingHeaderMessageConstant, headerMarker)

	fenceStartIndex := strings.LastIndex(contentText[:headerIndex], yamlFenceStartConstant)
	require.NotEqual(testInstance, -1, fenceStartIndex, missingStartFenceMessageConstant)

	remainingText := contentText[headerIndex:]
	fenceEndRelativeIndex := strings.Index(remainingText, yamlFenceEndConstant)
	require.NotEqual(testInstance, -1, fenceEndRelativeIndex, missingEndFenceMessageConstant)
	fenceEndIndex := headerIndex + fenceEndRelativeIndex

	return strings.TrimSpace(contentText[fenceStartIndex+len(yamlFenceStartConstant) : fenceEndIndex])
}
