package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	mapstructure "github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/temirov/sfdxwatch/internal/notifications"
)

const (
	commandNameValidationTagConstant    = "command_name"
	catalogReadErrorTemplateConstant    = "failed to read catalog %s: %w"
	catalogParseErrorTemplateConstant   = "failed to parse catalog %s: %w"
	catalogDecodeErrorTemplateConstant  = "failed to decode catalog %s: %w"
	catalogInvalidErrorTemplateConstant = "invalid catalog %s: %w"
	duplicateCommandTemplateConstant    = "%w: %s"
	embeddedCatalogSourceConstant       = "embedded catalog"
)

//go:embed default_catalog.yaml
var embeddedCatalog []byte

var commandNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// EmbeddedCatalog returns a copy of the catalog shipped with the binary.
func EmbeddedCatalog() []byte {
	duplicated := make([]byte, len(embeddedCatalog))
	copy(duplicated, embeddedCatalog)
	return duplicated
}

type catalogDocument struct {
	Commands []Definition `mapstructure:"commands" validate:"dive"`
}

// Catalog is an immutable set of definitions keyed by name.
type Catalog struct {
	definitions map[string]Definition
}

// Default parses the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(embeddedCatalogSourceConstant, embeddedCatalog)
}

// Load returns the embedded catalog overlaid with the definitions in overridePath.
// Definitions from the file replace embedded ones with the same name. An empty
// path yields the embedded catalog.
func Load(overridePath string) (*Catalog, error) {
	baseCatalog, defaultError := Default()
	if defaultError != nil {
		return nil, defaultError
	}

	trimmedPath := strings.TrimSpace(overridePath)
	if len(trimmedPath) == 0 {
		return baseCatalog, nil
	}

	overrideData, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return nil, fmt.Errorf(catalogReadErrorTemplateConstant, trimmedPath, readError)
	}

	overrideCatalog, parseError := Parse(trimmedPath, overrideData)
	if parseError != nil {
		return nil, parseError
	}

	return baseCatalog.Merge(overrideCatalog), nil
}

// Parse decodes and validates catalog YAML. The source names the data in errors.
func Parse(source string, data []byte) (*Catalog, error) {
	rawDocument := map[string]any{}
	if unmarshalError := yaml.Unmarshal(data, &rawDocument); unmarshalError != nil {
		return nil, fmt.Errorf(catalogParseErrorTemplateConstant, source, unmarshalError)
	}

	var document catalogDocument
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			matchModeDecodeHook,
		),
		ErrorUnused: true,
		Result:      &document,
	})
	if decoderError != nil {
		return nil, fmt.Errorf(catalogDecodeErrorTemplateConstant, source, decoderError)
	}
	if decodeError := decoder.Decode(rawDocument); decodeError != nil {
		return nil, fmt.Errorf(catalogDecodeErrorTemplateConstant, source, decodeError)
	}

	if validationError := newDefinitionValidator().Struct(document); validationError != nil {
		return nil, fmt.Errorf(catalogInvalidErrorTemplateConstant, source, validationError)
	}

	definitions := make(map[string]Definition, len(document.Commands))
	for _, definition := range document.Commands {
		if _, exists := definitions[definition.Name]; exists {
			return nil, fmt.Errorf(catalogInvalidErrorTemplateConstant, source, fmt.Errorf(duplicateCommandTemplateConstant, ErrDuplicateCommand, definition.Name))
		}
		if placeholderError := checkPlaceholders(definition); placeholderError != nil {
			return nil, fmt.Errorf(catalogInvalidErrorTemplateConstant, source, placeholderError)
		}
		definitions[definition.Name] = definition.normalize()
	}

	return &Catalog{definitions: definitions}, nil
}

func newDefinitionValidator() *validator.Validate {
	definitionValidator := validator.New()
	_ = definitionValidator.RegisterValidation(commandNameValidationTagConstant, func(fieldLevel validator.FieldLevel) bool {
		return commandNamePattern.MatchString(fieldLevel.Field().String())
	})
	return definitionValidator
}

func checkPlaceholders(definition Definition) error {
	declared := make(map[string]struct{}, len(definition.Parameters))
	for _, parameterName := range definition.Parameters {
		declared[parameterName] = struct{}{}
	}
	for _, placeholderName := range definition.placeholders() {
		if _, exists := declared[placeholderName]; !exists {
			return newUndeclaredPlaceholderError(definition.Name, placeholderName)
		}
	}
	return nil
}

func matchModeDecodeHook(sourceType reflect.Type, targetType reflect.Type, data any) (any, error) {
	if targetType != reflect.TypeOf(notifications.MatchMode("")) || sourceType.Kind() != reflect.String {
		return data, nil
	}
	return notifications.ParseMatchMode(data.(string))
}

// Lookup returns the definition registered under name.
func (catalog *Catalog) Lookup(name string) (Definition, error) {
	definition, exists := catalog.definitions[strings.TrimSpace(name)]
	if !exists {
		return Definition{}, newCommandNotFoundError(name)
	}
	return definition, nil
}

// Definitions returns every definition sorted by name.
func (catalog *Catalog) Definitions() []Definition {
	names := make([]string, 0, len(catalog.definitions))
	for name := range catalog.definitions {
		names = append(names, name)
	}
	sort.Strings(names)

	definitions := make([]Definition, 0, len(names))
	for _, name := range names {
		definitions = append(definitions, catalog.definitions[name])
	}
	return definitions
}

// Merge returns a catalog holding both sets, with overrides winning on name clashes.
func (catalog *Catalog) Merge(overrides *Catalog) *Catalog {
	merged := make(map[string]Definition, len(catalog.definitions))
	for name, definition := range catalog.definitions {
		merged[name] = definition
	}
	if overrides != nil {
		for name, definition := range overrides.definitions {
			merged[name] = definition
		}
	}
	return &Catalog{definitions: merged}
}
