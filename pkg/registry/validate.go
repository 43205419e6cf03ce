package registry

import (
	"sort"

	"github.com/dealgrid/dealgrid/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// validateConfig builds a JSON Schema from the descriptor's field schema and
// runs the config through it. Required fields must be present and non-empty;
// unknown keys are ignored for forward compatibility. It never errors: a
// schema that cannot be evaluated surfaces as a single field error.
func validateConfig(schema map[string]models.ConfigField, config map[string]string) []models.FieldError {
	if len(schema) == 0 {
		return nil
	}

	document := map[string]any{}
	for key, value := range config {
		document[key] = value
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schemaDocument(schema)),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return []models.FieldError{{Field: "config", Message: err.Error()}}
	}

	if result.Valid() {
		return nil
	}

	fieldErrors := make([]models.FieldError, 0, len(result.Errors()))

	for _, resultError := range result.Errors() {
		field := resultError.Field()
		if resultError.Type() == "required" {
			if property, ok := resultError.Details()["property"].(string); ok {
				field = property
			}
		}

		fieldErrors = append(fieldErrors, models.FieldError{
			Field:   field,
			Message: resultError.Description(),
		})
	}

	return fieldErrors
}

// schemaDocument converts a descriptor field schema to a JSON Schema
// document. additionalProperties stays open on purpose.
func schemaDocument(schema map[string]models.ConfigField) map[string]any {
	properties := make(map[string]any, len(schema))
	required := make([]string, 0, len(schema))

	for name, field := range schema {
		property := map[string]any{"type": "string"}

		if field.Required {
			property["minLength"] = 1

			required = append(required, name)
		}

		if len(field.Options) > 0 {
			options := make([]any, 0, len(field.Options))
			for _, option := range field.Options {
				options = append(options, option)
			}

			property["enum"] = options
		}

		properties[name] = property
	}

	document := map[string]any{
		"type":       "object",
		"properties": properties,
	}

	if len(required) > 0 {
		sort.Strings(required)
		document["required"] = required
	}

	return document
}
