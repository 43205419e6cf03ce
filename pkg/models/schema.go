package models

// ConfigFieldType describes how the authoring UI should render a
// configuration field.
type ConfigFieldType string

const (
	ConfigFieldString   ConfigFieldType = "string"
	ConfigFieldSelect   ConfigFieldType = "select"
	ConfigFieldTextarea ConfigFieldType = "textarea"
)

// ConfigField is one entry of a trigger or action configuration schema.
type ConfigField struct {
	Type     ConfigFieldType `json:"type"`
	Required bool            `json:"required"`
	Options  []string        `json:"options,omitempty"`
	Help     string          `json:"help,omitempty"`
}

// TriggerDescriptor is the registry's metadata for one trigger type.
type TriggerDescriptor struct {
	Type         TriggerType            `json:"type"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description"`
	ConfigSchema map[string]ConfigField `json:"config_schema,omitempty"`
}

// ActionDescriptor is the registry's metadata for one action type.
type ActionDescriptor struct {
	Type         string                 `json:"type"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description"`
	ConfigSchema map[string]ConfigField `json:"config_schema,omitempty"`
}

// FieldError reports one missing or invalid configuration field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
