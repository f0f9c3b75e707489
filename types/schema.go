package types

import (
	"encoding/json"
	"fmt"
)

// SchemaType represents JSON Schema types.
type SchemaType string

const (
	SchemaTypeString  SchemaType = "string"
	SchemaTypeNumber  SchemaType = "number"
	SchemaTypeInteger SchemaType = "integer"
	SchemaTypeBoolean SchemaType = "boolean"
	SchemaTypeObject  SchemaType = "object"
	SchemaTypeArray   SchemaType = "array"
)

// JSONSchema represents a JSON Schema definition for tool parameters.
type JSONSchema struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	Type SchemaType `json:"type,omitempty"`

	// Object properties
	Properties map[string]*JSONSchema `json:"properties,omitempty"`
	Required   []string               `json:"required,omitempty"`

	// Array items
	Items *JSONSchema `json:"items,omitempty"`

	// Enum values
	Enum []any `json:"enum,omitempty"`

	// Default value
	Default any `json:"default,omitempty"`
}

// NewObjectSchema creates a new object schema.
func NewObjectSchema() *JSONSchema {
	return &JSONSchema{
		Type:       SchemaTypeObject,
		Properties: make(map[string]*JSONSchema),
	}
}

// NewStringSchema creates a new string schema.
func NewStringSchema() *JSONSchema {
	return &JSONSchema{Type: SchemaTypeString}
}

// NewIntegerSchema creates a new integer schema.
func NewIntegerSchema() *JSONSchema {
	return &JSONSchema{Type: SchemaTypeInteger}
}

// NewBooleanSchema creates a new boolean schema.
func NewBooleanSchema() *JSONSchema {
	return &JSONSchema{Type: SchemaTypeBoolean}
}

// NewEnumSchema creates a string schema restricted to the given values.
func NewEnumSchema(values ...any) *JSONSchema {
	return &JSONSchema{Type: SchemaTypeString, Enum: values}
}

// AddProperty adds a property to an object schema.
func (s *JSONSchema) AddProperty(name string, prop *JSONSchema) *JSONSchema {
	if s.Properties == nil {
		s.Properties = make(map[string]*JSONSchema)
	}
	s.Properties[name] = prop
	return s
}

// AddRequired adds required field names.
func (s *JSONSchema) AddRequired(names ...string) *JSONSchema {
	s.Required = append(s.Required, names...)
	return s
}

// WithDescription sets the description.
func (s *JSONSchema) WithDescription(desc string) *JSONSchema {
	s.Description = desc
	return s
}

// ToJSON serializes the schema to JSON.
func (s *JSONSchema) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}

// MustJSON serializes the schema, panicking on failure. Intended for static
// tool schema declarations at registration time.
func (s *JSONSchema) MustJSON() json.RawMessage {
	data, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("marshal schema: %v", err))
	}
	return data
}

// SchemaFromJSON deserializes a schema from JSON.
func SchemaFromJSON(data []byte) (*JSONSchema, error) {
	var schema JSONSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON schema: %w", err)
	}
	return &schema, nil
}

// Validate checks an arguments object against an object schema: every
// required field must be present and every present field must match its
// declared type. Unknown fields are tolerated so that over-eager models do
// not dead-end the loop.
func (s *JSONSchema) Validate(args json.RawMessage) error {
	if s.Type != SchemaTypeObject && s.Type != "" {
		return fmt.Errorf("schema root must be an object, got %q", s.Type)
	}

	values := map[string]any{}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &values); err != nil {
			return fmt.Errorf("arguments are not a JSON object: %w", err)
		}
	}

	for _, name := range s.Required {
		if _, ok := values[name]; !ok {
			return fmt.Errorf("missing required argument %q", name)
		}
	}

	for name, value := range values {
		prop, ok := s.Properties[name]
		if !ok {
			continue
		}
		if err := prop.validateValue(name, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *JSONSchema) validateValue(name string, value any) error {
	if value == nil {
		return fmt.Errorf("argument %q must not be null", name)
	}

	switch s.Type {
	case SchemaTypeString:
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("argument %q must be a string, got %T", name, value)
		}
		if len(s.Enum) > 0 && !enumContains(s.Enum, str) {
			return fmt.Errorf("argument %q must be one of %v, got %q", name, s.Enum, str)
		}
	case SchemaTypeNumber:
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("argument %q must be a number, got %T", name, value)
		}
	case SchemaTypeInteger:
		f, ok := value.(float64)
		if !ok || f != float64(int64(f)) {
			return fmt.Errorf("argument %q must be an integer, got %v", name, value)
		}
	case SchemaTypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("argument %q must be a boolean, got %T", name, value)
		}
	case SchemaTypeArray:
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("argument %q must be an array, got %T", name, value)
		}
		if s.Items != nil {
			for i, item := range items {
				if err := s.Items.validateValue(fmt.Sprintf("%s[%d]", name, i), item); err != nil {
					return err
				}
			}
		}
	case SchemaTypeObject:
		if _, ok := value.(map[string]any); !ok {
			return fmt.Errorf("argument %q must be an object, got %T", name, value)
		}
	}
	return nil
}

func enumContains(enum []any, value string) bool {
	for _, e := range enum {
		if s, ok := e.(string); ok && s == value {
			return true
		}
	}
	return false
}
