package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Schema defines the structure requested from a model.
type Schema struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []Field `json:"fields" yaml:"fields"`

	target   reflect.Type
	validate *validator.Validate
}

// SchemaOption configures schema creation.
type SchemaOption func(*schemaBuilder)

type schemaBuilder struct {
	name        string
	description string
}

// WithDescription sets the schema description shown to the model.
func WithDescription(desc string) SchemaOption {
	return func(b *schemaBuilder) {
		b.description = desc
	}
}

// WithName overrides the schema name (defaults to the Go type name).
func WithName(name string) SchemaOption {
	return func(b *schemaBuilder) {
		b.name = name
	}
}

// NewSchema creates a Schema from a struct type using reflection.
// Field names come from json tags, descriptions from description tags, and
// fields without omitempty are required.
func NewSchema[T any](opts ...SchemaOption) (Schema, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return Schema{}, fmt.Errorf("schema must be created from a struct type, got nil")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return Schema{}, fmt.Errorf("schema must be created from a struct type, got %v", t.Kind())
	}

	builder := &schemaBuilder{name: t.Name()}
	for _, opt := range opts {
		opt(builder)
	}

	fields, err := extractFields(t)
	if err != nil {
		return Schema{}, err
	}

	return Schema{
		Name:        builder.name,
		Description: builder.description,
		Fields:      fields,
		target:      t,
		validate:    validator.New(),
	}, nil
}

// MustSchema is NewSchema for package-level schema variables.
func MustSchema[T any](opts ...SchemaOption) Schema {
	s, err := NewSchema[T](opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func extractFields(t reflect.Type) ([]Field, error) {
	fields := make([]Field, 0, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Tag.Get("json") == "-" {
			continue
		}

		field, err := fieldFromType(sf.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", sf.Name, err)
		}
		field.Name = jsonName(sf)
		field.Description = sf.Tag.Get("description")
		field.Required = sf.Type.Kind() != reflect.Ptr && !strings.Contains(sf.Tag.Get("json"), "omitempty")
		if v := sf.Tag.Get("validate"); v != "" {
			field.Validators = strings.Split(v, ",")
		}

		fields = append(fields, field)
	}

	return fields, nil
}

func fieldFromType(t reflect.Type) (Field, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	var field Field
	switch t.Kind() {
	case reflect.String:
		field.Type = TypeString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		field.Type = TypeInteger
	case reflect.Float32, reflect.Float64:
		field.Type = TypeNumber
	case reflect.Bool:
		field.Type = TypeBoolean
	case reflect.Slice:
		field.Type = TypeArray
		item, err := fieldFromType(t.Elem())
		if err != nil {
			return Field{}, err
		}
		field.Items = &item
	case reflect.Struct:
		field.Type = TypeObject
		props, err := extractFields(t)
		if err != nil {
			return Field{}, err
		}
		field.Properties = props
	default:
		return Field{}, fmt.Errorf("unsupported type: %v", t.Kind())
	}
	return field, nil
}

func jsonName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" {
		return sf.Name
	}
	return name
}

// Decode checks a model response against s and decodes it into T.
// The document must be a JSON object holding every required field with the
// declared type; unknown keys are ignored. Errors wrap ErrInvalid.
func Decode[T any](s Schema, data []byte) (T, error) {
	var out T

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if doc == nil {
		return out, fmt.Errorf("%w: expected a JSON object", ErrInvalid)
	}
	if errs := s.validateMap(doc); len(errs) > 0 {
		return out, errs
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if errs := s.Validate(&out); len(errs) > 0 {
		return out, errs
	}
	return out, nil
}

// Validate runs the struct's validate tags against data.
func (s Schema) Validate(data any) ValidationErrors {
	if s.validate == nil {
		return nil
	}

	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	err := s.validate.Struct(data)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationErrors{{Field: s.Name, Message: err.Error()}}
	}

	out := make(ValidationErrors, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, ValidationError{
			Field:   e.Field(),
			Message: formatValidationError(e),
			Value:   e.Value(),
		})
	}
	return out
}

func (s Schema) validateMap(data map[string]any) ValidationErrors {
	var errs ValidationErrors

	for _, field := range s.Fields {
		val, exists := data[field.Name]
		if !exists {
			if field.Required {
				errs = append(errs, ValidationError{
					Field:   field.Name,
					Message: "required field is missing",
				})
			}
			continue
		}

		if err := validateFieldType(field, val); err != nil {
			errs = append(errs, ValidationError{
				Field:   field.Name,
				Message: err.Error(),
				Value:   val,
			})
		}
	}

	return errs
}

func validateFieldType(field Field, val any) error {
	if val == nil {
		if field.Required {
			return fmt.Errorf("value is null but field is required")
		}
		return nil
	}

	switch field.Type {
	case TypeString:
		if _, ok := val.(string); !ok {
			return fmt.Errorf("expected string, got %T", val)
		}
	case TypeInteger, TypeNumber:
		// encoding/json decodes every number as float64
		if _, ok := val.(float64); !ok {
			return fmt.Errorf("expected %s, got %T", field.Type, val)
		}
	case TypeBoolean:
		if _, ok := val.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", val)
		}
	case TypeArray:
		arr, ok := val.([]any)
		if !ok {
			return fmt.Errorf("expected array, got %T", val)
		}
		if field.Items != nil {
			for i, item := range arr {
				if err := validateFieldType(*field.Items, item); err != nil {
					return fmt.Errorf("item %d: %w", i, err)
				}
			}
		}
	case TypeObject:
		if _, ok := val.(map[string]any); !ok {
			return fmt.Errorf("expected object, got %T", val)
		}
	}

	return nil
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", e.Param())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}
