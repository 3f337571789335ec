package schema

import (
	"strings"
)

// ToJSONSchema converts the schema to JSON Schema for structured output.
// Objects are closed (additionalProperties false), which strict mode requires.
func (s Schema) ToJSONSchema() map[string]any {
	out := objectSchema(s.Fields)
	if s.Description != "" {
		out["description"] = s.Description
	}
	return out
}

// Properties returns the top-level property map and required names, the
// shape Anthropic tool input schemas take.
func (s Schema) Properties() (map[string]any, []string) {
	js := objectSchema(s.Fields)
	props, _ := js["properties"].(map[string]any)
	req, _ := js["required"].([]string)
	return props, req
}

func objectSchema(fields []Field) map[string]any {
	props := make(map[string]any, len(fields))
	required := make([]string, 0, len(fields))
	for _, f := range fields {
		props[f.Name] = fieldToJSONSchema(f)
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func fieldToJSONSchema(f Field) map[string]any {
	if f.Type == TypeObject && len(f.Properties) > 0 {
		out := objectSchema(f.Properties)
		if f.Description != "" {
			out["description"] = f.Description
		}
		return out
	}

	out := map[string]any{"type": string(f.Type)}
	if f.Description != "" {
		out["description"] = f.Description
	}
	if f.Type == TypeArray && f.Items != nil {
		out["items"] = fieldToJSONSchema(*f.Items)
	}
	return out
}

// ToPromptDescription lists the fields for inclusion in a prompt.
func (s Schema) ToPromptDescription() string {
	var sb strings.Builder

	if s.Description != "" {
		sb.WriteString(s.Description)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Respond with a JSON object containing these keys:\n")
	for _, f := range s.Fields {
		writeFieldDescription(&sb, f, 0)
	}
	return sb.String()
}

func writeFieldDescription(sb *strings.Builder, f Field, indent int) {
	sb.WriteString(strings.Repeat("  ", indent))
	sb.WriteString("- ")
	sb.WriteString(f.Name)
	sb.WriteString(" (")
	sb.WriteString(string(f.Type))
	if f.Required {
		sb.WriteString(", required")
	}
	sb.WriteString(")")
	if f.Description != "" {
		sb.WriteString(": ")
		sb.WriteString(f.Description)
	}
	sb.WriteString("\n")

	for _, p := range f.Properties {
		writeFieldDescription(sb, p, indent+1)
	}
}
