package schema

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

type posting struct {
	JobTitle    string `json:"jobTitle" description:"The job title"`
	CompanyName string `json:"companyName" description:"The hiring company"`
	Summary     string `json:"summary,omitempty"`
}

type letter struct {
	Body  string `json:"body" validate:"required"`
	Words int    `json:"words" validate:"min=1"`
}

type nested struct {
	Title    string   `json:"title"`
	Tags     []string `json:"tags"`
	Location struct {
		City string `json:"city"`
	} `json:"location"`
	Note *string `json:"note"`
}

func TestNewSchema_Fields(t *testing.T) {
	s, err := NewSchema[posting](WithDescription("A job posting"))
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}

	if s.Name != "posting" {
		t.Errorf("Name = %q, want posting", s.Name)
	}
	if s.Description != "A job posting" {
		t.Errorf("Description = %q", s.Description)
	}

	want := []Field{
		{Name: "jobTitle", Type: TypeString, Description: "The job title", Required: true},
		{Name: "companyName", Type: TypeString, Description: "The hiring company", Required: true},
		{Name: "summary", Type: TypeString},
	}
	if !reflect.DeepEqual(s.Fields, want) {
		t.Errorf("Fields = %+v, want %+v", s.Fields, want)
	}
}

func TestNewSchema_NestedAndOptional(t *testing.T) {
	s, err := NewSchema[nested](WithName("Nested"))
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}
	if s.Name != "Nested" {
		t.Errorf("Name = %q, want Nested", s.Name)
	}
	if len(s.Fields) != 4 {
		t.Fatalf("len(Fields) = %d, want 4", len(s.Fields))
	}
	if s.Fields[1].Type != TypeArray || s.Fields[1].Items == nil || s.Fields[1].Items.Type != TypeString {
		t.Errorf("tags field = %+v, want array of string", s.Fields[1])
	}
	if s.Fields[2].Type != TypeObject || len(s.Fields[2].Properties) != 1 {
		t.Errorf("location field = %+v, want object with one property", s.Fields[2])
	}
	if s.Fields[3].Required {
		t.Error("pointer field should not be required")
	}
}

func TestNewSchema_RejectsNonStruct(t *testing.T) {
	if _, err := NewSchema[string](); err == nil {
		t.Error("NewSchema[string]() should fail")
	}
	if _, err := NewSchema[map[string]any](); err == nil {
		t.Error("NewSchema[map]() should fail")
	}
}

func TestDecode(t *testing.T) {
	s := MustSchema[posting]()

	tests := []struct {
		name    string
		input   string
		want    posting
		wantErr string
	}{
		{
			name:  "valid",
			input: `{"jobTitle":"Backend Engineer","companyName":"Acme"}`,
			want:  posting{JobTitle: "Backend Engineer", CompanyName: "Acme"},
		},
		{
			name:  "empty strings are valid",
			input: `{"jobTitle":"","companyName":"","summary":""}`,
			want:  posting{},
		},
		{
			name:  "extra keys ignored",
			input: `{"jobTitle":"SRE","companyName":"Initech","salary":"lots"}`,
			want:  posting{JobTitle: "SRE", CompanyName: "Initech"},
		},
		{
			name:    "missing required key",
			input:   `{"jobTitle":"SRE"}`,
			wantErr: "companyName: required field is missing",
		},
		{
			name:    "wrong type",
			input:   `{"jobTitle":42,"companyName":"Acme"}`,
			wantErr: "jobTitle: expected string, got float64",
		},
		{
			name:    "null required value",
			input:   `{"jobTitle":null,"companyName":"Acme"}`,
			wantErr: "jobTitle: value is null but field is required",
		},
		{
			name:    "not json",
			input:   `Sure! Here is the job.`,
			wantErr: "response does not match schema",
		},
		{
			name:    "json array",
			input:   `["jobTitle"]`,
			wantErr: "response does not match schema",
		},
		{
			name:    "json null",
			input:   `null`,
			wantErr: "expected a JSON object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode[posting](s, []byte(tt.input))
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("Decode() = %+v, want error", got)
				}
				if !errors.Is(err, ErrInvalid) {
					t.Errorf("error %v should match ErrInvalid", err)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Decode() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecode_RunsValidateTags(t *testing.T) {
	s := MustSchema[letter]()

	_, err := Decode[letter](s, []byte(`{"body":"","words":0}`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("error should be ValidationErrors, got %T", err)
	}
	if len(verrs) != 2 {
		t.Fatalf("len(errors) = %d, want 2: %v", len(verrs), verrs)
	}
	if verrs[0].Field != "Body" || verrs[0].Message != "is required" {
		t.Errorf("first error = %+v", verrs[0])
	}
	if verrs[1].Field != "Words" || verrs[1].Message != "must be at least 1" {
		t.Errorf("second error = %+v", verrs[1])
	}

	got, err := Decode[letter](s, []byte(`{"body":"Dear team","words":2}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Body != "Dear team" || got.Words != 2 {
		t.Errorf("Decode() = %+v", got)
	}
}

func TestToJSONSchema(t *testing.T) {
	s := MustSchema[posting](WithDescription("A job posting"))
	js := s.ToJSONSchema()

	if js["type"] != "object" {
		t.Errorf("type = %v, want object", js["type"])
	}
	if js["additionalProperties"] != false {
		t.Error("additionalProperties should be false")
	}
	if js["description"] != "A job posting" {
		t.Errorf("description = %v", js["description"])
	}

	required, ok := js["required"].([]string)
	if !ok || !reflect.DeepEqual(required, []string{"jobTitle", "companyName"}) {
		t.Errorf("required = %v", js["required"])
	}

	props := js["properties"].(map[string]any)
	title := props["jobTitle"].(map[string]any)
	if title["type"] != "string" || title["description"] != "The job title" {
		t.Errorf("jobTitle schema = %v", title)
	}
}

func TestToJSONSchema_Nested(t *testing.T) {
	js := MustSchema[nested]().ToJSONSchema()
	props := js["properties"].(map[string]any)

	tags := props["tags"].(map[string]any)
	if items := tags["items"].(map[string]any); items["type"] != "string" {
		t.Errorf("tags.items = %v", items)
	}

	loc := props["location"].(map[string]any)
	if loc["type"] != "object" || loc["additionalProperties"] != false {
		t.Errorf("location = %v", loc)
	}
}

func TestProperties(t *testing.T) {
	props, req := MustSchema[posting]().Properties()
	if len(props) != 3 {
		t.Errorf("len(props) = %d, want 3", len(props))
	}
	if !reflect.DeepEqual(req, []string{"jobTitle", "companyName"}) {
		t.Errorf("required = %v", req)
	}
}

func TestToPromptDescription(t *testing.T) {
	desc := MustSchema[posting](WithDescription("A job posting")).ToPromptDescription()

	for _, want := range []string{
		"A job posting",
		"- jobTitle (string, required): The job title",
		"- companyName (string, required): The hiring company",
		"- summary (string)\n",
	} {
		if !strings.Contains(desc, want) {
			t.Errorf("description missing %q:\n%s", want, desc)
		}
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "a", Message: "is required"},
		{Field: "b", Message: "expected string, got bool"},
	}
	if got := errs.Error(); got != "a: is required; b: expected string, got bool" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(errs, ErrInvalid) {
		t.Error("ValidationErrors should match ErrInvalid")
	}
}
