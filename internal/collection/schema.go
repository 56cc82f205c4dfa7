package collection

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/aalifyx/internal/apperr"
)

// Reserved field names set by the store, never by callers.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
)

// Field describes one named value of a record.
type Field struct {
	Name     string   `json:"name"`
	Required bool     `json:"required,omitempty"`
	Mutable  bool     `json:"mutable,omitempty"`
	Default  string   `json:"default,omitempty"`
	Allowed  []string `json:"allowed,omitempty"`
}

// Schema is the ordered field list of one kind.
type Schema struct {
	Kind   Kind    `json:"kind"`
	Fields []Field `json:"fields"`
}

var (
	priorities = []string{"low", "medium", "high"}

	schemas = map[Kind]Schema{
		Flashcards: {Kind: Flashcards, Fields: []Field{
			{Name: "front", Required: true},
			{Name: "back", Required: true},
		}},
		Goals: {Kind: Goals, Fields: []Field{
			{Name: "title", Required: true},
			{Name: "type", Required: true},
			{Name: "description"},
			{Name: "deadline"},
			{Name: "status", Mutable: true, Default: "pending",
				Allowed: []string{"pending", "in_progress", "completed"}},
		}},
		Schedule: {Kind: Schedule, Fields: []Field{
			{Name: "title", Required: true},
			{Name: "day", Required: true},
			{Name: "time", Required: true},
			{Name: "description"},
			{Name: "priority", Allowed: priorities},
		}},
		Tasks: {Kind: Tasks, Fields: []Field{
			{Name: "day", Required: true},
			{Name: "time", Required: true},
			{Name: "description", Required: true},
			{Name: "priority", Default: "medium", Allowed: priorities},
			{Name: "status", Mutable: true, Default: "pending",
				Allowed: []string{"pending", "done"}},
		}},
	}
)

// SchemaFor returns the schema of kind.
func SchemaFor(kind Kind) (Schema, error) {
	s, ok := schemas[kind]
	if !ok {
		return Schema{}, apperr.ErrUnknownCollection
	}
	return s, nil
}

// Schemas returns every schema in Kinds order.
func Schemas() []Schema {
	out := make([]Schema, 0, len(schemas))
	for _, k := range Kinds() {
		out = append(out, schemas[k])
	}
	return out
}

// Mutable reports whether any field of the schema can be updated.
func (s Schema) Mutable() bool {
	for _, f := range s.Fields {
		if f.Mutable {
			return true
		}
	}
	return false
}

func (f Field) rules() []validation.Rule {
	var rules []validation.Rule
	if f.Required {
		rules = append(rules, validation.Required)
	}
	if len(f.Allowed) > 0 {
		allowed := make([]any, len(f.Allowed))
		for i, v := range f.Allowed {
			allowed[i] = v
		}
		rules = append(rules, validation.In(allowed...).Error("must be one of: "+strings.Join(f.Allowed, ", ")))
	}
	return rules
}

// build drops unknown and reserved names, applies defaults, and validates
// every field. Values are checked with surrounding whitespace removed but
// stored as submitted. The returned map holds only non-blank values.
func (s Schema) build(input map[string]string) (map[string]string, error) {
	fields := make(map[string]string, len(s.Fields))
	errs := validation.Errors{}
	for _, f := range s.Fields {
		v := input[f.Name]
		if strings.TrimSpace(v) == "" {
			v = f.Default
		}
		if err := validation.Validate(strings.TrimSpace(v), f.rules()...); err != nil {
			errs[f.Name] = err
			continue
		}
		if strings.TrimSpace(v) != "" {
			fields[f.Name] = v
		}
	}
	if err := asValidationError(errs); err != nil {
		return nil, err
	}
	return fields, nil
}

// patch validates the mutable subset of updates. Mutable fields present in
// updates must be non-blank and allowed; values are stored as submitted.
func (s Schema) patch(updates map[string]string) (map[string]string, error) {
	changes := make(map[string]string)
	errs := validation.Errors{}
	for _, f := range s.Fields {
		if !f.Mutable {
			continue
		}
		raw, ok := updates[f.Name]
		if !ok {
			continue
		}
		rules := append([]validation.Rule{validation.Required}, f.rules()...)
		if err := validation.Validate(strings.TrimSpace(raw), rules...); err != nil {
			errs[f.Name] = err
			continue
		}
		changes[f.Name] = raw
	}
	if err := asValidationError(errs); err != nil {
		return nil, err
	}
	return changes, nil
}

func asValidationError(errs validation.Errors) error {
	if len(errs) == 0 {
		return nil
	}
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)
	return apperr.NewValidationError(errors.New(errs.Error()), names...)
}
