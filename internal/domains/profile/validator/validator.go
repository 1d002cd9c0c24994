// Package validator checks xAPI profile documents against the layered
// profile schema and the pattern business rules.
package validator

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"profile-server/internal/domains/profile/iri"
	"profile-server/internal/domains/profile/model"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	schemaProfile   = "profile.json"
	schemaConcept   = "concept.json"
	schemaExtension = "extension.json"
	schemaDocument  = "document.json"
	schemaActivity  = "activity.json"
	schemaTemplate  = "template.json"
	schemaPattern   = "pattern.json"
	schemaCommon    = "common.json"

	oneOfErrorType = "number_one_of"
	rootField      = "(root)"
)

var allSchemas = []string{
	schemaCommon, schemaConcept, schemaExtension, schemaDocument,
	schemaActivity, schemaTemplate, schemaPattern, schemaProfile,
}

// Result is the outcome of a validation run
type Result struct {
	Valid  bool               `json:"valid"`
	Errors []model.FieldError `json:"errors,omitempty"`
}

// Validator holds the compiled schema set. It is safe for concurrent use.
type Validator struct {
	profile *gojsonschema.Schema
	// narrower schemas used to explain oneOf failures, keyed by category
	narrow map[model.ConceptCategory]*gojsonschema.Schema
}

// New compiles the embedded schemas. Call once at startup.
func New() (*Validator, error) {
	gojsonschema.FormatCheckers.Add("iri", iriFormatChecker{})

	sources := make(map[string][]byte, len(allSchemas))
	for _, name := range allSchemas {
		raw, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		sources[name] = raw
	}

	compile := func(root string) (*gojsonschema.Schema, error) {
		sl := gojsonschema.NewSchemaLoader()
		sl.Draft = gojsonschema.Draft7
		sl.AutoDetect = false
		for _, name := range allSchemas {
			if name == root {
				continue
			}
			if err := sl.AddSchemas(gojsonschema.NewBytesLoader(sources[name])); err != nil {
				return nil, fmt.Errorf("add schema %s: %w", name, err)
			}
		}
		schema, err := sl.Compile(gojsonschema.NewBytesLoader(sources[root]))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", root, err)
		}
		return schema, nil
	}

	v := &Validator{narrow: make(map[model.ConceptCategory]*gojsonschema.Schema)}

	var err error
	if v.profile, err = compile(schemaProfile); err != nil {
		return nil, err
	}
	narrow := map[model.ConceptCategory]string{
		model.CategorySemantic:  schemaConcept,
		model.CategoryExtension: schemaExtension,
		model.CategoryDocument:  schemaDocument,
		model.CategoryActivity:  schemaActivity,
	}
	for category, name := range narrow {
		if v.narrow[category], err = compile(name); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Validate checks a raw JSON-LD profile document
func (v *Validator) Validate(raw []byte) Result {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Result{Errors: []model.FieldError{{Message: fmt.Sprintf("document is not valid JSON: %v", err)}}}
	}
	return v.ValidateValue(doc)
}

// ValidateValue checks an already decoded document (maps, slices, scalars)
func (v *Validator) ValidateValue(doc interface{}) Result {
	report := newReport()

	schemaResult, err := v.profile.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		report.add(model.FieldError{Message: fmt.Sprintf("document could not be validated: %v", err)})
		return report.result()
	}

	for _, resultErr := range schemaResult.Errors() {
		report.add(toFieldError("", resultErr))
	}

	// A failed oneOf only says "no branch matched". Re-validate the instance
	// against the schema its type asks for to get errors that name the field.
	for _, resultErr := range schemaResult.Errors() {
		if resultErr.Type() != oneOfErrorType {
			continue
		}
		for _, fe := range v.explainOneOf(resultErr) {
			report.add(fe)
		}
	}

	if parsed, ok := decodeDocument(doc); ok {
		for _, fe := range CheckRules(parsed) {
			report.add(fe)
		}
	}

	return report.result()
}

func (v *Validator) explainOneOf(resultErr gojsonschema.ResultError) []model.FieldError {
	instance, ok := resultErr.Value().(map[string]interface{})
	if !ok {
		return nil
	}
	kind, _ := instance["type"].(string)
	schema, ok := v.narrow[model.ConceptKind(kind).Category()]
	if !ok {
		return []model.FieldError{{
			Field:   normalizeField(resultErr.Field()),
			Message: fmt.Sprintf("unknown concept type %q", kind),
		}}
	}

	secondary, err := schema.Validate(gojsonschema.NewGoLoader(instance))
	if err != nil || secondary.Valid() {
		return nil
	}
	prefix := normalizeField(resultErr.Field())
	out := make([]model.FieldError, 0, len(secondary.Errors()))
	for _, e := range secondary.Errors() {
		out = append(out, toFieldError(prefix, e))
	}
	return out
}

func toFieldError(prefix string, e gojsonschema.ResultError) model.FieldError {
	field := normalizeField(e.Field())
	switch {
	case prefix == "":
	case field == "":
		field = prefix
	default:
		field = prefix + "." + field
	}
	return model.FieldError{Field: field, Message: e.Description()}
}

func normalizeField(field string) string {
	if field == rootField {
		return ""
	}
	return strings.TrimPrefix(field, rootField+".")
}

func decodeDocument(doc interface{}) (*model.Document, bool) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, false
	}
	var parsed model.Document
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, false
	}
	return &parsed, true
}

// report collects errors once each, in the order they were found
type report struct {
	seen   map[model.FieldError]struct{}
	errors []model.FieldError
}

func newReport() *report {
	return &report{seen: make(map[model.FieldError]struct{})}
}

func (r *report) add(fe model.FieldError) {
	if _, ok := r.seen[fe]; ok {
		return
	}
	r.seen[fe] = struct{}{}
	r.errors = append(r.errors, fe)
}

func (r *report) result() Result {
	return Result{Valid: len(r.errors) == 0, Errors: r.errors}
}

type iriFormatChecker struct{}

func (iriFormatChecker) IsFormat(input interface{}) bool {
	s, ok := input.(string)
	if !ok {
		return true
	}
	return iri.IsValidIRI(s)
}
