package validator

import (
	"fmt"

	"profile-server/internal/domains/profile/model"
)

// CheckRules runs the document-level rules a schema cannot express:
// component IRIs are unique, pattern members point at templates or
// patterns, and primary patterns are never used as members.
func CheckRules(doc *model.Document) []model.FieldError {
	var errs []model.FieldError

	kinds := make(map[string]model.ComponentType)
	claim := func(field, id string, t model.ComponentType) {
		if id == "" {
			return
		}
		if _, dup := kinds[id]; dup {
			errs = append(errs, model.FieldError{Field: field, Message: fmt.Sprintf("%s is used by more than one component", id)})
			return
		}
		kinds[id] = t
	}
	for i, c := range doc.Concepts {
		claim(fmt.Sprintf("concepts.%d.id", i), c.ID, model.ComponentConcept)
	}
	for i, t := range doc.Templates {
		claim(fmt.Sprintf("templates.%d.id", i), t.ID, model.ComponentTemplate)
	}
	primary := make(map[string]bool)
	for i, p := range doc.Patterns {
		claim(fmt.Sprintf("patterns.%d.id", i), p.ID, model.ComponentPattern)
		if p.Primary {
			primary[p.ID] = true
		}
	}

	for i, p := range doc.Patterns {
		_, members := p.Operator()
		field := fmt.Sprintf("patterns.%d", i)
		for _, member := range members {
			if member == p.ID {
				errs = append(errs, model.FieldError{Field: field, Message: "a pattern cannot contain itself"})
				continue
			}
			if primary[member] {
				errs = append(errs, model.FieldError{
					Field:   field,
					Message: fmt.Sprintf("%s is a primary pattern and cannot be a member of another pattern", member),
				})
			}
			if kinds[member] == model.ComponentConcept {
				errs = append(errs, model.FieldError{
					Field:   field,
					Message: fmt.Sprintf("%s is a concept; pattern members must be templates or patterns", member),
				})
			}
		}
	}
	return errs
}
