// Package exporter turns a loaded profile graph into its JSON-LD document
package exporter

import (
	"encoding/json"
	"time"

	"profile-server/internal/domains/profile/model"

	"github.com/google/uuid"
)

// ToJSONLD serializes a version and everything it owns. Output only
// depends on the graph, so the same graph always yields the same bytes.
func ToJSONLD(g *model.Graph) *model.Document {
	v := g.Version
	label, definition := model.BuildLanguageMaps(v.Name, v.Description, v.Translations)

	doc := &model.Document{
		ID:         g.Profile.IRI,
		Context:    model.ContextIRI,
		Type:       model.DocumentType,
		ConformsTo: model.ConformsTo,
		PrefLabel:  label,
		Definition: definition,
		SeeAlso:    v.MoreInformation,
		Versions:   versionRefs(g),
		Author: model.AuthorDocument{
			Type: model.AuthorType,
			Name: g.Author.Name,
			URL:  g.Author.URL,
		},
	}

	for _, c := range g.Concepts {
		doc.Concepts = append(doc.Concepts, conceptDocument(c, v.IRI))
	}
	for _, t := range g.Templates {
		doc.Templates = append(doc.Templates, templateDocument(t, v.IRI))
	}
	for _, p := range g.Patterns {
		doc.Patterns = append(doc.Patterns, patternDocument(p, v.IRI))
	}
	return doc
}

// Marshal is ToJSONLD followed by JSON encoding
func Marshal(g *model.Graph) ([]byte, error) {
	return json.Marshal(ToJSONLD(g))
}

// versionRefs lists the exported version and its predecessors, newest first
// versionRefs lists the stored history newest first, followed by the
// imported entries that never had a stored version
func versionRefs(g *model.Graph) []model.VersionRef {
	history := g.Versions
	if len(history) == 0 {
		history = []*model.ProfileVersion{g.Version}
	}
	iris := make(map[uuid.UUID]string, len(history))
	seen := make(map[string]bool, len(history))
	for _, v := range history {
		iris[v.ID] = v.IRI
		seen[v.IRI] = true
	}

	refs := make([]model.VersionRef, 0, len(history))
	for _, v := range history {
		ref := model.VersionRef{
			ID:              v.IRI,
			GeneratedAtTime: v.CreatedOn.UTC().Format(time.RFC3339),
		}
		if v.WasRevisionOf != nil {
			if prev, ok := iris[*v.WasRevisionOf]; ok {
				ref.WasRevisionOf = []string{prev}
			}
		}
		for _, prev := range v.ImportedHistory.RevisionOf {
			if !contains(ref.WasRevisionOf, prev) {
				ref.WasRevisionOf = append(ref.WasRevisionOf, prev)
			}
		}
		refs = append(refs, ref)
	}

	for _, v := range history {
		for _, declared := range v.ImportedHistory.Versions {
			if seen[declared.ID] {
				continue
			}
			seen[declared.ID] = true
			declared.WasRevisionOf = append([]string(nil), declared.WasRevisionOf...)
			refs = append(refs, declared)
		}
	}
	return refs
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func conceptDocument(c *model.Concept, scheme string) model.ConceptDocument {
	doc := model.ConceptDocument{
		ID:         c.IRI,
		Type:       c.Kind,
		InScheme:   scheme,
		Deprecated: c.Deprecated,
	}
	// activities describe themselves inside activityDefinition
	if c.Kind != model.KindActivity {
		doc.PrefLabel, doc.Definition = model.BuildLanguageMaps(c.Name, c.Description, c.Translations)
	}

	switch body := c.Body.(type) {
	case model.SemanticBody:
		doc.Broader = body.Broader
		doc.BroadMatch = body.BroadMatch
		doc.Narrower = body.Narrower
		doc.NarrowMatch = body.NarrowMatch
		doc.Related = body.Related
		doc.RelatedMatch = body.RelatedMatch
		doc.ExactMatch = body.ExactMatch
	case model.ExtensionBody:
		doc.RecommendedActivityTypes = body.RecommendedActivityTypes
		doc.RecommendedVerbs = body.RecommendedVerbs
		doc.Context = body.Context
		doc.Schema = body.Schema
		doc.InlineSchema = body.InlineSchema
	case model.DocumentBody:
		doc.ContentType = body.ContentType
		doc.Context = body.Context
		doc.Schema = body.Schema
		doc.InlineSchema = body.InlineSchema
	case model.ActivityBody:
		doc.ActivityDefinition = body.ActivityDefinition
	}
	return doc
}

func templateDocument(t *model.Template, scheme string) model.TemplateDocument {
	label, definition := model.BuildLanguageMaps(t.Name, t.Description, t.Translations)
	return model.TemplateDocument{
		ID:           t.IRI,
		Type:         model.TemplateType,
		InScheme:     scheme,
		PrefLabel:    label,
		Definition:   definition,
		Deprecated:   t.Deprecated,
		TemplateBody: t.TemplateBody,
	}
}

func patternDocument(p *model.Pattern, scheme string) model.PatternDocument {
	label, definition := model.BuildLanguageMaps(p.Name, p.Description, p.Translations)
	doc := model.PatternDocument{
		ID:         p.IRI,
		Type:       model.PatternType,
		InScheme:   scheme,
		PrefLabel:  label,
		Definition: definition,
		Deprecated: p.Deprecated,
		Primary:    p.Primary,
	}
	members := make([]string, 0, len(p.Members))
	for _, m := range p.Members {
		members = append(members, m.IRI)
	}
	doc.SetOperator(p.Type, members)
	return doc
}
