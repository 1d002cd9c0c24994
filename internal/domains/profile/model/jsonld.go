package model

import "sort"

// JSON-LD vocabulary of an xAPI profile document
const (
	ContextIRI   = "https://w3id.org/xapi/profiles/context"
	ConformsTo   = "https://w3id.org/xapi/profiles#1.0"
	DocumentType = "Profile"
	AuthorType   = "Organization"
	TemplateType = "StatementTemplate"
	PatternType  = "Pattern"
)

// LanguageMap maps a language tag to text
type LanguageMap map[string]string

// Split returns the default-language text and translations for the other
// languages, ordered by language tag.
func (m LanguageMap) Split() (string, map[string]string) {
	others := make(map[string]string, len(m))
	for lang, text := range m {
		if lang == DefaultLanguage {
			continue
		}
		others[lang] = text
	}
	return m[DefaultLanguage], others
}

// BuildLanguageMaps turns a name/description pair plus translations into
// prefLabel and definition language maps. Empty texts are left out.
func BuildLanguageMaps(name, description string, translations []Translation) (LanguageMap, LanguageMap) {
	label := LanguageMap{}
	definition := LanguageMap{}
	if name != "" {
		label[DefaultLanguage] = name
	}
	if description != "" {
		definition[DefaultLanguage] = description
	}
	for _, t := range translations {
		if t.Name != "" {
			label[t.Language] = t.Name
		}
		if t.Description != "" {
			definition[t.Language] = t.Description
		}
	}
	return label, definition
}

// SplitLanguageMaps is the inverse of BuildLanguageMaps
func SplitLanguageMaps(label, definition LanguageMap) (string, string, []Translation) {
	name, otherNames := label.Split()
	description, otherDescriptions := definition.Split()

	langs := make(map[string]struct{})
	for lang := range otherNames {
		langs[lang] = struct{}{}
	}
	for lang := range otherDescriptions {
		langs[lang] = struct{}{}
	}
	ordered := make([]string, 0, len(langs))
	for lang := range langs {
		ordered = append(ordered, lang)
	}
	sort.Strings(ordered)

	var translations []Translation
	for _, lang := range ordered {
		translations = append(translations, Translation{
			Language:    lang,
			Name:        otherNames[lang],
			Description: otherDescriptions[lang],
		})
	}
	return name, description, translations
}

// ========================================
// PROFILE DOCUMENT
// ========================================

// Document is the exported JSON-LD profile
type Document struct {
	ID         string             `json:"id"`
	Context    string             `json:"@context"`
	Type       string             `json:"type"`
	ConformsTo string             `json:"conformsTo"`
	PrefLabel  LanguageMap        `json:"prefLabel"`
	Definition LanguageMap        `json:"definition"`
	SeeAlso    string             `json:"seeAlso,omitempty"`
	Versions   []VersionRef       `json:"versions"`
	Author     AuthorDocument     `json:"author"`
	Concepts   []ConceptDocument  `json:"concepts,omitempty"`
	Templates  []TemplateDocument `json:"templates,omitempty"`
	Patterns   []PatternDocument  `json:"patterns,omitempty"`
}

// VersionRef is one entry of the document's version history
type VersionRef struct {
	ID              string   `json:"id"`
	WasRevisionOf   []string `json:"wasRevisionOf,omitempty"`
	GeneratedAtTime string   `json:"generatedAtTime"`
}

type AuthorDocument struct {
	Type string `json:"type"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// ConceptDocument covers every concept kind; unused fields stay empty
type ConceptDocument struct {
	ID         string      `json:"id"`
	Type       ConceptKind `json:"type"`
	InScheme   string      `json:"inScheme"`
	PrefLabel  LanguageMap `json:"prefLabel,omitempty"`
	Definition LanguageMap `json:"definition,omitempty"`
	Deprecated bool        `json:"deprecated,omitempty"`

	Broader      []string `json:"broader,omitempty"`
	BroadMatch   []string `json:"broadMatch,omitempty"`
	Narrower     []string `json:"narrower,omitempty"`
	NarrowMatch  []string `json:"narrowMatch,omitempty"`
	Related      []string `json:"related,omitempty"`
	RelatedMatch []string `json:"relatedMatch,omitempty"`
	ExactMatch   []string `json:"exactMatch,omitempty"`

	RecommendedActivityTypes []string `json:"recommendedActivityTypes,omitempty"`
	RecommendedVerbs         []string `json:"recommendedVerbs,omitempty"`
	ContentType              string   `json:"contentType,omitempty"`
	Context                  string   `json:"context,omitempty"`
	Schema                   string   `json:"schema,omitempty"`
	InlineSchema             string   `json:"inlineSchema,omitempty"`

	ActivityDefinition map[string]interface{} `json:"activityDefinition,omitempty"`
}

// Body extracts the kind-specific part of the document
func (d ConceptDocument) Body() ConceptBody {
	switch d.Type.Category() {
	case CategorySemantic:
		return SemanticBody{
			Broader: d.Broader, BroadMatch: d.BroadMatch,
			Narrower: d.Narrower, NarrowMatch: d.NarrowMatch,
			Related: d.Related, RelatedMatch: d.RelatedMatch,
			ExactMatch: d.ExactMatch,
		}
	case CategoryExtension:
		return ExtensionBody{
			RecommendedActivityTypes: d.RecommendedActivityTypes,
			RecommendedVerbs:         d.RecommendedVerbs,
			Context:                  d.Context,
			Schema:                   d.Schema,
			InlineSchema:             d.InlineSchema,
		}
	case CategoryDocument:
		return DocumentBody{
			ContentType:  d.ContentType,
			Context:      d.Context,
			Schema:       d.Schema,
			InlineSchema: d.InlineSchema,
		}
	case CategoryActivity:
		return ActivityBody{ActivityDefinition: d.ActivityDefinition}
	}
	return nil
}

type TemplateDocument struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	InScheme   string      `json:"inScheme"`
	PrefLabel  LanguageMap `json:"prefLabel"`
	Definition LanguageMap `json:"definition"`
	Deprecated bool        `json:"deprecated,omitempty"`
	TemplateBody
}

type PatternDocument struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	InScheme   string      `json:"inScheme"`
	PrefLabel  LanguageMap `json:"prefLabel,omitempty"`
	Definition LanguageMap `json:"definition,omitempty"`
	Deprecated bool        `json:"deprecated,omitempty"`
	Primary    bool        `json:"primary"`

	Sequence   []string `json:"sequence,omitempty"`
	Alternates []string `json:"alternates,omitempty"`
	Optional   string   `json:"optional,omitempty"`
	OneOrMore  string   `json:"oneOrMore,omitempty"`
	ZeroOrMore string   `json:"zeroOrMore,omitempty"`
}

// Operator returns the combinator used by the document and its member IRIs
func (d PatternDocument) Operator() (PatternOperator, []string) {
	switch {
	case len(d.Sequence) > 0:
		return OperatorSequence, d.Sequence
	case len(d.Alternates) > 0:
		return OperatorAlternates, d.Alternates
	case d.Optional != "":
		return OperatorOptional, []string{d.Optional}
	case d.OneOrMore != "":
		return OperatorOneOrMore, []string{d.OneOrMore}
	case d.ZeroOrMore != "":
		return OperatorZeroOrMore, []string{d.ZeroOrMore}
	}
	return "", nil
}

// SetOperator fills the combinator field matching op
func (d *PatternDocument) SetOperator(op PatternOperator, members []string) {
	switch op {
	case OperatorSequence:
		d.Sequence = members
	case OperatorAlternates:
		d.Alternates = members
	case OperatorOptional:
		if len(members) > 0 {
			d.Optional = members[0]
		}
	case OperatorOneOrMore:
		if len(members) > 0 {
			d.OneOrMore = members[0]
		}
	case OperatorZeroOrMore:
		if len(members) > 0 {
			d.ZeroOrMore = members[0]
		}
	}
}
