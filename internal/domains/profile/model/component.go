package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ComponentType distinguishes the three component tables of a version
type ComponentType string

const (
	ComponentConcept  ComponentType = "concept"
	ComponentTemplate ComponentType = "template"
	ComponentPattern  ComponentType = "pattern"
)

// Segment is the path segment used when generating component IRIs
func (t ComponentType) Segment() string {
	return string(t) + "s"
}

func (t ComponentType) Valid() bool {
	switch t {
	case ComponentConcept, ComponentTemplate, ComponentPattern:
		return true
	}
	return false
}

// ComponentTypeFromSegment maps "concepts" / "templates" / "patterns" back to a type
func ComponentTypeFromSegment(segment string) (ComponentType, bool) {
	for _, t := range []ComponentType{ComponentConcept, ComponentTemplate, ComponentPattern} {
		if t.Segment() == segment {
			return t, true
		}
	}
	return "", false
}

// ComponentHeader is shared by concepts, templates and patterns
type ComponentHeader struct {
	ID              uuid.UUID     `json:"uuid"`
	IRI             string        `json:"iri"`
	ParentVersionID uuid.UUID     `json:"parentProfile"`
	ParentProfileID uuid.UUID     `json:"parentRootProfile"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Translations    []Translation `json:"translations,omitempty"`
	Tags            []string      `json:"tags,omitempty"`
	Deprecated      bool          `json:"isDeprecated"`
	CreatedOn       time.Time     `json:"createdOn"`
	UpdatedOn       time.Time     `json:"updatedOn"`
}

func (h ComponentHeader) clone() ComponentHeader {
	h.Translations = append([]Translation(nil), h.Translations...)
	h.Tags = append([]string(nil), h.Tags...)
	return h
}

// ComponentSummary identifies a stored component without loading its body
type ComponentSummary struct {
	ID              uuid.UUID
	IRI             string
	Type            ComponentType
	ParentVersionID uuid.UUID
	ParentProfileID uuid.UUID
	Primary         bool
}

// ========================================
// CONCEPTS
// ========================================

// ConceptKind is the JSON-LD "type" of a concept
type ConceptKind string

const (
	KindVerb                    ConceptKind = "Verb"
	KindActivityType            ConceptKind = "ActivityType"
	KindAttachmentUsageType     ConceptKind = "AttachmentUsageType"
	KindContextExtension        ConceptKind = "ContextExtension"
	KindResultExtension         ConceptKind = "ResultExtension"
	KindActivityExtension       ConceptKind = "ActivityExtension"
	KindStateResource           ConceptKind = "StateResource"
	KindAgentProfileResource    ConceptKind = "AgentProfileResource"
	KindActivityProfileResource ConceptKind = "ActivityProfileResource"
	KindActivity                ConceptKind = "Activity"
)

// ConceptCategory groups concept kinds that share a body shape
type ConceptCategory string

const (
	CategorySemantic  ConceptCategory = "semantic"
	CategoryExtension ConceptCategory = "extension"
	CategoryDocument  ConceptCategory = "document"
	CategoryActivity  ConceptCategory = "activity"
)

// Category returns the body shape for the kind, or "" for unknown kinds
func (k ConceptKind) Category() ConceptCategory {
	switch k {
	case KindVerb, KindActivityType, KindAttachmentUsageType:
		return CategorySemantic
	case KindContextExtension, KindResultExtension, KindActivityExtension:
		return CategoryExtension
	case KindStateResource, KindAgentProfileResource, KindActivityProfileResource:
		return CategoryDocument
	case KindActivity:
		return CategoryActivity
	}
	return ""
}

// ConceptBody is the kind-specific part of a concept
type ConceptBody interface {
	Category() ConceptCategory
}

// SemanticBody carries SKOS relations for verbs, activity types and attachment usage types
type SemanticBody struct {
	Broader      []string `json:"broader,omitempty"`
	BroadMatch   []string `json:"broadMatch,omitempty"`
	Narrower     []string `json:"narrower,omitempty"`
	NarrowMatch  []string `json:"narrowMatch,omitempty"`
	Related      []string `json:"related,omitempty"`
	RelatedMatch []string `json:"relatedMatch,omitempty"`
	ExactMatch   []string `json:"exactMatch,omitempty"`
}

func (SemanticBody) Category() ConceptCategory { return CategorySemantic }

type ExtensionBody struct {
	RecommendedActivityTypes []string `json:"recommendedActivityTypes,omitempty"`
	RecommendedVerbs         []string `json:"recommendedVerbs,omitempty"`
	Context                  string   `json:"context,omitempty"`
	Schema                   string   `json:"schema,omitempty"`
	InlineSchema             string   `json:"inlineSchema,omitempty"`
}

func (ExtensionBody) Category() ConceptCategory { return CategoryExtension }

type DocumentBody struct {
	ContentType  string `json:"contentType,omitempty"`
	Context      string `json:"context,omitempty"`
	Schema       string `json:"schema,omitempty"`
	InlineSchema string `json:"inlineSchema,omitempty"`
}

func (DocumentBody) Category() ConceptCategory { return CategoryDocument }

type ActivityBody struct {
	ActivityDefinition map[string]interface{} `json:"activityDefinition,omitempty"`
}

func (ActivityBody) Category() ConceptCategory { return CategoryActivity }

// Concept is a tagged variant: Kind selects the concrete Body
type Concept struct {
	ComponentHeader
	Kind ConceptKind `json:"conceptType"`
	Body ConceptBody `json:"body"`
}

// Clone returns a deep copy
func (c *Concept) Clone() *Concept {
	if c == nil {
		return nil
	}
	return &Concept{ComponentHeader: c.ComponentHeader.clone(), Kind: c.Kind, Body: cloneBody(c.Body)}
}

func cloneBody(body ConceptBody) ConceptBody {
	switch b := body.(type) {
	case SemanticBody:
		b.Broader = cloneStrings(b.Broader)
		b.BroadMatch = cloneStrings(b.BroadMatch)
		b.Narrower = cloneStrings(b.Narrower)
		b.NarrowMatch = cloneStrings(b.NarrowMatch)
		b.Related = cloneStrings(b.Related)
		b.RelatedMatch = cloneStrings(b.RelatedMatch)
		b.ExactMatch = cloneStrings(b.ExactMatch)
		return b
	case ExtensionBody:
		b.RecommendedActivityTypes = cloneStrings(b.RecommendedActivityTypes)
		b.RecommendedVerbs = cloneStrings(b.RecommendedVerbs)
		return b
	case ActivityBody:
		b.ActivityDefinition = cloneMap(b.ActivityDefinition)
		return b
	}
	// DocumentBody has no reference fields; nil stays nil
	return body
}

// cloneMap copies nested maps and slices of a decoded JSON object
func cloneMap(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = cloneJSONValue(v)
	}
	return out
}

func cloneJSONValue(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		return cloneMap(x)
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = cloneJSONValue(e)
		}
		return out
	}
	return v
}

// DecodeConceptBody unmarshals a stored body for the given kind
func DecodeConceptBody(kind ConceptKind, raw []byte) (ConceptBody, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	switch kind.Category() {
	case CategorySemantic:
		var b SemanticBody
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return b, nil
	case CategoryExtension:
		var b ExtensionBody
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return b, nil
	case CategoryDocument:
		var b DocumentBody
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return b, nil
	case CategoryActivity:
		var b ActivityBody
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown concept kind %q", kind)
}

// ========================================
// STATEMENT TEMPLATES
// ========================================

// Rule is a statement template rule
type Rule struct {
	Location  string        `json:"location"`
	Selector  string        `json:"selector,omitempty"`
	Presence  string        `json:"presence,omitempty"`
	Any       []interface{} `json:"any,omitempty"`
	All       []interface{} `json:"all,omitempty"`
	None      []interface{} `json:"none,omitempty"`
	ScopeNote LanguageMap   `json:"scopeNote,omitempty"`
}

// TemplateBody is the persisted part of a template beyond the header
type TemplateBody struct {
	Verb                        string   `json:"verb,omitempty"`
	ObjectActivityType          string   `json:"objectActivityType,omitempty"`
	ContextGroupingActivityType []string `json:"contextGroupingActivityType,omitempty"`
	ContextParentActivityType   []string `json:"contextParentActivityType,omitempty"`
	ContextOtherActivityType    []string `json:"contextOtherActivityType,omitempty"`
	ContextCategoryActivityType []string `json:"contextCategoryActivityType,omitempty"`
	AttachmentUsageType         []string `json:"attachmentUsageType,omitempty"`
	ObjectStatementRefTemplate  []string `json:"objectStatementRefTemplate,omitempty"`
	ContextStatementRefTemplate []string `json:"contextStatementRefTemplate,omitempty"`
	Rules                       []Rule   `json:"rules,omitempty"`
}

type Template struct {
	ComponentHeader
	TemplateBody
}

func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	return &Template{ComponentHeader: t.ComponentHeader.clone(), TemplateBody: t.TemplateBody.clone()}
}

func (b TemplateBody) clone() TemplateBody {
	b.ContextGroupingActivityType = cloneStrings(b.ContextGroupingActivityType)
	b.ContextParentActivityType = cloneStrings(b.ContextParentActivityType)
	b.ContextOtherActivityType = cloneStrings(b.ContextOtherActivityType)
	b.ContextCategoryActivityType = cloneStrings(b.ContextCategoryActivityType)
	b.AttachmentUsageType = cloneStrings(b.AttachmentUsageType)
	b.ObjectStatementRefTemplate = cloneStrings(b.ObjectStatementRefTemplate)
	b.ContextStatementRefTemplate = cloneStrings(b.ContextStatementRefTemplate)
	if b.Rules != nil {
		rules := make([]Rule, len(b.Rules))
		for i, r := range b.Rules {
			rules[i] = r.clone()
		}
		b.Rules = rules
	}
	return b
}

func (r Rule) clone() Rule {
	r.Any = cloneValues(r.Any)
	r.All = cloneValues(r.All)
	r.None = cloneValues(r.None)
	if r.ScopeNote != nil {
		note := make(LanguageMap, len(r.ScopeNote))
		for lang, text := range r.ScopeNote {
			note[lang] = text
		}
		r.ScopeNote = note
	}
	return r
}

// cloneStrings keeps nil as nil so omitempty output does not change
func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string{}, in...)
}

func cloneValues(in []interface{}) []interface{} {
	if in == nil {
		return nil
	}
	return cloneJSONValue(in).([]interface{})
}

// ========================================
// PATTERNS
// ========================================

// PatternOperator is the combinator of a pattern
type PatternOperator string

const (
	OperatorSequence   PatternOperator = "sequence"
	OperatorAlternates PatternOperator = "alternates"
	OperatorOptional   PatternOperator = "optional"
	OperatorOneOrMore  PatternOperator = "oneOrMore"
	OperatorZeroOrMore PatternOperator = "zeroOrMore"
)

// IsUnary reports whether the operator takes exactly one member
func (o PatternOperator) IsUnary() bool {
	return o == OperatorOptional || o == OperatorOneOrMore || o == OperatorZeroOrMore
}

func (o PatternOperator) Valid() bool {
	switch o {
	case OperatorSequence, OperatorAlternates, OperatorOptional, OperatorOneOrMore, OperatorZeroOrMore:
		return true
	}
	return false
}

// ComponentRef points at a template or pattern, possibly in another profile
type ComponentRef struct {
	ComponentID   uuid.UUID     `json:"id"`
	ComponentType ComponentType `json:"componentType"`
	IRI           string        `json:"iri"`
}

// PatternBody is the persisted part of a pattern beyond the header
type PatternBody struct {
	Primary bool            `json:"primary"`
	Type    PatternOperator `json:"type"`
	Members []ComponentRef  `json:"members"`
}

type Pattern struct {
	ComponentHeader
	PatternBody
}

func (p *Pattern) Clone() *Pattern {
	if p == nil {
		return nil
	}
	cp := &Pattern{ComponentHeader: p.ComponentHeader.clone(), PatternBody: p.PatternBody}
	cp.Members = append([]ComponentRef(nil), p.Members...)
	return cp
}

// HasMember reports whether id is referenced by the pattern
func (p *Pattern) HasMember(id uuid.UUID) bool {
	for _, m := range p.Members {
		if m.ComponentID == id {
			return true
		}
	}
	return false
}
