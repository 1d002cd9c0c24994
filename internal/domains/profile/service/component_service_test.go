package service

import (
	"errors"

	"profile-server/internal/domains/profile/model"

	"github.com/google/uuid"
)

func (s *ProfileServiceSuite) generatedTemplate(profileID uuid.UUID, suffix string) *model.Template {
	template, err := s.svc.CreateTemplate(s.ctx, s.writer, profileID, &model.TemplateRequest{
		IRIFields:    model.IRIFields{IRIType: model.IRITypeGenerated, GenIRI: suffix},
		HeaderFields: model.HeaderFields{Name: suffix, Description: "template " + suffix},
		TemplateBody: model.TemplateBody{Verb: "http://adlnet.gov/expapi/verbs/launched"},
	})
	s.Require().NoError(err)
	return template
}

func codeOf(err error) string {
	var perr *model.ProfileError
	if errors.As(err, &perr) {
		return perr.Code
	}
	return ""
}

func (s *ProfileServiceSuite) TestCreateConceptAttachesToDraft() {
	detail := s.createProfile()

	concept, err := s.svc.CreateConcept(s.ctx, s.writer, detail.ID, &model.ConceptRequest{
		IRIFields:    model.IRIFields{IRIType: model.IRITypeExternal, ExtIRI: "  https://example.org/verbs/paused "},
		HeaderFields: model.HeaderFields{Name: "paused", Description: "Paused the content."},
		Type:         model.KindVerb,
		Body:         []byte(`{"exactMatch": ["http://adlnet.gov/expapi/verbs/suspended"]}`),
	})
	s.Require().NoError(err)
	s.Equal("https://example.org/verbs/paused", concept.IRI)
	s.Equal(*detail.CurrentDraftVersionID, concept.ParentVersionID)

	draft, err := s.repo.GetVersion(s.ctx, *detail.CurrentDraftVersionID)
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{concept.ID}, draft.Concepts)
}

func (s *ProfileServiceSuite) TestCreateConceptRejectsBadInput() {
	detail := s.createProfile()

	_, err := s.svc.CreateConcept(s.ctx, s.writer, detail.ID, &model.ConceptRequest{
		IRIFields:    model.IRIFields{IRIType: model.IRITypeExternal, ExtIRI: "https://example.org/has space"},
		HeaderFields: model.HeaderFields{Name: "bad"},
		Type:         model.KindVerb,
	})
	s.Require().True(model.IsValidation(err))
	s.Equal("extiri", model.DetailsOf(err)[0].Field)

	_, err = s.svc.CreateConcept(s.ctx, s.writer, detail.ID, &model.ConceptRequest{
		IRIFields:    model.IRIFields{IRIType: model.IRITypeGenerated, GenIRI: "odd"},
		HeaderFields: model.HeaderFields{Name: "odd"},
		Type:         model.KindVerb,
		Body:         []byte(`{"broader": "not-a-list"}`),
	})
	s.Require().True(model.IsValidation(err))
	s.Equal("body", model.DetailsOf(err)[0].Field)

	_, err = s.svc.CreateConcept(s.ctx, s.writer, detail.ID, &model.ConceptRequest{
		IRIFields: model.IRIFields{IRIType: model.IRITypeGenerated, GenIRI: "mystery"},
		Type:      "Mystery",
	})
	s.True(model.IsValidation(err))
}

func (s *ProfileServiceSuite) TestGeneratedPatternIRI() {
	detail := s.createProfile()
	launch := s.generatedTemplate(detail.ID, "launch")
	s.Equal(detail.IRI+"/templates/launch", launch.IRI)

	pattern, err := s.svc.CreatePattern(s.ctx, s.writer, detail.ID, &model.PatternRequest{
		IRIFields:          model.IRIFields{IRIType: model.IRITypeGenerated, GenIRI: "foo"},
		HeaderFields:       model.HeaderFields{Name: "Foo", Description: "A pattern."},
		PrimaryOrSecondary: "primary",
		Type:               model.OperatorSequence,
		Members:            []model.MemberRequest{{ID: &launch.ID}},
	})
	s.Require().NoError(err)
	s.Equal(detail.IRI+"/patterns/foo", pattern.IRI)
	s.Require().Len(pattern.Members, 1)
	s.Equal(launch.IRI, pattern.Members[0].IRI)
}

func (s *ProfileServiceSuite) TestPatternMembersAreChecked() {
	detail := s.createProfile()
	launch := s.generatedTemplate(detail.ID, "launch")

	primary, err := s.svc.CreatePattern(s.ctx, s.writer, detail.ID, &model.PatternRequest{
		IRIFields:          model.IRIFields{IRIType: model.IRITypeGenerated, GenIRI: "main"},
		HeaderFields:       model.HeaderFields{Name: "Main"},
		PrimaryOrSecondary: "primary",
		Type:               model.OperatorOptional,
		Members:            []model.MemberRequest{{ID: &launch.ID}},
	})
	s.Require().NoError(err)

	missing := uuid.New()
	_, err = s.svc.CreatePattern(s.ctx, s.writer, detail.ID, &model.PatternRequest{
		IRIFields:          model.IRIFields{IRIType: model.IRITypeGenerated, GenIRI: "wrapper"},
		PrimaryOrSecondary: "secondary",
		Type:               model.OperatorAlternates,
		Members: []model.MemberRequest{
			{ID: &primary.ID},
			{ID: &missing},
			{IRI: launch.IRI, ComponentType: model.ComponentPattern},
		},
	})
	s.Require().True(model.IsValidation(err))

	details := model.DetailsOf(err)
	s.Require().Len(details, 3)
	s.Equal("members[0]", details[0].Field)
	s.Equal("a primary pattern cannot be a member of another pattern", details[0].Message)
	s.Equal("members[1]", details[1].Field)
	s.Contains(details[1].Message, "was not found")
	s.Equal("members[2]", details[2].Field)
}

func (s *ProfileServiceSuite) TestComponentIRIIsImmutable() {
	detail := s.createProfile()
	launch := s.generatedTemplate(detail.ID, "launch")

	_, err := s.svc.UpdateTemplate(s.ctx, s.writer, detail.ID, launch.ID, &model.TemplateRequest{
		IRIFields:    model.IRIFields{IRIType: model.IRITypeGenerated, GenIRI: "relaunch"},
		HeaderFields: model.HeaderFields{Name: "launch"},
	})
	s.Equal(model.CodeIRIImmutable, codeOf(err))

	updated, err := s.svc.UpdateTemplate(s.ctx, s.writer, detail.ID, launch.ID, &model.TemplateRequest{
		HeaderFields: model.HeaderFields{Name: "Launch", Description: "Renamed."},
		TemplateBody: model.TemplateBody{Verb: "http://adlnet.gov/expapi/verbs/initialized"},
	})
	s.Require().NoError(err)
	s.Equal(launch.IRI, updated.IRI)
	s.Equal("http://adlnet.gov/expapi/verbs/initialized", updated.Verb)
}

func (s *ProfileServiceSuite) TestComponentsOfPublishedVersionsAreReadOnly() {
	meta := s.importDraft()
	_, err := s.svc.Publish(s.ctx, s.writer, meta.UUID)
	s.Require().NoError(err)

	_, err = s.svc.CreateTemplate(s.ctx, s.writer, meta.UUID, &model.TemplateRequest{
		IRIFields:    model.IRIFields{IRIType: model.IRITypeGenerated, GenIRI: "late"},
		HeaderFields: model.HeaderFields{Name: "late"},
	})
	s.True(model.IsNotAllowed(err))

	// the root id reaches the follow-up draft
	_, err = s.svc.CreateTemplate(s.ctx, s.writer, meta.ParentProfile, &model.TemplateRequest{
		IRIFields:    model.IRIFields{IRIType: model.IRITypeGenerated, GenIRI: "late"},
		HeaderFields: model.HeaderFields{Name: "late"},
	})
	s.NoError(err)
}

func (s *ProfileServiceSuite) TestDeleteComponent() {
	detail := s.createProfile()
	launch := s.generatedTemplate(detail.ID, "launch")
	exit := s.generatedTemplate(detail.ID, "exit")

	_, err := s.svc.CreatePattern(s.ctx, s.writer, detail.ID, &model.PatternRequest{
		IRIFields:          model.IRIFields{IRIType: model.IRITypeGenerated, GenIRI: "main"},
		HeaderFields:       model.HeaderFields{Name: "Main"},
		PrimaryOrSecondary: "primary",
		Type:               model.OperatorOptional,
		Members:            []model.MemberRequest{{ID: &launch.ID}},
	})
	s.Require().NoError(err)

	err = s.svc.DeleteComponent(s.ctx, s.writer, detail.ID, model.ComponentTemplate, launch.ID)
	s.True(model.IsConflict(err))

	err = s.svc.DeleteComponent(s.ctx, s.writer, detail.ID, model.ComponentTemplate, exit.ID)
	s.Require().NoError(err)
	_, err = s.repo.GetComponent(s.ctx, exit.ID)
	s.True(model.IsNotFound(err))

	draft, err := s.repo.GetVersion(s.ctx, *detail.CurrentDraftVersionID)
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{launch.ID}, draft.Templates)

	err = s.svc.DeleteComponent(s.ctx, s.writer, detail.ID, model.ComponentTemplate, exit.ID)
	s.True(model.IsNotFound(err))
	err = s.svc.DeleteComponent(s.ctx, s.writer, detail.ID, "widget", exit.ID)
	s.True(model.IsValidation(err))
}
