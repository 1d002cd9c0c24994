package iri

import (
	"testing"

	"profile-server/internal/domains/profile/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	got, err := Generate("https://example.org/profile", model.ComponentPattern, "foo")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/profile/patterns/foo", got)

	got, err = Generate("https://example.org/profile/", model.ComponentConcept, "/verbs/launched")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/profile/concepts/verbs/launched", got)
}

func TestGenerateRejectsBadSuffix(t *testing.T) {
	_, err := Generate("https://example.org/profile", model.ComponentTemplate, "two words")
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
	assert.Equal(t, GenIRIField, model.DetailsOf(err)[0].Field)

	_, err = Generate("https://example.org/profile", model.ComponentTemplate, "")
	require.Error(t, err)
}

func TestResolveExternal(t *testing.T) {
	got, err := Resolve("https://example.org/profile", model.ComponentConcept, External, "https://w3id.org/xapi/adl/verbs/abandoned")
	require.NoError(t, err)
	assert.Equal(t, "https://w3id.org/xapi/adl/verbs/abandoned", got)
}

func TestResolveExternalWithWhitespace(t *testing.T) {
	_, err := Resolve("https://example.org/profile", model.ComponentConcept, External, "https://example.org/has space")
	require.Error(t, err)

	details := model.DetailsOf(err)
	require.Len(t, details, 1)
	assert.Equal(t, "extiri", details[0].Field)
}

func TestResolveUnknownMode(t *testing.T) {
	_, err := Resolve("https://example.org/profile", model.ComponentConcept, Mode("other"), "x")
	require.Error(t, err)
	assert.Equal(t, IRITypeField, model.DetailsOf(err)[0].Field)
}

func TestIsValidIRI(t *testing.T) {
	cases := map[string]bool{
		"https://example.org/a":        true,
		"urn:uuid:1234":                true,
		"http://example.org/é/ü":       true,
		"example.org/a":                false,
		"":                             false,
		"https://example.org/a b":      false,
		"https://example.org/<script>": false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsValidIRI(in), in)
	}
}

func TestProfileAndVersion(t *testing.T) {
	id := uuid.MustParse("6c3d0b3e-9d5a-4f57-9f0e-1d3c9c1f1a11")
	p := Profile("https://profiles.example.org/profile/", id)
	assert.Equal(t, "https://profiles.example.org/profile/6c3d0b3e-9d5a-4f57-9f0e-1d3c9c1f1a11", p)
	assert.Equal(t, p+"/v/2", Version(p, 2))
}
