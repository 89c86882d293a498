package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestResolve_English(t *testing.T) {
	c := Default()
	template, err := c.Resolve("Terminology_TX_Code_Unknown", language.English)
	require.NoError(t, err)
	assert.Contains(t, template, "{0}")
	assert.Contains(t, template, "Unknown code")
}

func TestResolve_German(t *testing.T) {
	c := Default()
	template, err := c.Resolve("Terminology_TX_Code_Unknown", language.German)
	require.NoError(t, err)
	assert.Contains(t, template, "Unbekannter Code")
}

func TestResolve_RegionalVariantMatchesGerman(t *testing.T) {
	c := Default()
	austrian := language.MustParse("de-AT")
	got, err := c.Resolve("Resource_Missing_Type", austrian)
	require.NoError(t, err)
	want, err := c.Resolve("Resource_Missing_Type", language.German)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolve_UnsupportedLocaleFallsBackToEnglish(t *testing.T) {
	c := Default()
	got, err := c.Resolve("Resource_Missing_Type", language.Japanese)
	require.NoError(t, err)
	want, err := c.Resolve("Resource_Missing_Type", language.English)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolve_MissingKey(t *testing.T) {
	c := Default()
	_, err := c.Resolve("No_Such_Key", language.English)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestResolve_SuppressionKeysPresent(t *testing.T) {
	c := Default()
	keys := []string{
		"Reference_REF_CantMatchChoice",
		"BUNDLE_BUNDLE_ENTRY_MULTIPLE_PROFILES",
		"Validation_VAL_Profile_NoMatch",
		"This_element_does_not_match_any_known_slice_",
	}
	for _, key := range keys {
		for _, loc := range []language.Tag{language.English, language.German} {
			_, err := c.Resolve(key, loc)
			assert.NoError(t, err, "key %s locale %s", key, loc)
		}
	}
}

func TestRender(t *testing.T) {
	assert.Equal(t, "Unknown code 'x' in 'sys'", Render("Unknown code '{0}' in '{1}'", "x", "sys"))
	assert.Equal(t, "no placeholders", Render("no placeholders", "unused"))
	assert.Equal(t, "kept {1}", Render("kept {1}", "only-first-bound"))
	assert.Equal(t, "{0} intact", Render("{0} intact"))
}
