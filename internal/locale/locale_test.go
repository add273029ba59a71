package locale_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/birthday-liberator/internal/config"
	"github.com/tartampluch/birthday-liberator/internal/engine"
	"github.com/tartampluch/birthday-liberator/internal/locale"
)

var translationKeys = []string{
	config.TKeyEvtSummary,
	config.TKeyEvtDescription,
	config.TKeyEvtEmailSummary,
	config.TKeyEvtDisplaySummary,
	config.TKeyEvtReminder,
}

// TestLocaleIntegrity ensures every locale file defines exactly the keys the
// code looks up, and every supported language has a file.
func TestLocaleIntegrity(t *testing.T) {
	for _, lang := range config.SupportedLanguages {
		t.Run(lang, func(t *testing.T) {
			path := filepath.Join(config.LocalesDir, config.LocalePrefix+lang+config.LocaleSuffix)
			content, err := os.ReadFile(path)
			require.NoError(t, err, "Must load %s", path)

			var jsonMap map[string]string
			require.NoError(t, json.Unmarshal(content, &jsonMap), "JSON must be valid")

			for _, key := range translationKeys {
				value, exists := jsonMap[key]
				assert.Truef(t, exists, "Key '%s' is missing in %s", key, path)
				assert.Containsf(t, value, "{{.Name}}", "Key '%s' in %s must reference the name", key, path)
			}
			assert.Len(t, jsonMap, len(translationKeys), "orphan keys in %s", path)
		})
	}
}

func TestLoad(t *testing.T) {
	cat, err := locale.Load()
	require.NoError(t, err)

	assert.ElementsMatch(t, config.SupportedLanguages, cat.Languages())
	assert.True(t, cat.Supports("fr"))
	assert.False(t, cat.Supports("de"))
}

func TestTexts(t *testing.T) {
	cat, err := locale.Load()
	require.NoError(t, err)

	t.Run("English matches built-in texts", func(t *testing.T) {
		got := cat.Texts("en")("Ada Lovelace")
		assert.Equal(t, engine.DefaultEventText("Ada Lovelace"), got)
	})

	t.Run("French", func(t *testing.T) {
		got := cat.Texts("fr")("Ada Lovelace")
		assert.Equal(t, "🎂 Anniversaire de Ada Lovelace", got.Summary)
		assert.Equal(t, got.EmailDescription, got.DisplayDescription)
	})

	t.Run("Unknown language falls back to English", func(t *testing.T) {
		got := cat.Texts("de")("Ada")
		assert.Equal(t, "🎂 Ada's Birthday", got.Summary)
	})

	t.Run("Empty language is the default", func(t *testing.T) {
		got := cat.Texts("")("Ada")
		assert.Equal(t, engine.DefaultEventText("Ada"), got)
	})

	t.Run("Names are not interpreted as templates", func(t *testing.T) {
		got := cat.Texts("en")("{{.Name}} <b>&")
		assert.Equal(t, "🎂 {{.Name}} <b>&'s Birthday", got.Summary)
	})
}
