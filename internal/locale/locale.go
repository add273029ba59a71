// Package locale provides the translated texts written into birthday events.
package locale

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/birthday-liberator/internal/config"
	"github.com/tartampluch/birthday-liberator/internal/engine"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Catalog holds every embedded locale.
type Catalog struct {
	bundle    *i18n.Bundle
	languages []string
}

// Load builds the catalog from the embedded locale files. Files that do not
// follow the active.<lang>.json naming are skipped; a file that fails to
// parse is logged and left out.
func Load() (*Catalog, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc(config.LocaleFormat, json.Unmarshal)

	entries, err := localeFS.ReadDir(config.LocalesDir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrLocalesAccess, err)
	}

	c := &Catalog{bundle: bundle}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, config.LocalePrefix) || !strings.HasSuffix(name, config.LocaleSuffix) {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, config.LocalePrefix), config.LocaleSuffix)
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, config.LocalesDir+"/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}

		c.languages = append(c.languages, langCode)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
			config.LogKeyFile, name,
		)
	}
	return c, nil
}

// Languages lists the loaded language codes in file order.
func (c *Catalog) Languages() []string {
	return slices.Clone(c.languages)
}

// Supports reports whether lang has a loaded locale file.
func (c *Catalog) Supports(lang string) bool {
	return slices.Contains(c.languages, lang)
}

// Texts returns an event text builder for lang. Unknown languages resolve to
// English through the bundle's default; a key missing from every locale falls
// back to the built-in English phrasing for that field.
func (c *Catalog) Texts(lang string) func(name string) engine.EventText {
	if lang == "" {
		lang = config.DefaultLanguage
	}
	localizer := i18n.NewLocalizer(c.bundle, lang)

	return func(name string) engine.EventText {
		fallback := engine.DefaultEventText(name)
		data := map[string]string{config.TmplKeyName: name}

		msg := func(key, def string) string {
			s, err := localizer.Localize(&i18n.LocalizeConfig{
				MessageID:    key,
				TemplateData: data,
			})
			if err != nil {
				slog.Debug(config.MsgTransMissing,
					config.LogKeyComponent, config.CompI18n,
					config.LogKeyKey, key,
					config.LogKeyError, err,
				)
				return def
			}
			return s
		}

		return engine.EventText{
			Summary:            msg(config.TKeyEvtSummary, fallback.Summary),
			Description:        msg(config.TKeyEvtDescription, fallback.Description),
			EmailSummary:       msg(config.TKeyEvtEmailSummary, fallback.EmailSummary),
			EmailDescription:   msg(config.TKeyEvtReminder, fallback.EmailDescription),
			DisplaySummary:     msg(config.TKeyEvtDisplaySummary, fallback.DisplaySummary),
			DisplayDescription: msg(config.TKeyEvtReminder, fallback.DisplayDescription),
		}
	}
}
