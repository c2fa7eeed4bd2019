// Package locale formats dates and looks up user-facing messages per guild locale.
package locale

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/de"
	"github.com/go-playground/locales/en_GB"
	"github.com/go-playground/locales/en_US"
	"github.com/go-playground/locales/es"
	"github.com/go-playground/locales/fr"
	"github.com/go-playground/locales/nl"
	ut "github.com/go-playground/universal-translator"
)

// Fallback is used when a guild has no locale or an unsupported one.
const Fallback = "en-GB"

// Message keys.
const (
	KeyNotStaffTitle       = "transcript.not_staff.title"
	KeyNotStaffDescription = "transcript.not_staff.description"
)

var messages = map[string]map[string]string{
	"en_GB": {
		KeyNotStaffTitle:       "❌ You can't view this transcript",
		KeyNotStaffDescription: "Only staff members can view the transcripts of other members' tickets.",
	},
	"en_US": {
		KeyNotStaffTitle:       "❌ You can't view this transcript",
		KeyNotStaffDescription: "Only staff members can view the transcripts of other members' tickets.",
	},
	"de": {
		KeyNotStaffTitle:       "❌ Du kannst dieses Transkript nicht ansehen",
		KeyNotStaffDescription: "Nur Teammitglieder können die Transkripte von Tickets anderer Mitglieder ansehen.",
	},
	"fr": {
		KeyNotStaffTitle:       "❌ Vous ne pouvez pas voir cette transcription",
		KeyNotStaffDescription: "Seuls les membres du staff peuvent voir les transcriptions des tickets des autres membres.",
	},
	"es": {
		KeyNotStaffTitle:       "❌ No puedes ver esta transcripción",
		KeyNotStaffDescription: "Solo los miembros del staff pueden ver las transcripciones de los tickets de otros miembros.",
	},
	"nl": {
		KeyNotStaffTitle:       "❌ Je kunt dit transcript niet bekijken",
		KeyNotStaffDescription: "Alleen stafleden kunnen de transcripts van tickets van andere leden bekijken.",
	},
}

// Catalog resolves guild locales to date formatters and translated messages.
// It is safe for concurrent use once built.
type Catalog struct {
	uni *ut.UniversalTranslator
}

// NewCatalog registers the supported locales and their messages.
func NewCatalog() (*Catalog, error) {
	fallback := en_GB.New()
	supported := []locales.Translator{fallback, en_US.New(), de.New(), fr.New(), es.New(), nl.New()}
	uni := ut.New(fallback, supported...)

	for _, l := range supported {
		trans, _ := uni.GetTranslator(l.Locale())
		for key, text := range messages[l.Locale()] {
			if err := trans.Add(key, text, false); err != nil {
				return nil, fmt.Errorf("add %s message %s: %w", l.Locale(), key, err)
			}
		}
	}
	return &Catalog{uni: uni}, nil
}

// Translator returns the best match for a guild locale such as "de" or "en-US",
// trying the language alone before falling back to en-GB.
func (c *Catalog) Translator(locale string) ut.Translator {
	normalized := strings.ReplaceAll(strings.TrimSpace(locale), "-", "_")
	candidates := []string{normalized}
	if i := strings.Index(normalized, "_"); i > 0 {
		candidates = append(candidates, normalized[:i])
	}
	trans, _ := c.uni.FindTranslator(candidates...)
	return trans
}

// Full formats t as a full date with a long time, in UTC.
func (c *Catalog) Full(locale string, t time.Time) string {
	trans := c.Translator(locale)
	t = t.UTC()
	return trans.FmtDateFull(t) + " " + trans.FmtTimeLong(t)
}

// Short formats t as a short date with a long time, in UTC.
func (c *Catalog) Short(locale string, t time.Time) string {
	trans := c.Translator(locale)
	t = t.UTC()
	return trans.FmtDateShort(t) + ", " + trans.FmtTimeLong(t)
}

// T returns the translated message for key, falling back to the en-GB text.
func (c *Catalog) T(locale, key string, params ...string) string {
	text, err := c.Translator(locale).T(key, params...)
	if err == nil {
		return text
	}
	if text, err = c.uni.GetFallback().T(key, params...); err == nil {
		return text
	}
	return key
}
