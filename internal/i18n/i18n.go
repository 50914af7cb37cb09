// Package i18n renders the user-visible quiz messages from embedded locale files.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Message identifiers.
const (
	NoQuestions    = "quiz.no_questions"
	AlreadyRunning = "quiz.already_running"
	NotRunning     = "quiz.not_running"
	Stopped        = "quiz.stopped"
	TooSoon        = "quiz.too_soon"
	AnswerWas      = "quiz.answer_was"
	NextIn         = "quiz.next_in"
	NoMoreHints    = "quiz.no_more_hints"
	Congrats       = "quiz.congrats"
	LadderLine     = "quiz.ladder_line"
)

// HelpLines lists the help message IDs in display order.
var HelpLines = []string{
	"help.start",
	"help.stop",
	"help.repeat",
	"help.hint",
	"help.next",
	"help.ladder",
	"help.help",
}

// Catalog localizes messages for one language, falling back to English.
type Catalog struct {
	localizer *i18n.Localizer
}

// New loads every embedded locale and returns a catalog for lang.
func New(lang string) (*Catalog, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("parse language %q: %w", lang, err)
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read locale file %s: %w", e.Name(), err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, e.Name()); err != nil {
			return nil, fmt.Errorf("parse locale file %s: %w", e.Name(), err)
		}
	}

	return &Catalog{localizer: i18n.NewLocalizer(bundle, tag.String(), language.English.String())}, nil
}

// T translates a message by ID.
func (c *Catalog) T(msgID string) string {
	return c.Td(msgID, nil)
}

// Td translates a message by ID with template data.
func (c *Catalog) Td(msgID string, data map[string]any) string {
	s, err := c.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    msgID,
		TemplateData: data,
	})
	if err != nil {
		slog.Warn("missing translation", "id", msgID, "error", err)
		return msgID
	}
	return s
}
