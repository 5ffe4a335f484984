// Package replies renders the bot's outbound texts and keyboards.
//
// Texts are Liquid templates compiled once at startup. Callers pass plain
// map bindings; nested values must be maps or slices of maps.
package replies

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/osteele/liquid"

	"github.com/ignite/vcfbot/internal/domain"
	"github.com/ignite/vcfbot/internal/pkg/logger"
)

// Vars are the bindings for one template.
type Vars = map[string]interface{}

// Renderer holds the compiled templates. It is safe for concurrent use.
type Renderer struct {
	engine    *liquid.Engine
	templates map[Key]*liquid.Template
}

// New compiles every reply template.
func New() (*Renderer, error) {
	r := &Renderer{
		engine:    liquid.NewEngine(),
		templates: make(map[Key]*liquid.Template, len(sources)),
	}
	r.registerFilters()

	for key, src := range sources {
		tpl, err := r.engine.ParseString(src)
		if err != nil {
			return nil, fmt.Errorf("parse reply %s: %w", key, err)
		}
		r.templates[key] = tpl
	}
	return r, nil
}

// MustNew is New for package-level wiring; it panics on a template error.
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Renderer) registerFilters() {
	// {{ 12345 | comma }} → 12,345
	r.engine.RegisterFilter("comma", func(n int) string {
		return humanize.Comma(int64(n))
	})

	// {{ 20971520 | bytes }} → 21 MB
	r.engine.RegisterFilter("bytes", func(n int) string {
		return humanize.Bytes(uint64(n))
	})

	// {{ name | md }} escapes legacy Markdown control characters.
	r.engine.RegisterFilter("md", EscapeMarkdown)
}

// Render executes the template for key.
func (r *Renderer) Render(key Key, vars Vars) (string, error) {
	tpl, ok := r.templates[key]
	if !ok {
		return "", fmt.Errorf("unknown reply %q", key)
	}
	out, err := tpl.RenderString(vars)
	if err != nil {
		return "", fmt.Errorf("render reply %s: %w", key, err)
	}
	return out, nil
}

// Text renders key and falls back to the generic error text when rendering
// fails, so a template bug never leaves the user without an answer.
func (r *Renderer) Text(key Key, vars Vars) string {
	out, err := r.Render(key, vars)
	if err != nil {
		logger.Error("reply render failed", "key", string(key), "error", err)
		return sources[InternalError]
	}
	return out
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// EscapeMarkdown escapes the characters Telegram's legacy Markdown treats
// as entity delimiters.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// ============================================
// KEYBOARDS
// ============================================

// MainMenuButtons is the keyboard under the welcome text.
func MainMenuButtons() [][]domain.Button {
	return [][]domain.Button{
		{{Label: "📝 TEXT TO VCF", Choice: domain.ChoiceTextToCard}, {Label: "📁 CV TXT TO VCF", Choice: domain.ChoiceCvMenu}},
		{{Label: "📇 VCF TO TXT", Choice: domain.ChoiceCardToText}, {Label: "🔗 MERGE FILE", Choice: domain.ChoiceMergeMenu}},
	}
}

// CvMenuButtons is the CV TXT TO VCF submenu.
func CvMenuButtons() [][]domain.Button {
	return [][]domain.Button{
		{{Label: "🔧 V1", Choice: domain.ChoiceCvV1}, {Label: "🔧 V2", Choice: domain.ChoiceCvV2}},
		{{Label: "⬅️ Back", Choice: domain.ChoiceBackToMain}},
	}
}

// MergeMenuButtons is the MERGE FILE submenu.
func MergeMenuButtons() [][]domain.Button {
	return [][]domain.Button{
		{{Label: "📄 MERGE TXT", Choice: domain.ChoiceMergeText}, {Label: "📇 MERGE VCF", Choice: domain.ChoiceMergeCard}},
		{{Label: "⬅️ Back", Choice: domain.ChoiceBackToMain}},
	}
}

// OutputModeButtons offers the CV V1 naming choice.
func OutputModeButtons() [][]domain.Button {
	return [][]domain.Button{
		{{Label: "🔹 Default", Choice: domain.ChoiceOutputDefault}, {Label: "🎨 Custom", Choice: domain.ChoiceOutputCustom}},
	}
}

// Markdown wraps buttons into message options with Markdown enabled.
func Markdown(buttons [][]domain.Button) domain.MessageOptions {
	return domain.MessageOptions{Buttons: buttons, Markdown: true}
}
