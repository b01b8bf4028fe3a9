package display

import (
	"bytes"
	"fmt"
	"log/slog"
	"text/template"
	"unicode/utf8"

	"github.com/Masterminds/sprig/v3"
	"github.com/muesli/reflow/truncate"
)

// MaxCloseReason is the longest reason a websocket close frame can carry.
const MaxCloseReason = 123

const (
	kickedText    = `Another connection has taken over your session{{ with .Name }} as {{ . }}{{ end }}`
	itemDropText  = `{{ .Mob | title }} dropped {{ .Item }}{{ if and .Rarity (ne (lower .Rarity) "common") }} ({{ .Rarity | lower }}){{ end }}`
	rejectedText  = `Unable to join: {{ .Reason }}`
	shutdownText  = `The realm is shutting down`
	defaultNotice = "notice unavailable"
)

// templateFuncs provides utility functions for templates.
var templateFuncs = sprig.TxtFuncMap()

var (
	kickedTmpl   = template.Must(template.New("kicked").Funcs(templateFuncs).Parse(kickedText))
	itemDropTmpl = template.Must(template.New("item").Funcs(templateFuncs).Parse(itemDropText))
	rejectedTmpl = template.Must(template.New("rejected").Funcs(templateFuncs).Parse(rejectedText))
)

func execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

func render(tmpl *template.Template, data any) string {
	s, err := execute(tmpl, data)
	if err != nil {
		slog.Warn("rendering notice", "template", tmpl.Name(), "error", err)
		return defaultNotice
	}
	return s
}

// KickedNotice tells an evicted session why it was disconnected.
func KickedNotice(name string) string {
	return render(kickedTmpl, struct{ Name string }{name})
}

// ItemNotice describes a loot drop.
func ItemNotice(item, rarity, mob string) string {
	return render(itemDropTmpl, struct{ Item, Rarity, Mob string }{item, rarity, mob})
}

// RejectedNotice explains why a join was refused.
func RejectedNotice(reason string) string {
	return render(rejectedTmpl, struct{ Reason string }{reason})
}

// ShutdownNotice is sent when the room closes.
func ShutdownNotice() string {
	return shutdownText
}

// CloseReason fits reason into a close frame.
func CloseReason(reason string) string {
	s := truncate.StringWithTail(reason, MaxCloseReason, "...")
	// truncate counts cells, the frame limit is in bytes
	for len(s) > MaxCloseReason {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return s
}
