package errors

import (
	"encoding/json"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F5F"))
	styleCode   = lipgloss.NewStyle().Bold(true)
	styleHint   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD7FF"))
)

// colorEnabled controls whether styles are applied.
var colorEnabled = true

// DisableColors disables styled output.
func DisableColors() {
	colorEnabled = false
}

// EnableColors enables styled output.
func EnableColors() {
	colorEnabled = true
}

func render(s lipgloss.Style, text string) string {
	if !colorEnabled {
		return text
	}
	return s.Render(text)
}

// Format returns a multi-line error message for terminal display.
func (e *Error) Format() string {
	var b strings.Builder

	b.WriteString("\n")
	if e.Code != "" {
		b.WriteString(render(styleHeader, "ERROR "))
		b.WriteString(render(styleCode, e.Code+": "))
	} else {
		b.WriteString(render(styleHeader, "ERROR: "))
	}
	b.WriteString(e.Message)
	b.WriteString("\n\n")

	if e.Detail != "" {
		for _, line := range wrapText(e.Detail, 70) {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if e.Wrapped != nil {
		b.WriteString("  ")
		b.WriteString(e.Wrapped.Error())
		b.WriteString("\n\n")
	}

	if e.Suggestion != "" {
		b.WriteString("  ")
		b.WriteString(render(styleHint, "Hint: "))
		b.WriteString(e.Suggestion)
		b.WriteString("\n")
	}

	return b.String()
}

// FormatCompact returns a compact single-line error format.
func (e *Error) FormatCompact() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// Payload is the JSON shape of an error returned by the HTTP API.
type Payload struct {
	Code       string   `json:"code,omitempty"`
	Category   Category `json:"category"`
	Message    string   `json:"message"`
	Detail     string   `json:"detail,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Payload returns the JSON-serialisable form of the error.
func (e *Error) Payload() Payload {
	return Payload{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Suggestion: e.Suggestion,
	}
}

// FormatJSON returns the error as a JSON object.
func (e *Error) FormatJSON() string {
	data, _ := json.Marshal(e.Payload())
	return string(data)
}

// wrapText wraps text to the specified width.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}
