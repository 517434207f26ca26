package chatbot

import (
	"fmt"
	"io"

	"MiniChat/internal/session"

	"github.com/fatih/color"
)

// Renderer writes the conversation to the console
type Renderer struct {
	out       io.Writer
	user      *color.Color
	assistant *color.Color
	errs      *color.Color
	info      *color.Color
}

// NewRenderer builds a renderer over out. noColor strips all escape codes.
func NewRenderer(out io.Writer, noColor bool) *Renderer {
	r := &Renderer{
		out:       out,
		user:      color.New(color.FgHiGreen),
		assistant: color.New(color.FgHiRed),
		errs:      color.New(color.FgRed),
		info:      color.New(color.FgCyan),
	}
	if noColor {
		for _, c := range []*color.Color{r.user, r.assistant, r.errs, r.info} {
			c.DisableColor()
		}
	}
	return r
}

// Prompt asks for the next line of input
func (r *Renderer) Prompt() {
	_, _ = r.user.Fprint(r.out, "User: ")
}

// Assistant prints one assistant reply
func (r *Renderer) Assistant(content string) {
	_, _ = r.assistant.Fprint(r.out, "Assistant: ")
	_, _ = fmt.Fprintln(r.out, content)
}

// Message prints a history entry with its speaker label
func (r *Renderer) Message(m session.Message) {
	switch m.Role {
	case session.RoleUser:
		_, _ = r.user.Fprint(r.out, "User: ")
	default:
		_, _ = r.assistant.Fprint(r.out, "Assistant: ")
	}
	_, _ = fmt.Fprintln(r.out, m.Content)
}

// Error reports a failed turn or command
func (r *Renderer) Error(err error) {
	_, _ = r.errs.Fprintf(r.out, "Error: %v\n", err)
}

// Info prints a status line
func (r *Renderer) Info(format string, args ...any) {
	_, _ = r.info.Fprintf(r.out, format+"\n", args...)
}

// Println prints plain text
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}
