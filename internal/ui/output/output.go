// Package output creates termenv outputs with consistent color profile handling.
package output

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ColorProfile returns Ascii when NO_COLOR is set or the terminal is dumb,
// and the detected profile otherwise.
func ColorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

// Output writes colored lines. Lines are written whole so concurrent package
// workers never interleave within a line.
type Output struct {
	*termenv.Output
}

// New creates an Output for w. A nil writer means stdout.
func New(w io.Writer, opts ...termenv.OutputOption) *Output {
	if w == nil {
		w = os.Stdout
	}

	opts = append(opts,
		termenv.WithProfile(ColorProfile()),
		termenv.WithTTY(true),
	)

	return &Output{Output: termenv.NewOutput(w, opts...)}
}

// Line writes text in color followed by a newline.
func (o *Output) Line(text string, color lipgloss.Color) error {
	styled := o.String(text).Foreground(o.Color(string(color)))
	_, err := o.WriteString(styled.String() + "\n")
	return err
}
