// Package style provides the colors and icons used in log output.
package style

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Colors.
var (
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
	Iris   = lipgloss.Color("#8B5CF6")
	Teal   = lipgloss.Color("#0E9384")
)

// Icons. A log line that starts with one of them is colored by IconColor.
const (
	// Check marks a package or archive that finished.
	Check = "✓"
	// Cross marks a failure.
	Cross = "✗"
	// Warning marks a recoverable problem.
	Warning = "!"
	// Arrow marks a package that started resolving.
	Arrow = "→"
	// Link marks a folder that points at another folder instead of holding content.
	Link = "↪"
)

var iconColors = []struct {
	icon  string
	color lipgloss.Color
}{
	{Check, Green},
	{Cross, Red},
	{Arrow, Iris},
	{Link, Teal},
}

// IconColor returns the color for a message led by a known icon.
func IconColor(msg string) (lipgloss.Color, bool) {
	for _, ic := range iconColors {
		if strings.HasPrefix(msg, ic.icon+" ") {
			return ic.color, true
		}
	}
	return "", false
}
