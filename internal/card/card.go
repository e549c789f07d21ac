// Package card renders a single character card. Render is a pure function of
// its props: no state, no I/O.
package card

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	minWidth        = 24
	loadingText     = "Loading…"
	idleText        = "Nothing requested"
	errorPrefix     = "Error: "
	imageLabel      = "image "
	missingImageTxt = "no image"
)

var (
	borderColor  = lipgloss.Color("#444444")
	focusColor   = lipgloss.Color("#5B8DEF")
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E0E0E0"))
	nameStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD166"))
	imageStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Underline(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
)

// Props is everything a card shows.
type Props struct {
	Title   string
	Name    string
	Image   string
	Loading bool
	Error   string
	// Idle marks a card whose fetch has nothing to observe.
	Idle bool
	// Spinner is the current spinner frame shown while loading.
	Spinner string
	Width   int
	Focused bool
}

// Render draws the card. Loading wins over error, error wins over data.
func Render(p Props) string {
	lines := []string{titleStyle.Render(p.Title), ""}
	switch {
	case p.Loading:
		placeholder := loadingText
		if p.Spinner != "" {
			placeholder = spinnerStyle.Render(p.Spinner) + " " + loadingText
		}
		lines = append(lines, placeholder)
	case p.Error != "":
		lines = append(lines, errorStyle.Render(errorPrefix+p.Error))
	case p.Idle:
		lines = append(lines, mutedStyle.Render(idleText))
	default:
		lines = append(lines, nameStyle.Render(NormalizeName(p.Name)))
		if strings.TrimSpace(p.Image) == "" {
			lines = append(lines, mutedStyle.Render(missingImageTxt))
		} else {
			lines = append(lines, mutedStyle.Render(imageLabel)+imageStyle.Render(p.Image))
		}
	}
	return frame(p).Render(strings.Join(lines, "\n"))
}

// NormalizeName upper-cases the first letter of every word and leaves the
// rest alone, so "bulbasaur" becomes "Bulbasaur" and "Rick Sanchez" is
// unchanged.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return cases.Title(language.Und, cases.NoLower).String(name)
}

func frame(p Props) lipgloss.Style {
	width := p.Width
	if width < minWidth {
		width = minWidth
	}
	color := borderColor
	if p.Focused {
		color = focusColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Width(width - 2)
}
