package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// frameInterval drives the logo shimmer and the wheel animation.
const frameInterval = 80 * time.Millisecond

type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// renderShimmerLogo renders "CANNABUBEN" as a slow wave from deep leaf green
// (#2E5632) to gold (#DBAF3E).
func renderShimmerLogo(frame int) string {
	const text = "CANNABUBEN"
	n := len(text)
	t := float64(frame)

	var out strings.Builder
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)
		phase := t*0.1 - x*3.0 + math.Sin(t*0.023)*2.0

		b := math.Pow(math.Sin(phase)*0.5+0.5, 1.3)
		b = b*0.75 + math.Sin(t*0.035)*0.12 + 0.18
		if b > 1.0 {
			b = 1.0
		} else if b < 0.05 {
			b = 0.05
		}

		r := clampByte(46 + b*(219-46))
		g := clampByte(86 + b*(175-86))
		bl := clampByte(50 + b*(62-50))
		color := fmt.Sprintf("#%02X%02X%02X", r, g, bl)

		out.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color)).Render(string(text[i])))
		if i < n-1 {
			out.WriteString(" ")
		}
	}
	return out.String()
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var (
	leafColor = lipgloss.Color("#2E5632")
	goldColor = lipgloss.Color("#DBAF3E")

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ade80"))

	goldStyle = lipgloss.NewStyle().
			Foreground(goldColor).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e06060"))

	// noticeStyle frames the one-time ban notice on the login view.
	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#b45555")).
			Bold(true).
			Padding(0, 1)

	segmentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0")).
			Padding(0, 1)

	segmentLitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1E1E1E")).
			Background(goldColor).
			Bold(true).
			Padding(0, 1)

	revealStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(goldColor).
			Padding(0, 2)

	rarityColors = map[string]lipgloss.Color{
		"Common":    lipgloss.Color("#8890a0"),
		"Rare":      lipgloss.Color("#60a0e0"),
		"Epic":      lipgloss.Color("#c084e0"),
		"Legendary": goldColor,
	}
)

// RarityStyle returns a bold style colored for a card rarity.
func RarityStyle(rarity string) lipgloss.Style {
	if c, ok := rarityColors[rarity]; ok {
		return lipgloss.NewStyle().Foreground(c).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#606878")).Bold(true)
}

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

func helpBar(entries ...[2]string) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, helpEntry(e[0], e[1]))
	}
	return " " + strings.Join(parts, "  ")
}

// formTheme styles the login form in the client palette.
func formTheme() *huh.Theme {
	t := huh.ThemeBase()
	gray := lipgloss.Color("#8890a0")
	light := lipgloss.Color("#e4e4ec")

	t.Focused.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(leafColor)
	t.Focused.Title = lipgloss.NewStyle().Foreground(goldColor).Bold(true)
	t.Focused.ErrorIndicator = lipgloss.NewStyle().Foreground(lipgloss.Color("#e06060")).SetString(" *")
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(lipgloss.Color("#e06060"))
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(goldColor).SetString("> ")
	t.Focused.Option = lipgloss.NewStyle().Foreground(light)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(goldColor).Bold(true)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(goldColor)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(gray)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(goldColor)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(light)

	t.Blurred = t.Focused
	t.Blurred.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.HiddenBorder()).
		BorderLeft(true)
	t.Blurred.Title = lipgloss.NewStyle().Foreground(gray)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(gray).SetString("  ")
	return t
}
