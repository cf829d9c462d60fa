// Package theme defines the color palettes used by the office dashboard.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color roles used throughout the TUI.
type Theme struct {
	Name          string
	Background    lipgloss.Color // Main app background
	Surface       lipgloss.Color // Card/panel backgrounds
	SurfaceHover  lipgloss.Color // Highlighted surface (active tab, selected row)
	SurfaceBright lipgloss.Color // Extra bright surface for emphasis
	Border        lipgloss.Color // Subtle borders
	BorderBright  lipgloss.Color // Prominent borders (cards, focus)
	BorderAccent  lipgloss.Color // Accent-colored borders for focus states
	TextDim       lipgloss.Color // Lowest contrast text (hints, disabled)
	TextMuted     lipgloss.Color // Secondary text (labels, metadata)
	TextPrimary   lipgloss.Color // Primary content text
	Accent        lipgloss.Color // Primary accent (links, active states)
	AccentBright  lipgloss.Color // Brighter accent for emphasis
	AccentDim     lipgloss.Color // Dimmed accent for backgrounds
	Green         lipgloss.Color
	GreenBright   lipgloss.Color
	Orange        lipgloss.Color
	Red           lipgloss.Color
	Blue          lipgloss.Color
	BlueBright    lipgloss.Color
	Yellow        lipgloss.Color
	Magenta       lipgloss.Color
	Cyan          lipgloss.Color
}

// Active is the currently selected theme.
var Active = Harbor

// Harbor is the default theme: deep navy surfaces with sea-glass accents.
var Harbor = Theme{
	Name:          "harbor",
	Background:    lipgloss.Color("#0B1622"),
	Surface:       lipgloss.Color("#12212F"),
	SurfaceHover:  lipgloss.Color("#1B2E40"),
	SurfaceBright: lipgloss.Color("#243B50"),
	Border:        lipgloss.Color("#2C4459"),
	BorderBright:  lipgloss.Color("#46637D"),
	BorderAccent:  lipgloss.Color("#4FB6B0"),
	TextDim:       lipgloss.Color("#4D6477"),
	TextMuted:     lipgloss.Color("#8BA1B3"),
	TextPrimary:   lipgloss.Color("#EEF4F8"),
	Accent:        lipgloss.Color("#4FB6B0"),
	AccentBright:  lipgloss.Color("#7FD8D2"),
	AccentDim:     lipgloss.Color("#173A3D"),
	Green:         lipgloss.Color("#6FBF73"),
	GreenBright:   lipgloss.Color("#93D996"),
	Orange:        lipgloss.Color("#E8944A"),
	Red:           lipgloss.Color("#E0605A"),
	Blue:          lipgloss.Color("#4A90D9"),
	BlueBright:    lipgloss.Color("#7AB2EA"),
	Yellow:        lipgloss.Color("#E8C25A"),
	Magenta:       lipgloss.Color("#C77DBA"),
	Cyan:          lipgloss.Color("#3FA7C4"),
}

// FlexokiDark is a warm, paper-inspired dark theme.
var FlexokiDark = Theme{
	Name:          "flexoki-dark",
	Background:    lipgloss.Color("#100F0F"),
	Surface:       lipgloss.Color("#1C1B1A"),
	SurfaceHover:  lipgloss.Color("#282726"),
	SurfaceBright: lipgloss.Color("#343331"),
	Border:        lipgloss.Color("#403E3C"),
	BorderBright:  lipgloss.Color("#575653"),
	BorderAccent:  lipgloss.Color("#3AA99F"),
	TextDim:       lipgloss.Color("#575653"),
	TextMuted:     lipgloss.Color("#878580"),
	TextPrimary:   lipgloss.Color("#FFFCF0"),
	Accent:        lipgloss.Color("#3AA99F"),
	AccentBright:  lipgloss.Color("#5BC8BE"),
	AccentDim:     lipgloss.Color("#1A3533"),
	Green:         lipgloss.Color("#879A39"),
	GreenBright:   lipgloss.Color("#A3B859"),
	Orange:        lipgloss.Color("#DA702C"),
	Red:           lipgloss.Color("#D14D41"),
	Blue:          lipgloss.Color("#4385BE"),
	BlueBright:    lipgloss.Color("#6BA3D6"),
	Yellow:        lipgloss.Color("#D0A215"),
	Magenta:       lipgloss.Color("#CE5D97"),
	Cyan:          lipgloss.Color("#24837B"),
}

// Daylight is a light palette readable on a laptop in the marina office
// or on deck in full sun.
var Daylight = Theme{
	Name:          "daylight",
	Background:    lipgloss.Color("#F7F5EF"),
	Surface:       lipgloss.Color("#FFFFFF"),
	SurfaceHover:  lipgloss.Color("#E8EEF2"),
	SurfaceBright: lipgloss.Color("#D7E2EA"),
	Border:        lipgloss.Color("#C9D3DB"),
	BorderBright:  lipgloss.Color("#9AAAB8"),
	BorderAccent:  lipgloss.Color("#0F7C8C"),
	TextDim:       lipgloss.Color("#8A97A3"),
	TextMuted:     lipgloss.Color("#56636F"),
	TextPrimary:   lipgloss.Color("#1B2630"),
	Accent:        lipgloss.Color("#0F7C8C"),
	AccentBright:  lipgloss.Color("#0A5E6B"),
	AccentDim:     lipgloss.Color("#D5EEF0"),
	Green:         lipgloss.Color("#3C8A3F"),
	GreenBright:   lipgloss.Color("#2E6E31"),
	Orange:        lipgloss.Color("#C2621B"),
	Red:           lipgloss.Color("#B93A32"),
	Blue:          lipgloss.Color("#2B6CB0"),
	BlueBright:    lipgloss.Color("#1F528A"),
	Yellow:        lipgloss.Color("#A67C00"),
	Magenta:       lipgloss.Color("#9B3F8A"),
	Cyan:          lipgloss.Color("#1A8AA6"),
}

// Aegean pairs whitewashed text with deep sea blues and terracotta.
var Aegean = Theme{
	Name:          "aegean",
	Background:    lipgloss.Color("#06182B"),
	Surface:       lipgloss.Color("#0C2540"),
	SurfaceHover:  lipgloss.Color("#143456"),
	SurfaceBright: lipgloss.Color("#1D446B"),
	Border:        lipgloss.Color("#25507A"),
	BorderBright:  lipgloss.Color("#3D6E9C"),
	BorderAccent:  lipgloss.Color("#5FB0E8"),
	TextDim:       lipgloss.Color("#4A6A88"),
	TextMuted:     lipgloss.Color("#9DB6CC"),
	TextPrimary:   lipgloss.Color("#F4F7FA"),
	Accent:        lipgloss.Color("#5FB0E8"),
	AccentBright:  lipgloss.Color("#93CDF3"),
	AccentDim:     lipgloss.Color("#102F4D"),
	Green:         lipgloss.Color("#7CC08A"),
	GreenBright:   lipgloss.Color("#A2DBAD"),
	Orange:        lipgloss.Color("#D9825B"),
	Red:           lipgloss.Color("#E0675F"),
	Blue:          lipgloss.Color("#3F86D1"),
	BlueBright:    lipgloss.Color("#74A9E3"),
	Yellow:        lipgloss.Color("#E6C96A"),
	Magenta:       lipgloss.Color("#C98BC0"),
	Cyan:          lipgloss.Color("#4EC1C9"),
}

// Terminal uses ANSI 16 colors only - maximum compatibility.
var Terminal = Theme{
	Name:          "terminal",
	Background:    lipgloss.Color("0"),
	Surface:       lipgloss.Color("0"),
	SurfaceHover:  lipgloss.Color("8"),
	SurfaceBright: lipgloss.Color("8"),
	Border:        lipgloss.Color("8"),
	BorderBright:  lipgloss.Color("7"),
	BorderAccent:  lipgloss.Color("6"),
	TextDim:       lipgloss.Color("8"),
	TextMuted:     lipgloss.Color("7"),
	TextPrimary:   lipgloss.Color("15"),
	Accent:        lipgloss.Color("6"),
	AccentBright:  lipgloss.Color("14"),
	AccentDim:     lipgloss.Color("0"),
	Green:         lipgloss.Color("2"),
	GreenBright:   lipgloss.Color("10"),
	Orange:        lipgloss.Color("3"),
	Red:           lipgloss.Color("1"),
	Blue:          lipgloss.Color("4"),
	BlueBright:    lipgloss.Color("12"),
	Yellow:        lipgloss.Color("3"),
	Magenta:       lipgloss.Color("5"),
	Cyan:          lipgloss.Color("6"),
}

// All available themes.
var All = []Theme{Harbor, Aegean, Daylight, FlexokiDark, Terminal}

// ByName returns a theme by its name, defaulting to Harbor.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return Harbor
}

// Names lists theme names in display order.
func Names() []string {
	out := make([]string, len(All))
	for i, t := range All {
		out[i] = t.Name
	}
	return out
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}
