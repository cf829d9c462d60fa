package components

import (
	"strings"
	"testing"

	"github.com/theirongolddev/charterdesk/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	lipgloss.SetColorProfile(termenv.TrueColor)
}

// Cards of uneven height must still paint the surface under the shorter
// one, otherwise terminals show holes in the board.
func TestCardRow_PadsShortCardWithSurface(t *testing.T) {
	theme.SetActive("harbor")

	tomorrow := ContentCard("Tomorrow", "Aurora  09:00", 24)
	week := ContentCard("This week", "Aurora\nBlue Pearl\nCalypso\nDelfini\nEos", 24)
	short := len(strings.Split(tomorrow, "\n"))
	tall := len(strings.Split(week, "\n"))
	require.Less(t, short, tall)

	lines := strings.Split(CardRow([]string{week, tomorrow}), "\n")
	require.Len(t, lines, tall)
	for i := short; i < tall; i++ {
		assert.Contains(t, lines[i], "\x1b[", "padding line %d is unstyled", i)
	}
}

func TestCardRow_KeepsCombinedWidth(t *testing.T) {
	theme.SetActive("harbor")

	revenue := ContentCard("Revenue", "€12,900", 30)
	boats := ContentCard("Boats", "Aurora\nBlue Pearl\nCalypso\nDelfini", 20)

	for i, line := range strings.Split(CardRow([]string{boats, revenue}), "\n") {
		assert.Equal(t, 50, lipgloss.Width(line), "line %d", i)
	}
}
