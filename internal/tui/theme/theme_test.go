package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByName_FallsBackToHarbor(t *testing.T) {
	assert.Equal(t, "daylight", ByName("daylight").Name)
	assert.Equal(t, "harbor", ByName("no-such-theme").Name)
}

func TestNames_MatchesAll(t *testing.T) {
	names := Names()
	assert.Len(t, names, len(All))
	assert.Equal(t, "harbor", names[0])
}

func TestSetActive(t *testing.T) {
	defer SetActive("harbor")
	SetActive("terminal")
	assert.Equal(t, "terminal", Active.Name)
}
