package commentary

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GianTheRios/league-of-molts/internal/domain"
)

func firstBloodEvent() domain.GameEvent {
	return domain.GameEvent{
		Type:      domain.EventFirstBlood,
		Timestamp: 12.5,
		Tick:      25,
		Payload: domain.KillPayload{
			VictimID:   "c1",
			Victim:     "Ironclad",
			VictimTeam: domain.TeamBlue,
			KillerID:   "c2",
			Killer:     "Voltaic",
			KillerTeam: domain.TeamRed,
		},
	}
}

func TestRender_SubstitutesAllFields(t *testing.T) {
	r := NewRenderer(rand.New(rand.NewSource(1)))

	text, ok := r.Render(firstBloodEvent())
	require.True(t, ok)
	assert.Contains(t, text, "Voltaic")
	assert.Contains(t, text, "Ironclad")
	assert.NotContains(t, text, "{")
}

func TestRender_DeterministicWithSameSeed(t *testing.T) {
	a := NewRenderer(rand.New(rand.NewSource(7)))
	b := NewRenderer(rand.New(rand.NewSource(7)))

	for i := 0; i < 20; i++ {
		textA, okA := a.Render(firstBloodEvent())
		textB, okB := b.Render(firstBloodEvent())
		assert.Equal(t, okA, okB)
		assert.Equal(t, textA, textB)
	}
}

func TestRender_MissingFieldReturnsRawTemplate(t *testing.T) {
	r := NewRenderer(rand.New(rand.NewSource(1)))

	// A multi_kill event with a spree payload lacks the count field every
	// multi_kill template references.
	event := domain.GameEvent{
		Type:    domain.EventMultiKill,
		Payload: domain.SpreePayload{Champion: "Voltaic", Team: domain.TeamRed},
	}

	text, ok := r.Render(event)
	require.True(t, ok)
	assert.Contains(t, text, "{count}")
	assert.Contains(t, text, "{champion}")
}

func TestRender_NoTemplatesForType(t *testing.T) {
	r := NewRenderer(rand.New(rand.NewSource(1)))

	text, ok := r.Render(domain.GameEvent{Type: domain.EventCloseFight})
	assert.False(t, ok)
	assert.Equal(t, "", text)
}

func TestRender_MatchStartNeedsNoFields(t *testing.T) {
	r := NewRenderer(rand.New(rand.NewSource(1)))

	text, ok := r.Render(domain.GameEvent{Type: domain.EventMatchStart})
	require.True(t, ok)
	assert.NotEmpty(t, text)
}

func TestRender_MatchEndDuration(t *testing.T) {
	event := domain.GameEvent{
		Type:    domain.EventMatchEnd,
		Payload: domain.MatchEndPayload{Winner: "blue", Duration: 245.0},
	}

	// Try a handful of seeds until the duration template comes up.
	for seed := int64(0); seed < 10; seed++ {
		r := NewRenderer(rand.New(rand.NewSource(seed)))
		text, ok := r.Render(event)
		require.True(t, ok)
		if strings.Contains(text, "seconds") {
			assert.Equal(t, "GG! blue wins in 245 seconds!", text)
			return
		}
	}
	t.Fatal("duration template never selected")
}

func TestBuildPrompt_StableDetails(t *testing.T) {
	prompt := BuildPrompt(firstBloodEvent())

	assert.Contains(t, prompt, "League of Molts")
	assert.Contains(t, prompt, "Event: first_blood")
	assert.Contains(t, prompt, "killer=Voltaic")
	assert.Contains(t, prompt, "victim=Ironclad")
	assert.True(t, strings.HasSuffix(prompt, "Commentary:"))
}

func TestBuildPrompt_NoPayload(t *testing.T) {
	prompt := BuildPrompt(domain.GameEvent{Type: domain.EventMatchStart})
	assert.Contains(t, prompt, "Details: none")
}
