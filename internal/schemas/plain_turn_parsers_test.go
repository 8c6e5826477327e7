package schemas_test

import (
	"testing"

	"word-adventure/internal/domain"
	"word-adventure/internal/schemas"

	"github.com/stretchr/testify/assert"
)

func assertField(t *testing.T, want string, present bool, f domain.Field) {
	t.Helper()
	got, ok := f.Value()
	assert.Equal(t, present, ok)
	assert.Equal(t, want, got)
}

func TestParseTurnPlain_FullResponse(t *testing.T) {
	turn := schemas.ParseTurnPlain("Outcome: Burned\nSituation: Ash\nOptions: Flee | Fight")

	assertField(t, "Burned", true, turn.Outcome())
	assertField(t, "Ash", true, turn.Situation())
	assert.Equal(t, []string{"Flee", "Fight"}, turn.Options())
	assert.True(t, turn.Complete())
}

func TestParseTurnPlain_OnlySituation(t *testing.T) {
	turn := schemas.ParseTurnPlain("Situation: Ash")

	assertField(t, "", false, turn.Outcome())
	assertField(t, "Ash", true, turn.Situation())
	assert.Empty(t, turn.Options())
	assert.True(t, turn.Degraded())
}

func TestParseTurnPlain_Empty(t *testing.T) {
	turn := schemas.ParseTurnPlain("")

	assert.False(t, turn.Outcome().IsPresent())
	assert.False(t, turn.Situation().IsPresent())
	assert.Nil(t, turn.Options())
}

func TestParseTurnPlain_ThreeOptionsKeepsFirstTwo(t *testing.T) {
	turn := schemas.ParseTurnPlain("Options: Flee | Fight | Hide")
	assert.Equal(t, []string{"Flee", "Fight"}, turn.Options())
}

func TestParseTurnPlain_Tolerance(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		outcome   string
		situation string
		options   []string
	}{
		{
			name:      "case insensitive labels",
			input:     "OUTCOME: Safe\nsituation: Camp\noPtIoNs: Rest | Move",
			outcome:   "Safe",
			situation: "Camp",
			options:   []string{"Rest", "Move"},
		},
		{
			name:      "chatter around fields",
			input:     "Sure! Here is the next step:\n\n  Outcome:   Lost  \nSituation: Fog\nOptions: Wait|Run\nHope you enjoy!",
			outcome:   "Lost",
			situation: "Fog",
			options:   []string{"Wait", "Run"},
		},
		{
			name:      "first matching line wins",
			input:     "Outcome: First\nOutcome: Second\nSituation: Tower\nOptions: Climb | Leave",
			outcome:   "First",
			situation: "Tower",
			options:   []string{"Climb", "Leave"},
		},
		{
			name:      "markdown decorations",
			input:     "**Outcome:** Bitten\n- Situation: Goblin\n* Options: Bribe | Punch",
			outcome:   "Bitten",
			situation: "Goblin",
			options:   []string{"Bribe", "Punch"},
		},
		{
			name:      "single option is degraded",
			input:     "Situation: Bridge\nOptions: Cross",
			situation: "Bridge",
			options:   []string{"Cross"},
		},
		{
			name:      "empty pieces are skipped",
			input:     "Situation: Cave\nOptions: | Enter | | Leave",
			situation: "Cave",
			options:   []string{"Enter", "Leave"},
		},
		{
			name:      "windows line endings",
			input:     "Outcome: Wet\r\nSituation: River\r\nOptions: Swim | Wade\r\n",
			outcome:   "Wet",
			situation: "River",
			options:   []string{"Swim", "Wade"},
		},
		{
			name:  "labels without values",
			input: "Outcome:\nSituation:   \nOptions: ",
		},
		{
			name:  "similar but wrong labels",
			input: "Outcomes: Many\nSituations: Few",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turn := schemas.ParseTurnPlain(tt.input)
			assertField(t, tt.outcome, tt.outcome != "", turn.Outcome())
			assertField(t, tt.situation, tt.situation != "", turn.Situation())
			assert.Equal(t, tt.options, turn.Options())
		})
	}
}

func TestParseTurnPlain_NeverPanics(t *testing.T) {
	inputs := []string{
		"\x00\x01",
		"Options:|||||",
		":",
		"Outcome",
		"**",
		"Situation:**",
		string([]byte{0xff, 0xfe, 0xfd}),
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { schemas.ParseTurnPlain(in) }, "input %q", in)
	}
}
