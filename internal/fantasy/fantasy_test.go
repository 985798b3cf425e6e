package fantasy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		line Line
		want float64
	}{
		{"reference line", Line{Points: 30, Rebounds: 10, Assists: 5, Steals: 2, Blocks: 1, Turnovers: 3}, 52.5},
		{"zero line", Line{}, 0},
		{"turnovers only", Line{Turnovers: 4}, -4},
		{"negative inputs pass through", Line{Points: -2}, -2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tc.want, Score(tc.line), 1e-9)
		})
	}
}

func TestLineFromIntsTreatsNilAsZero(t *testing.T) {
	t.Parallel()

	pts, reb := 25, 10
	l := LineFromInts(&pts, &reb, nil, nil, nil, nil)
	assert.Equal(t, Line{Points: 25, Rebounds: 10}, l)
	assert.InDelta(t, 37.0, Score(l), 1e-9)
}

func TestRound2(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 52.5, Round2(52.5))
	assert.Equal(t, 12.35, Round2(12.345000001))
	assert.Equal(t, 0.0, Round2(0.004))
}

func TestPerGame(t *testing.T) {
	t.Parallel()

	total, gp, zero := 2071, 79, 0
	got := PerGame(&total, &gp)
	require.NotNil(t, got)
	assert.Equal(t, 26.22, *got)

	assert.Nil(t, PerGame(&total, &zero))
	assert.Nil(t, PerGame(&total, nil))
	assert.Nil(t, PerGame(nil, &gp))
}

func TestPct(t *testing.T) {
	t.Parallel()

	made, att, zero := 822, 1411, 0
	got := Pct(&made, &att)
	require.NotNil(t, got)
	assert.Equal(t, 0.583, *got)

	assert.Nil(t, Pct(&made, &zero))
	assert.Nil(t, Pct(nil, &att))
}
