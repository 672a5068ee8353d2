package api

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"glidecomp/pkg/olc"
	"glidecomp/pkg/polar"
)

func newTestEngine(t *testing.T, rule olc.Rule) *olc.Engine {
	t.Helper()
	s := olc.DefaultSettings()
	s.Rule = rule
	e, err := olc.NewEngine(s, polar.MustDefault(), nil)
	require.NoError(t, err)
	return e
}

// scoredEngine returns a Classic engine with a valid result over a
// straight ~18 km track.
func scoredEngine(t *testing.T) *olc.Engine {
	t.Helper()
	e := newTestEngine(t, olc.Classic)
	for i := 0; i < 10; i++ {
		e.AddPoint(olc.Fix{
			Time:     float64(i * 60),
			Location: orb.Point{10 + 0.0263*float64(i), 47},
			Altitude: 1500 - 10*float64(i),
			Bearing:  90,
		})
	}
	_, err := e.Run(context.Background(), false)
	require.NoError(t, err)
	require.True(t, e.Solution(olc.Classic).Valid)
	return e
}
