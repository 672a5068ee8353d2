package olc

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glidecomp/pkg/geo"
	"glidecomp/pkg/polar"
)

func newTestEngine(t *testing.T, rule Rule, handicap int) *Engine {
	t.Helper()
	s := DefaultSettings()
	s.Rule = rule
	s.Handicap = handicap
	e, err := NewEngine(s, polar.MustDefault(), nil)
	require.NoError(t, err)
	return e
}

func addAll(e *Engine, fixes []Fix) {
	for _, f := range fixes {
		e.AddPoint(f)
	}
}

func TestEngine_TriangleEndToEnd(t *testing.T) {
	e := newTestEngine(t, Triangle, 100)
	course := triangleCourse()
	addAll(e, fixesAt(course,
		[]float64{0, 600, 4000, 8000, 10000, 12000},
		[]float64{1000, 1000, 1000, 1000, 1000, 1000}, 0))
	require.Len(t, e.Track(), 6)

	out, err := e.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, StatusSolved, out.Status)
	assert.True(t, out.Improved)
	assert.Equal(t, 6, out.Points)

	tab, err := BuildTables(e.Track(), 9000)
	require.NoError(t, err)
	units := tab.Dist(1, 2) + tab.Dist(2, 3) + tab.Dist(3, 5) - tab.Dist(1, 5)

	sol := e.Solution(Triangle)
	assert.True(t, sol.Valid)
	assert.True(t, sol.Finished)
	assert.Nil(t, sol.Projection)
	assert.Equal(t, float64(units)*DistanceUnit, sol.Distance)
	assert.InDelta(t, 300000, sol.Distance, 1500)
	assert.InDelta(t, float64(units)*100/100/10, sol.Score, 1e-9)
	assert.Equal(t, 11400.0, sol.Time)
	assert.Equal(t, []orb.Point{course[1], course[2], course[3], course[5]}, sol.Turnpoints)

	assert.False(t, e.Solution(Sprint).Valid)
	assert.False(t, e.Solution(Classic).Valid)

	fc := FeatureCollection(e.Solutions())
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "triangle", fc.Features[0].Properties["rule"])
	assert.Len(t, fc.Features[0].Geometry.(orb.LineString), 4)
}

func TestEngine_InsufficientPoints(t *testing.T) {
	for _, rule := range Rules {
		t.Run(rule.String(), func(t *testing.T) {
			e := newTestEngine(t, rule, DefaultHandicap)
			course := triangleCourse()[:3]
			addAll(e, fixesAt(course, []float64{0, 60, 120}, []float64{1000, 1000, 1000}, 0))

			_, err := e.Run(context.Background(), true)
			assert.ErrorIs(t, err, ErrInsufficientPoints)
			for r, sol := range e.Solutions() {
				assert.False(t, sol.Valid, "rule %v", r)
			}
		})
	}
}

func TestEngine_SprintInProgress(t *testing.T) {
	e := newTestEngine(t, Sprint, 100)
	course := triangleCourse()
	addAll(e, fixesAt(course,
		[]float64{0, 300, 1000, 2000, 2500, 3000},
		[]float64{1000, 1000, 1000, 1000, 1000, 1500}, 90))

	out, err := e.Run(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, StatusSolved, out.Status)

	sol := e.Solution(Sprint)
	require.True(t, sol.Valid)
	assert.False(t, sol.Finished)
	require.NotNil(t, sol.Projection)
	require.Len(t, sol.Turnpoints, 5)
	assert.Equal(t, course[0], sol.Turnpoints[0])
	assert.Equal(t, course[5], sol.Turnpoints[4])

	p := polar.MustDefault()
	further := float64(int(500 * p.BestLD() / DistanceUnit))
	assert.InDelta(t, further*DistanceUnit, geo.Distance(course[5], *sol.Projection), 5)
	assert.InDelta(t, 90, geo.Bearing(course[5], *sol.Projection), 1)
	assert.GreaterOrEqual(t, sol.Distance, further*DistanceUnit)
	assert.InDelta(t, 3000+500*p.BestLD()/p.VBestLD(), sol.Time, 1e-6)
	assert.InDelta(t, sol.Distance/DistanceUnit*100/(100*2.5)/10, sol.Score, 1e-9)

	// Not flying: only finished sprints count, and none fits the window.
	e2 := newTestEngine(t, Sprint, 100)
	addAll(e2, fixesAt(course,
		[]float64{0, 300, 1000, 2000, 2500, 3000},
		[]float64{1000, 1000, 1000, 1000, 1000, 1500}, 90))
	out, err = e2.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, StatusUnsolvable, out.Status)
	assert.False(t, e2.Solution(Sprint).Valid)
}

func TestEngine_SprintRerunUnchanged(t *testing.T) {
	s := DefaultSettings()
	s.Rule = Sprint
	s.Handicap = 100
	s.SprintWindow = time.Hour

	// A low start at point 1 closes a finished sprint at point 6; the high
	// final point makes the in-flight estimate the better result.
	alts := []float64{1000, 500, 1000, 1000, 1000, 1000, 1000, 1500}
	fixes := make([]Fix, len(alts))
	for i, alt := range alts {
		fixes[i] = Fix{
			Time:     float64(600 * i),
			Location: geo.DestinationPoint(origin, float64(i)*5000, 90),
			Altitude: alt,
			Bearing:  90,
		}
	}

	ground, err := NewEngine(s, polar.MustDefault(), nil)
	require.NoError(t, err)
	addAll(ground, fixes)
	_, err = ground.Run(context.Background(), false)
	require.NoError(t, err)
	finished := ground.Solution(Sprint)
	require.True(t, finished.Valid)
	require.True(t, finished.Finished)

	e, err := NewEngine(s, polar.MustDefault(), nil)
	require.NoError(t, err)
	addAll(e, fixes)

	out, err := e.Run(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, out.Improved)
	first := e.Solution(Sprint)
	require.False(t, first.Finished)
	require.Greater(t, first.Score, finished.Score)

	for pass := 1; pass < 3; pass++ {
		out, err = e.Run(context.Background(), true)
		require.NoError(t, err)
		assert.False(t, out.Improved, "pass %d on the same track", pass)
		assert.Equal(t, first, e.Solution(Sprint))
	}
}

func TestEngine_TriangleInProgress(t *testing.T) {
	course := triangleCourse()
	a, c := course[1], course[3]
	// Inbound on the last leg, 15 km short of the start.
	inbound := geo.DestinationPoint(a, 15000, geo.Bearing(a, c))
	locs := []orb.Point{course[0], a, course[2], c, inbound}
	times := []float64{0, 600, 4000, 8000, 10000}
	alts := []float64{1000, 1000, 1000, 1000, 1000}

	ground := newTestEngine(t, Triangle, 100)
	addAll(ground, fixesAt(locs, times, alts, 225))
	_, err := ground.Run(context.Background(), false)
	require.NoError(t, err)
	closed := ground.Solution(Triangle)
	require.True(t, closed.Finished)

	e := newTestEngine(t, Triangle, 100)
	addAll(e, fixesAt(locs, times, alts, 225))
	_, err = e.Run(context.Background(), true)
	require.NoError(t, err)

	tab, err := BuildTables(e.Track(), 9000)
	require.NoError(t, err)
	toGo := tab.Dist(1, 4)
	units := tab.Dist(1, 2) + tab.Dist(2, 3) + tab.Dist(1, 3) - toGo
	p := polar.MustDefault()

	sol := e.Solution(Triangle)
	require.True(t, sol.Valid)
	assert.False(t, sol.Finished)
	require.NotNil(t, sol.Projection)
	assert.Equal(t, a, *sol.Projection, "projects back to the start")
	assert.Equal(t, []orb.Point{a, course[2], c, a}, sol.Turnpoints)
	assert.Equal(t, float64(units)*DistanceUnit, sol.Distance)
	assert.InDelta(t, 285000, sol.Distance, 2000)
	assert.Greater(t, sol.Score, closed.Score)
	assert.InDelta(t, float64(units)/10, sol.Score, 1e-9)
	assert.InDelta(t, 9400+math.Round(float64(toGo)*DistanceUnit/p.VBestLD()), sol.Time, 1e-9)
}

func TestEngine_ClassicFinalGlide(t *testing.T) {
	fixes := make([]Fix, 12)
	for i := range fixes {
		fixes[i] = Fix{
			Time:     float64(600 * i),
			Location: geo.DestinationPoint(origin, float64(i)*5000, 90),
			Altitude: 1500,
			Bearing:  90,
		}
	}
	fixes[11].Altitude = 2000

	ground := newTestEngine(t, Classic, DefaultHandicap)
	addAll(ground, fixes)
	_, err := ground.Run(context.Background(), false)
	require.NoError(t, err)
	landed := ground.Solution(Classic)
	require.True(t, landed.Finished)

	e := newTestEngine(t, Classic, DefaultHandicap)
	addAll(e, fixes)
	_, err = e.Run(context.Background(), true)
	require.NoError(t, err)

	p := polar.MustDefault()
	further := float64(int(p.BestLD() * 500 / DistanceUnit))

	sol := e.Solution(Classic)
	require.True(t, sol.Valid)
	assert.False(t, sol.Finished)
	require.NotNil(t, sol.Projection)
	assert.Equal(t, landed.Turnpoints, sol.Turnpoints)
	assert.Equal(t, landed.Distance+further*DistanceUnit, sol.Distance)
	assert.InDelta(t, landed.Time+further*DistanceUnit/p.VBestLD(), sol.Time, 1e-6)
	assert.InDelta(t, further*DistanceUnit, geo.Distance(fixes[11].Location, *sol.Projection), 5)
	assert.InDelta(t, 90, geo.Bearing(fixes[11].Location, *sol.Projection), 1)
}

func TestEngine_LogsComponentOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := DefaultSettings()
	s.Rule = Triangle
	s.Handicap = 100
	e, err := NewEngine(s, polar.MustDefault(), logger)
	require.NoError(t, err)

	addAll(e, fixesAt(triangleCourse(),
		[]float64{0, 600, 4000, 8000, 10000, 12000},
		[]float64{1000, 1000, 1000, 1000, 1000, 1000}, 0))
	_, err = e.Run(context.Background(), false)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines[0])
	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(line, "component=olc"), line)
	}
}

func zigzag(n int, start float64) []Fix {
	fixes := make([]Fix, n)
	for i := range fixes {
		lat := 47.0
		if i%2 == 1 {
			lat = 47.2
		}
		fixes[i] = Fix{
			Time:     start + float64(i)*600,
			Location: orb.Point{10 + 0.1*float64(i), lat},
			Altitude: 1500,
		}
	}
	return fixes
}

func TestEngine_ClassicMonotonic(t *testing.T) {
	e := newTestEngine(t, Classic, DefaultHandicap)
	all := zigzag(16, 0)
	addAll(e, all[:12])

	_, err := e.Run(context.Background(), false)
	require.NoError(t, err)
	first := e.Solution(Classic)
	require.True(t, first.Valid)
	assert.True(t, first.Finished)
	assert.Len(t, first.Turnpoints, 7)

	out, err := e.Run(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, out.Improved, "re-run on the same track")
	assert.Equal(t, first.Score, e.Solution(Classic).Score)

	addAll(e, all[12:])
	_, err = e.Run(context.Background(), false)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, e.Solution(Classic).Score, first.Score)
}

func TestEngine_Busy(t *testing.T) {
	e := newTestEngine(t, Triangle, 100)
	e.state.Store(int32(StateScanning))
	assert.True(t, e.Busy())

	_, err := e.Run(context.Background(), false)
	assert.ErrorIs(t, err, ErrBusy)

	// Points are still accepted while a pass is in flight.
	e.AddPoint(Fix{Time: 1, Location: origin, Altitude: 1000})
	assert.Len(t, e.Track(), 1)
}

func TestEngine_CancelledPass(t *testing.T) {
	e := newTestEngine(t, Triangle, 100)
	addAll(e, fixesAt(triangleCourse(),
		[]float64{0, 600, 4000, 8000, 10000, 12000},
		[]float64{1000, 1000, 1000, 1000, 1000, 1000}, 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Run(ctx, false)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, e.Solution(Triangle).Valid)
	assert.Equal(t, StateIdle, e.State())
}

func TestEngine_ResetFlight(t *testing.T) {
	e := newTestEngine(t, Triangle, 100)
	addAll(e, fixesAt(triangleCourse(),
		[]float64{0, 600, 4000, 8000, 10000, 12000},
		[]float64{1000, 1000, 1000, 1000, 1000, 1000}, 0))
	_, err := e.Run(context.Background(), false)
	require.NoError(t, err)
	require.True(t, e.Solution(Triangle).Valid)

	e.ResetFlight()
	assert.Empty(t, e.Track())
	assert.False(t, e.Solution(Triangle).Valid)
	assert.Equal(t, initialThreshold, e.Info().ThresholdMeters)
}

func TestEngine_CheckpointRestore(t *testing.T) {
	src := newTestEngine(t, Classic, DefaultHandicap)
	addAll(src, zigzag(12, 0))
	cp := src.Checkpoint()

	dst := newTestEngine(t, Classic, DefaultHandicap)
	require.NoError(t, dst.Restore(cp))
	assert.Equal(t, src.Track(), dst.Track())
	assert.Equal(t, src.Info(), dst.Info())

	// Both continue identically.
	next := Fix{Time: 99999, Location: orb.Point{12, 47.1}, Altitude: 1500}
	assert.Equal(t, src.AddPoint(next), dst.AddPoint(next))
	assert.Equal(t, src.Track(), dst.Track())

	bad := src.Checkpoint()
	bad.Points[3].Time = bad.Points[2].Time
	assert.ErrorIs(t, dst.Restore(bad), ErrInvalidCheckpoint)

	bad = src.Checkpoint()
	bad.Threshold = 0
	assert.ErrorIs(t, dst.Restore(bad), ErrInvalidCheckpoint)
}

func TestEngine_Settings(t *testing.T) {
	e := newTestEngine(t, Sprint, DefaultHandicap)

	require.NoError(t, e.SetRule(Classic))
	require.NoError(t, e.SetHandicap(115))
	assert.Equal(t, Classic, e.Settings().Rule)
	assert.Equal(t, 115, e.Settings().Handicap)

	assert.ErrorIs(t, e.SetRule(Rule(7)), ErrInvalidSettings)
	assert.ErrorIs(t, e.SetHandicap(0), ErrInvalidSettings)

	_, err := NewEngine(Settings{Rule: Sprint, Handicap: 100, Capacity: 5, SprintWindow: DefaultSprintWindow}, polar.MustDefault(), nil)
	assert.ErrorIs(t, err, ErrInvalidSettings)
	_, err = NewEngine(DefaultSettings(), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestParseRule(t *testing.T) {
	tests := []struct {
		in      string
		want    Rule
		wantErr bool
	}{
		{"sprint", Sprint, false},
		{"Triangle", Triangle, false},
		{"fai", Triangle, false},
		{" classic ", Classic, false},
		{"2", Classic, false},
		{"league", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseRule(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRule(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRule(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEngine_HandicapChangeClearsSolutions(t *testing.T) {
	e := newTestEngine(t, Triangle, 100)
	addAll(e, fixesAt(triangleCourse(),
		[]float64{0, 600, 4000, 8000, 10000, 12000},
		[]float64{1000, 1000, 1000, 1000, 1000, 1000}, 0))
	_, err := e.Run(context.Background(), false)
	require.NoError(t, err)
	before := e.Solution(Triangle)
	require.True(t, before.Valid)

	// Same handicap keeps the result
	require.NoError(t, e.SetHandicap(100))
	assert.True(t, e.Solution(Triangle).Valid)

	require.NoError(t, e.SetHandicap(125))
	assert.False(t, e.Solution(Triangle).Valid)
	assert.Len(t, e.Track(), 6)

	_, err = e.Run(context.Background(), false)
	require.NoError(t, err)
	after := e.Solution(Triangle)
	assert.Equal(t, before.Distance, after.Distance)
	assert.InDelta(t, before.Score*100/125, after.Score, 1e-9)
}
