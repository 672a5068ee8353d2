package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glidecomp/pkg/db"
	"glidecomp/pkg/olc"
)

// setupTestStore creates a test database and store for each test.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	d, err := db.Init(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to init DB: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewSQLiteStore(d)
}

func sampleCheckpoint(id uuid.UUID, saved time.Time) *FlightCheckpoint {
	return &FlightCheckpoint{
		FlightID: id,
		Takeoff:  saved.Add(-time.Hour).Truncate(time.Second),
		SavedAt:  saved,
		Track: olc.Checkpoint{
			Points: []olc.TrackPoint{
				{Time: 0, Location: orb.Point{10, 47}, AltLow: 800, AltHigh: 800},
				{Time: 60, Location: orb.Point{10.01, 47}, AltLow: 750, AltHigh: 900},
			},
			Threshold:  500,
			AltMinimum: 750,
			Last:       orb.Point{10.01, 47},
			Alt1:       900,
			Alt2:       880,
			RawSeen:    12,
			Bearing:    90,
		},
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.LoadLatestCheckpoint(ctx)
	assert.True(t, errors.Is(err, ErrNoCheckpoint))

	id := uuid.New()
	cp := sampleCheckpoint(id, time.Now())
	require.NoError(t, s.SaveCheckpoint(ctx, cp))

	got, err := s.LoadLatestCheckpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, got.FlightID)
	assert.True(t, cp.Takeoff.Equal(got.Takeoff))
	assert.Equal(t, cp.Track.Points, got.Track.Points)
	assert.Equal(t, cp.Track.Threshold, got.Track.Threshold)
	assert.Equal(t, cp.Track.RawSeen, got.Track.RawSeen)
	assert.Equal(t, cp.Track.Last, got.Track.Last)

	// Overwrite the same flight
	cp.Track.Points = cp.Track.Points[:1]
	require.NoError(t, s.SaveCheckpoint(ctx, cp))
	got, err = s.LoadLatestCheckpoint(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Track.Points, 1)

	require.NoError(t, s.DeleteCheckpoint(ctx, id))
	_, err = s.LoadLatestCheckpoint(ctx)
	assert.True(t, errors.Is(err, ErrNoCheckpoint))
}

func TestLoadLatestCheckpoint_PicksNewest(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now()

	older, newer := uuid.New(), uuid.New()
	require.NoError(t, s.SaveCheckpoint(ctx, sampleCheckpoint(newer, now)))
	require.NoError(t, s.SaveCheckpoint(ctx, sampleCheckpoint(older, now.Add(-10*time.Minute))))

	got, err := s.LoadLatestCheckpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, newer, got.FlightID)
}

func TestSaveCheckpoint_RequiresFlightID(t *testing.T) {
	s := setupTestStore(t)
	err := s.SaveCheckpoint(context.Background(), &FlightCheckpoint{})
	assert.Error(t, err)
}

func TestLoadLatestCheckpoint_Corrupt(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.db.Exec("INSERT INTO checkpoints (flight_id, data, points, updated_at) VALUES (?, ?, ?, ?)",
		"bad", []byte{0xc1}, 0, time.Now().Unix())
	require.NoError(t, err)

	_, err = s.LoadLatestCheckpoint(context.Background())
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoCheckpoint))
}

func TestState(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		setup  func()
		key    string
		want   string
		wantOK bool
	}{
		{"missing", func() {}, "olc_rule", "", false},
		{"set", func() { _ = s.SetState(ctx, "olc_rule", "triangle") }, "olc_rule", "triangle", true},
		{"overwrite", func() { _ = s.SetState(ctx, "olc_rule", "classic") }, "olc_rule", "classic", true},
		{"deleted", func() { _ = s.DeleteState(ctx, "olc_rule") }, "olc_rule", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			got, ok := s.GetState(ctx, tt.key)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("GetState(%q) = %q, %v; want %q, %v", tt.key, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
