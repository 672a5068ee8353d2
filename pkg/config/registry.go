package config

// Persistent state keys (Registry)
const (
	KeyOLCRule       = "olc_rule"
	KeyHandicap      = "olc_handicap"
	KeySimSource     = "sim_source"
	KeyMockTimeScale = "mock_time_scale"
)
