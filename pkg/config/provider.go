package config

import (
	"context"
	"strconv"
	"time"
)

// StateStore is the persistent key/value state the provider overlays on the file.
// It is satisfied by store.SQLiteStore.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}

// Provider defines the interface for accessing unified configuration.
// Runtime changes made through the API are stored in the state store and
// take precedence over the file.
type Provider interface {
	// Scoring
	OLCRule(ctx context.Context) string
	Handicap(ctx context.Context) int
	SampleInterval(ctx context.Context) time.Duration
	ScoreInterval(ctx context.Context) time.Duration
	SetOLCRule(ctx context.Context, rule string) error
	SetHandicap(ctx context.Context, handicap int) error

	// Sim
	SimProvider(ctx context.Context) string
	MockTimeScale(ctx context.Context) float64
	SetMockTimeScale(ctx context.Context, scale float64) error

	// Raw access (for components that need deep access)
	AppConfig() *Config
}

// UnifiedProvider implements Provider by bridging static Config and persistent Store.
type UnifiedProvider struct {
	base  *Config
	store StateStore
}

// NewProvider creates a new UnifiedProvider.
func NewProvider(base *Config, st StateStore) *UnifiedProvider {
	return &UnifiedProvider{
		base:  base,
		store: st,
	}
}

func (p *UnifiedProvider) AppConfig() *Config { return p.base }

// --- Implementations ---

func (p *UnifiedProvider) OLCRule(ctx context.Context) string {
	return p.getString(ctx, KeyOLCRule, p.base.OLC.Rule)
}

func (p *UnifiedProvider) Handicap(ctx context.Context) int {
	return p.getInt(ctx, KeyHandicap, p.base.OLC.Handicap)
}

func (p *UnifiedProvider) SampleInterval(ctx context.Context) time.Duration {
	return time.Duration(p.base.OLC.SampleInterval)
}

func (p *UnifiedProvider) ScoreInterval(ctx context.Context) time.Duration {
	return time.Duration(p.base.OLC.ScoreInterval)
}

func (p *UnifiedProvider) SetOLCRule(ctx context.Context, rule string) error {
	if p.store == nil {
		p.base.OLC.Rule = rule
		return nil
	}
	return p.store.SetState(ctx, KeyOLCRule, rule)
}

func (p *UnifiedProvider) SetHandicap(ctx context.Context, handicap int) error {
	if p.store == nil {
		p.base.OLC.Handicap = handicap
		return nil
	}
	return p.store.SetState(ctx, KeyHandicap, strconv.Itoa(handicap))
}

func (p *UnifiedProvider) SimProvider(ctx context.Context) string {
	fallback := p.base.Sim.Provider
	if fallback == "" {
		fallback = "mock"
	}
	return p.getString(ctx, KeySimSource, fallback)
}

func (p *UnifiedProvider) MockTimeScale(ctx context.Context) float64 {
	return p.getFloat64(ctx, KeyMockTimeScale, p.base.Sim.Mock.TimeScale)
}

func (p *UnifiedProvider) SetMockTimeScale(ctx context.Context, scale float64) error {
	if p.store == nil {
		p.base.Sim.Mock.TimeScale = scale
		return nil
	}
	return p.store.SetState(ctx, KeyMockTimeScale, strconv.FormatFloat(scale, 'f', -1, 64))
}

// --- Helpers ---

func (p *UnifiedProvider) getString(ctx context.Context, key, fallback string) string {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			return val
		}
	}
	return fallback
}

func (p *UnifiedProvider) getInt(ctx context.Context, key string, fallback int) int {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			if i, err := strconv.Atoi(val); err == nil {
				return i
			}
		}
	}
	return fallback
}

func (p *UnifiedProvider) getFloat64(ctx context.Context, key string, fallback float64) float64 {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				return f
			}
		}
	}
	return fallback
}
