package probe

import (
	"context"
	"fmt"

	"glidecomp/pkg/polar"
)

// Pinger is satisfied by *sql.DB and anything wrapping it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Database checks that the state database answers.
func Database(p Pinger) Probe {
	return Probe{
		Name:     "Database",
		Critical: true,
		Check: func(ctx context.Context) error {
			if p == nil {
				return fmt.Errorf("no database")
			}
			return p.PingContext(ctx)
		},
	}
}

// Polar checks that the configured polar describes a flyable glider.
// A bad polar only degrades Sprint projections, so the probe is not critical.
func Polar(p *polar.Polar) Probe {
	return Probe{
		Name: "Glide Polar",
		Check: func(ctx context.Context) error {
			if p == nil {
				return fmt.Errorf("no polar")
			}
			if p.MinSink() <= 0 {
				return fmt.Errorf("min sink %.2f m/s is not positive", p.MinSink())
			}
			if ld := p.BestLD(); ld < 10 || ld > 80 {
				return fmt.Errorf("best L/D %.1f outside [10,80]", ld)
			}
			if p.VBestLD() < p.MinSinkSpeed() {
				return fmt.Errorf("best glide speed %.1f m/s below min sink speed %.1f m/s", p.VBestLD(), p.MinSinkSpeed())
			}
			return nil
		},
	}
}
