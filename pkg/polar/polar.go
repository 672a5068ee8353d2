// Package polar models a glider's still-air sink polar as a parabola
// fitted through three measured points.
package polar

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerate is returned when the three points do not describe a usable polar.
var ErrDegenerate = errors.New("polar: degenerate points")

// Point is one measured polar point: airspeed in km/h and sink rate in m/s (positive down).
type Point struct {
	Speed float64 `yaml:"speed_kmh" json:"speed_kmh"`
	Sink  float64 `yaml:"sink_ms" json:"sink_ms"`
}

// Default points of a standard-class glider.
var Default = [3]Point{
	{Speed: 72, Sink: 0.58},
	{Speed: 108, Sink: 0.79},
	{Speed: 144, Sink: 1.42},
}

// Polar is sink(v) = a*v^2 + b*v + c with v in m/s.
type Polar struct {
	a, b, c float64

	vMinSink float64
	minSink  float64
	vBestLD  float64
	bestLD   float64
}

// New fits a polar through three points.
func New(p1, p2, p3 Point) (*Polar, error) {
	v1, v2, v3 := p1.Speed/3.6, p2.Speed/3.6, p3.Speed/3.6
	s1, s2, s3 := p1.Sink, p2.Sink, p3.Sink

	d := (v1 - v2) * (v1 - v3) * (v2 - v3)
	if d == 0 {
		return nil, fmt.Errorf("%w: speeds must be distinct", ErrDegenerate)
	}

	a := (v3*(s2-s1) + v2*(s1-s3) + v1*(s3-s2)) / d
	b := (v3*v3*(s1-s2) + v2*v2*(s3-s1) + v1*v1*(s2-s3)) / d
	c := (v2*v3*(v2-v3)*s1 + v3*v1*(v3-v1)*s2 + v1*v2*(v1-v2)*s3) / d

	if a <= 0 || c/a < 0 {
		return nil, fmt.Errorf("%w: a=%g b=%g c=%g", ErrDegenerate, a, b, c)
	}

	p := &Polar{a: a, b: b, c: c}
	p.vMinSink = -b / (2 * a)
	p.minSink = p.SinkRate(p.vMinSink)
	if p.vMinSink <= 0 || p.minSink <= 0 {
		return nil, fmt.Errorf("%w: no positive minimum sink", ErrDegenerate)
	}
	// Tangent from the origin touches the parabola at v = sqrt(c/a).
	p.vBestLD = math.Sqrt(c / a)
	p.bestLD = p.vBestLD / p.SinkRate(p.vBestLD)
	return p, nil
}

// MustDefault returns the polar for Default; it panics only if Default is broken.
func MustDefault() *Polar {
	p, err := New(Default[0], Default[1], Default[2])
	if err != nil {
		panic(err)
	}
	return p
}

// SinkRate returns the still-air sink rate in m/s at airspeed v (m/s).
func (p *Polar) SinkRate(v float64) float64 {
	return (p.a*v+p.b)*v + p.c
}

// BestLD returns the best glide ratio.
func (p *Polar) BestLD() float64 { return p.bestLD }

// VBestLD returns the best-glide airspeed in m/s.
func (p *Polar) VBestLD() float64 { return p.vBestLD }

// MinSinkSpeed returns the minimum-sink airspeed in m/s.
func (p *Polar) MinSinkSpeed() float64 { return p.vMinSink }

// MinSink returns the minimum sink rate in m/s.
func (p *Polar) MinSink() float64 { return p.minSink }

// Coefficients returns a, b and c.
func (p *Polar) Coefficients() (a, b, c float64) { return p.a, p.b, p.c }
