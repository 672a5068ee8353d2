package olc

// GlidePolar is the subset of a glider performance model the optimizer needs.
// Speeds are in m/s, sink rates in m/s positive down.
type GlidePolar interface {
	BestLD() float64
	VBestLD() float64
	MinSinkSpeed() float64
	SinkRate(v float64) float64
}

// Projection is the outcome of burning a height surplus in a glide.
type Projection struct {
	Speed    float64 // m/s
	Time     float64 // s
	Distance float64 // m
}

const bisectIterations = 60

// ProjectGlide estimates how far a glider can travel burning height meters
// within timeRemaining seconds. If the required sink is at least the polar's
// minimum sink the glider flies the matching speed for the whole time;
// otherwise it flies best-glide speed until the height is gone.
func ProjectGlide(p GlidePolar, height, timeRemaining float64) (Projection, bool) {
	if p == nil || height < 0 || timeRemaining <= 0 {
		return Projection{}, false
	}

	sink := height / timeRemaining
	vMin := p.MinSinkSpeed()
	if sink >= p.SinkRate(vMin) {
		v := speedForSink(p, sink, vMin)
		return Projection{Speed: v, Time: timeRemaining, Distance: v * timeRemaining}, true
	}

	v := p.VBestLD()
	ld := p.BestLD()
	if v <= 0 || ld <= 0 {
		return Projection{}, false
	}
	t := height / (v / ld)
	return Projection{Speed: v, Time: t, Distance: v * t}, true
}

// speedForSink bisects the rising branch of the polar for the speed whose
// sink rate equals sink.
func speedForSink(p GlidePolar, sink, lo float64) float64 {
	hi := 4 * p.VBestLD()
	if hi <= lo {
		hi = 2*lo + 1
	}
	if p.SinkRate(hi) <= sink {
		return hi
	}
	for range bisectIterations {
		mid := (lo + hi) / 2
		if p.SinkRate(mid) < sink {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}
