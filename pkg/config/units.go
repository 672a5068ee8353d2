package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to support extended units (d, w) in YAML.
type Duration time.Duration

// Common durations.
const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ParseDuration parses a duration string, supporting d and w on top of time.ParseDuration.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if strings.ContainsAny(s, "dw") {
		return parseExtendedDuration(s)
	}
	return time.ParseDuration(s)
}

var unitMap = map[string]time.Duration{
	"ns": time.Nanosecond,
	"us": time.Microsecond,
	"µs": time.Microsecond,
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
	"d":  Day,
	"w":  Week,
}

var durationPart = regexp.MustCompile(`([0-9.]+)([a-zµ]+)`)

func parseExtendedDuration(s string) (time.Duration, error) {
	matches := durationPart.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("invalid duration format: %s", s)
	}

	var total time.Duration
	for _, match := range matches {
		val, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number in duration: %s", match[1])
		}
		base, ok := unitMap[match[2]]
		if !ok {
			return 0, fmt.Errorf("unknown unit: %s", match[2])
		}
		total += time.Duration(val * float64(base))
	}
	return total, nil
}

// Distance represents a distance in meters.
type Distance float64

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Distance) UnmarshalYAML(value *yaml.Node) error {
	v, err := decodeWithUnit(value, ParseDistance)
	if err != nil {
		return err
	}
	*d = Distance(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Distance) MarshalYAML() (interface{}, error) {
	if d >= 1000 {
		return strconv.FormatFloat(float64(d)/1000, 'f', -1, 64) + "km", nil
	}
	return fmt.Sprintf("%.2fm", float64(d)), nil
}

// ParseDistance parses a distance with an optional m, km, nm or ft suffix into meters.
func ParseDistance(s string) (float64, error) {
	return parseWithSuffix(s, "distance", []unitSuffix{
		{"km", 1000},
		{"nm", 1852},
		{"ft", 0.3048},
		{"m", 1},
	})
}

// Speed represents a speed in meters per second.
type Speed float64

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Speed) UnmarshalYAML(value *yaml.Node) error {
	f, err := decodeWithUnit(value, ParseSpeed)
	if err != nil {
		return err
	}
	*v = Speed(f)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (v Speed) MarshalYAML() (interface{}, error) {
	return strconv.FormatFloat(float64(v)*3.6, 'f', 1, 64) + "km/h", nil
}

// ParseSpeed parses a speed with an optional m/s, km/h or kt suffix into m/s.
func ParseSpeed(s string) (float64, error) {
	return parseWithSuffix(s, "speed", []unitSuffix{
		{"km/h", 1 / 3.6},
		{"m/s", 1},
		{"kt", 1852.0 / 3600},
	})
}

type unitSuffix struct {
	suffix string
	mult   float64
}

// decodeWithUnit accepts either a bare number or a string with a unit.
func decodeWithUnit(value *yaml.Node, parse func(string) (float64, error)) (float64, error) {
	var s string
	if err := value.Decode(&s); err != nil {
		var f float64
		if errNum := value.Decode(&f); errNum == nil {
			return f, nil
		}
		return 0, err
	}
	return parse(s)
}

func parseWithSuffix(s, kind string, units []unitSuffix) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	mult := 1.0
	numStr := s
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			mult = u.mult
			numStr = strings.TrimSuffix(s, u.suffix)
			break
		}
	}

	val, err := strconv.ParseFloat(strings.TrimSpace(numStr), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s number: %w", kind, err)
	}
	return val * mult, nil
}
