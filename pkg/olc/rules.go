package olc

import (
	"fmt"
	"strings"
)

// Rule selects the contest rule-set a scoring pass optimizes for.
type Rule int

const (
	Sprint Rule = iota
	Triangle
	Classic
)

// Rules lists every rule in declaration order.
var Rules = []Rule{Sprint, Triangle, Classic}

func (r Rule) String() string {
	switch r {
	case Sprint:
		return "sprint"
	case Triangle:
		return "triangle"
	case Classic:
		return "classic"
	default:
		return fmt.Sprintf("rule(%d)", int(r))
	}
}

// Valid reports whether r is a known rule.
func (r Rule) Valid() bool {
	return r >= Sprint && r <= Classic
}

// ParseRule accepts a rule name (case-insensitive) or its numeric code.
func ParseRule(s string) (Rule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sprint", "0":
		return Sprint, nil
	case "triangle", "fai", "1":
		return Triangle, nil
	case "classic", "2":
		return Classic, nil
	}
	return 0, fmt.Errorf("unknown contest rule %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (r Rule) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid contest rule %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rule) UnmarshalText(b []byte) error {
	v, err := ParseRule(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// scoreFactor divides the handicapped distance; sprint distance is worth less.
func (r Rule) scoreFactor() float64 {
	if r == Sprint {
		return 2.5
	}
	return 1.0
}

// score converts a distance in table units into contest points.
func score(units int, rule Rule, handicap int) float64 {
	if handicap <= 0 {
		return 0
	}
	return float64(units) * 100 / (float64(handicap) * rule.scoreFactor()) / (1000.0 / DistanceUnit)
}
