package strategy

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

// ErrUnknown is returned for names or values that are not a defined strategy.
var ErrUnknown = errors.New("unknown strategy")

// Strategy is a node's rule for choosing a replacement neighbor when it
// rewires away from an infectious contact.
type Strategy int

const (
	// RandomTarget connects to a uniformly random eligible node
	RandomTarget Strategy = iota
	// HighestDegreeTarget connects to the best-connected eligible node
	HighestDegreeTarget
	// LowestDegreeTarget connects to the least-connected eligible node
	LowestDegreeTarget
	// HighestCentralityTarget connects to the most central eligible node
	HighestCentralityTarget
	// LowestCentralityTarget connects to the least central eligible node
	LowestCentralityTarget
)

// Count is the number of defined strategies.
const Count = 5

// All lists every strategy in identifier order.
var All = [Count]Strategy{
	RandomTarget,
	HighestDegreeTarget,
	LowestDegreeTarget,
	HighestCentralityTarget,
	LowestCentralityTarget,
}

var names = [Count]string{
	"random",
	"highest_degree",
	"lowest_degree",
	"highest_centrality",
	"lowest_centrality",
}

// String returns the snake_case name of a strategy
func (s Strategy) String() string {
	if !s.Valid() {
		return fmt.Sprintf("strategy(%d)", int(s))
	}
	return names[s]
}

// Valid reports whether s is one of the defined strategies.
func (s Strategy) Valid() bool {
	return s >= 0 && int(s) < Count
}

// Parse converts a strategy name (case-insensitive) to a Strategy.
func Parse(name string) (Strategy, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for i, n := range names {
		if n == lower {
			return Strategy(i), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknown)
}

// Random draws one of the first k strategies uniformly.
func Random(rng *rand.Rand, k int) Strategy {
	return Strategy(rng.IntN(k))
}

// RandomOther draws uniformly among the first k strategies excluding current.
// k must be at least 2.
func RandomOther(rng *rand.Rand, current Strategy, k int) Strategy {
	pick := Strategy(rng.IntN(k - 1))
	if pick >= current {
		pick++
	}
	return pick
}

// Shares returns the fraction of assignments using each strategy.
func Shares(assignments []Strategy) [Count]float64 {
	var out [Count]float64
	if len(assignments) == 0 {
		return out
	}
	for _, s := range assignments {
		out[s]++
	}
	for i := range out {
		out[i] /= float64(len(assignments))
	}
	return out
}
