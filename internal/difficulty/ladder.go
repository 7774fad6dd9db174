package difficulty

import "fmt"

// Level is an adaptive difficulty tier. Levels are totally ordered by
// declaration order.
type Level int

const (
	Easy Level = iota
	Medium
	Hard
	Expert
)

// Thresholds for moving along the ladder.
const (
	PromoteAt   = 80.0 // accuracy >= PromoteAt moves one level up
	DemoteBelow = 50.0 // accuracy < DemoteBelow moves one level down
)

var levelNames = [...]string{"easy", "medium", "hard", "expert"}

func (l Level) String() string {
	if l < Easy || l > Expert {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// Valid reports whether l is one of the declared levels.
func (l Level) Valid() bool {
	return l >= Easy && l <= Expert
}

// Levels returns every level from lowest to highest.
func Levels() []Level {
	return []Level{Easy, Medium, Hard, Expert}
}

// ParseLevel converts a name like "medium" into a Level.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return Easy, fmt.Errorf("unknown difficulty %q", s)
}

// Step returns the level that follows current given the rolling accuracy
// percentage. Only adjacent moves are possible and the ladder is bounded
// at both ends.
func Step(current Level, accuracyPercent float64) Level {
	switch {
	case accuracyPercent >= PromoteAt && current < Expert:
		return current + 1
	case accuracyPercent < DemoteBelow && current > Easy:
		return current - 1
	default:
		return current
	}
}

// Accuracy returns 100*correct/answered. The second result is false when
// nothing has been answered yet, in which case the ladder must not be
// consulted.
func Accuracy(correct, answered int) (float64, bool) {
	if answered <= 0 {
		return 0, false
	}
	return 100 * float64(correct) / float64(answered), true
}
