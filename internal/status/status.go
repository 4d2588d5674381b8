// Package status maps a measured utilization percentage against its
// configured threshold. Classification is derived fresh on every display or
// log decision; it is never stored.
package status

// Level is the health classification of one metric reading.
type Level string

const (
	Normal   Level = "NORMAL"
	Warning  Level = "WARNING"
	Critical Level = "CRITICAL"
)

// WarningBand is how far below the critical threshold the warning range
// starts, in percentage points.
const WarningBand = 10

// Classify grades value against threshold. A value at or above the threshold
// is Critical; within WarningBand points below it, Warning; otherwise Normal.
// The warning bound is not clamped at zero, so a threshold of 5 marks every
// possible reading as at least Warning.
func Classify(value, threshold int) Level {
	switch {
	case value >= threshold:
		return Critical
	case value >= threshold-WarningBand:
		return Warning
	default:
		return Normal
	}
}

// Worst returns the most severe of the given levels. Used by consumers that
// summarize a whole collection pass into one line.
func Worst(levels ...Level) Level {
	worst := Normal
	for _, l := range levels {
		if rank(l) > rank(worst) {
			worst = l
		}
	}
	return worst
}

func rank(l Level) int {
	switch l {
	case Critical:
		return 2
	case Warning:
		return 1
	default:
		return 0
	}
}
