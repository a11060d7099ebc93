package domain

// Zone is the three-level risk classification of a score
type Zone string

const (
	ZoneRed    Zone = "red"
	ZoneYellow Zone = "yellow"
	ZoneGreen  Zone = "green"
)

// Zone thresholds on the 0..100 score
const (
	GreenThreshold  = 80
	YellowThreshold = 50
)

// ZoneFor classifies a score: >=80 green, >=50 yellow, else red
func ZoneFor(score int) Zone {
	switch {
	case score >= GreenThreshold:
		return ZoneGreen
	case score >= YellowThreshold:
		return ZoneYellow
	default:
		return ZoneRed
	}
}

// Rank orders zones red < yellow < green; invalid zones return 0.
func (z Zone) Rank() int {
	switch z {
	case ZoneRed:
		return 1
	case ZoneYellow:
		return 2
	case ZoneGreen:
		return 3
	default:
		return 0
	}
}

// String returns the string representation
func (z Zone) String() string {
	return string(z)
}
