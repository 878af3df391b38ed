package models

// Difficulty classifies a card on the ordered scale Beginner < Intermediate < Advanced
type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
)

// Difficulties lists the known levels in ascending order
var Difficulties = []Difficulty{Beginner, Intermediate, Advanced}

// Valid reports whether d is one of the known levels
func (d Difficulty) Valid() bool {
	return d.Rank() > 0
}

// Rank returns 1..3 for known levels and 0 otherwise
func (d Difficulty) Rank() int {
	switch d {
	case Beginner:
		return 1
	case Intermediate:
		return 2
	case Advanced:
		return 3
	default:
		return 0
	}
}

// OrDefault returns Beginner for an empty level
func (d Difficulty) OrDefault() Difficulty {
	if d == "" {
		return Beginner
	}
	return d
}

// Badge returns the display variant for the level
func (d Difficulty) Badge() string {
	switch d.OrDefault() {
	case Beginner:
		return "success"
	case Intermediate:
		return "warning"
	case Advanced:
		return "danger"
	default:
		return "secondary"
	}
}
