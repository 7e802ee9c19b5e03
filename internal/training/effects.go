// Package training is the image-evaluation mini-game: scoring submitted
// work, turning scores into stat effects and tracking stage progression.
package training

// StatEffects is the stat change a training score causes. Energy is
// reported to players but not modeled by the pet.
type StatEffects struct {
	Happiness int
	Energy    int
	Hunger    int
}

// Effects maps a score to its stat effects by band.
func Effects(score int) StatEffects {
	switch {
	case score >= 80:
		return StatEffects{Happiness: 15, Energy: -20, Hunger: 15}
	case score >= 60:
		return StatEffects{Happiness: 8, Energy: -15, Hunger: 12}
	case score >= 40:
		return StatEffects{Happiness: 3, Energy: -12, Hunger: 10}
	default:
		return StatEffects{Happiness: -10, Energy: -15, Hunger: 10}
	}
}

// Label returns the Spanish verdict for a score.
func Label(score int) string {
	switch {
	case score >= 80:
		return "Excelente"
	case score >= 60:
		return "Buen trabajo"
	case score >= 40:
		return "Aceptable"
	default:
		return "Sigue intentando"
	}
}

// Emoji returns the badge shown next to a score.
func Emoji(score int) string {
	switch {
	case score >= 80:
		return "\U0001F3C6"
	case score >= 60:
		return "⭐"
	case score >= 40:
		return "\U0001F44D"
	default:
		return "\U0001F4AA"
	}
}
