package pet

// Mood is a coarse description of how the pet feels, derived from stats.
type Mood string

const (
	MoodEcstatic  Mood = "ecstatic"
	MoodHappy     Mood = "happy"
	MoodHungry    Mood = "hungry"
	MoodSad       Mood = "sad"
	MoodMiserable Mood = "miserable"
)

// DetermineMood returns a mood based on priority-ordered rules.
// Priority: Miserable > Hungry > Sad > Happy > Ecstatic
func DetermineMood(happiness, hunger int, hasHunger bool) Mood {
	if happiness < 25 {
		return MoodMiserable
	}

	if hasHunger && hunger > 70 {
		return MoodHungry
	}

	if happiness < 50 {
		return MoodSad
	}

	if happiness < 80 {
		return MoodHappy
	}

	return MoodEcstatic
}

// Emoji returns the mood indicator shown next to the sprite.
func (m Mood) Emoji() string {
	switch m {
	case MoodEcstatic:
		return "✨"
	case MoodHappy:
		return "\U0001F4AB"
	case MoodHungry:
		return "\U0001F356"
	case MoodSad:
		return "\U0001F4A7"
	default:
		return "\U0001F494"
	}
}

// Label returns the Spanish label for the mood.
func (m Mood) Label() string {
	switch m {
	case MoodEcstatic:
		return "radiante"
	case MoodHappy:
		return "feliz"
	case MoodHungry:
		return "hambriento"
	case MoodSad:
		return "triste"
	default:
		return "desconsolado"
	}
}
