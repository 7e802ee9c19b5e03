// Package species holds the closed registries of elemental types and
// personalities a Regenmon can be created with.
package species

import "strings"

// Action names the three cooldown-gated care actions.
type Action string

const (
	Feed  Action = "feed"
	Play  Action = "play"
	Train Action = "train"
)

// Delta is a flat adjustment to an action's gains.
type Delta struct {
	Happiness int
	XP        int
}

// Type is an elemental kind. It never changes after creation.
type Type struct {
	ID          string
	Label       string // shown to players
	Emoji       string
	Description string
	Personality string // injected into the LLM system prompt

	// Evolutions holds one sprite per evolution stage, egg first.
	Evolutions [5]string

	// HappinessMult and XPMult scale the base gains before flat bonuses.
	// Zero means 1.
	HappinessMult float64
	XPMult        float64

	// ActionBonus adds a flat bonus for a specific action.
	ActionBonus map[Action]Delta

	// CooldownFactor shortens the care cooldown. Zero means 1.
	CooldownFactor float64

	// Verbs flavor template responses.
	Verbs Verbs

	Aliases []string
}

// Verbs are type-flavored action words for template responses.
type Verbs struct {
	Happy    string
	Eat      string
	Play     string
	Train    string
	Distress string
}

// Personality modulates gains and decay. It never changes after creation.
type Personality struct {
	ID          string
	Label       string
	Emoji       string
	Description string
	Prompt      string // injected into the LLM system prompt

	ActionBonus map[Action]Delta

	// RandomBonus is granted on every action with probability RandomChance.
	RandomChance float64
	RandomBonus  Delta

	// DecayFactor stretches the happiness decay interval. Zero means 1.
	DecayFactor float64

	Aliases []string
}

// Types holds all elemental kinds keyed by ID.
var Types = map[string]*Type{
	"fire":     fire,
	"water":    water,
	"plant":    plant,
	"electric": electric,
	"shadow":   shadow,
	"cosmic":   cosmic,
}

// TypeIDs defines display order for type selection.
var TypeIDs = []string{"fire", "water", "plant", "electric", "shadow", "cosmic"}

// Personalities holds all personalities keyed by ID.
var Personalities = map[string]*Personality{
	"brave":       brave,
	"calm":        calm,
	"mischievous": mischievous,
	"mysterious":  mysterious,
}

// PersonalityIDs defines display order for personality selection.
var PersonalityIDs = []string{"brave", "calm", "mischievous", "mysterious"}

// LookupType resolves an ID, Spanish alias or label to a Type.
func LookupType(s string) (*Type, bool) {
	key := normalize(s)
	if t, ok := Types[key]; ok {
		return t, true
	}
	for _, id := range TypeIDs {
		t := Types[id]
		if normalize(t.Label) == key || contains(t.Aliases, key) {
			return t, true
		}
	}
	return nil, false
}

// LookupPersonality resolves an ID, Spanish alias or label to a Personality.
func LookupPersonality(s string) (*Personality, bool) {
	key := normalize(s)
	if p, ok := Personalities[key]; ok {
		return p, true
	}
	for _, id := range PersonalityIDs {
		p := Personalities[id]
		if normalize(p.Label) == key || contains(p.Aliases, key) {
			return p, true
		}
	}
	return nil, false
}

// Stage names by level threshold, lowest first.
var stageNames = [5]string{"Eggmon", "Chickenmon", "Wolfenmon", "Foxenmon", "Dragenmon"}
var stageLevels = [5]int{1, 5, 10, 15, 20}

// defaultSprites are used when a pet has no type.
var defaultSprites = [5]string{"\U0001F95A", "\U0001F423", "\U0001F43A", "\U0001F98A", "\U0001F409"}

// EvolutionIndex maps a level to its evolution stage index (0..4).
func EvolutionIndex(level int) int {
	idx := 0
	for i, min := range stageLevels {
		if level >= min {
			idx = i
		}
	}
	return idx
}

// EvolutionName returns the evolution stage name for a level.
func EvolutionName(level int) string {
	return stageNames[EvolutionIndex(level)]
}

// NextEvolutionLevel returns the level of the next evolution, or 0 at the final stage.
func NextEvolutionLevel(level int) int {
	idx := EvolutionIndex(level)
	if idx == len(stageLevels)-1 {
		return 0
	}
	return stageLevels[idx+1]
}

// Sprite returns the evolution sprite for a level. A nil Type uses the
// generic sequence.
func (t *Type) Sprite(level int) string {
	if t == nil {
		return defaultSprites[EvolutionIndex(level)]
	}
	return t.Evolutions[EvolutionIndex(level)]
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	r := strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n")
	return r.Replace(s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var fire = &Type{
	ID:          "fire",
	Label:       "Fuego",
	Emoji:       "\U0001F525",
	Description: "Entrena con pasion, gana mas XP al entrenar",
	Personality: "Eres de tipo fuego: intenso, competitivo y lleno de energia. Hablas con entusiasmo y te encanta entrenar.",
	Evolutions:  [5]string{"\U0001F95A", "\U0001F423", "\U0001F98E", "\U0001F432", "\U0001F409"},
	ActionBonus: map[Action]Delta{Train: {XP: 10}},
	Verbs: Verbs{
		Happy:    "chisporrotea de alegria",
		Eat:      "asa la comida antes de tragarla",
		Play:     "lanza chispas al aire",
		Train:    "entrena envuelto en llamas",
		Distress: "su llama se ve muy pequena",
	},
	Aliases: []string{"fuego"},
}

var water = &Type{
	ID:          "water",
	Label:       "Agua",
	Emoji:       "\U0001F4A7",
	Description: "Juguetón y fluido, gana mas felicidad al jugar",
	Personality: "Eres de tipo agua: tranquilo, juguetón y adaptable. Te encanta chapotear y jugar.",
	Evolutions:  [5]string{"\U0001F95A", "\U0001F41F", "\U0001F42C", "\U0001F988", "\U0001F433"},
	ActionBonus: map[Action]Delta{Play: {Happiness: 7}},
	Verbs: Verbs{
		Happy:    "salpica burbujas felices",
		Eat:      "sorbe la comida como una ola",
		Play:     "chapotea en un charco",
		Train:    "nada contra la corriente",
		Distress: "se esta secando de tristeza",
	},
	Aliases: []string{"agua"},
}

var plant = &Type{
	ID:          "plant",
	Label:       "Planta",
	Emoji:       "\U0001F33F",
	Description: "Crece con cuidado, gana mas felicidad al comer",
	Personality: "Eres de tipo planta: paciente, amable y conectado con la naturaleza. Disfrutas mucho la comida.",
	Evolutions:  [5]string{"\U0001F330", "\U0001F331", "\U0001F33F", "\U0001F333", "\U0001F332"},
	ActionBonus: map[Action]Delta{Feed: {Happiness: 10}},
	Verbs: Verbs{
		Happy:    "florece con una sonrisa",
		Eat:      "absorbe los nutrientes felizmente",
		Play:     "mece sus hojas al viento",
		Train:    "estira sus raices",
		Distress: "se le caen las hojas",
	},
	Aliases: []string{"planta"},
}

var electric = &Type{
	ID:             "electric",
	Label:          "Electrico",
	Emoji:          "⚡",
	Description:    "Rapidisimo, se recupera en la mitad de tiempo",
	Personality:    "Eres de tipo electrico: hiperactivo, rapido y chispeante. Hablas rapido y con mucha energia.",
	Evolutions:     [5]string{"\U0001F95A", "\U0001F41B", "\U0001F41D", "\U0001F98B", "\U0001F329"},
	CooldownFactor: 0.5,
	Verbs: Verbs{
		Happy:    "suelta chispas de felicidad",
		Eat:      "recarga energia comiendo",
		Play:     "corre en zigzag a toda velocidad",
		Train:    "entrena a la velocidad del rayo",
		Distress: "parpadea sin energia",
	},
	Aliases: []string{"electrico", "eléctrico"},
}

var shadow = &Type{
	ID:          "shadow",
	Label:       "Sombra",
	Emoji:       "\U0001F311",
	Description: "Sigiloso y astuto, gana 15% mas XP",
	Personality: "Eres de tipo sombra: misterioso, astuto y un poco dramatico. Hablas en susurros y te gusta la noche.",
	Evolutions:  [5]string{"\U0001F95A", "\U0001F987", "\U0001F408‍⬛", "\U0001F43A", "\U0001F47B"},
	XPMult:      1.15,
	Verbs: Verbs{
		Happy:    "sonrie desde las sombras",
		Eat:      "devora la comida en la oscuridad",
		Play:     "juega a las escondidas",
		Train:    "practica movimientos sigilosos",
		Distress: "se esconde en un rincon oscuro",
	},
	Aliases: []string{"sombra"},
}

var cosmic = &Type{
	ID:            "cosmic",
	Label:         "Cosmico",
	Emoji:         "\U0001F30C",
	Description:   "Venido de las estrellas, gana 10% mas en todo",
	Personality:   "Eres de tipo cosmico: sabio, soñador y curioso sobre el universo. Hablas de estrellas y galaxias.",
	Evolutions:    [5]string{"\U0001F95A", "⭐", "\U0001F31F", "\U0001F4AB", "\U0001FA90"},
	HappinessMult: 1.1,
	XPMult:        1.1,
	Verbs: Verbs{
		Happy:    "brilla como una estrella",
		Eat:      "saborea polvo de estrellas",
		Play:     "orbita a tu alrededor",
		Train:    "medita entre galaxias",
		Distress: "su brillo se apaga lentamente",
	},
	Aliases: []string{"cosmico", "cósmico"},
}

var brave = &Personality{
	ID:          "brave",
	Label:       "Valiente",
	Emoji:       "\U0001F6E1",
	Description: "+5 XP extra al entrenar",
	Prompt:      "Eres valiente y decidido. Nunca te rindes y animas a tu entrenador a seguir adelante.",
	ActionBonus: map[Action]Delta{Train: {XP: 5}},
	Aliases:     []string{"valiente"},
}

var calm = &Personality{
	ID:          "calm",
	Label:       "Tranquilo",
	Emoji:       "\U0001F343",
	Description: "Su felicidad baja la mitad de rapido",
	Prompt:      "Eres tranquilo y sereno. Hablas despacio y transmites paz.",
	DecayFactor: 2,
	Aliases:     []string{"tranquilo", "calmado"},
}

var mischievous = &Personality{
	ID:          "mischievous",
	Label:       "Travieso",
	Emoji:       "\U0001F61C",
	Description: "+5 felicidad extra al jugar",
	Prompt:      "Eres travieso y bromista. Te encanta hacer chistes y pequenas travesuras.",
	ActionBonus: map[Action]Delta{Play: {Happiness: 5}},
	Aliases:     []string{"travieso"},
}

var mysterious = &Personality{
	ID:           "mysterious",
	Label:        "Misterioso",
	Emoji:        "\U0001F52E",
	Description:  "50% de probabilidad de +5 felicidad y +5 XP en cada accion",
	Prompt:       "Eres misterioso y enigmatico. Hablas con acertijos y insinuaciones.",
	RandomChance: 0.5,
	RandomBonus:  Delta{Happiness: 5, XP: 5},
	Aliases:      []string{"misterioso"},
}
