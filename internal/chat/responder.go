package chat

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/moorebrett0/regenmon/internal/pet"
	"github.com/moorebrett0/regenmon/internal/random"
	"github.com/moorebrett0/regenmon/internal/species"
)

// SadThreshold is the happiness below which the pet ignores what was said.
const SadThreshold = 20

// memoryChance is the probability of a memory-aware reply when no intent
// matched and something is remembered.
const memoryChance = 0.4

// Intent is what the responder understood from the player's message.
type Intent string

const (
	IntentSad       Intent = "sad"
	IntentGreeting  Intent = "greeting"
	IntentIntro     Intent = "intro"
	IntentIdentity  Intent = "identity"
	IntentStatus    Intent = "status"
	IntentLevel     Intent = "level"
	IntentType      Intent = "type"
	IntentEvolution Intent = "evolution"
	IntentFeed      Intent = "feed"
	IntentPlay      Intent = "play"
	IntentTrain     Intent = "train"
	IntentLike      Intent = "like"
	IntentAffection Intent = "affection"
	IntentThanks    Intent = "thanks"
	IntentJoke      Intent = "joke"
	IntentFarewell  Intent = "farewell"
	IntentHelp      Intent = "help"
	IntentMemory    Intent = "memory"
	IntentFallback  Intent = "fallback"
)

type intentRule struct {
	intent Intent
	re     *regexp.Regexp
}

// intentRules are tried in order; the first match wins.
var intentRules = []intentRule{
	{IntentGreeting, regexp.MustCompile(`^(hola|holi|buenas|buenos dias|hey|saludos|que tal)\b`)},
	{IntentIntro, regexp.MustCompile(`\b(me llamo|mi nombre es|llamame)\s+([a-zñü]+)`)},
	{IntentIdentity, regexp.MustCompile(`\b(quien eres|como te llamas|cual es tu nombre|que eres)\b`)},
	{IntentStatus, regexp.MustCompile(`\b(como estas|como te sientes|estas bien|tienes hambre)\b`)},
	{IntentLevel, regexp.MustCompile(`\b(nivel|experiencia|xp)\b`)},
	{IntentType, regexp.MustCompile(`\b(tipo|elemento)\b`)},
	{IntentEvolution, regexp.MustCompile(`\bevoluci`)},
	{IntentFeed, regexp.MustCompile(`\b(comida|comer|come|alimenta\w*|galleta)\b`)},
	{IntentPlay, regexp.MustCompile(`\b(jugar|juguemos|jugamos|juega|juego)\b`)},
	{IntentTrain, regexp.MustCompile(`\b(entrenar|entrena|entrenamiento|ejercicio)\b`)},
	{IntentLike, regexp.MustCompile(`\bme gustan?\s+(.+)`)},
	{IntentAffection, regexp.MustCompile(`\b(te quiero|te amo|te adoro|eres lind[oa]|abrazo)\b`)},
	{IntentThanks, regexp.MustCompile(`\b(gracias|te agradezco)\b`)},
	{IntentJoke, regexp.MustCompile(`\b(chiste|broma|hazme reir)\b`)},
	{IntentFarewell, regexp.MustCompile(`\b(adios|chao|hasta luego|nos vemos|bye)\b`)},
	{IntentHelp, regexp.MustCompile(`\b(ayuda|ayudame|que puedo hacer|como funciona|comandos)\b`)},
}

var sadTemplates = []string{
	"... {name} no tiene ganas de hablar. Se siente muy triste \U0001F622",
	"*{name} te mira con ojos llorosos* ¿Podemos jugar un poquito?",
	"Estoy muy triste... solo tengo {happiness} de felicidad \U0001F494",
}

var intentTemplates = map[Intent][]string{
	IntentGreeting: {
		"¡Hola{user_suffix}! Soy {name} y me alegra verte \U0001F44B",
		"¡Holi{user_suffix}! {name} estaba esperandote ✨",
		"¡Hey{user_suffix}! ¿Que hacemos hoy?",
	},
	IntentIntro: {
		"¡Mucho gusto, {user}! Voy a recordar tu nombre \U0001F4AB",
		"{user}... ¡que nombre tan bonito! Yo soy {name}.",
	},
	IntentIdentity: {
		"Soy {name}, un Regenmon de tipo {type} en etapa {evolution}.",
		"¡Me llamo {name}! Soy nivel {level} y muy curioso.",
	},
	IntentStatus: {
		"Me siento {mood}. Mi felicidad esta en {happiness}/100.",
		"Estoy {mood}, gracias por preguntar. Felicidad: {happiness}.",
	},
	IntentLevel: {
		"Soy nivel {level}. Me faltan {xp_next} XP para subir \U0001F4AA",
		"¡Nivel {level}! Solo {xp_next} XP mas y subo de nivel.",
	},
	IntentType: {
		"Soy de tipo {type}. ¡Es lo mejor que hay!",
		"Mi elemento es {type} y estoy orgulloso de ello.",
	},
	IntentEvolution: {
		"Ahora soy un {evolution}. {next_evolution}",
		"Mi forma actual es {evolution}. {next_evolution}",
	},
	IntentFeed: {
		"¡Si, comida! Usa /alimentar y te lo agradecere mucho \U0001F356",
		"Mmm... ¿me das algo de comer? Prueba /alimentar.",
	},
	IntentPlay: {
		"¡Juguemos! Usa /jugar y nos divertimos \U0001F3AE",
		"¡Me encanta jugar! Dale a /jugar.",
	},
	IntentTrain: {
		"¡A entrenar! Usa /entrenar para que gane experiencia \U0001F4AA",
		"Quiero ser mas fuerte. ¿Entrenamos con /entrenar?",
	},
	IntentLike: {
		"¿Te gusta {like}? ¡A mi tambien me parece genial!",
		"Anotado: te gusta {like}. Lo voy a recordar.",
	},
	IntentAffection: {
		"¡Yo tambien te quiero{user_suffix}! \U0001F496",
		"*{name} se acurruca contigo* \U0001F970",
	},
	IntentThanks: {
		"¡De nada! Para eso estamos los Regenmon.",
		"¡No hay de que{user_suffix}!",
	},
	IntentJoke: {
		"¿Por que el Regenmon cruzo la calle? ¡Para subir de nivel del otro lado! \U0001F602",
		"¿Que le dijo un huevo a otro? ¡Ya quiero ser un Chickenmon! \U0001F423",
		"Mi chiste favorito es de XP... pero todavia no lo he terminado de cargar.",
	},
	IntentFarewell: {
		"¡Adios{user_suffix}! Vuelve pronto \U0001F44B",
		"¡Nos vemos! {name} te va a extranar.",
	},
	IntentHelp: {
		"Puedes usar /alimentar, /jugar y /entrenar para cuidarme, o /hablar para charlar conmigo.",
		"Cuidame con /alimentar, /jugar y /entrenar. ¡Y no te olvides de hablarme!",
	},
}

var memoryNameTemplates = []string{
	"Oye {user}, ¿sabias que eres mi persona favorita?",
	"{user}, me gusta mucho cuando hablamos \U0001F4AC",
}

var memoryLikeTemplates = []string{
	"Me acorde de que te gusta {like}. ¿Me cuentas mas?",
	"¿Sigues pensando en {like}? A mi tambien me da curiosidad.",
}

var fallbackTemplates = []string{
	"¡Que interesante! Cuentame mas.",
	"Hmm... {name} esta pensando en eso \U0001F914",
	"No entendi del todo, pero me encanta hablar contigo.",
	"*{name} inclina la cabeza con curiosidad*",
	"¡Wow! Nunca lo habia pensado asi.",
}

// Responder produces offline replies from pet state and player text.
type Responder struct {
	rand random.Source
}

// NewResponder returns a Responder. A nil source uses a crypto-seeded one.
func NewResponder(src random.Source) *Responder {
	if src == nil {
		src = random.NewSeeded()
	}
	return &Responder{rand: src}
}

// Respond returns a line of dialogue. messageIndex drives the rotation
// through the generic replies.
func (r *Responder) Respond(snap pet.Snapshot, input string, memories []Memory, messageIndex int) string {
	text, _ := r.respond(snap, input, memories, messageIndex)
	return text
}

func (r *Responder) respond(snap pet.Snapshot, input string, memories []Memory, messageIndex int) (string, Intent) {
	slots := newSlots(snap, memories)

	if snap.Happiness < SadThreshold {
		return slots.fill(r.pick(sadTemplates)), IntentSad
	}

	folded := fold(input)
	for _, rule := range intentRules {
		m := rule.re.FindStringSubmatch(folded)
		if m == nil {
			continue
		}
		switch rule.intent {
		case IntentIntro:
			slots.user = capitalize(m[2])
		case IntentLike:
			slots.like = strings.TrimSpace(strings.TrimRight(m[1], ".!?"))
		}
		return slots.fill(r.pick(intentTemplates[rule.intent])), rule.intent
	}

	if len(memories) > 0 && r.rand.Float64() < memoryChance {
		if _, ok := Recall(memories, KeyUserName); ok {
			return slots.fill(r.pick(memoryNameTemplates)), IntentMemory
		}
		if _, ok := Recall(memories, KeyLike); ok {
			return slots.fill(r.pick(memoryLikeTemplates)), IntentMemory
		}
	}

	if messageIndex < 0 {
		messageIndex = -messageIndex
	}
	return slots.fill(fallbackTemplates[messageIndex%len(fallbackTemplates)]), IntentFallback
}

func (r *Responder) pick(pool []string) string {
	return pool[r.rand.Intn(len(pool))]
}

type slots struct {
	snap pet.Snapshot
	user string
	like string
}

func newSlots(snap pet.Snapshot, memories []Memory) *slots {
	s := &slots{snap: snap}
	if v, ok := Recall(memories, KeyUserName); ok {
		s.user = capitalize(v)
	}
	if v, ok := Recall(memories, KeyLike); ok {
		s.like = v
	}
	return s
}

func (s *slots) fill(tmpl string) string {
	typ := s.snap.TypeLabel()
	if typ == "" {
		typ = "misterioso"
	}
	userSuffix := ""
	if s.user != "" {
		userSuffix = ", " + s.user
	}
	next := "¡Ya alcance mi forma final!"
	if lvl := species.NextEvolutionLevel(s.snap.Level); lvl > 0 {
		next = "Evoluciono de nuevo al nivel " + strconv.Itoa(lvl) + "."
	}
	evolution := s.snap.Evolution
	if evolution == "" {
		evolution = species.EvolutionName(s.snap.Level)
	}
	mood := s.snap.Mood.Label()
	if s.snap.Mood == "" {
		mood = pet.DetermineMood(s.snap.Happiness, s.snap.Hunger, s.snap.HasHunger).Label()
	}

	return strings.NewReplacer(
		"{name}", s.snap.Name,
		"{level}", strconv.Itoa(s.snap.Level),
		"{type}", typ,
		"{happiness}", strconv.Itoa(s.snap.Happiness),
		"{xp_next}", strconv.Itoa(pet.XPPerLevel-s.snap.XP),
		"{evolution}", evolution,
		"{next_evolution}", next,
		"{mood}", mood,
		"{user_suffix}", userSuffix,
		"{user}", orDefault(s.user, "amigo"),
		"{like}", orDefault(s.like, "eso"),
	).Replace(tmpl)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
