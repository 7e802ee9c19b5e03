package discord

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/moorebrett0/regenmon/internal/chat"
	"github.com/moorebrett0/regenmon/internal/economy"
	"github.com/moorebrett0/regenmon/internal/game"
	"github.com/moorebrett0/regenmon/internal/hub"
	"github.com/moorebrett0/regenmon/internal/pet"
	"github.com/moorebrett0/regenmon/internal/proactive"
	"github.com/moorebrett0/regenmon/internal/species"
	"github.com/moorebrett0/regenmon/internal/training"
)

// defaultVerbs flavor an untyped Regenmon.
var defaultVerbs = species.Verbs{
	Happy:    "salta de alegria",
	Eat:      "come con muchas ganas",
	Play:     "da vueltas de felicidad",
	Train:    "entrena con todas sus fuerzas",
	Distress: "se ve decaido",
}

func verbs(snap pet.Snapshot) species.Verbs {
	if snap.Type == nil {
		return defaultVerbs
	}
	return snap.Type.Verbs
}

// progressBar renders a visual bar like ████████░░ 78%
func progressBar(value, width int) string {
	filled := value * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled
	return fmt.Sprintf("%s%s %d%%", strings.Repeat("█", filled), strings.Repeat("░", empty), value)
}

// moodColor returns a Discord embed color for the mood.
func moodColor(mood pet.Mood) int {
	switch mood {
	case pet.MoodEcstatic:
		return 0x57F287 // green
	case pet.MoodHappy:
		return 0x5865F2 // blurple
	case pet.MoodHungry:
		return 0xEB459E // fuchsia
	case pet.MoodSad:
		return 0xFEE75C // yellow
	case pet.MoodMiserable:
		return 0xED4245 // red
	default:
		return 0x5865F2
	}
}

// StatusEmbed builds the /estado card.
func StatusEmbed(snap pet.Snapshot, coins int, progress training.Progress, now time.Time) *discordgo.MessageEmbed {
	stats := fmt.Sprintf("felicidad %s", progressBar(snap.Happiness, 10))
	if snap.HasHunger {
		stats += fmt.Sprintf("\nhambre    %s", progressBar(snap.Hunger, 10))
	}
	stats += fmt.Sprintf("\nxp        %s", progressBar(snap.XP, 10))

	kind := "sin tipo"
	if snap.Type != nil {
		kind = fmt.Sprintf("%s %s", snap.Type.Emoji, snap.Type.Label)
	}
	if snap.Personality != nil {
		kind += fmt.Sprintf(" | %s %s", snap.Personality.Emoji, snap.Personality.Label)
	}

	evolution := snap.Evolution
	if next := species.NextEvolutionLevel(snap.Level); next > 0 {
		evolution += fmt.Sprintf(" (evoluciona en nivel %d)", next)
	} else {
		evolution += " (forma final)"
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s %s", snap.Sprite, snap.Name),
		Description: fmt.Sprintf("nivel %d | %s %s | %s", snap.Level, snap.Mood.Emoji(), snap.Mood.Label(), kind),
		Color:       moodColor(snap.Mood),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Stats", Value: "```\n" + stats + "\n```"},
			{Name: "Evolucion", Value: evolution, Inline: true},
			{Name: "Monedas", Value: fmt.Sprintf("\U0001FA99 %d", coins), Inline: true},
			{Name: "Entrenamiento", Value: fmt.Sprintf("etapa %d | %d/%d pts", progress.Stage, progress.TotalPoints, training.NextStageThreshold(progress.Stage)), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("faltan %d XP para subir de nivel | nacio %s", snap.XPToNext, game.TimeAgo(snap.CreatedAt.UnixMilli(), now)),
		},
		Timestamp: now.Format(time.RFC3339),
	}
}

// TemplateAction describes an applied care action.
func TemplateAction(snap pet.Snapshot, res pet.Result) string {
	v := verbs(snap)
	var b strings.Builder
	switch res.Action {
	case species.Feed:
		fmt.Fprintf(&b, "%s %s %s!", snap.Sprite, snap.Name, v.Eat)
	case species.Play:
		fmt.Fprintf(&b, "%s %s %s!", snap.Sprite, snap.Name, v.Play)
	default:
		fmt.Fprintf(&b, "%s %s %s!", snap.Sprite, snap.Name, v.Train)
	}
	fmt.Fprintf(&b, "\n+%d felicidad | +%d XP", res.Gains.Happiness, res.Gains.XP)
	if snap.HasHunger {
		fmt.Fprintf(&b, " | hambre %d%%", snap.Hunger)
	}
	if res.Action == species.Feed {
		fmt.Fprintf(&b, " | -%d monedas", economy.FeedCost)
	}
	if res.Bonus {
		b.WriteString("\n\U0001F52E un aura misteriosa le dio un bonus!")
	}
	return b.String()
}

// TemplateLevelUp announces a level-up, and the evolution when one happened.
func TemplateLevelUp(mention string, ev game.LevelUp) string {
	snap := ev.Snapshot
	msg := fmt.Sprintf("\U0001F389 %s %s subio al nivel %d!", mention, snap.Name, snap.Level)
	if ev.Evolved {
		msg += fmt.Sprintf("\n✨ %s evoluciono de %s a %s! %s", snap.Name, ev.From, snap.Evolution, snap.Sprite)
	}
	return strings.TrimSpace(strings.ReplaceAll(msg, "  ", " "))
}

// TemplateDistress is the nudge sent when a pet needs care.
func TemplateDistress(mention string, snap pet.Snapshot, reason proactive.Reason) string {
	v := verbs(snap)
	switch reason {
	case proactive.ReasonHungry:
		return fmt.Sprintf("⚠️ %s %s %s... tiene mucha hambre (%d%%). Usa /alimentar!", mention, snap.Name, v.Distress, snap.Hunger)
	default:
		return fmt.Sprintf("⚠️ %s %s %s... su felicidad esta en %d%%. Juega con el usando /jugar!", mention, snap.Name, v.Distress, snap.Happiness)
	}
}

// TemplateHatched greets a newly created Regenmon.
func TemplateHatched(snap pet.Snapshot) string {
	msg := fmt.Sprintf("\U0001F95A crk... crk...\n%s Hola! soy %s", snap.Sprite, snap.Name)
	if snap.Type != nil {
		msg += fmt.Sprintf(", tu Regenmon de tipo %s %s", snap.Type.Emoji, snap.Type.Label)
	}
	msg += "."
	if snap.Personality != nil {
		msg += fmt.Sprintf(" Dicen que soy %s. Cuidame mucho!", strings.ToLower(snap.Personality.Label))
	}
	return msg
}

// TemplateChat renders the pet's chat reply.
func TemplateChat(snap pet.Snapshot, reply game.ChatReply) string {
	msg := fmt.Sprintf("%s **%s:** %s", snap.Sprite, snap.Name, reply.Message.Text)
	if reply.Earned > 0 {
		msg += fmt.Sprintf("\n\U0001FA99 +%d monedas", reply.Earned)
	}
	return msg
}

func TemplateCoins(balance int, delta *economy.Delta) string {
	msg := fmt.Sprintf("\U0001FA99 Tienes **%d** monedas.", balance)
	if delta != nil {
		msg += fmt.Sprintf(" (%+d)", delta.Amount)
	}
	msg += fmt.Sprintf("\nAlimentar cuesta %d. Habla con tu Regenmon para ganar mas (probabilidad actual %.0f%%).",
		economy.FeedCost, economy.RewardChance(balance)*100)
	return msg
}

func TemplateHistory(entries []game.Entry, now time.Time) string {
	if len(entries) == 0 {
		return "Todavia no hay acciones en tu historial."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**Historial (%d)**\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "`%-14s` %s", e.Action, game.TimeAgo(e.Timestamp, now))
		if e.Coins != 0 {
			fmt.Fprintf(&b, " | %+d \U0001FA99", e.Coins)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// TrainingEmbed shows an evaluation result.
func TrainingEmbed(res game.TrainingResult) *discordgo.MessageEmbed {
	eval := res.Evaluation
	e := res.Effects
	effects := fmt.Sprintf("felicidad %+d | energia %+d | hambre %+d", e.Happiness, e.Energy, e.Hunger)
	fields := []*discordgo.MessageEmbedField{
		{Name: "Efectos", Value: effects},
		{Name: "Puntos", Value: fmt.Sprintf("+%d (total %d)", eval.Points, res.Outcome.TotalPoints), Inline: true},
		{Name: "Monedas", Value: fmt.Sprintf("+%d", res.Earned), Inline: true},
		{Name: "Etapa", Value: fmt.Sprintf("%d", res.Outcome.Stage), Inline: true},
	}
	if res.Outcome.Evolved {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "✨ Evolucion", Value: fmt.Sprintf("Tu Regenmon alcanzo la etapa %d!", res.Outcome.Stage)})
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s %d/100 | %s", training.Emoji(eval.Score), eval.Score, training.Label(eval.Score)),
		Description: eval.Feedback,
		Color:       scoreColor(eval.Score),
		Fields:      fields,
		Footer:      &discordgo.MessageEmbedFooter{Text: "categoria: " + training.CategoryLabels[res.Category]},
	}
}

func scoreColor(score int) int {
	switch {
	case score >= 80:
		return 0x57F287
	case score >= 60:
		return 0xFEE75C
	case score >= 40:
		return 0x5865F2
	default:
		return 0xED4245
	}
}

func TemplateLeaderboard(lb hub.Leaderboard) string {
	if len(lb.Data) == 0 {
		return "El ranking esta vacio por ahora."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**Ranking del HUB** (pagina %d/%d)\n", lb.Pagination.Page, max(lb.Pagination.TotalPages, 1))
	for _, e := range lb.Data {
		fmt.Fprintf(&b, "`#%-3d` **%s** de %s | etapa %d | %d pts | `%s`\n", e.Rank, e.Name, e.OwnerName, e.Stage, e.TotalPoints, e.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ProfileEmbed shows another Regenmon's HUB page with its latest wall messages.
func ProfileEmbed(p hub.Profile, messages []hub.Message, now time.Time) *discordgo.MessageEmbed {
	stats := fmt.Sprintf("felicidad %s\nenergia   %s\nhambre    %s",
		progressBar(p.Stats.Happiness, 10), progressBar(p.Stats.Energy, 10), progressBar(p.Stats.Hunger, 10))
	fields := []*discordgo.MessageEmbedField{
		{Name: "Stats", Value: "```\n" + stats + "\n```"},
		{Name: "Etapa", Value: fmt.Sprintf("%d", p.Stage), Inline: true},
		{Name: "Puntos", Value: fmt.Sprintf("%d", p.TotalPoints), Inline: true},
		{Name: "$FRUTA", Value: fmt.Sprintf("%d", p.Balance), Inline: true},
		{Name: "Visitas", Value: fmt.Sprintf("%d", p.TotalVisits), Inline: true},
	}
	if len(messages) > 0 {
		var b strings.Builder
		for i, m := range messages {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "**%s** (%s): %s\n", m.FromName, game.TimeAgo(m.CreatedAt.UnixMilli(), now), m.Message)
		}
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Mensajes", Value: strings.TrimRight(b.String(), "\n")})
	}
	embed := &discordgo.MessageEmbed{
		Title:       p.Name,
		Description: fmt.Sprintf("de %s | `%s`", p.OwnerName, p.ID),
		Color:       0x5865F2,
		Fields:      fields,
	}
	if p.Sprite != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: p.Sprite}
	}
	return embed
}

func TemplateRegistered(res hub.RegisterResponse) string {
	if res.AlreadyRegistered {
		return fmt.Sprintf("Tu Regenmon ya estaba registrado en el HUB. id `%s` | $FRUTA %d", res.Data.ID, res.Data.Balance)
	}
	return fmt.Sprintf("\U0001F389 %s ya esta en el HUB! id `%s` | $FRUTA %d", res.Data.Name, res.Data.ID, res.Data.Balance)
}

func TemplateActivity(activity []hub.Activity, now time.Time) string {
	if len(activity) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("**Actividad reciente**\n")
	for _, a := range activity {
		fmt.Fprintf(&b, "- %s (%s)", a.Description, game.TimeAgo(a.CreatedAt.UnixMilli(), now))
		if a.Amount != nil {
			fmt.Fprintf(&b, " %+d", *a.Amount)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func TemplateHelp() string {
	return "**Regenmon**\n\n" +
		"`/crear` Crea tu Regenmon (tipo, personalidad y nombre)\n" +
		"`/estado` Mira sus stats, humor y evolucion\n" +
		"`/alimentar` Dale de comer (cuesta 10 monedas)\n" +
		"`/jugar` Juega con el\n" +
		"`/entrenar` Entrenalo para ganar XP\n" +
		"`/nombre` Cambia su nombre\n" +
		"`/hablar` Habla con tu Regenmon (tambien puedes mencionarlo)\n" +
		"`/monedas` Tu balance de monedas\n" +
		"`/historial` Tus ultimas acciones\n" +
		"`/evaluar` Sube una imagen de tu trabajo para entrenar\n" +
		"`/registrar` Registra tu Regenmon en el HUB\n" +
		"`/ranking` El ranking del HUB\n" +
		"`/perfil` Tu perfil o el de otro Regenmon en el HUB\n" +
		"`/visitar` Visita a otro Regenmon y dale de comer\n" +
		"`/regalar` Regala $FRUTA a otro Regenmon\n" +
		"`/mensaje` Deja un mensaje en el muro de otro Regenmon\n" +
		"`/reiniciar` Empieza de nuevo\n" +
		"`/ayuda` Este mensaje"
}

// ErrorMessage turns an error into something a player can read.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrNoPet):
		return "Todavia no tienes un Regenmon. Usa /crear para empezar."
	case errors.Is(err, game.ErrCooldown):
		return "Tu Regenmon esta descansando. Intenta en unos segundos."
	case errors.Is(err, game.ErrCannotAfford):
		return fmt.Sprintf("No tienes suficientes monedas. Alimentar cuesta %d.", economy.FeedCost)
	case errors.Is(err, game.ErrInvalidName):
		return "El nombre no puede estar vacio."
	case errors.Is(err, game.ErrNoHub):
		return "El HUB esta desactivado."
	case errors.Is(err, training.ErrImageTooLarge):
		return "La imagen es demasiado grande. Maximo 5MB."
	case errors.Is(err, training.ErrNotImage):
		return "Solo se aceptan imagenes (PNG, JPG, etc.)."
	case errors.Is(err, chat.ErrEmpty):
		return "Escribe algo para hablar con tu Regenmon."
	case errors.Is(err, chat.ErrDiscarded):
		return "La conversacion se reinicio."
	case errors.Is(err, hub.ErrNotRegistered):
		return "Primero registra tu Regenmon con /registrar."
	case errors.Is(err, hub.ErrInsufficient):
		return "No tienes suficiente $FRUTA en el HUB."
	case errors.Is(err, hub.ErrMissingOwner):
		return "Escribe tu nombre de dueño/a."
	case errors.Is(err, hub.ErrEmptyMessage):
		return "El mensaje esta vacio."
	case errors.Is(err, hub.ErrInvalidAmount):
		return "La cantidad debe ser positiva."
	case errors.Is(err, hub.ErrMissingID):
		return "Falta el id del Regenmon."
	case errors.Is(err, hub.ErrResting):
		return hub.RestingMessage
	default:
		return "Algo salio mal... intenta de nuevo en un momento."
	}
}
