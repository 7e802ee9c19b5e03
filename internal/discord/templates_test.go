package discord

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/moorebrett0/regenmon/internal/game"
	"github.com/moorebrett0/regenmon/internal/hub"
	"github.com/moorebrett0/regenmon/internal/pet"
	"github.com/moorebrett0/regenmon/internal/proactive"
	"github.com/moorebrett0/regenmon/internal/species"
	"github.com/moorebrett0/regenmon/internal/training"
)

func TestProgressBar(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{0, "░░░░░░░░░░ 0%"},
		{55, "█████░░░░░ 55%"},
		{100, "██████████ 100%"},
		{130, "██████████ 130%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, progressBar(tt.value, 10))
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{game.ErrNoPet, "Todavia no tienes un Regenmon. Usa /crear para empezar."},
		{game.ErrCannotAfford, "No tienes suficientes monedas. Alimentar cuesta 10."},
		{fmt.Errorf("evaluate: %w", training.ErrImageTooLarge), "La imagen es demasiado grande. Maximo 5MB."},
		{fmt.Errorf("%w: status 503", hub.ErrResting), hub.RestingMessage},
		{hub.ErrNotRegistered, "Primero registra tu Regenmon con /registrar."},
		{errors.New("boom"), "Algo salio mal... intenta de nuevo en un momento."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorMessage(tt.err), tt.err.Error())
	}
}

func snapshot() pet.Snapshot {
	fire, _ := species.LookupType("fire")
	return pet.Snapshot{
		Name:      "Chispa",
		Level:     5,
		Happiness: 15,
		Hunger:    85,
		HasHunger: true,
		Type:      fire,
		Sprite:    fire.Sprite(5),
		Evolution: species.EvolutionName(5),
		Mood:      pet.MoodHungry,
	}
}

func TestTemplateLevelUp(t *testing.T) {
	snap := snapshot()
	msg := TemplateLevelUp("<@42>", game.LevelUp{Snapshot: snap, Evolved: true, From: species.EvolutionName(4)})
	assert.Contains(t, msg, "<@42> Chispa subio al nivel 5!")
	assert.Contains(t, msg, "evoluciono de Eggmon a Chickenmon")

	msg = TemplateLevelUp("<@42>", game.LevelUp{Snapshot: snap})
	assert.NotContains(t, msg, "evoluciono")
}

func TestTemplateDistress(t *testing.T) {
	snap := snapshot()
	assert.Contains(t, TemplateDistress("<@42>", snap, proactive.ReasonHungry), "su llama se ve muy pequena... tiene mucha hambre (85%)")
	assert.Contains(t, TemplateDistress("<@42>", snap, proactive.ReasonSad), "su felicidad esta en 15%")

	snap.Type = nil
	assert.Contains(t, TemplateDistress("", snap, proactive.ReasonSad), defaultVerbs.Distress)
}

func TestTemplateHistory(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "Todavia no hay acciones en tu historial.", TemplateHistory(nil, now))

	msg := TemplateHistory([]game.Entry{
		{Action: game.LabelFeed, Coins: -10, Timestamp: now.Add(-5 * time.Minute).UnixMilli()},
		{Action: game.LabelPlay, Timestamp: now.Add(-2 * time.Hour).UnixMilli()},
	}, now)
	assert.Contains(t, msg, "hace 5m | -10")
	assert.Contains(t, msg, "hace 2h")
}

func TestStatusEmbed(t *testing.T) {
	snap := snapshot()
	embed := StatusEmbed(snap, 90, training.Progress{TotalPoints: 120, Stage: 1}, epoch)
	assert.Equal(t, moodColor(pet.MoodHungry), embed.Color)
	assert.Contains(t, embed.Description, "nivel 5")
	assert.Equal(t, "\U0001FA99 90", embed.Fields[2].Value)
	assert.Equal(t, "etapa 1 | 120/500 pts", embed.Fields[3].Value)
	assert.Contains(t, embed.Fields[1].Value, "evoluciona en nivel 10")
}
