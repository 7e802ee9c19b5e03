package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moorebrett0/regenmon/internal/pet"
	"github.com/moorebrett0/regenmon/internal/random"
	"github.com/moorebrett0/regenmon/internal/species"
)

func snapshot(happiness int) pet.Snapshot {
	return pet.Snapshot{
		Name:      "Chispa",
		Level:     6,
		Happiness: happiness,
		Hunger:    40,
		HasHunger: true,
		XP:        30,
		Type:      species.Types["fire"],
		Evolution: species.EvolutionName(6),
		Mood:      pet.DetermineMood(happiness, 40, true),
	}
}

// rendered fills every template in pool for the given state.
func rendered(snap pet.Snapshot, memories []Memory, pool []string) map[string]bool {
	s := newSlots(snap, memories)
	out := make(map[string]bool, len(pool))
	for _, tmpl := range pool {
		out[s.fill(tmpl)] = true
	}
	return out
}

func TestRespondGreeting(t *testing.T) {
	r := NewResponder(random.New(1))
	for _, happiness := range []int{20, 50, 100} {
		snap := snapshot(happiness)
		want := rendered(snap, nil, intentTemplates[IntentGreeting])
		for i := 0; i < 20; i++ {
			got := r.Respond(snap, "hola", nil, i)
			assert.True(t, want[got], "unexpected greeting %q", got)
		}
	}
}

func TestRespondSadIgnoresInput(t *testing.T) {
	r := NewResponder(random.New(2))
	snap := snapshot(19)
	want := rendered(snap, nil, sadTemplates)
	for _, input := range []string{"hola", "cuentame un chiste", "xyz"} {
		got, intent := r.respond(snap, input, nil, 0)
		assert.Equal(t, IntentSad, intent)
		assert.True(t, want[got], got)
	}
}

func TestRespondIntents(t *testing.T) {
	tests := []struct {
		input string
		want  Intent
	}{
		{"Hola!", IntentGreeting},
		{"¡Hola!", IntentGreeting},
		{"¿Qué tal?", IntentGreeting},
		{"  ¡Buenas!", IntentGreeting},
		{"Buenos días", IntentGreeting},
		{"me llamo Ana", IntentIntro},
		{"¿Quién eres?", IntentIdentity},
		{"como estas hoy", IntentStatus},
		{"que nivel eres", IntentLevel},
		{"de que tipo eres", IntentType},
		{"cuando vas a evolucionar", IntentEvolution},
		{"quieres comida?", IntentFeed},
		{"vamos a jugar", IntentPlay},
		{"hora de entrenar", IntentTrain},
		{"me gusta el helado", IntentLike},
		{"te quiero mucho", IntentAffection},
		{"muchas gracias", IntentThanks},
		{"cuentame un chiste", IntentJoke},
		{"adios", IntentFarewell},
		{"necesito ayuda", IntentHelp},
		{"el cielo es azul", IntentFallback},
	}
	r := NewResponder(random.NewScripted([]float64{0.99}, []int{0}))
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, intent := r.respond(snapshot(80), tt.input, nil, 0)
			assert.Equal(t, tt.want, intent)
		})
	}
}

func TestRespondFillsSlots(t *testing.T) {
	r := NewResponder(random.NewScripted(nil, []int{0}))
	snap := snapshot(80)

	got := r.Respond(snap, "me llamo ana", nil, 0)
	assert.Contains(t, got, "Ana")

	got = r.Respond(snap, "me gusta el helado", nil, 0)
	assert.Contains(t, got, "el helado")

	got = r.Respond(snap, "que nivel tienes", nil, 0)
	assert.Contains(t, got, "6")
	assert.Contains(t, got, "70")

	got = r.Respond(snap, "hola", []Memory{{Key: KeyUserName, Value: "ana"}}, 0)
	assert.Contains(t, got, "Ana")
}

func TestRespondMemoryBranch(t *testing.T) {
	mems := []Memory{{Key: KeyLike, Value: "los dinosaurios"}}
	snap := snapshot(80)

	hit := NewResponder(random.NewScripted([]float64{0.1}, []int{0}))
	got, intent := hit.respond(snap, "el cielo es azul", mems, 0)
	assert.Equal(t, IntentMemory, intent)
	assert.Contains(t, got, "los dinosaurios")

	miss := NewResponder(random.NewScripted([]float64{0.4}, []int{0}))
	_, intent = miss.respond(snap, "el cielo es azul", mems, 0)
	assert.Equal(t, IntentFallback, intent)
}

func TestRespondFallbackRotates(t *testing.T) {
	r := NewResponder(random.New(5))
	snap := snapshot(80)
	prev := ""
	seen := map[string]bool{}
	for i := 0; i < len(fallbackTemplates)*2; i++ {
		got := r.Respond(snap, "el cielo es azul", nil, i)
		require.NotEqual(t, prev, got)
		seen[got] = true
		prev = got
	}
	assert.Len(t, seen, len(fallbackTemplates))
}
