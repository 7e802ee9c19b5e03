package species

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistriesAreClosedAndOrdered(t *testing.T) {
	require.Len(t, TypeIDs, len(Types))
	for _, id := range TypeIDs {
		typ, ok := Types[id]
		require.True(t, ok, id)
		assert.Equal(t, id, typ.ID)
		for i, sprite := range typ.Evolutions {
			assert.NotEmpty(t, sprite, "%s evolution %d", id, i)
		}
	}

	require.Len(t, PersonalityIDs, len(Personalities))
	for _, id := range PersonalityIDs {
		p, ok := Personalities[id]
		require.True(t, ok, id)
		assert.Equal(t, id, p.ID)
	}
}

func TestLookupType(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"fire", "fire", true},
		{"Fuego", "fire", true},
		{"  agua ", "water", true},
		{"eléctrico", "electric", true},
		{"Cósmico", "cosmic", true},
		{"sombra", "shadow", true},
		{"dragon", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := LookupType(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.ID)
			}
		})
	}
}

func TestLookupPersonality(t *testing.T) {
	p, ok := LookupPersonality("Valiente")
	require.True(t, ok)
	assert.Equal(t, "brave", p.ID)

	p, ok = LookupPersonality("calmado")
	require.True(t, ok)
	assert.Equal(t, "calm", p.ID)

	_, ok = LookupPersonality("grumpy")
	assert.False(t, ok)
}

func TestEvolution(t *testing.T) {
	tests := []struct {
		level int
		name  string
		next  int
	}{
		{1, "Eggmon", 5},
		{4, "Eggmon", 5},
		{5, "Chickenmon", 10},
		{10, "Wolfenmon", 15},
		{15, "Foxenmon", 20},
		{20, "Dragenmon", 0},
		{99, "Dragenmon", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.name, EvolutionName(tt.level), "level %d", tt.level)
		assert.Equal(t, tt.next, NextEvolutionLevel(tt.level), "level %d", tt.level)
	}

	var none *Type
	assert.Equal(t, "\U0001F95A", none.Sprite(1))
	assert.Equal(t, "\U0001F409", none.Sprite(20))
	assert.Equal(t, Types["water"].Evolutions[1], Types["water"].Sprite(7))
}

func TestBonusRules(t *testing.T) {
	assert.Equal(t, 7, Types["water"].ActionBonus[Play].Happiness)
	assert.Equal(t, 10, Types["fire"].ActionBonus[Train].XP)
	assert.Equal(t, 10, Types["plant"].ActionBonus[Feed].Happiness)
	assert.InDelta(t, 0.5, Types["electric"].CooldownFactor, 1e-9)
	assert.InDelta(t, 1.15, Types["shadow"].XPMult, 1e-9)
	assert.InDelta(t, 2, Personalities["calm"].DecayFactor, 1e-9)
	assert.InDelta(t, 0.5, Personalities["mysterious"].RandomChance, 1e-9)
}
