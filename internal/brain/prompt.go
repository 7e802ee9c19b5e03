package brain

import (
	"fmt"
	"strings"

	"github.com/moorebrett0/regenmon/internal/chat"
	"github.com/moorebrett0/regenmon/internal/pet"
)

// buildSystemPrompt describes the pet to the model. Mood modifiers follow
// the pet's current stats.
func buildSystemPrompt(snap pet.Snapshot, memories []chat.Memory) string {
	typeLabel := snap.TypeLabel()
	if typeLabel == "" {
		typeLabel = "misterioso"
	}
	personality := "curiosa"
	var flavor []string
	if snap.Type != nil {
		flavor = append(flavor, snap.Type.Personality)
	}
	if snap.Personality != nil {
		personality = snap.Personality.Label
		flavor = append(flavor, snap.Personality.Prompt)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Eres %s, una mascota virtual de tipo %s con personalidad %s.\n", snap.Name, typeLabel, personality)
	fmt.Fprintf(&b, "Eres de nivel %d y tu forma actual es %s.\n", snap.Level, snap.Evolution)
	fmt.Fprintf(&b, "Tu felicidad actual es %d/100.", snap.Happiness)
	if snap.HasHunger {
		fmt.Fprintf(&b, " Tu hambre es %d/100.", snap.Hunger)
	}
	b.WriteString("\n")
	if len(flavor) > 0 {
		b.WriteString(strings.Join(flavor, " "))
		b.WriteString("\n")
	}

	b.WriteString(`
Reglas:
- Responde SIEMPRE en espanol.
- Respuestas cortas, maximo 50 palabras.
- Tono amigable y jugueton. Habla como una mascota virtual adorable.
- Usa emojis ocasionalmente (1-2 por mensaje).
- Nunca salgas de tu personaje.
- Si te preguntan algo que no sabes, responde de forma divertida como mascota.
- Puedes usar consultar_estado y consultar_recuerdos si necesitas datos exactos.
`)
	fmt.Fprintf(&b, "- Adapta tu forma de hablar segun tu tipo: %s y personalidad: %s.\n", typeLabel, personality)

	if m := behaviorModifier(snap); m != "" {
		b.WriteString(m)
		b.WriteString("\n")
	}

	if name, ok := chat.Recall(memories, chat.KeyUserName); ok {
		fmt.Fprintf(&b, "Tu entrenador se llama %s.\n", name)
	}
	return b.String()
}

func behaviorModifier(snap pet.Snapshot) string {
	var parts []string
	if snap.HasHunger && snap.Hunger > 70 {
		parts = append(parts, "Tienes mucha hambre. Menciona que te gustaria comer. Da respuestas mas cortas.")
	}
	if snap.Happiness > 70 {
		parts = append(parts, "Estas muy feliz y entusiasmado. Usa mas emojis y se muy expresivo.")
	}
	if snap.Happiness < 30 {
		parts = append(parts, "Estas triste. Menciona que te gustaria que jueguen contigo o te alimenten.")
	}
	return strings.Join(parts, " ")
}
