package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/moorebrett0/regenmon/internal/hub"
	"github.com/moorebrett0/regenmon/internal/species"
	"github.com/moorebrett0/regenmon/internal/training"
)

func typeChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(species.TypeIDs))
	for _, id := range species.TypeIDs {
		t := species.Types[id]
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: t.Emoji + " " + t.Label, Value: t.ID})
	}
	return choices
}

func personalityChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(species.PersonalityIDs))
	for _, id := range species.PersonalityIDs {
		p := species.Personalities[id]
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: p.Emoji + " " + p.Label, Value: p.ID})
	}
	return choices
}

func categoryChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(training.Categories))
	for _, c := range training.Categories {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: training.CategoryLabels[c], Value: c})
	}
	return choices
}

func giftChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(hub.GiftAmounts))
	for _, n := range hub.GiftAmounts {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: fmt.Sprintf("%d $FRUTA", n), Value: n})
	}
	return choices
}

func regenmonID(required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "id",
		Description: "id del Regenmon en el HUB (lo ves en /ranking)",
		Required:    required,
	}
}

// Commands returns the slash commands the bot registers.
func Commands() []*discordgo.ApplicationCommand {
	minPage := 1.0
	return []*discordgo.ApplicationCommand{
		{
			Name:        "crear",
			Description: "Crea tu Regenmon",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "tipo", Description: "Su tipo", Required: true, Choices: typeChoices()},
				{Type: discordgo.ApplicationCommandOptionString, Name: "personalidad", Description: "Su personalidad", Required: true, Choices: personalityChoices()},
				{Type: discordgo.ApplicationCommandOptionString, Name: "nombre", Description: "Su nombre (max 20)", MaxLength: 20},
			},
		},
		{Name: "estado", Description: "Mira como esta tu Regenmon"},
		{Name: "alimentar", Description: "Dale de comer (cuesta 10 monedas)"},
		{Name: "jugar", Description: "Juega con tu Regenmon"},
		{Name: "entrenar", Description: "Entrena a tu Regenmon"},
		{
			Name:        "nombre",
			Description: "Cambia el nombre de tu Regenmon",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "nuevo", Description: "El nuevo nombre", Required: true, MaxLength: 20},
			},
		},
		{
			Name:        "reiniciar",
			Description: "Empieza de nuevo con otro Regenmon",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionBoolean, Name: "confirmar", Description: "Si, quiero empezar de nuevo"},
			},
		},
		{
			Name:        "hablar",
			Description: "Habla con tu Regenmon",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "mensaje", Description: "Lo que le quieres decir", Required: true},
			},
		},
		{Name: "monedas", Description: "Mira cuantas monedas tienes"},
		{Name: "historial", Description: "Tus ultimas acciones"},
		{
			Name:        "evaluar",
			Description: "Sube una imagen de tu trabajo para entrenar",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionAttachment, Name: "imagen", Description: "Captura de tu trabajo (max 5MB)", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "categoria", Description: "Que tipo de trabajo es", Choices: categoryChoices()},
			},
		},
		{
			Name:        "registrar",
			Description: "Registra tu Regenmon en el HUB",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "dueno", Description: "Tu nombre de dueño/a"},
				{Type: discordgo.ApplicationCommandOptionString, Name: "email", Description: "Tu email (opcional)"},
			},
		},
		{
			Name:        "ranking",
			Description: "El ranking del HUB",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "pagina", Description: "Pagina", MinValue: &minPage},
			},
		},
		{
			Name:        "perfil",
			Description: "Tu perfil en el HUB, o el de otro Regenmon",
			Options:     []*discordgo.ApplicationCommandOption{regenmonID(false)},
		},
		{
			Name:        "visitar",
			Description: "Visita a otro Regenmon",
			Options: []*discordgo.ApplicationCommandOption{
				regenmonID(true),
				{Type: discordgo.ApplicationCommandOptionBoolean, Name: "alimentar", Description: "Darle de comer (10 $FRUTA)"},
			},
		},
		{
			Name:        "regalar",
			Description: "Regala $FRUTA a otro Regenmon",
			Options: []*discordgo.ApplicationCommandOption{
				regenmonID(true),
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "cantidad", Description: "Cuanto regalar", Required: true, Choices: giftChoices()},
			},
		},
		{
			Name:        "mensaje",
			Description: "Deja un mensaje en el muro de otro Regenmon",
			Options: []*discordgo.ApplicationCommandOption{
				regenmonID(true),
				{Type: discordgo.ApplicationCommandOptionString, Name: "texto", Description: "Tu mensaje (max 140)", Required: true, MaxLength: hub.MaxMessageLength},
			},
		},
		{Name: "ayuda", Description: "Muestra los comandos"},
	}
}
