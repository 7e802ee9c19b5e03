package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/moorebrett0/regenmon/internal/random"
)

// Categories of work that can be submitted.
const (
	CategoryCode     = "codigo"
	CategoryDesign   = "diseno"
	CategoryProject  = "proyecto"
	CategoryLearning = "aprendizaje"
)

// Categories lists the accepted categories in display order.
var Categories = []string{CategoryCode, CategoryDesign, CategoryProject, CategoryLearning}

// CategoryLabels are the player-facing names.
var CategoryLabels = map[string]string{
	CategoryCode:     "Codigo",
	CategoryDesign:   "Diseno",
	CategoryProject:  "Proyecto",
	CategoryLearning: "Aprendizaje",
}

var categoryPrompts = map[string]string{
	CategoryCode:     "Evalua esta imagen de codigo. Criterios: organizacion del codigo, buenas practicas, complejidad, legibilidad y estructura. Se generoso pero justo.",
	CategoryDesign:   "Evalua esta imagen de diseno UI/UX o grafico. Criterios: estetica, uso de colores, tipografia, creatividad, composicion visual. Se generoso pero justo.",
	CategoryProject:  "Evalua esta imagen de un proyecto completo. Criterios: funcionalidad visible, calidad general, complejidad del proyecto, presentacion. Se generoso pero justo.",
	CategoryLearning: "Evalua esta imagen de notas o ejercicios de aprendizaje. Criterios: esfuerzo demostrado, comprension del tema, aplicacion practica, organizacion. Se generoso pero justo.",
}

// SystemPrompt instructs the model to grade and answer in the
// "Score: N/100. feedback" format.
const SystemPrompt = `Eres un profesor amigable y motivador en un juego educativo llamado Regenmon. Tu trabajo es evaluar el trabajo de los estudiantes con un puntaje de 0 a 100. SIEMPRE evalua la imagen sin importar que contenga, incluso si es confusa, borrosa o no parece relevante: dale un puntaje basado en tu mejor interpretacion. Nunca te niegues a evaluar. Se constructivo y positivo en tus comentarios.

FORMATO DE RESPUESTA OBLIGATORIO (usa exactamente este formato):
Score: [numero]/100. [1-2 oraciones de feedback constructivo en espanol]

Ejemplo: Score: 75/100. Buen trabajo con la estructura del codigo, se nota organizacion. Podrias mejorar agregando mas comentarios para documentar las funciones principales.`

// Feedback used when the model gives none or cannot be reached.
const (
	FeedbackDefault     = "Buen trabajo, sigue asi."
	FeedbackUnparsed    = "Buen esfuerzo. Sigue practicando para mejorar."
	FeedbackUnavailable = "Sistema de evaluacion temporalmente no disponible. Score por defecto asignado."
)

// MaxImageSize is the largest accepted submission.
const MaxImageSize = 5 * 1024 * 1024

var (
	ErrImageTooLarge = errors.New("training: image larger than 5MB")
	ErrNotImage      = errors.New("training: not an image")
)

// Image is a submitted picture.
type Image struct {
	Data      []byte
	MediaType string // e.g. image/png
}

// Validate checks size and content type, sniffing it when MediaType is blank.
func (img *Image) Validate() error {
	if len(img.Data) > MaxImageSize {
		return ErrImageTooLarge
	}
	if len(img.Data) == 0 {
		return ErrNotImage
	}
	if img.MediaType == "" {
		img.MediaType = http.DetectContentType(img.Data)
	}
	if i := strings.Index(img.MediaType, ";"); i >= 0 {
		img.MediaType = strings.TrimSpace(img.MediaType[:i])
	}
	if !strings.HasPrefix(img.MediaType, "image/") {
		return ErrNotImage
	}
	return nil
}

// Vision is a model that can look at an image and answer in text.
type Vision interface {
	Evaluate(ctx context.Context, systemPrompt, prompt string, img Image) (string, error)
}

// Evaluation is a scored submission.
type Evaluation struct {
	Score    int
	Feedback string
	Points   int
	Tokens   int
	Fallback bool // the evaluator could not be reached
}

var scorePattern = regexp.MustCompile(`Score:\s*(\d+)/100`)
var scorePrefix = regexp.MustCompile(`Score:\s*\d+/100\.?\s*`)

// ParseScore extracts the score from a model answer and returns the rest
// as feedback. The score is clamped to 0..100.
func ParseScore(text string) (score int, feedback string, ok bool) {
	m := scorePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		n = 100 // too many digits to fit an int
	}
	n = min(100, max(0, n))
	feedback = strings.TrimSpace(scorePrefix.ReplaceAllString(text, ""))
	return n, feedback, true
}

// Scorer grades submissions. A nil Vision always yields fallback scores.
type Scorer struct {
	vision Vision
	rand   random.Source
	log    *slog.Logger
}

func NewScorer(vision Vision, src random.Source, log *slog.Logger) *Scorer {
	if src == nil {
		src = random.NewSeeded()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scorer{vision: vision, rand: src, log: log}
}

// Score grades img in category. It never fails: unreadable answers and
// evaluator errors produce a random score between 40 and 60.
func (s *Scorer) Score(ctx context.Context, img Image, category string) Evaluation {
	prompt, ok := categoryPrompts[category]
	if !ok {
		prompt = categoryPrompts[CategoryCode]
	}

	if s.vision == nil {
		return s.unavailable()
	}
	text, err := s.vision.Evaluate(ctx, SystemPrompt, prompt, img)
	if err != nil {
		s.log.Warn("training: evaluation failed, using fallback score", "err", err)
		return s.unavailable()
	}

	if score, feedback, ok := ParseScore(text); ok {
		if feedback == "" {
			feedback = FeedbackDefault
		}
		return newEvaluation(score, feedback, false)
	}

	s.log.Info("training: could not parse score", "answer", truncate(text, 120))
	feedback := strings.TrimSpace(text)
	if feedback == "" {
		feedback = FeedbackUnparsed
	}
	return newEvaluation(s.fallbackScore(), feedback, false)
}

func (s *Scorer) unavailable() Evaluation {
	return newEvaluation(s.fallbackScore(), FeedbackUnavailable, true)
}

func (s *Scorer) fallbackScore() int {
	return 40 + s.rand.Intn(21)
}

func newEvaluation(score int, feedback string, fallback bool) Evaluation {
	return Evaluation{
		Score:    score,
		Feedback: feedback,
		Points:   score,
		Tokens:   score / 2,
		Fallback: fallback,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
