// Package onboarding is the interactive terminal creator: pick a type, a
// personality and a name, then hatch the Regenmon.
package onboarding

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/moorebrett0/regenmon/internal/pet"
	"github.com/moorebrett0/regenmon/internal/species"
)

// ErrAborted is returned when input ends before the pet is hatched.
var ErrAborted = errors.New("onboarding: input closed")

// ErrAlreadyHatched is returned when the player already has a typed pet.
var ErrAlreadyHatched = errors.New("onboarding: regenmon already exists")

// Hatcher creates the pet. game.Session and pet.Machine both qualify.
type Hatcher interface {
	Create(cfg pet.CreateConfig) bool
}

// Creator walks a player through the three creation steps.
type Creator struct {
	in    *bufio.Reader
	out   io.Writer
	delay time.Duration // per-rune delay for the hatching text
}

func New(in io.Reader, out io.Writer, delay time.Duration) *Creator {
	return &Creator{in: bufio.NewReader(in), out: out, delay: delay}
}

// Run asks for the traits and hatches the pet.
func (c *Creator) Run(h Hatcher) (pet.CreateConfig, error) {
	c.println()
	c.printSlow("  \U0001F95A crk... crk...")
	c.println()

	typ, err := c.chooseType()
	if err != nil {
		return pet.CreateConfig{}, err
	}
	c.printf("\n  %s ...\n\n", typ.Emoji)

	pers, err := c.choosePersonality()
	if err != nil {
		return pet.CreateConfig{}, err
	}

	name, err := c.chooseName()
	if err != nil {
		return pet.CreateConfig{}, err
	}

	cfg := pet.CreateConfig{Type: typ.ID, Personality: pers.ID, Name: name}
	if !h.Create(cfg) {
		return pet.CreateConfig{}, ErrAlreadyHatched
	}

	c.println()
	c.printf("  %s %s\n", typ.Sprite(1), typ.Verbs.Happy)
	c.println()
	c.printSlow(fmt.Sprintf("  hola! soy %s, tu Regenmon de tipo %s.", name, typ.Label))
	c.printSlow(fmt.Sprintf("  dicen que soy %s. cuidame mucho.", strings.ToLower(pers.Label)))
	c.println()
	return cfg, nil
}

func (c *Creator) chooseType() (*species.Type, error) {
	c.printf("  elige tu tipo de Regenmon:\n\n")
	// Two columns, like a species grid.
	for i := 0; i < len(species.TypeIDs); i += 2 {
		left := species.Types[species.TypeIDs[i]]
		line := fmt.Sprintf("  %d) %s %-12s", i+1, left.Emoji, left.Label)
		if i+1 < len(species.TypeIDs) {
			right := species.Types[species.TypeIDs[i+1]]
			line += fmt.Sprintf("%d) %s %s", i+2, right.Emoji, right.Label)
		}
		c.printf("%s\n", line)
	}
	c.println()

	for {
		input, err := c.prompt()
		if err != nil {
			return nil, err
		}
		if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(species.TypeIDs) {
			return species.Types[species.TypeIDs[n-1]], nil
		}
		if t, ok := species.LookupType(input); ok {
			return t, nil
		}
		c.printf("  hmm, elige un numero del 1 al %d o escribe el tipo\n", len(species.TypeIDs))
	}
}

func (c *Creator) choosePersonality() (*species.Personality, error) {
	c.printf("  como es su personalidad?\n\n")
	for i, id := range species.PersonalityIDs {
		p := species.Personalities[id]
		c.printf("  %d) %s %s: %s\n", i+1, p.Emoji, p.Label, p.Description)
	}
	c.println()

	for {
		input, err := c.prompt()
		if err != nil {
			return nil, err
		}
		if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(species.PersonalityIDs) {
			return species.Personalities[species.PersonalityIDs[n-1]], nil
		}
		if p, ok := species.LookupPersonality(input); ok {
			return p, nil
		}
		c.printf("  hmm, elige un numero del 1 al %d o escribe la personalidad\n", len(species.PersonalityIDs))
	}
}

func (c *Creator) chooseName() (string, error) {
	c.printf("\n  como me llamo?\n\n")
	for {
		name, err := c.prompt()
		if err != nil {
			return "", err
		}
		if name != "" && len([]rune(name)) <= pet.MaxNameLength {
			return name, nil
		}
		c.printf("  elige un nombre (1-%d caracteres)\n", pet.MaxNameLength)
	}
}

// prompt reads one trimmed line. A final line without newline still counts.
func (c *Creator) prompt() (string, error) {
	c.printf("  > ")
	line, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", ErrAborted
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *Creator) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Creator) println() { fmt.Fprintln(c.out) }

func (c *Creator) printSlow(text string) {
	for _, ch := range text {
		fmt.Fprint(c.out, string(ch))
		if c.delay > 0 {
			time.Sleep(c.delay)
		}
	}
	fmt.Fprintln(c.out)
}

// PrintStartup prints the startup checklist for the bot.
func PrintStartup(out io.Writer, name string, aiEnabled, discordConnected, hubEnabled bool) {
	checks := []struct {
		label string
		ok    bool
	}{
		{"estado cargado", true},
		{"ia conectada", aiEnabled},
		{"discord conectado", discordConnected},
		{"hub activo", hubEnabled},
	}

	fmt.Fprintln(out, "  iniciando...")
	for _, c := range checks {
		mark := "✓"
		if !c.ok {
			mark = "✗"
		}
		fmt.Fprintf(out, "  %s %s\n", mark, c.label)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s esta despierto. no te olvides de mi.\n\n", name)
}
