package chat

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMemories is how many remembered facts a conversation keeps.
const MaxMemories = 10

// Memory keys.
const (
	KeyUserName = "nombre_usuario"
	KeyLike     = "gusto"
	KeyFavorite = "favorito"
	KeyOrigin   = "origen"
	KeyAge      = "edad"
)

// Memory is a fact about the player picked up from chat.
type Memory struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Timestamp int64  `json:"timestamp"` // unix ms
}

type memoryPattern struct {
	key string
	re  *regexp.Regexp
}

// Patterns run against lowercased, accent-folded text; group 1 is the value.
var memoryPatterns = []memoryPattern{
	{KeyUserName, regexp.MustCompile(`\b(?:me llamo|mi nombre es|llamame)\s+([a-zñü]+)`)},
	{KeyLike, regexp.MustCompile(`\bme gustan?\s+(?:mucho\s+)?(?:el |la |los |las )?([^.,!?;]+)`)},
	{KeyFavorite, regexp.MustCompile(`\bmi\s+[a-zñü]+\s+favorit[oa]\s+es\s+(?:el |la )?([^.,!?;]+)`)},
	{KeyOrigin, regexp.MustCompile(`\b(?:soy de|vivo en)\s+([^.,!?;]+)`)},
	{KeyAge, regexp.MustCompile(`\btengo\s+(\d{1,3})\s+a(?:n|ñ)os\b`)},
}

// DetectMemories scans text for facts worth remembering and returns
// existing plus any new ones, deduplicated by key and case-insensitive
// value and capped to the newest MaxMemories.
func DetectMemories(text string, existing []Memory, now time.Time) []Memory {
	out := append([]Memory(nil), existing...)
	folded := fold(text)

	for _, p := range memoryPatterns {
		m := p.re.FindStringSubmatch(folded)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[1])
		if n := utf8.RuneCountInString(value); n == 0 || n >= 50 {
			continue
		}
		if hasMemory(out, p.key, value) {
			continue
		}
		out = append(out, Memory{Key: p.key, Value: value, Timestamp: now.UnixMilli()})
	}

	if len(out) > MaxMemories {
		out = out[len(out)-MaxMemories:]
	}
	return out
}

// Recall returns the most recent value stored under key.
func Recall(memories []Memory, key string) (string, bool) {
	for i := len(memories) - 1; i >= 0; i-- {
		if memories[i].Key == key {
			return memories[i].Value, true
		}
	}
	return "", false
}

func hasMemory(list []Memory, key, value string) bool {
	for _, m := range list {
		if m.Key == key && strings.EqualFold(m.Value, value) {
			return true
		}
	}
	return false
}

var accentFolder = strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u")

// fold lowercases, drops opening ¡ and ¿ marks and strips Spanish accents so
// patterns can stay ASCII and anchor on the first word.
func fold(s string) string {
	s = strings.TrimLeft(strings.TrimSpace(s), "¡¿ \t")
	return accentFolder.Replace(strings.ToLower(s))
}
