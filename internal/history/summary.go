package history

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rowlate/rowlate/internal/prompt"
)

// Summary condenses the log into a markdown digest: how much was translated,
// how often, and which lines the editor corrected afterwards.
func (l *Log) Summary() string {
	var runs [][]string
	var edits []map[string]interface{}

	for _, m := range l.Messages {
		switch {
		case m.Role == prompt.RoleUser && strings.Contains(strings.ToLower(m.Content), "translate"):
			if _, body, ok := strings.Cut(m.Content, ":\n"); ok {
				var texts []string
				if err := json.Unmarshal([]byte(body), &texts); err == nil {
					runs = append(runs, texts)
				}
			}
		case m.Role == prompt.RoleUser && strings.Contains(strings.ToLower(m.Content), "modified"):
			if _, body, ok := strings.Cut(m.Content, ":\n"); ok {
				var payload struct {
					Modifications []map[string]interface{} `json:"modifications"`
				}
				if err := json.Unmarshal([]byte(body), &payload); err == nil {
					edits = append(edits, payload.Modifications...)
				}
			}
		}
	}

	var parts []string
	if len(runs) > 0 {
		total := 0
		for _, r := range runs {
			total += len(r)
		}
		parts = append(parts,
			fmt.Sprintf("**Lines translated**: %d", total),
			fmt.Sprintf("**Translation runs**: %d", len(runs)))
	}
	if len(edits) > 0 {
		parts = append(parts, fmt.Sprintf("**Manual corrections**: %d", len(edits)))

		var examples []string
		for _, e := range edits {
			if len(examples) == 3 {
				break
			}
			examples = append(examples, fmt.Sprintf("Line %v: '%s' -> '%s'",
				e["line"], snippet(e["original"]), snippet(e["modified"])))
		}
		if len(examples) > 0 {
			parts = append(parts, "**Correction examples**:\n"+strings.Join(examples, "\n"))
		}
	}

	if len(parts) == 0 {
		return "No translation history yet."
	}
	return strings.Join(parts, "\n\n")
}

func snippet(v interface{}) string {
	s, _ := v.(string)
	r := []rune(s)
	if len(r) > 50 {
		return string(r[:50])
	}
	return s
}
