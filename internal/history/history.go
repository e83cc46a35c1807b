// Package history keeps the persisted conversation log of translation
// requests and responses. The log doubles as prompt context: recent entries
// are replayed into later requests so the model stays consistent across a
// long run.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rowlate/rowlate/internal/prompt"
)

const (
	// MaxEntries caps the in-memory log; the oldest pair is evicted past it.
	MaxEntries = 100
	// SummarizeThreshold is the message count past which the log should be
	// compacted into a summary.
	SummarizeThreshold = 20

	formatVersion = "1.0"
	timeLayout    = "2006-01-02 15:04:05"
)

// Message is one role-tagged entry of the conversation log.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	ModelName string `json:"model_name,omitempty"`
}

// Log is an append-only ordered sequence of messages tied to an optional
// backing file.
type Log struct {
	Path      string
	ContextID string
	ModelName string
	Messages  []Message
}

// New creates an empty log backed by path (may be empty for in-memory use).
func New(path string) *Log {
	return &Log{Path: path}
}

// Add appends a message with the current timestamp.
func (l *Log) Add(role, content, modelName string) {
	l.Messages = append(l.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().Format(timeLayout),
		ModelName: modelName,
	})
	if modelName != "" {
		l.ModelName = modelName
	}
	for len(l.Messages) > MaxEntries {
		l.Messages = l.Messages[1:]
	}
}

// translationRecord is the wire shape of a recorded assistant turn.
type translationRecord struct {
	Translation  []string `json:"translation"`
	TargetColumn string   `json:"target_column"`
	Model        string   `json:"model,omitempty"`
	LastModified string   `json:"last_modified,omitempty"`
}

// AddTranslation appends the request/response pair for one completed chunk.
func (l *Log) AddTranslation(original, translated []string, modelName, targetColumn string) {
	src, _ := json.Marshal(original)
	l.Add(prompt.RoleUser,
		fmt.Sprintf("Translate to %s column:\n%s", targetColumn, src), "")

	rec := translationRecord{Translation: translated, TargetColumn: targetColumn, Model: modelName}
	body, _ := json.Marshal(rec)
	l.Add(prompt.RoleAssistant, string(body), modelName)
}

// RecordEdits appends a user-modification entry for lines the editor changed
// after translation, and patches the latest assistant translation in place so
// future context reflects the corrected text.
func (l *Log) RecordEdits(original, edited []string, targetColumn string) {
	type edit struct {
		Line     int    `json:"line"`
		Original string `json:"original"`
		Modified string `json:"modified"`
	}
	var edits []edit
	for i := 0; i < len(original) && i < len(edited); i++ {
		if original[i] != edited[i] {
			edits = append(edits, edit{Line: i + 1, Original: original[i], Modified: edited[i]})
		}
	}
	if len(edits) == 0 {
		return
	}

	body, _ := json.Marshal(map[string]interface{}{
		"action":        "modify_translation",
		"target_column": targetColumn,
		"modifications": edits,
	})
	l.Add(prompt.RoleUser, fmt.Sprintf("Modified translations in %s:\n%s", targetColumn, body), "")

	for i := len(l.Messages) - 1; i >= 0; i-- {
		if l.Messages[i].Role != prompt.RoleAssistant {
			continue
		}
		var rec translationRecord
		if err := json.Unmarshal([]byte(l.Messages[i].Content), &rec); err != nil || rec.Translation == nil {
			continue
		}
		rec.Translation = edited
		rec.LastModified = time.Now().Format(timeLayout)
		patched, _ := json.Marshal(rec)
		l.Messages[i].Content = string(patched)
		break
	}
}

// Recent returns the last n messages as prompt turns.
func (l *Log) Recent(n int) []prompt.Message {
	msgs := l.Messages
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]prompt.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, prompt.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// Clear drops all messages.
func (l *Log) Clear() {
	l.Messages = nil
}

// ShouldSummarize reports whether the log has grown past the threshold.
func (l *Log) ShouldSummarize() bool {
	return len(l.Messages) >= SummarizeThreshold
}

type fileFormat struct {
	FormatVersion string    `json:"format_version"`
	CreatedAt     string    `json:"created_at"`
	ContextID     string    `json:"context_id,omitempty"`
	ModelName     string    `json:"model_name,omitempty"`
	Messages      []Message `json:"messages"`
}

// Save writes the log to its backing file.
func (l *Log) Save() error {
	if l.Path == "" {
		return fmt.Errorf("no history file configured")
	}
	data, err := json.MarshalIndent(fileFormat{
		FormatVersion: formatVersion,
		CreatedAt:     time.Now().Format(timeLayout),
		ContextID:     l.ContextID,
		ModelName:     l.ModelName,
		Messages:      l.Messages,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	return os.WriteFile(l.Path, data, 0644)
}

// Load reads the backing file, accepting both the structured format and the
// legacy bare message array with "parts" entries.
func (l *Log) Load() error {
	if l.Path == "" {
		return fmt.Errorf("no history file configured")
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return fmt.Errorf("failed to read history file: %w", err)
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err == nil && ff.Messages != nil {
		l.Messages = ff.Messages
		l.ContextID = ff.ContextID
		l.ModelName = ff.ModelName
		return nil
	}

	// Legacy format: [{"role":"user","parts":["..."]}]
	var legacy []struct {
		Role      string   `json:"role"`
		Parts     []string `json:"parts"`
		Content   string   `json:"content"`
		Timestamp string   `json:"timestamp"`
		ModelName string   `json:"model_name"`
	}
	if err := json.Unmarshal(data, &legacy); err != nil {
		return fmt.Errorf("unrecognized history format: %w", err)
	}

	l.Messages = nil
	for _, e := range legacy {
		role := e.Role
		switch role {
		case "human", "user":
			role = prompt.RoleUser
		case "model", "ai":
			role = prompt.RoleAssistant
		}
		content := e.Content
		if content == "" && len(e.Parts) > 0 {
			content = strings.Join(e.Parts, "\n")
		}
		l.Messages = append(l.Messages, Message{
			Role:      role,
			Content:   content,
			Timestamp: e.Timestamp,
			ModelName: e.ModelName,
		})
	}
	return nil
}
