// Package notification reports the outcome of curation runs to external
// channels.
package notification

import (
	"context"
	"log"
	"sort"
	"strings"
)

// Level is the severity of an alert.
type Level string

const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// Alert is one notification. Fields carry per-trigger counts and similar
// key/value detail.
type Alert struct {
	Level   Level             `json:"level"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
	RunID   string            `json:"run_id,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Notifier delivers alerts.
type Notifier interface {
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier writes alerts to the log. Used when no webhook is configured.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, a Alert) error {
	log.Printf("[notify] [%s] %s: %s%s", a.Level, a.Title, a.Message, formatFields(a.Fields))
	return nil
}

func formatFields(f map[string]string) string {
	if len(f) == 0 {
		return ""
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(f[k])
	}
	return b.String()
}

// New returns a webhook notifier for url, or a LogNotifier when url is empty.
func New(url string) Notifier {
	if url == "" {
		return LogNotifier{}
	}
	return NewWebhook(url)
}
