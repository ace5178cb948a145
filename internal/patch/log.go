package patch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bugout-ai/bugout/model"
)

// LogEntry is the per-edit record in applied_changes.json.
type LogEntry struct {
	File         string           `json:"file"`
	ChangeType   model.ChangeType `json:"change_type"`
	Succeeded    bool             `json:"succeeded"`
	ErrorMessage string           `json:"error_message,omitempty"`
	Description  string           `json:"description,omitempty"`
}

// BuildLog renders the application log: the authoritative record of what
// actually landed versus what was merely proposed. Extra fields supplied by
// the caller (confidence, testing instructions, analysis) are passed through
// opaque; they never override the log's own keys.
func BuildLog(results []model.ApplicationResult, extra map[string]any) ([]byte, error) {
	entries := make([]LogEntry, 0, len(results))
	applied := 0
	for _, res := range results {
		if res.Succeeded {
			applied++
		}
		entries = append(entries, LogEntry{
			File:         res.Edit.File,
			ChangeType:   res.Edit.Type,
			Succeeded:    res.Succeeded,
			ErrorMessage: res.Error,
			Description:  res.Edit.Description,
		})
	}

	doc := map[string]any{
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"total_changes": len(results),
		"successful":    applied,
		"failed":        len(results) - applied,
		"applied":       fmt.Sprintf("%d/%d", applied, len(results)),
		"changes":       entries,
	}
	for k, v := range extra {
		if _, reserved := doc[k]; !reserved {
			doc[k] = v
		}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// CountApplied returns how many results succeeded.
func CountApplied(results []model.ApplicationResult) int {
	n := 0
	for _, res := range results {
		if res.Succeeded {
			n++
		}
	}
	return n
}
