// Package journal keeps a local log of the write operations sent to the
// Apifox project. It records what was sent and what the platform reported,
// never the entities themselves.
package journal

import (
	"fmt"
	"strings"
	"time"
)

// Entry is one write operation
type Entry struct {
	ID   string
	Time time.Time
	// Tool is the MCP tool that issued the write.
	Tool string
	// Target names the affected entity, e.g. "POST /users" or "schema User".
	Target string
	// Behavior is the overwrite behaviour sent with the import.
	Behavior string
	Status   string

	EndpointCreated int
	EndpointUpdated int
	SchemaCreated   int
	SchemaUpdated   int

	// Fingerprint identifies the imported document.
	Fingerprint string
	Detail      string
}

// Journal defines the interface for recording and listing write operations.
type Journal interface {
	// Initialize opens the journal at the given path.
	Initialize(dbPath string) error

	// Close releases any resources.
	Close() error

	// Record appends an entry, assigning its ID and time when unset.
	Record(e Entry) (Entry, error)

	// Recent returns up to limit entries, newest first.
	Recent(limit int) ([]Entry, error)
}

// Nop is a Journal that records nothing, used when the journal is disabled
type Nop struct{}

func (Nop) Initialize(string) error       { return nil }
func (Nop) Close() error                  { return nil }
func (Nop) Record(e Entry) (Entry, error) { return e, nil }
func (Nop) Recent(int) ([]Entry, error)   { return nil, nil }

// Format renders entries for the get_change_history tool
func Format(entries []Entry) string {
	if len(entries) == 0 {
		return "No changes recorded"
	}
	lines := []string{fmt.Sprintf("Recent changes (%d)", len(entries)), strings.Repeat("=", 50)}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-7s %-20s %s", e.Time.Local().Format("2006-01-02 15:04:05"), e.Status, e.Tool, e.Target)
		lines = append(lines, line)
		if e.Behavior != "" {
			lines = append(lines, fmt.Sprintf("      %s: endpoints +%d ~%d, schemas +%d ~%d",
				e.Behavior, e.EndpointCreated, e.EndpointUpdated, e.SchemaCreated, e.SchemaUpdated))
		}
		if e.Detail != "" {
			lines = append(lines, "      "+e.Detail)
		}
	}
	return strings.Join(lines, "\n")
}
