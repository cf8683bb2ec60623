// Package diag implements the diagnostic event type shared by the loader,
// validator, transformer and build pipeline.
package diag

import (
	"fmt"
	"sort"
)

// Severity orders diagnostic events from least to most severe.
type Severity int

const (
	Suppressed Severity = iota
	Note
	Warning
	Danger
	Error
)

func (s Severity) String() string {
	switch s {
	case Suppressed:
		return "SUPPRESSED"
	case Note:
		return "NOTE"
	case Warning:
		return "WARNING"
	case Danger:
		return "DANGER"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// SourceLocation identifies a position within a textual or JSON input.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

func (l SourceLocation) String() string {
	if l.File == "" {
		return "N/A"
	}
	if l.Line == 0 {
		return l.File
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Event is one finding produced during loading, validation, transformation
// or plugin execution.
type Event struct {
	ID       string
	Severity Severity
	ShapeID  string
	Location SourceLocation
	Message  string
	Hint     string
}

func (e Event) String() string {
	if e.ShapeID != "" {
		return fmt.Sprintf("[%s] %s: %s (%s) %s", e.Severity, e.ID, e.ShapeID, e.Location, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s %s", e.Severity, e.ID, e.Location, e.Message)
}

// Bag accumulates events during a single assembly or validation run. It is
// not safe for concurrent writers; the loader parses its sources one after
// another into a single Bag.
type Bag struct {
	events []Event
}

func (b *Bag) Add(e Event) {
	b.events = append(b.events, e)
}

func (b *Bag) Addf(id string, sev Severity, loc SourceLocation, format string, args ...interface{}) {
	b.Add(Event{ID: id, Severity: sev, Location: loc, Message: fmt.Sprintf(format, args...)})
}

func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.events = append(b.events, other.events...)
}

func (b *Bag) Events() []Event {
	return b.events
}

// Len reports how many events have been recorded so far, for callers that
// need to roll back speculative work (e.g. a parser backtracking over a
// lookahead that scanned past a malformed token).
func (b *Bag) Len() int {
	return len(b.events)
}

// Truncate discards every event recorded after index n, undoing any
// diagnostics added during a rolled-back speculative lookahead.
func (b *Bag) Truncate(n int) {
	b.events = b.events[:n]
}

// HasErrors reports whether any ERROR-severity event was recorded. A
// failed build is one with any such event.
func (b *Bag) HasErrors() bool {
	for _, e := range b.events {
		if e.Severity == Error {
			return true
		}
	}
	return false
}

// Sorted returns the events ordered by severity (ERROR first) then by
// source location.
func Sorted(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity > out[j].Severity
		}
		if out[i].Location.File != out[j].Location.File {
			return out[i].Location.File < out[j].Location.File
		}
		if out[i].Location.Line != out[j].Location.Line {
			return out[i].Location.Line < out[j].Location.Line
		}
		return out[i].Location.Column < out[j].Location.Column
	})
	return out
}
