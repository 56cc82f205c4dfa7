// Package collection stores ordered, per-session record collections
// (flashcards, goals, schedule entries, study tasks) with stable ids.
package collection

import (
	"fmt"

	"github.com/starford/aalifyx/internal/apperr"
)

// Kind names one of the fixed collections.
type Kind string

const (
	Flashcards Kind = "flashcards"
	Goals      Kind = "goals"
	Schedule   Kind = "schedule"
	Tasks      Kind = "tasks"
)

// Kinds returns every known kind in a stable order.
func Kinds() []Kind {
	return []Kind{Flashcards, Goals, Schedule, Tasks}
}

// ParseKind resolves a collection name.
func ParseKind(name string) (Kind, error) {
	k := Kind(name)
	if _, ok := schemas[k]; !ok {
		return "", fmt.Errorf("%w: %q", apperr.ErrUnknownCollection, name)
	}
	return k, nil
}

func (k Kind) sessionKey() string {
	return "collection." + string(k)
}
