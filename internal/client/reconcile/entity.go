// Package reconcile keeps an ordered, optimistically mutated copy of a
// remote collection and reconciles it with asynchronous write results.
package reconcile

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/duet/internal/common"
)

// Entity is one element of a collection. ID is either a placeholder
// assigned locally or the canonical id assigned by the server.
type Entity[T any] struct {
	ID        string
	CreatedAt time.Time
	Payload   T
}

// Optimistic reports whether the entity still carries a placeholder id.
func (e Entity[T]) Optimistic() bool {
	return IsPlaceholder(e.ID)
}

// IsPlaceholder reports whether id was produced by an IDGenerator.
func IsPlaceholder(id string) bool {
	return strings.HasPrefix(id, common.PlaceholderPrefix)
}

// NewestFirst orders by CreatedAt descending.
func NewestFirst[T any](a, b Entity[T]) int {
	return b.CreatedAt.Compare(a.CreatedAt)
}

// OldestFirst orders by CreatedAt ascending.
func OldestFirst[T any](a, b Entity[T]) int {
	return a.CreatedAt.Compare(b.CreatedAt)
}
