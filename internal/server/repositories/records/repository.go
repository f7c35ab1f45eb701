// Package records persists collection records in SQL tables.
package records

import (
	"context"

	"github.com/dmitrijs2005/duet/internal/gateway"
)

type Repository interface {
	List(ctx context.Context, c gateway.Collection, q gateway.Query) ([]gateway.Record, error)
	Insert(ctx context.Context, c gateway.Collection, rec gateway.Record) error
	DeleteByID(ctx context.Context, c gateway.Collection, id string, scope ...gateway.Filter) (bool, error)
}
