// Package profiles persists the two partner profiles.
package profiles

import (
	"context"

	"github.com/dmitrijs2005/duet/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, name string) (*models.Profile, error)
	// CreateIfMissing inserts p unless a profile with that name exists and
	// reports whether it did.
	CreateIfMissing(ctx context.Context, p *models.Profile) (bool, error)
	UpdatePin(ctx context.Context, name string, pinHash []byte) error
}
