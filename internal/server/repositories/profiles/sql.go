package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/duet/internal/common"
	"github.com/dmitrijs2005/duet/internal/dbx"
	"github.com/dmitrijs2005/duet/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
	d  dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, d dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, d: d}
}

func (r *SQLRepository) Get(ctx context.Context, name string) (*models.Profile, error) {
	query := fmt.Sprintf(`SELECT name, partner, pin_hash FROM profiles WHERE name = %s`, r.d.Placeholder(1))

	p := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(&p.Name, &p.Partner, &p.PinHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *SQLRepository) CreateIfMissing(ctx context.Context, p *models.Profile) (bool, error) {
	query := fmt.Sprintf(`INSERT INTO profiles (name, partner, pin_hash) VALUES (%s, %s, %s) ON CONFLICT (name) DO NOTHING`,
		r.d.Placeholder(1), r.d.Placeholder(2), r.d.Placeholder(3))

	res, err := r.db.ExecContext(ctx, query, p.Name, p.Partner, p.PinHash)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *SQLRepository) UpdatePin(ctx context.Context, name string, pinHash []byte) error {
	query := fmt.Sprintf(`UPDATE profiles SET pin_hash = %s, updated_at = CURRENT_TIMESTAMP WHERE name = %s`,
		r.d.Placeholder(1), r.d.Placeholder(2))

	res, err := r.db.ExecContext(ctx, query, pinHash, name)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
