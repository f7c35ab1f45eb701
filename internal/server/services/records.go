package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/duet/internal/common"
	"github.com/dmitrijs2005/duet/internal/gateway"
	"github.com/dmitrijs2005/duet/internal/models"
	"github.com/dmitrijs2005/duet/internal/server/repositories/repomanager"
)

// normalizer decodes raw fields into the collection's payload type,
// validates it and returns the canonical field map.
type normalizer func(v *validator.Validate, fields map[string]any) (map[string]any, error)

func normalize[T any](v *validator.Validate, fields map[string]any) (map[string]any, error) {
	payload, err := gateway.Decode[T](gateway.Record{Fields: fields})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}
	if err := v.Struct(payload); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}
	return gateway.Fields(payload)
}

var normalizers = map[gateway.Collection]normalizer{
	gateway.DiaryEntries: normalize[models.DiaryEntry],
	gateway.Memories:     normalize[models.Memory],
	gateway.SharedNotes:  normalize[models.SharedNote],
	gateway.Messages:     normalize[models.DailyMessage],
	gateway.MoodNotes:    normalize[models.MoodNote],
}

// RecordService validates and stores collection records. The server
// assigns ids and timestamps.
type RecordService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	validate    *validator.Validate
	now         func() time.Time
	newID       func() string
}

func newValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		return nil, fmt.Errorf("register notblank: %w", err)
	}
	return v, nil
}

// NewRecordService panics if the payload validator cannot be built.
func NewRecordService(db *sql.DB, m repomanager.RepositoryManager) *RecordService {
	v, err := newValidator()
	if err != nil {
		panic(err)
	}

	return &RecordService{
		db:          db,
		repomanager: m,
		validate:    v,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// List returns records of c matching q. Diary entries are private: the
// listing is always scoped to the caller.
func (s *RecordService) List(ctx context.Context, caller Caller, c gateway.Collection, q gateway.Query) ([]gateway.Record, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: unknown collection %q", common.ErrValidation, c)
	}
	if c == gateway.DiaryEntries {
		scoped := []gateway.Filter{gateway.Eq("author", caller.Profile)}
		for _, f := range q.Filters {
			if f.Field == "author" {
				if f.Value != caller.Profile {
					return nil, fmt.Errorf("%w: diary of %q is private", common.ErrorUnauthorized, f.Value)
				}
				continue
			}
			scoped = append(scoped, f)
		}
		q.Filters = scoped
	}
	return s.repomanager.Records(s.db).List(ctx, c, q)
}

// Insert validates fields, stamps id and creation time and stores the
// record. The author must be the caller; addressed records must target the
// caller's partner.
func (s *RecordService) Insert(ctx context.Context, caller Caller, c gateway.Collection, fields map[string]any) (gateway.Record, error) {
	norm, ok := normalizers[c]
	if !ok {
		return gateway.Record{}, fmt.Errorf("%w: unknown collection %q", common.ErrValidation, c)
	}

	clean, err := norm(s.validate, fields)
	if err != nil {
		return gateway.Record{}, err
	}
	if clean["author"] != caller.Profile {
		return gateway.Record{}, fmt.Errorf("%w: author must be %q", common.ErrorUnauthorized, caller.Profile)
	}
	if target, addressed := clean["target"]; addressed && target != caller.Partner {
		return gateway.Record{}, fmt.Errorf("%w: target must be %q", common.ErrValidation, caller.Partner)
	}

	rec := gateway.Record{
		ID: s.newID(),
		// Postgres keeps microseconds
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
		Fields:    clean,
	}

	if err := s.repomanager.Records(s.db).Insert(ctx, c, rec); err != nil {
		return gateway.Record{}, err
	}
	return rec, nil
}

// Delete removes a record. Deleting an absent id succeeds. Diary deletes
// only ever touch the caller's own entries.
func (s *RecordService) Delete(ctx context.Context, caller Caller, c gateway.Collection, id string) error {
	if !c.Valid() {
		return fmt.Errorf("%w: unknown collection %q", common.ErrValidation, c)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: bad id %q", common.ErrValidation, id)
	}
	var scope []gateway.Filter
	if c == gateway.DiaryEntries {
		scope = append(scope, gateway.Eq("author", caller.Profile))
	}
	_, err := s.repomanager.Records(s.db).DeleteByID(ctx, c, id, scope...)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return err
	}
	return nil
}
