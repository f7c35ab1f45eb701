package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/duet/internal/common"
	"github.com/dmitrijs2005/duet/internal/dbx"
	"github.com/dmitrijs2005/duet/internal/gateway"
	"github.com/dmitrijs2005/duet/internal/server/models"
	"github.com/dmitrijs2005/duet/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/duet/internal/server/repositories/records"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type fakeRecordsRepo struct {
	mu sync.Mutex

	lastCollection gateway.Collection
	lastQuery      gateway.Query
	listOut        []gateway.Record
	listErr        error

	inserted  []gateway.Record
	insertErr error

	deleted     []string
	deleteScope []gateway.Filter
	deleteOK    bool
	deleteErr error
}

func (f *fakeRecordsRepo) List(_ context.Context, c gateway.Collection, q gateway.Query) ([]gateway.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCollection, f.lastQuery = c, q
	return f.listOut, f.listErr
}

func (f *fakeRecordsRepo) Insert(_ context.Context, c gateway.Collection, rec gateway.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCollection = c
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, rec)
	return nil
}

func (f *fakeRecordsRepo) DeleteByID(_ context.Context, c gateway.Collection, id string, scope ...gateway.Filter) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCollection = c
	f.deleted = append(f.deleted, id)
	f.deleteScope = scope
	return f.deleteOK, f.deleteErr
}

type fakeProfilesRepo struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile

	getErr    error
	createErr error
	updateErr error
}

func newFakeProfilesRepo() *fakeProfilesRepo {
	return &fakeProfilesRepo{profiles: map[string]*models.Profile{}}
}

func (f *fakeProfilesRepo) Get(_ context.Context, name string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.profiles[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfilesRepo) CreateIfMissing(_ context.Context, p *models.Profile) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return false, f.createErr
	}
	if _, ok := f.profiles[p.Name]; ok {
		return false, nil
	}
	cp := *p
	f.profiles[p.Name] = &cp
	return true, nil
}

func (f *fakeProfilesRepo) UpdatePin(_ context.Context, name string, pinHash []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	p, ok := f.profiles[name]
	if !ok {
		return common.ErrorNotFound
	}
	p.PinHash = pinHash
	return nil
}

type fakeRepoManager struct {
	records  *fakeRecordsRepo
	profiles *fakeProfilesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{records: &fakeRecordsRepo{}, profiles: newFakeProfilesRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Dialect() dbx.Dialect                        { return dbx.Postgres }
func (m *fakeRepoManager) Records(dbx.DBTX) records.Repository         { return m.records }
func (m *fakeRepoManager) Profiles(dbx.DBTX) profiles.Repository       { return m.profiles }
