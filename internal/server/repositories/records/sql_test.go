package records

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/duet/internal/common"
	"github.com/dmitrijs2005/duet/internal/dbx"
	"github.com/dmitrijs2005/duet/internal/gateway"
)

func newRepoWithMock(t *testing.T, d dbx.Dialect) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewSQLRepository(db, d), mock
}

var ts = time.Date(2024, 2, 14, 9, 30, 0, 0, time.UTC)

func TestList_FiltersOrderLimit(t *testing.T) {
	repo, mock := newRepoWithMock(t, dbx.Postgres)

	q := `^SELECT id, created_at, author, target, content, date FROM messages WHERE author = \$1 AND date = \$2 ORDER BY created_at DESC, id DESC LIMIT 1$`
	rows := sqlmock.NewRows([]string{"id", "created_at", "author", "target", "content", "date"}).
		AddRow("m-1", ts, "anna", "ben", "miss you", "2024-02-14")
	mock.ExpectQuery(q).WithArgs("anna", "2024-02-14").WillReturnRows(rows)

	got, err := repo.List(context.Background(), gateway.Messages, gateway.Query{
		Filters: []gateway.Filter{gateway.Eq("author", "anna"), gateway.Eq("date", "2024-02-14")},
		Limit:   1,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m-1", got[0].ID)
	assert.True(t, ts.Equal(got[0].CreatedAt))
	assert.Equal(t, map[string]any{"author": "anna", "target": "ben", "content": "miss you", "date": "2024-02-14"}, got[0].Fields)
}

func TestList_SQLitePlaceholdersAndTextTime(t *testing.T) {
	repo, mock := newRepoWithMock(t, dbx.SQLite)

	q := `^SELECT id, created_at, author, content, color, rotation FROM shared_notes WHERE rotation = \? ORDER BY created_at ASC, id ASC$`
	rows := sqlmock.NewRows([]string{"id", "created_at", "author", "content", "color", "rotation"}).
		AddRow("n-1", "2024-02-14T09:30:00.000000000Z", "anna", "milk", "pink", int64(-2))
	mock.ExpectQuery(q).WithArgs(-2).WillReturnRows(rows)

	got, err := repo.List(context.Background(), gateway.SharedNotes, gateway.Query{
		Filters:   []gateway.Filter{gateway.Eq("rotation", "-2")},
		Ascending: true,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, ts.Equal(got[0].CreatedAt))
	assert.Equal(t, int64(-2), got[0].Fields["rotation"])
}

func TestList_OptionalColumnOmittedWhenNull(t *testing.T) {
	repo, mock := newRepoWithMock(t, dbx.Postgres)

	rows := sqlmock.NewRows([]string{"id", "created_at", "author", "content", "date", "audio_url"}).
		AddRow("d-1", ts, "anna", "dear diary", "Feb 14", nil).
		AddRow("d-2", ts, "anna", "again", "Feb 14", "https://cdn/voice-notes/1.m4a")
	mock.ExpectQuery(`^SELECT .* FROM diary_entries WHERE author = \$1 ORDER BY created_at DESC, id DESC$`).
		WithArgs("anna").WillReturnRows(rows)

	got, err := repo.List(context.Background(), gateway.DiaryEntries, gateway.Query{
		Filters: []gateway.Filter{gateway.Eq("author", "anna")},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	_, ok := got[0].Fields["audio_url"]
	assert.False(t, ok)
	assert.Equal(t, "https://cdn/voice-notes/1.m4a", got[1].Fields["audio_url"])
}

func TestList_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t, dbx.Postgres)
	mock.ExpectQuery(`^SELECT .* FROM memories ORDER BY created_at DESC, id DESC$`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "author", "caption", "url", "date"}))

	got, err := repo.List(context.Background(), gateway.Memories, gateway.Query{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestList_Rejected(t *testing.T) {
	repo, _ := newRepoWithMock(t, dbx.Postgres)

	tests := []struct {
		name string
		c    gateway.Collection
		q    gateway.Query
	}{
		{"unknown collection", "profiles", gateway.Query{}},
		{"unknown filter", gateway.Memories, gateway.Query{Filters: []gateway.Filter{gateway.Eq("pin_hash", "x")}}},
		{"injection in filter", gateway.Memories, gateway.Query{Filters: []gateway.Filter{gateway.Eq("author; DROP TABLE memories", "x")}}},
		{"unknown order", gateway.Memories, gateway.Query{OrderBy: "random()"}},
		{"non-integer rotation", gateway.SharedNotes, gateway.Query{Filters: []gateway.Filter{gateway.Eq("rotation", "left")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.List(context.Background(), tt.c, tt.q)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestList_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t, dbx.Postgres)
	mock.ExpectQuery(`FROM memories`).WillReturnError(errors.New("db down"))

	_, err := repo.List(context.Background(), gateway.Memories, gateway.Query{})
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}

func TestList_BadTimestamp(t *testing.T) {
	repo, mock := newRepoWithMock(t, dbx.SQLite)
	rows := sqlmock.NewRows([]string{"id", "created_at", "author", "caption", "url", "date"}).
		AddRow("m-1", "last tuesday", "anna", "", "u", "d")
	mock.ExpectQuery(`FROM memories`).WillReturnRows(rows)

	_, err := repo.List(context.Background(), gateway.Memories, gateway.Query{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record m-1")
}

func TestInsert_Postgres(t *testing.T) {
	repo, mock := newRepoWithMock(t, dbx.Postgres)

	q := `^INSERT INTO shared_notes \(id, created_at, author, content, color, rotation\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\)$`
	mock.ExpectExec(q).
		WithArgs("n-1", ts, "anna", "milk", "pink", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Insert(context.Background(), gateway.SharedNotes, gateway.Record{
		ID: "n-1", CreatedAt: ts,
		Fields: map[string]any{"author": "anna", "content": "milk", "color": "pink", "rotation": float64(3)},
	})
	require.NoError(t, err)
}

func TestInsert_SQLiteOptionalNull(t *testing.T) {
	repo, mock := newRepoWithMock(t, dbx.SQLite)

	q := `^INSERT INTO diary_entries \(id, created_at, author, content, date, audio_url\) VALUES \(\?, \?, \?, \?, \?, \?\)$`
	mock.ExpectExec(q).
		WithArgs("d-1", "2024-02-14T09:30:00.000000000Z", "anna", "dear diary", "Feb 14", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Insert(context.Background(), gateway.DiaryEntries, gateway.Record{
		ID: "d-1", CreatedAt: ts,
		Fields: map[string]any{"author": "anna", "content": "dear diary", "date": "Feb 14", "audio_url": ""},
	})
	require.NoError(t, err)
}

func TestInsert_BadFieldType(t *testing.T) {
	repo, _ := newRepoWithMock(t, dbx.Postgres)

	for _, fields := range []map[string]any{
		{"author": 1},
		{"author": "a", "rotation": 1.5},
		{"author": "a", "rotation": "1"},
	} {
		err := repo.Insert(context.Background(), gateway.SharedNotes, gateway.Record{ID: "x", CreatedAt: ts, Fields: fields})
		assert.ErrorIs(t, err, common.ErrValidation, fields)
	}
}

func TestInsert_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t, dbx.Postgres)
	mock.ExpectExec(`INSERT INTO memories`).WillReturnError(errors.New("duplicate key"))

	err := repo.Insert(context.Background(), gateway.Memories, gateway.Record{ID: "x", CreatedAt: ts,
		Fields: map[string]any{"author": "a", "caption": "", "url": "u", "date": "d"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}

func TestDeleteByID(t *testing.T) {
	repo, mock := newRepoWithMock(t, dbx.Postgres)

	mock.ExpectExec(`^DELETE FROM memories WHERE id = \$1$`).WithArgs("m-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^DELETE FROM memories WHERE id = \$1$`).WithArgs("m-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`^DELETE FROM memories WHERE id = \$1$`).WithArgs("m-2").WillReturnError(sql.ErrConnDone)

	removed, err := repo.DeleteByID(context.Background(), gateway.Memories, "m-1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.DeleteByID(context.Background(), gateway.Memories, "m-1")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = repo.DeleteByID(context.Background(), gateway.Memories, "m-2")
	assert.ErrorIs(t, err, sql.ErrConnDone)

	_, err = repo.DeleteByID(context.Background(), "users", "m-2")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestDeleteByID_Scoped(t *testing.T) {
	repo, mock := newRepoWithMock(t, dbx.SQLite)

	mock.ExpectExec(`^DELETE FROM diary_entries WHERE id = \? AND author = \?$`).
		WithArgs("d-1", "anna").WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err := repo.DeleteByID(context.Background(), gateway.DiaryEntries, "d-1", gateway.Eq("author", "anna"))
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = repo.DeleteByID(context.Background(), gateway.DiaryEntries, "d-1", gateway.Eq("pin", "x"))
	assert.ErrorIs(t, err, common.ErrValidation)
}
