package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/duet/internal/common"
	"github.com/dmitrijs2005/duet/internal/gateway"
)

var me = Caller{Profile: "me", Partner: "partner"}

func newRecordService(t *testing.T) (*RecordService, *fakeRepoManager) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	s := NewRecordService(db, rm)
	s.now = func() time.Time { return time.Date(2024, 2, 14, 9, 30, 0, 123456789, time.FixedZone("x", 3600)) }
	s.newID = func() string { return "0b6e7a8e-6f4e-4c1b-9a59-1d2f3c4b5a69" }
	return s, rm
}

func TestRecordService_Insert_StampsIDAndTime(t *testing.T) {
	s, rm := newRecordService(t)

	rec, err := s.Insert(context.Background(), me, gateway.SharedNotes, map[string]any{
		"author":   "me",
		"content":  "buy milk",
		"color":    "pink",
		"rotation": 2,
	})
	require.NoError(t, err)

	assert.Equal(t, "0b6e7a8e-6f4e-4c1b-9a59-1d2f3c4b5a69", rec.ID)
	assert.Equal(t, time.Date(2024, 2, 14, 8, 30, 0, 123456000, time.UTC), rec.CreatedAt)
	assert.Equal(t, "buy milk", rec.Fields["content"])
	assert.EqualValues(t, 2, rec.Fields["rotation"])

	require.Len(t, rm.records.inserted, 1)
	assert.Equal(t, rec, rm.records.inserted[0])
	assert.Equal(t, gateway.SharedNotes, rm.records.lastCollection)
}

func TestRecordService_Insert_DropsUnknownFields(t *testing.T) {
	s, _ := newRecordService(t)

	rec, err := s.Insert(context.Background(), me, gateway.DiaryEntries, map[string]any{
		"author":  "me",
		"content": "dear diary",
		"date":    "2024-02-14",
		"secret":  "x",
	})
	require.NoError(t, err)
	assert.NotContains(t, rec.Fields, "secret")
	assert.NotContains(t, rec.Fields, "audio_url")
}

func TestRecordService_Insert_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		c      gateway.Collection
		fields map[string]any
		want   error
	}{
		{"unknown collection", gateway.Collection("nope"), map[string]any{}, common.ErrValidation},
		{"blank content", gateway.SharedNotes, map[string]any{"author": "me", "content": "   ", "color": "blue"}, common.ErrValidation},
		{"rotation out of range", gateway.SharedNotes, map[string]any{"author": "me", "content": "x", "color": "blue", "rotation": 7}, common.ErrValidation},
		{"wrong type", gateway.SharedNotes, map[string]any{"author": "me", "content": 5, "color": "blue"}, common.ErrValidation},
		{"bad url", gateway.Memories, map[string]any{"author": "me", "url": "not a url", "date": "d"}, common.ErrValidation},
		{"foreign author", gateway.SharedNotes, map[string]any{"author": "partner", "content": "x", "color": "blue"}, common.ErrorUnauthorized},
		{"wrong target", gateway.Messages, map[string]any{"author": "me", "target": "me", "content": "hi", "date": "d"}, common.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, rm := newRecordService(t)
			_, err := s.Insert(context.Background(), me, tt.c, tt.fields)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, rm.records.inserted)
		})
	}
}

func TestRecordService_Insert_AddressedToPartner(t *testing.T) {
	s, rm := newRecordService(t)
	_, err := s.Insert(context.Background(), me, gateway.MoodNotes, map[string]any{
		"author": "me", "target": "partner", "mood": "sad", "content": "you got this",
	})
	require.NoError(t, err)
	require.Len(t, rm.records.inserted, 1)
}

func TestRecordService_Insert_RepoError(t *testing.T) {
	s, rm := newRecordService(t)
	rm.records.insertErr = errors.New("db down")

	_, err := s.Insert(context.Background(), me, gateway.SharedNotes, map[string]any{
		"author": "me", "content": "x", "color": "blue",
	})
	require.EqualError(t, err, "db down")
}

func TestRecordService_List_DiaryScopedToCaller(t *testing.T) {
	s, rm := newRecordService(t)
	rm.records.listOut = []gateway.Record{{ID: "a"}}

	out, err := s.List(context.Background(), me, gateway.DiaryEntries, gateway.Query{
		Filters: []gateway.Filter{gateway.Eq("date", "2024-02-14")},
		OrderBy: "created_at",
	})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, []gateway.Filter{gateway.Eq("author", "me"), gateway.Eq("date", "2024-02-14")}, rm.records.lastQuery.Filters)
	assert.Equal(t, "created_at", rm.records.lastQuery.OrderBy)
}

func TestRecordService_List_DiaryOfPartnerIsPrivate(t *testing.T) {
	s, _ := newRecordService(t)
	_, err := s.List(context.Background(), me, gateway.DiaryEntries, gateway.Query{
		Filters: []gateway.Filter{gateway.Eq("author", "partner")},
	})
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestRecordService_List_SharedCollectionsUnscoped(t *testing.T) {
	s, rm := newRecordService(t)
	_, err := s.List(context.Background(), me, gateway.SharedNotes, gateway.Query{})
	require.NoError(t, err)
	assert.Empty(t, rm.records.lastQuery.Filters)

	_, err = s.List(context.Background(), me, gateway.Collection("x"), gateway.Query{})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestNewValidator_NotBlank(t *testing.T) {
	v, err := newValidator()
	require.NoError(t, err)
	assert.Error(t, v.Var(" \t", "notblank"))
	assert.NoError(t, v.Var("hi", "notblank"))
}

func TestRecordService_Delete(t *testing.T) {
	s, rm := newRecordService(t)
	id := "0b6e7a8e-6f4e-4c1b-9a59-1d2f3c4b5a69"

	require.NoError(t, s.Delete(context.Background(), me, gateway.Memories, id))

	// absent ids succeed
	rm.records.deleteOK = false
	require.NoError(t, s.Delete(context.Background(), me, gateway.Memories, id))
	assert.Equal(t, []string{id, id}, rm.records.deleted)

	assert.ErrorIs(t, s.Delete(context.Background(), me, gateway.Memories, "temp-1-1"), common.ErrValidation)
	assert.ErrorIs(t, s.Delete(context.Background(), me, gateway.Collection("x"), id), common.ErrValidation)

	rm.records.deleteErr = errors.New("db down")
	assert.EqualError(t, s.Delete(context.Background(), me, gateway.Memories, id), "db down")
}

func TestRecordService_Delete_DiaryScopedToCaller(t *testing.T) {
	s, rm := newRecordService(t)
	id := "0b6e7a8e-6f4e-4c1b-9a59-1d2f3c4b5a69"

	require.NoError(t, s.Delete(context.Background(), me, gateway.Memories, id))
	assert.Empty(t, rm.records.deleteScope)

	partner := Caller{Profile: "partner", Partner: "me"}
	require.NoError(t, s.Delete(context.Background(), partner, gateway.DiaryEntries, id))
	assert.Equal(t, []gateway.Filter{gateway.Eq("author", "partner")}, rm.records.deleteScope)
}
