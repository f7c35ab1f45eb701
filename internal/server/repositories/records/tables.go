package records

import (
	"fmt"
	"slices"

	"github.com/dmitrijs2005/duet/internal/common"
	"github.com/dmitrijs2005/duet/internal/gateway"
)

type kind int

const (
	kindText kind = iota
	kindInt
	// kindOptionalText is stored as NULL when absent or empty.
	kindOptionalText
)

type column struct {
	name string
	kind kind
}

type table struct {
	name    string
	columns []column
}

// tables whitelists every collection and payload column that may appear in
// generated SQL.
var tables = map[gateway.Collection]table{
	gateway.DiaryEntries: {name: "diary_entries", columns: []column{
		{"author", kindText}, {"content", kindText}, {"date", kindText}, {"audio_url", kindOptionalText},
	}},
	gateway.Memories: {name: "memories", columns: []column{
		{"author", kindText}, {"caption", kindText}, {"url", kindText}, {"date", kindText},
	}},
	gateway.SharedNotes: {name: "shared_notes", columns: []column{
		{"author", kindText}, {"content", kindText}, {"color", kindText}, {"rotation", kindInt},
	}},
	gateway.Messages: {name: "messages", columns: []column{
		{"author", kindText}, {"target", kindText}, {"content", kindText}, {"date", kindText},
	}},
	gateway.MoodNotes: {name: "mood_notes", columns: []column{
		{"author", kindText}, {"target", kindText}, {"mood", kindText}, {"content", kindText},
	}},
}

func lookup(c gateway.Collection) (table, error) {
	t, ok := tables[c]
	if !ok {
		return table{}, fmt.Errorf("%w: unknown collection %q", common.ErrValidation, c)
	}
	return t, nil
}

func (t table) column(name string) (column, bool) {
	i := slices.IndexFunc(t.columns, func(c column) bool { return c.name == name })
	if i < 0 {
		return column{}, false
	}
	return t.columns[i], true
}

func (t table) orderColumn(name string) (string, error) {
	switch name {
	case "", "created_at":
		return "created_at", nil
	}
	if _, ok := t.column(name); ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: cannot order %s by %q", common.ErrValidation, t.name, name)
}
