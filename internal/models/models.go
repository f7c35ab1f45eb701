// Package models defines the payloads stored in each collection.
// Field tags drive both the wire encoding and server-side validation.
package models

// DiaryEntry is a private diary page, optionally with a voice note.
type DiaryEntry struct {
	Author   string `json:"author" validate:"required,max=64"`
	Content  string `json:"content" validate:"required,notblank,max=20000"`
	Date     string `json:"date" validate:"required,max=64"`
	AudioURL string `json:"audio_url,omitempty" validate:"omitempty,url,max=2048"`
}

// Memory is a gallery photo.
type Memory struct {
	Author  string `json:"author" validate:"required,max=64"`
	Caption string `json:"caption" validate:"max=500"`
	URL     string `json:"url" validate:"required,url,max=2048"`
	Date    string `json:"date" validate:"required,max=64"`
}

// SharedNote is a sticky note on the shared board.
type SharedNote struct {
	Author   string `json:"author" validate:"required,max=64"`
	Content  string `json:"content" validate:"required,notblank,max=2000"`
	Color    string `json:"color" validate:"required,max=32"`
	Rotation int    `json:"rotation" validate:"gte=-3,lte=3"`
}

// DailyMessage is a one-line whisper from Author to Target for Date.
type DailyMessage struct {
	Author  string `json:"author" validate:"required,max=64"`
	Target  string `json:"target" validate:"required,max=64"`
	Content string `json:"content" validate:"required,notblank,max=2000"`
	Date    string `json:"date" validate:"required,max=64"`
}

// MoodNote is written by Author for Target to read when Target feels Mood.
type MoodNote struct {
	Author  string `json:"author" validate:"required,max=64"`
	Target  string `json:"target" validate:"required,max=64"`
	Mood    string `json:"mood" validate:"required,max=32"`
	Content string `json:"content" validate:"required,notblank,max=2000"`
}

// NoteColors is the sticky-note palette.
var NoteColors = []string{"yellow", "pink", "blue", "green", "purple"}
