// Package mood classifies free text into a mood and holds the catalog of
// mood spaces partners write notes into.
package mood

import "strings"

// Mood is a mood key as stored in mood_notes.mood.
type Mood string

const (
	None        Mood = ""
	Sad         Mood = "sad"
	Happy       Mood = "happy"
	Exhausted   Mood = "exhausted"
	Confused    Mood = "confused"
	Excited     Mood = "excited"
	Demotivated Mood = "demotivated"
	Anxious     Mood = "anxious"
	Angry       Mood = "angry"
)

type rule struct {
	mood     Mood
	keywords []string
}

// rules are tried in order; the first match wins.
var rules = []rule{
	{Sad, []string{"sad", "cry", "down", "unhappy", "blue", "depressed"}},
	{Happy, []string{"happy", "good", "great", "joy", "awesome", "love"}},
	{Exhausted, []string{"tired", "exhausted", "sleepy", "drained", "fatigue"}},
	{Confused, []string{"confused", "lost", "unsure", "weird"}},
	{Excited, []string{"excited", "pumped", "looking forward", "hyped"}},
	{Demotivated, []string{"demotivated", "lazy", "boring", "bored", "stuck"}},
}

// Classify returns the mood whose keyword first occurs in text, or None.
// Matching is case-insensitive substring matching.
func Classify(text string) Mood {
	t := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(t, kw) {
				return r.mood
			}
		}
	}
	return None
}

// Space is a mood page: a label and a comforting line shown on top of
// the partner's notes.
type Space struct {
	Key     Mood
	Label   string
	Message string
}

var catalog = []Space{
	{Sad, "Sad", "It's okay not to be okay. I'm here."},
	{Exhausted, "Exhausted", "Rest your head. You've done enough today."},
	{Happy, "Happy", "Your smile makes my world brighter!"},
	{Anxious, "Anxious", "Breathe. I've got you. We've got this."},
	{Excited, "Excited", "Yay! I love seeing you like this!"},
	{Angry, "Angry", "Let it out. I'm listening."},
}

// Catalog lists the mood spaces in display order.
func Catalog() []Space {
	out := make([]Space, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the space for key. Unknown keys fall back to Sad; ok
// reports whether key was known.
func Lookup(key Mood) (s Space, ok bool) {
	for _, s := range catalog {
		if s.Key == key {
			return s, true
		}
	}
	return catalog[0], false
}
