package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/duet/internal/client/device"
	"github.com/dmitrijs2005/duet/internal/client/mood"
	"github.com/dmitrijs2005/duet/internal/client/reconcile"
	"github.com/dmitrijs2005/duet/internal/client/screens"
	"github.com/dmitrijs2005/duet/internal/client/session"
	"github.com/dmitrijs2005/duet/internal/client/upload"
)

// openScreen returns the cached screen for key, building it on first use.
func openScreen[S screens.Screen](a *App, key string, build func(sess session.Session) S) S {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.screens[key].(S); ok {
		return s
	}
	s := build(a.session)
	if a.screens == nil {
		a.screens = map[string]screens.Screen{}
	}
	a.screens[key] = s
	return s
}

func (a *App) closeScreens() {
	a.mu.Lock()
	open := a.screens
	a.screens = map[string]screens.Screen{}
	a.mu.Unlock()

	for _, s := range open {
		s.Close()
	}
}

func (a *App) screenOptions() screens.Options {
	return screens.Options{Logger: a.logger, OnChange: a.reportFailures}
}

// reportFailures prints background write failures of every open screen as
// soon as they are reconciled, whichever screen the user is looking at.
func (a *App) reportFailures() {
	a.mu.Lock()
	open := make([]screens.Screen, 0, len(a.screens))
	for _, s := range a.screens {
		open = append(open, s)
	}
	a.mu.Unlock()

	for _, s := range open {
		printFailures(s)
	}
}

func (a *App) diary() *screens.Diary {
	return openScreen(a, "diary", func(sess session.Session) *screens.Diary {
		return screens.NewDiary(sess, a.client, a.capture, a.screenOptions())
	})
}

func (a *App) gallery() *screens.Gallery {
	return openScreen(a, "gallery", func(sess session.Session) *screens.Gallery {
		return screens.NewGallery(sess, a.client, a.capture, a.screenOptions())
	})
}

func (a *App) notes() *screens.Notes {
	return openScreen(a, "notes", func(sess session.Session) *screens.Notes {
		return screens.NewNotes(sess, a.client, a.screenOptions())
	})
}

func (a *App) messages() *screens.Messages {
	return openScreen(a, "messages", func(sess session.Session) *screens.Messages {
		return screens.NewMessages(sess, a.client, a.screenOptions())
	})
}

func (a *App) moodSpace(key mood.Mood) *screens.MoodSpace {
	return openScreen(a, "mood:"+string(key), func(sess session.Session) *screens.MoodSpace {
		return screens.NewMoodSpace(sess, a.client, key, a.screenOptions())
	})
}

// describeFailure explains a write the server did not accept.
func describeFailure(f reconcile.Failure) string {
	if o, ok := upload.IsOrphaned(f.Err); ok {
		return fmt.Sprintf("Uploaded %s but could not save it: %v", o.Filename, o.Err)
	}
	switch f.Op {
	case reconcile.OpInsert:
		return "Could not save, removed: " + f.Err.Error()
	case reconcile.OpDelete:
		return "Could not delete, restored: " + f.Err.Error()
	}
	return f.Err.Error()
}

// render prints write failures collected since the last render and the
// screen itself. Load failures are part of the view.
func render(s screens.Screen) {
	printFailures(s)
	printlnFn(s.View())
}

func printFailures(s screens.Screen) {
	for _, f := range s.Failures() {
		if f.Op == reconcile.OpLoad {
			continue
		}
		printlnFn(describeFailure(f))
	}
}

// refresh reloads s from the server and renders it.
func (a *App) refresh(ctx context.Context, s screens.Screen) error {
	err := s.Load(ctx)
	if err != nil {
		a.logger.Debug(ctx, "load failed", "screen", s.Title(), "error", err)
	}
	render(s)
	return err
}

func usage(u string) error {
	printlnFn("Usage: " + u)
	return errBadUsage
}

var errBadUsage = errors.New("bad usage")

func (a *App) deleteFrom(ctx context.Context, s screens.Screen, args []string, del func(context.Context, string) error, question string) error {
	if len(args) != 1 {
		return usage(s.Title() + " delete <id>")
	}
	id := strings.TrimPrefix(args[0], "#")

	ok, err := confirm(a.reader, question, os.Stdout)
	if err != nil || !ok {
		return err
	}
	if err := del(ctx, id); err != nil {
		printlnFn(describe(err))
		return err
	}
	render(s)
	return nil
}

// Home shows the greeting and how much each screen holds.
func (a *App) Home(ctx context.Context, _ []string) error {
	all := []screens.Screen{a.diary(), a.gallery(), a.notes(), a.messages()}
	counters := make([]screens.Counter, 0, len(all))
	var errs []error
	for _, s := range all {
		errs = append(errs, s.Load(ctx))
		counters = append(counters, s)
	}
	printlnFn(screens.NewDashboard(a.currentSession(), counters...).View())
	return errors.Join(errs...)
}

// Diary: diary | diary write | diary delete <id>
func (a *App) Diary(ctx context.Context, args []string) error {
	d := a.diary()
	if len(args) == 0 {
		return a.refresh(ctx, d)
	}

	switch args[0] {
	case "write":
		text, err := getMultiline(a.reader, "Write your secret", os.Stdout)
		if err != nil {
			return err
		}
		voice, err := confirm(a.reader, "Attach a voice note?", os.Stdout)
		if err != nil {
			return err
		}
		if _, err := d.Write(ctx, text, voice); err != nil {
			printlnFn(describe(err))
			return err
		}
		render(d)
		return nil
	case "delete":
		return a.deleteFrom(ctx, d, args[1:], d.Delete, "Delete this secret?")
	}
	return usage("diary [write | delete <id>]")
}

// Gallery: gallery | gallery add | gallery delete <id>
func (a *App) Gallery(ctx context.Context, args []string) error {
	g := a.gallery()
	if len(args) == 0 {
		return a.refresh(ctx, g)
	}

	switch args[0] {
	case "add":
		caption, err := getSimpleText(a.reader, "Caption (optional)", os.Stdout)
		if err != nil {
			return err
		}
		if _, err := g.Add(ctx, caption); err != nil {
			if errors.Is(err, device.ErrCancelled) {
				return nil
			}
			printlnFn(describe(err))
			return err
		}
		render(g)
		return nil
	case "delete":
		return a.deleteFrom(ctx, g, args[1:], g.Delete, "Delete this memory?")
	}
	return usage("gallery [add | delete <id>]")
}

// Notes: notes | notes add [text] | notes delete <id>
func (a *App) Notes(ctx context.Context, args []string) error {
	n := a.notes()
	if len(args) == 0 {
		return a.refresh(ctx, n)
	}

	switch args[0] {
	case "add":
		text := strings.Join(args[1:], " ")
		if text == "" {
			var err error
			if text, err = getMultiline(a.reader, "Write a note", os.Stdout); err != nil {
				return err
			}
		}
		if _, err := n.Add(ctx, text); err != nil {
			printlnFn(describe(err))
			return err
		}
		render(n)
		return nil
	case "delete":
		return a.deleteFrom(ctx, n, args[1:], n.Delete, "Unpin this note?")
	}
	return usage("notes [add [text] | delete <id>]")
}

// Messages: messages | messages send [text]
func (a *App) Messages(ctx context.Context, args []string) error {
	m := a.messages()
	if len(args) == 0 {
		return a.refresh(ctx, m)
	}

	if args[0] != "send" {
		return usage("messages [send [text]]")
	}
	text := strings.Join(args[1:], " ")
	if text == "" {
		var err error
		if text, err = getSimpleText(a.reader, "Whisper something", os.Stdout); err != nil {
			return err
		}
	}
	if _, err := m.Send(ctx, text); err != nil {
		printlnFn(describe(err))
		return err
	}
	render(m)
	return nil
}

// Mood: mood | mood <feeling> | mood write [text] | mood delete <id>
func (a *App) Mood(ctx context.Context, args []string) error {
	if len(args) == 0 {
		lines := []string{"How are you feeling? Type mood <feeling> or one of:"}
		for _, s := range mood.Catalog() {
			lines = append(lines, fmt.Sprintf("  %-10s %s", s.Key, s.Message))
		}
		printlnFn(strings.Join(lines, "\n"))
		return nil
	}

	switch args[0] {
	case "write", "delete":
		a.mu.Lock()
		key := a.mood
		a.mu.Unlock()
		if key == "" {
			printlnFn("Open a mood first: mood <feeling>")
			return errBadUsage
		}
		s := a.moodSpace(mood.Mood(key))
		if args[0] == "delete" {
			return a.deleteFrom(ctx, s, args[1:], s.Delete, "Delete this note?")
		}

		text := strings.Join(args[1:], " ")
		if text == "" {
			var err error
			if text, err = getMultiline(a.reader, "Leave a note for when they feel "+key, os.Stdout); err != nil {
				return err
			}
		}
		if _, err := s.Write(ctx, text); err != nil {
			printlnFn(describe(err))
			return err
		}
		render(s)
		return nil
	}

	key, ok := screens.MoodFor(strings.Join(args, " "))
	if !ok {
		printlnFn("Couldn't tell how you feel. Try: mood sad, mood happy, ...")
		return nil
	}
	s := a.moodSpace(key)
	a.mu.Lock()
	a.mood = string(s.Key())
	a.mu.Unlock()
	return a.refresh(ctx, s)
}
