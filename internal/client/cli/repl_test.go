package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  [][]string
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return nil
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(ctx context.Context) error {
	f.loggedIn = true
	return f.record("login", nil)
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.loggedIn = false
	return f.record("logout", nil)
}
func (f *fakeExec) ChangePin(ctx context.Context) error { return f.record("pin", nil) }
func (f *fakeExec) Home(ctx context.Context, args []string) error {
	return f.record("home", args)
}
func (f *fakeExec) Diary(ctx context.Context, args []string) error {
	return f.record("diary", args)
}
func (f *fakeExec) Gallery(ctx context.Context, args []string) error {
	return f.record("gallery", args)
}
func (f *fakeExec) Notes(ctx context.Context, args []string) error {
	return f.record("notes", args)
}
func (f *fakeExec) Messages(ctx context.Context, args []string) error {
	return f.record("messages", args)
}
func (f *fakeExec) Mood(ctx context.Context, args []string) error {
	return f.record("mood", args)
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	out := captureOutput(t)

	input := strings.Join([]string{
		"help",
		"diary",
		"login",
		"help",
		"",
		"diary write",
		"notes add buy milk",
		"m send",
		"mood so tired",
		"gallery",
		"home",
		"pin",
		"foobar",
		"logout",
		"notes",
		"exit",
		"diary",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, rdr(input))

	assert.Equal(t, []string{"login", "diary", "notes", "messages", "mood", "gallery", "home", "pin", "logout"}, exec.calls)
	assert.Equal(t, []string{"write"}, exec.args[1])
	assert.Equal(t, []string{"add", "buy", "milk"}, exec.args[2])
	assert.Equal(t, []string{"so", "tired"}, exec.args[4])

	s := out.String()
	assert.Contains(t, s, helpLoggedOut)
	assert.Contains(t, s, helpLoggedIn)
	assert.Equal(t, 2, strings.Count(s, "Please login first."))
	assert.Contains(t, s, "Unknown command: foobar")
	assert.Contains(t, s, "duet status> ")
	assert.Contains(t, s, "Bye!")
}

func TestRunREPL_EOFWithoutNewline(t *testing.T) {
	captureOutput(t)
	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "" }, rdr("notes"))
	assert.Equal(t, []string{"notes"}, exec.calls)
}

func TestRunREPL_StopsOnCancelledContext(t *testing.T) {
	captureOutput(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{loggedIn: true}
	runREPL(ctx, exec, func() string { return "" }, rdr("notes\n"))
	assert.Empty(t, exec.calls)
}
