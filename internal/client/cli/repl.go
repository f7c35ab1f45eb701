package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ChangePin(ctx context.Context) error
	Home(ctx context.Context, args []string) error
	Diary(ctx context.Context, args []string) error
	Gallery(ctx context.Context, args []string) error
	Notes(ctx context.Context, args []string) error
	Messages(ctx context.Context, args []string) error
	Mood(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: login, exit"
	helpLoggedIn  = "Available commands: home, diary, gallery, notes, (m)essages, mood, pin, logout, exit\n" +
		"Screens take subcommands, e.g. diary write, notes add <text>, gallery delete <id>"
)

// runREPL starts a simple read–eval–print loop for the duet CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a' with the remaining tokens as arguments.
// Screen commands require a login. The loop exits on EOF or when the user
// types "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers print
// what the user needs to see themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("duet %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}
			continue
		case "login":
			_ = a.Login(ctx)
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		if !a.isLoggedIn() {
			if isCommand(cmd) {
				printlnFn("Please login first.")
			} else {
				printlnFn("Unknown command:", cmd)
			}
			continue
		}

		switch cmd {
		case "home":
			_ = a.Home(ctx, args)
		case "diary":
			_ = a.Diary(ctx, args)
		case "gallery":
			_ = a.Gallery(ctx, args)
		case "notes":
			_ = a.Notes(ctx, args)
		case "m", "messages":
			_ = a.Messages(ctx, args)
		case "mood":
			_ = a.Mood(ctx, args)
		case "pin":
			_ = a.ChangePin(ctx)
		case "logout":
			_ = a.Logout(ctx)
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func isCommand(cmd string) bool {
	switch cmd {
	case "home", "diary", "gallery", "notes", "m", "messages", "mood", "pin", "logout":
		return true
	}
	return false
}
