package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/duet/internal/client/client"
	"github.com/dmitrijs2005/duet/internal/client/session"
	"github.com/dmitrijs2005/duet/internal/common"
)

// getSimpleText, getPassword, getMultiline and confirm are indirections
// used to facilitate testing. They point to interactive input helpers and
// can be swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
	confirm       = Confirm
)

// describe turns an error into the line shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, client.ErrUnavailable):
		return "Server unavailable, try again later."
	case errors.Is(err, common.ErrTooManyAttempts):
		return "Too many attempts, wait a minute."
	case errors.Is(err, common.ErrorNotFound):
		return "Not found."
	case errors.Is(err, common.ErrValidation):
		return err.Error()
	}
	return "Error: " + err.Error()
}

// Login asks for a profile name and PIN. A successful login replaces the
// previous session and drops its screens.
func (a *App) Login(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Who's there?", os.Stdout)
	if err != nil {
		return err
	}

	pin, err := getPassword(os.Stdout, "Enter PIN: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pin)

	sess, err := a.client.Login(ctx, name, string(pin))
	if err != nil {
		switch {
		case errors.Is(err, client.ErrUnauthorized):
			printlnFn("Wrong PIN.")
		case errors.Is(err, common.ErrorNotFound):
			printlnFn(fmt.Sprintf("No profile named %q.", name))
		default:
			if errors.Is(err, client.ErrUnavailable) {
				a.setMode(ModeOffline)
			}
			printlnFn(describe(err))
		}
		return err
	}

	a.closeScreens()
	a.mu.Lock()
	a.session = sess
	a.mu.Unlock()
	a.setMode(ModeOnline)

	a.logger.Info(ctx, "logged in", "user", sess.User)
	printlnFn(fmt.Sprintf("Welcome, %s!", sess.User))
	return nil
}

// ChangePin asks for the current PIN and the new one twice.
func (a *App) ChangePin(ctx context.Context) error {
	prompts := []string{"Current PIN: ", "New PIN: ", "Confirm new PIN: "}
	pins := make([][]byte, 0, len(prompts))
	defer func() {
		for _, p := range pins {
			common.WipeByteArray(p)
		}
	}()

	for _, p := range prompts {
		pin, err := getPassword(os.Stdout, p)
		if err != nil {
			return err
		}
		pins = append(pins, pin)
	}

	if err := a.client.ChangePin(ctx, string(pins[0]), string(pins[1]), string(pins[2])); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			printlnFn("Current PIN is wrong.")
		} else {
			printlnFn(describe(err))
		}
		return err
	}

	printlnFn("PIN changed.")
	return nil
}

// Logout forgets the session and closes every open screen. Writes still in
// flight finish on the server but no longer touch the closed screens.
func (a *App) Logout(ctx context.Context) error {
	a.closeScreens()
	a.client.Logout()

	a.mu.Lock()
	a.session = session.Session{}
	a.mood = ""
	a.mu.Unlock()

	printlnFn("Bye for now.")
	return nil
}
