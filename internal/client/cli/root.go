package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	s := ""
	if sess := a.currentSession(); sess.User != "" {
		s = sess.User + " "
	}
	if m := a.Mode(); m != "" {
		s = s + string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root probes the server, asks for a login and runs the REPL until the
// user leaves. The connectivity watcher stops with it.
func (a *App) Root(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	printlnFn("Welcome to duet (type 'help' for commands)")

	a.checkOnline(ctx)
	_ = a.Login(ctx)

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}
