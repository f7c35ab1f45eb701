// Package cli provides the interactive duet command-line client.
//
// It wires configuration, the gRPC client and an interactive REPL hosting
// the screen controllers. Typical flow: probe the server, prompt for a
// profile name and PIN, start a background connectivity watcher, and
// execute user commands.
//
// Key features:
//   - Login / Logout / change PIN
//   - home: greeting and per-screen counts
//   - diary, gallery, notes, messages, mood screens with optimistic writes
//
// Screens stay open for the whole session so pending writes reconcile into
// the same state the user is looking at. Logout closes them.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
