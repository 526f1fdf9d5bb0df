// Package cli provides the interactive Homeshare command-line client.
//
// It wires configuration, the local session database, the backend client,
// the session store, the dashboard loader and the notification feed, and
// serves a REPL on top of them. Paths typed with "open" are resolved by a
// small router that mirrors the web routes (/, /auth, /dashboard/...).
//
// Operation outcomes are printed as one-line notices:
//
//	[ok] Welcome back!: You have successfully signed in.
//	[error] Error signing in: invalid login credentials
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
