package cli

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Open(ctx context.Context, path string) error
	SignUp(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Reset(ctx context.Context) error
	ResetConfirm(ctx context.Context) error
	EditProfile(ctx context.Context) error
	Avatar(ctx context.Context, file string) error
	Notifications(ctx context.Context) error
	Read(ctx context.Context, id string) error
	ReadAll(ctx context.Context) error
	Refresh(ctx context.Context) error
	Seed(ctx context.Context, n int) error
}

const (
	helpSignedOut = "Available commands: help, open <path>, home, dashboard, signup, login, reset, resetconfirm, exit"
	helpSignedIn  = "Available commands: help, open <path>, home, dashboard, profile, editprofile, avatar <file>, " +
		"notifications, read <id>, readall, refresh, seed [n], logout, exit"
)

// runREPL starts a read–eval–print loop for the Homeshare CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF or when the user types "exit" or "quit".
//
// The prompt shows the current status (from statusFn), e.g.
// "ann@example.com (online)".
//
// Errors returned by command handlers are ignored here; handlers print
// their own notices. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("homeshare %s > ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
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
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpSignedOut)
			}

		case "open":
			if len(args) == 0 {
				printlnFn("Usage: open <path>")
				continue
			}
			_ = a.Open(ctx, args[0])

		case "home":
			_ = a.Open(ctx, "/")

		case "dashboard":
			_ = a.Open(ctx, "/dashboard")

		case "profile":
			_ = a.Open(ctx, "/dashboard/profile")

		case "signup":
			_ = a.SignUp(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "reset":
			_ = a.Reset(ctx)

		case "resetconfirm":
			_ = a.ResetConfirm(ctx)

		case "editprofile":
			_ = a.EditProfile(ctx)

		case "avatar":
			if len(args) == 0 {
				printlnFn("Usage: avatar <file>")
				continue
			}
			_ = a.Avatar(ctx, args[0])

		case "notifications":
			_ = a.Notifications(ctx)

		case "read":
			if len(args) == 0 {
				printlnFn("Usage: read <id>")
				continue
			}
			_ = a.Read(ctx, args[0])

		case "readall":
			_ = a.ReadAll(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "seed":
			n := 0
			if len(args) > 0 {
				v, err := strconv.Atoi(args[0])
				if err != nil || v < 0 {
					printlnFn("Usage: seed [n]")
					continue
				}
				n = v
			}
			_ = a.Seed(ctx, n)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
