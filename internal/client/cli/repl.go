package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Google(ctx context.Context) error
	Callback(ctx context.Context, rawURL string) error
	Open(ctx context.Context, path string) error
	Back(ctx context.Context) error
	Whoami(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads commands from reader until EOF, "exit" or "quit". Prompts
// inside handlers share the same reader, so no input is buffered past the
// current line.
//
//	Not signed in:
//	  help, register, login, google, callback <url>, open <path>, exit
//
//	Signed in:
//	  help, open <path>, back, whoami, logout, exit
//
// Handlers report their own errors to the user, so the loop ignores them.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("cf %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
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
				printlnFn("Available commands: open <path>, back, whoami, logout, exit")
				printlnFn("Screens: /dashboard, /patients, /patients/<id>, /appointments, /instructions, /reminders, /followups, /portal")
			} else {
				printlnFn("Available commands: register, login, google, callback <url>, open <path>, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "google":
			_ = a.Google(ctx)

		case "callback":
			if len(args) == 0 {
				printlnFn("Usage: callback <url>")
				continue
			}
			_ = a.Callback(ctx, args[0])

		case "open":
			if len(args) == 0 {
				printlnFn("Usage: open <path>")
				continue
			}
			_ = a.Open(ctx, args[0])

		case "back":
			_ = a.Back(ctx)

		case "whoami":
			_ = a.Whoami(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
