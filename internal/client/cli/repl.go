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
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Upload(ctx context.Context, path string) error
	Library(ctx context.Context) error
	Watch(ctx context.Context) error
	Status(ctx context.Context, paperID string) error
	SetUsername(ctx context.Context) error
	SetPassword(ctx context.Context) error
	SetLanguage(ctx context.Context) error
}

// runREPL starts a read-eval-print loop for the Paperstand CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help             — show available commands
//	  - signup           — create an account
//	  - login            — authenticate
//	  - exit | quit      — leave the program
//
//	Logged in:
//	  - help             — show available commands
//	  - upload <path>    — upload a PDF for summarization
//	  - library | l      — list your papers
//	  - watch            — stream live status updates
//	  - status <id>      — ask for a paper's current status (needs watch)
//	  - username         — change your display name
//	  - password         — change your password
//	  - language         — change your preferred language
//	  - logout           — log out
//	  - exit | quit      — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("paperstand %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: upload <path>, (l)ibrary, watch, status <id>, username, password, language, logout, exit")
			} else {
				printlnFn("Available commands: signup, login, exit")
			}

		case "signup":
			_ = a.Signup(ctx)

		case "login":
			_ = a.Login(ctx)

		case "upload":
			if len(args) == 0 {
				printlnFn("Usage: upload <path-to-pdf>")
				continue
			}
			_ = a.Upload(ctx, args[0])

		case "l", "library":
			_ = a.Library(ctx)

		case "watch":
			_ = a.Watch(ctx)

		case "status":
			if len(args) == 0 {
				printlnFn("Usage: status <paper-id>")
				continue
			}
			_ = a.Status(ctx, args[0])

		case "username":
			_ = a.SetUsername(ctx)

		case "password":
			_ = a.SetPassword(ctx)

		case "language":
			_ = a.SetLanguage(ctx)

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
