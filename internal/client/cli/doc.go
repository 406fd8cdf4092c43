// Package cli implements the interactive Paperstand command-line client.
//
// The client talks to the backend over HTTP (see internal/client/api) and
// keeps a saved session on disk so a login survives restarts. A simple REPL
// dispatches user commands; live paper status updates arrive over a
// websocket started by the "watch" command.
package cli
