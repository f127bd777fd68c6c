// Package cli provides the interactive CareFollow command-line client.
//
// It wires configuration, the local session database, the backend client
// and the session manager, then either runs one command or an interactive
// REPL. Every screen goes through the access gate before it is drawn:
// staff see the dashboard and the clinical lists, patients see their
// portal, and anyone without a session lands on the login screen.
//
// Commands:
//   - login, register: password sign-in and sign-up
//   - google: external sign-in through a loopback redirect receiver
//   - callback <url>: finish an external sign-in from a pasted redirect URL
//   - open <path>, back: navigate between screens
//   - whoami, logout
//
// The command line is built with cobra; Execute is the entry point.
package cli
