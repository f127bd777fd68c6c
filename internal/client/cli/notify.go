package cli

import (
	"fmt"
	"io"
	"sync"
)

// terminalNotifier prints short success and error lines. It is shared by the
// REPL and the callback receiver goroutine.
type terminalNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func (n *terminalNotifier) Success(msg string) {
	n.print("OK", msg)
}

func (n *terminalNotifier) Error(msg string) {
	n.print("Error", msg)
}

func (n *terminalNotifier) print(kind, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintf(n.w, "%s: %s\n", kind, msg)
}
