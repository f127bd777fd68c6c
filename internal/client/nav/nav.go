// Package nav keeps the client's current location and its history, the
// terminal counterpart of the browser address bar.
package nav

import (
	"net/url"
	"strings"
	"sync"
)

// Location is one entry of the history.
type Location struct {
	Path     string
	Fragment string
	// From is the location the user tried to open before being sent here.
	From string
}

// String renders the location the way an address bar shows it.
func (l Location) String() string {
	if l.Fragment == "" {
		return l.Path
	}
	return l.Path + "#" + l.Fragment
}

// Parse splits a path or URL into a Location. Only the path and fragment
// are kept; scheme, host and query are dropped.
func Parse(raw string) Location {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		path, frag, _ := strings.Cut(raw, "#")
		return Location{Path: cleanPath(path), Fragment: frag}
	}
	frag := u.EscapedFragment()
	return Location{Path: cleanPath(u.Path), Fragment: frag}
}

func cleanPath(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p == "" || p[0] != '/' {
		p = "/" + p
	}
	return p
}

// Navigator is safe for concurrent use; the loopback callback receiver
// sets locations from its own goroutines.
type Navigator struct {
	mu      sync.RWMutex
	current Location
	back    []Location
}

func NewNavigator(start Location) *Navigator {
	if start.Path == "" {
		start.Path = "/"
	}
	return &Navigator{current: start}
}

func (n *Navigator) Current() Location {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}

// Push moves to loc and records the previous location in history.
func (n *Navigator) Push(loc Location) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.back = append(n.back, n.current)
	n.current = loc
}

// Replace moves to loc without a history entry, so Back skips the
// location being replaced.
func (n *Navigator) Replace(loc Location) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = loc
}

// Back returns to the previous location. ok is false when history is empty.
func (n *Navigator) Back() (Location, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.back) == 0 {
		return n.current, false
	}
	n.current = n.back[len(n.back)-1]
	n.back = n.back[:len(n.back)-1]
	return n.current, true
}

// ClearFragment drops the fragment from the current location in place.
func (n *Navigator) ClearFragment() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current.Fragment = ""
}

// SetLocation records an address that arrived from outside, such as a
// pasted redirect URL. It is pushed like a normal navigation.
func (n *Navigator) SetLocation(raw string) Location {
	loc := Parse(raw)
	n.Push(loc)
	return loc
}

// History returns a copy of the back stack, oldest first.
func (n *Navigator) History() []Location {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]Location, len(n.back))
	copy(out, n.back)
	return out
}
