package nav

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		want Location
	}{
		{"/dashboard", Location{Path: "/dashboard"}},
		{"dashboard", Location{Path: "/dashboard"}},
		{"", Location{Path: "/"}},
		{"http://127.0.0.1:7788/auth/callback#session_id=abc123", Location{Path: "/auth/callback", Fragment: "session_id=abc123"}},
		{"https://app.test/#session_id=x&state=y", Location{Path: "/", Fragment: "session_id=x&state=y"}},
		{"/patients?q=ana", Location{Path: "/patients"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Parse(tt.raw)); diff != "" {
				t.Fatalf("Parse mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLocation_String(t *testing.T) {
	assert.Equal(t, "/auth/callback#session_id=a", Location{Path: "/auth/callback", Fragment: "session_id=a"}.String())
	assert.Equal(t, "/login", Location{Path: "/login"}.String())
}

func TestNavigator_PushBack(t *testing.T) {
	n := NewNavigator(Location{Path: "/login"})
	n.Push(Location{Path: "/dashboard"})
	n.Push(Location{Path: "/patients"})

	loc, ok := n.Back()
	require.True(t, ok)
	assert.Equal(t, "/dashboard", loc.Path)

	loc, ok = n.Back()
	require.True(t, ok)
	assert.Equal(t, "/login", loc.Path)

	loc, ok = n.Back()
	assert.False(t, ok)
	assert.Equal(t, "/login", loc.Path)
}

func TestNavigator_ReplaceSkipsHistory(t *testing.T) {
	n := NewNavigator(Location{Path: "/login"})
	n.SetLocation("http://localhost/auth/callback#session_id=abc")
	n.ClearFragment()
	n.Replace(Location{Path: "/dashboard"})

	assert.Equal(t, Location{Path: "/dashboard"}, n.Current())

	loc, ok := n.Back()
	require.True(t, ok)
	assert.Equal(t, "/login", loc.Path)
	assert.Empty(t, n.History())
}

func TestNavigator_ClearFragment(t *testing.T) {
	n := NewNavigator(Location{})
	assert.Equal(t, "/", n.Current().Path)

	n.Push(Location{Path: "/auth/callback", Fragment: "session_id=abc"})
	n.ClearFragment()
	assert.Equal(t, Location{Path: "/auth/callback"}, n.Current())
}
