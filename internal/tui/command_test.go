package tui

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"quit", Command{Name: "quit"}},
		{"  Q  ", Command{Name: "quit"}},
		{"search  food bank ", Command{Name: "search", Args: "food bank"}},
		{"chat Green Org", Command{Name: "open", Args: "Green Org"}},
		{"n", Command{Name: "notifications"}},
		{"connect 42", Command{Name: "connect", Args: "42"}},
		{"", Command{}},
	}
	for _, tt := range tests {
		if got := ParseCommand(tt.in); got != tt.want {
			t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
