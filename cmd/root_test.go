package cmd

import "testing"

// TestSubcommandsRegistered verifies init() wired every command onto the root.
func TestSubcommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"serve":   false,
		"index":   false,
		"search":  false,
		"version": false,
	}

	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}

	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered on root", name)
		}
	}
}

func TestIndexSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range indexCmd.Commands() {
		names[c.Name()] = true
	}

	if !names["rebuild"] || !names["backfill"] {
		t.Errorf("index subcommands = %v, want rebuild and backfill", names)
	}
}
