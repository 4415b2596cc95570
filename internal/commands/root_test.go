package commands

import (
	"strings"
	"testing"
)

func TestRootCommand_Help(t *testing.T) {
	cmd := rootCmd
	if cmd.Use != "cleansight [prompt]" {
		t.Errorf("Expected use 'cleansight [prompt]', got %s", cmd.Use)
	}
	if cmd.Short == "" {
		t.Error("Short description should not be empty")
	}
	if cmd.Long == "" {
		t.Error("Long description should not be empty")
	}
	if cmd.Args == nil {
		t.Error("Args validation should be configured")
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	want := map[string]bool{"chat": false, "serve": false, "config": false, "persona": false}
	for _, sub := range rootCmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected subcommand %s", name)
		}
	}
}

func TestRootCommand_Flags(t *testing.T) {
	for _, name := range []string{"config", "log-level", "log-file", "relay-url", "persona"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected persistent flag --%s", name)
		}
	}
	for _, name := range []string{"output", "file", "image", "raw", "version"} {
		if rootCmd.Flags().Lookup(name) == nil {
			t.Errorf("expected flag --%s", name)
		}
	}
	if serveCmd.Flags().Lookup("addr") == nil {
		t.Error("expected serve --addr")
	}
}

func TestRootCommand_Version(t *testing.T) {
	setupCommand(t)

	out, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(out, "cleansight "+Version) {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestRootCommand_TooManyArgs(t *testing.T) {
	setupCommand(t)

	if _, err := execute(t, "one", "two"); err == nil {
		t.Error("expected error for two positional arguments")
	}
}
