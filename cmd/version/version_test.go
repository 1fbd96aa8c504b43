package version

import (
	"testing"
)

func TestGetCommand(t *testing.T) {
	t.Parallel()

	cmd := GetCommand()
	if cmd == nil {
		t.Fatal("GetCommand() returned nil")
	}
	if cmd.Name != "version" {
		t.Errorf("command name = %q, want %q", cmd.Name, "version")
	}
	if cmd.Action == nil {
		t.Error("command has no action")
	}
}
