package platform

import (
	"context"
	"errors"
	"testing"
)

func TestMockRunner_Run(t *testing.T) {
	m := NewMockRunner()
	ctx := context.Background()

	if err := m.Run(ctx, "echo", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Commands) != 1 {
		t.Fatalf("expected 1 command, got %d", len(m.Commands))
	}
	if m.Commands[0].Name != "echo" {
		t.Fatalf("expected echo, got %s", m.Commands[0].Name)
	}
}

func TestMockRunner_RunWithOutput(t *testing.T) {
	m := NewMockRunner()
	m.OutputMap[m.Key("screen", "-list")] = []byte("No Sockets found\n")

	out, err := m.RunWithOutput(context.Background(), "screen", "-list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "No Sockets found\n" {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestMockRunner_RunAs(t *testing.T) {
	m := NewMockRunner()
	if err := m.RunAs(context.Background(), "minecraft", "screen", "-list"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Commands) != 1 {
		t.Fatalf("expected 1 command, got %d", len(m.Commands))
	}
	if m.Commands[0].User != "minecraft" {
		t.Fatalf("expected user minecraft, got %q", m.Commands[0].User)
	}
}

func TestMockRunner_RunAs_ErrorLookupIgnoresUser(t *testing.T) {
	m := NewMockRunner()
	want := errors.New("boom")
	m.ErrorMap[m.Key("screen", "-list")] = want

	if err := m.RunAs(context.Background(), "minecraft", "screen", "-list"); !errors.Is(err, want) {
		t.Fatalf("expected preconfigured error, got %v", err)
	}
}

func TestMockRunner_CommandExists(t *testing.T) {
	m := NewMockRunner()
	m.ExistsMap["screen"] = true

	if !m.CommandExists("screen") {
		t.Fatal("expected screen to exist")
	}
	if m.CommandExists("nonexistent") {
		t.Fatal("expected nonexistent to not exist")
	}
}

func TestMockRunner_RunSudo(t *testing.T) {
	m := NewMockRunner()
	if err := m.RunSudo(context.Background(), "chown", "-R", "minecraft:minecraft", "/srv/bedrock"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Commands) != 1 {
		t.Fatalf("expected 1 command, got %d", len(m.Commands))
	}
	if !m.Commands[0].Sudo {
		t.Fatal("expected sudo flag to be set")
	}
}
