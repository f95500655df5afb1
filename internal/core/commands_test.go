package core

import (
	"errors"
	"strings"
	"testing"
)

func TestIsCommand(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"add name=Pen", true},
		{"REMOVE name=Pen", true},
		{"  set name=Pen qty=3", true},
		{"how many pens do I have?", false},
		{"additional stock arrived today", false},
		{"", false},
		{"   ", false},
	}
	for _, tt := range tests {
		if got := IsCommand(tt.input); got != tt.want {
			t.Errorf("IsCommand(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseCommand_Add(t *testing.T) {
	cmd, err := ParseCommand("add name=Pen qty=10 price=5.5 category=stationery desc=ballpoint")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Verb != CmdAdd {
		t.Errorf("verb = %q, want add", cmd.Verb)
	}
	if cmd.Name != "Pen" {
		t.Errorf("name = %q, want Pen", cmd.Name)
	}
	if cmd.Qty == nil || *cmd.Qty != 10 {
		t.Errorf("qty = %v, want 10", cmd.Qty)
	}
	if cmd.Price == nil || *cmd.Price != 5.5 {
		t.Errorf("price = %v, want 5.5", cmd.Price)
	}
	if cmd.Category == nil || *cmd.Category != "stationery" {
		t.Errorf("category = %v, want stationery", cmd.Category)
	}
	if cmd.Desc == nil || *cmd.Desc != "ballpoint" {
		t.Errorf("desc = %v, want ballpoint", cmd.Desc)
	}
}

func TestParseCommand_QuotedValuesKeepSpaces(t *testing.T) {
	cmd, err := ParseCommand(`add name="Blue Pen" desc="smooth ballpoint pen" qty=3`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Name != "Blue Pen" {
		t.Errorf("name = %q, want Blue Pen", cmd.Name)
	}
	if cmd.Desc == nil || *cmd.Desc != "smooth ballpoint pen" {
		t.Errorf("desc = %v, want smooth ballpoint pen", cmd.Desc)
	}
}

func TestParseCommand_VerbIsCaseInsensitive(t *testing.T) {
	cmd, err := ParseCommand("Remove name=Pen qty=2")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Verb != CmdRemove {
		t.Errorf("verb = %q, want remove", cmd.Verb)
	}
}

func TestParseCommand_OmittedFieldsStayNil(t *testing.T) {
	cmd, err := ParseCommand("remove name=Pen")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Qty != nil || cmd.Price != nil || cmd.Category != nil || cmd.Desc != nil {
		t.Errorf("omitted fields should be nil: %+v", cmd)
	}
}

func TestParseCommand_SetDistinguishesExplicitZero(t *testing.T) {
	cmd, err := ParseCommand("set name=Pen qty=0")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Qty == nil || *cmd.Qty != 0 {
		t.Errorf("qty = %v, want explicit 0", cmd.Qty)
	}
}

func TestParseCommand_Failures(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{"unknown verb", "drop name=Pen", "unknown verb"},
		{"missing name", "add qty=3", "name is required"},
		{"empty name", `add name=""`, "name must not be empty"},
		{"qty not a number", "add name=Pen qty=ten", "qty must be a non-negative whole number"},
		{"qty negative", "add name=Pen qty=-1", "qty must be a non-negative whole number"},
		{"qty fractional", "add name=Pen qty=1.5", "qty must be a non-negative whole number"},
		{"price negative", "add name=Pen price=-2", "price must be a non-negative number"},
		{"duplicate field", "add name=Pen qty=1 qty=2", "duplicate field"},
		{"unknown field", "add name=Pen color=blue", "unknown field"},
		{"bare word", "add Pen", "expected key=value"},
		{"set without fields", "set name=Pen", "set requires at least one field"},
		{"unterminated quote", `add name="Blue Pen`, "unterminated quote"},
		{"empty input", "   ", "empty command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCommand(tt.input)
			if err == nil {
				t.Fatalf("expected parse of %q to fail", tt.input)
			}
			var parseErr *CommandParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected a *CommandParseError, got %T", err)
			}
			if !strings.Contains(parseErr.Reason, tt.reason) {
				t.Errorf("reason %q should mention %q", parseErr.Reason, tt.reason)
			}
			if parseErr.Input != tt.input {
				t.Errorf("parse error should carry the original input, got %q", parseErr.Input)
			}
		})
	}
}
