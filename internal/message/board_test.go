package message

import (
	"encoding/json"
	"testing"
)

func TestSignOpponent(t *testing.T) {
	tests := []struct {
		sign Sign
		want Sign
	}{
		{SignX, SignO},
		{SignO, SignX},
		{SignNone, SignNone},
	}
	for _, tt := range tests {
		if got := tt.sign.Opponent(); got != tt.want {
			t.Errorf("Sign(%q).Opponent() = %q, want %q", tt.sign, got, tt.want)
		}
	}
}

func TestSignUnmarshalRejectsUnknown(t *testing.T) {
	var s Sign
	if err := json.Unmarshal([]byte(`"Z"`), &s); err == nil {
		t.Fatal("expected error for sign Z")
	}
	if err := json.Unmarshal([]byte(`null`), &s); err != nil || s != SignNone {
		t.Fatalf("null sign = %q, %v; want empty, nil", s, err)
	}
}

func TestBoardOwner(t *testing.T) {
	for _, line := range Lines {
		var board Board
		for _, p := range line {
			board[p-1] = SignO
		}
		if got := board.Owner(line); got != SignO {
			t.Errorf("Owner(%v) = %q, want O", line, got)
		}
	}

	board := Board{SignX, SignO, SignX}
	if got := board.Owner(Lines[0]); got != SignNone {
		t.Fatalf("mixed line owner = %q, want none", got)
	}
}

func TestBoardFull(t *testing.T) {
	var board Board
	if board.Full() {
		t.Fatal("empty board reported full")
	}
	for i := range board {
		board[i] = SignX
	}
	if !board.Full() {
		t.Fatal("filled board reported not full")
	}
}

func TestPlaceValid(t *testing.T) {
	for _, p := range []Place{0, 10, -1} {
		if p.Valid() {
			t.Errorf("Place(%d).Valid() = true", p)
		}
	}
	for p := Place(1); p <= 9; p++ {
		if !p.Valid() {
			t.Errorf("Place(%d).Valid() = false", p)
		}
	}
}

func TestPlayerProfileNormalize(t *testing.T) {
	long := "abcdefghijklmnopqrstuvwxyz0123456789"
	blank := "   "
	padded := "  ana  "

	if err := (&PlayerProfile{}).Normalize(); err != nil {
		t.Fatalf("nameless profile: %v", err)
	}
	if err := (&PlayerProfile{Name: &long}).Normalize(); err == nil {
		t.Fatal("expected error for long name")
	}
	if err := (&PlayerProfile{Name: &blank}).Normalize(); err == nil {
		t.Fatal("expected error for blank name")
	}
	p := &PlayerProfile{Name: &padded}
	if err := p.Normalize(); err != nil {
		t.Fatalf("padded name: %v", err)
	}
	if *p.Name != "ana" {
		t.Fatalf("name = %q, want ana", *p.Name)
	}
}

func TestUpdateColorsValidate(t *testing.T) {
	for _, scheme := range []Scheme{"", SchemeDark, SchemeLight, SchemeSwitch} {
		if err := (&UpdateColors{Scheme: scheme}).Validate(); err != nil {
			t.Errorf("scheme %q: %v", scheme, err)
		}
	}
	if err := (&UpdateColors{Scheme: "neon"}).Validate(); err == nil {
		t.Error("expected error for scheme neon")
	}
}
