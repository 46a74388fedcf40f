// internal/message/board.go
package message

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Sign is the mark a player places on the board. The empty Sign is an
// unmarked square and travels as JSON null.
type Sign string

const (
	SignNone Sign = ""
	SignX    Sign = "X"
	SignO    Sign = "O"
)

// Opponent returns the other sign. SignNone has no opponent.
func (s Sign) Opponent() Sign {
	switch s {
	case SignX:
		return SignO
	case SignO:
		return SignX
	}
	return SignNone
}

func (s Sign) Valid() bool {
	return s == SignX || s == SignO
}

func (s Sign) MarshalJSON() ([]byte, error) {
	if s == SignNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

func (s *Sign) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = SignNone
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v := Sign(raw); v == SignNone || v.Valid() {
		*s = v
		return nil
	}
	return fmt.Errorf("invalid sign %q", raw)
}

// Place addresses a square, 1 through 9, row by row from the top left.
type Place int

func (p Place) Valid() bool {
	return p >= 1 && p <= 9
}

// Board holds the nine squares; index i is Place i+1.
type Board [9]Sign

// At returns the sign on a valid place.
func (b *Board) At(p Place) Sign {
	return b[p-1]
}

// Full reports whether every square is marked.
func (b *Board) Full() bool {
	for _, s := range b {
		if s == SignNone {
			return false
		}
	}
	return true
}

// Line is three places that win when they share a sign.
type Line [3]Place

// Lines lists every winning line in the order they are checked:
// rows, columns, then the two diagonals.
var Lines = [8]Line{
	{1, 2, 3},
	{4, 5, 6},
	{7, 8, 9},
	{1, 4, 7},
	{2, 5, 8},
	{3, 6, 9},
	{3, 5, 7},
	{1, 5, 9},
}

// Owner returns the sign holding all three places of l, if any.
func (b *Board) Owner(l Line) Sign {
	first := b.At(l[0])
	if first == SignNone {
		return SignNone
	}
	if b.At(l[1]) == first && b.At(l[2]) == first {
		return first
	}
	return SignNone
}
