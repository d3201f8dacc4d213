package model

import (
	"fmt"
	"strings"
)

// Instrument identifies a tradeable security on the venue by trading board
// and security code, e.g. board "TQBR", seccode "SBER".
type Instrument struct {
	Board   string
	Seccode string
}

// String renders the canonical BOARD:SECCODE form.
func (i Instrument) String() string {
	return i.Board + ":" + i.Seccode
}

// IsZero reports whether either component is empty.
func (i Instrument) IsZero() bool {
	return i.Board == "" || i.Seccode == ""
}

// ParseInstrument parses the BOARD:SECCODE form produced by String.
func ParseInstrument(s string) (Instrument, error) {
	board, seccode, ok := strings.Cut(s, ":")
	if !ok || board == "" || seccode == "" {
		return Instrument{}, fmt.Errorf("invalid instrument %q: want BOARD:SECCODE", s)
	}
	return Instrument{Board: board, Seccode: seccode}, nil
}
