package advisor

import (
	"errors"
	"fmt"
	"strings"
)

// Tone selects the wording style of generated advice. It never changes the
// facts the advice is based on.
type Tone string

const (
	ToneFunny   Tone = "funny"
	ToneSerious Tone = "serious"
)

var ErrInvalidTone = errors.New("tone must be funny or serious")

// ParseTone accepts either tone case-insensitively. Empty input selects funny.
func ParseTone(s string) (Tone, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ToneFunny):
		return ToneFunny, nil
	case string(ToneSerious):
		return ToneSerious, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTone, s)
	}
}

func (t Tone) String() string {
	return string(t)
}
