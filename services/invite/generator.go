package invite

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet is the 32-symbol set codes are drawn from: digits 2-9 and
// uppercase letters minus I and O, so a code read over the phone cannot be
// mistyped as 1/0.
const codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// codeLength is fixed at 8 characters.
const codeLength = 8

// generateCode draws a code uniformly from the restricted alphabet.
func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("draw code: %w", err)
	}

	// 32 symbols divide 256 evenly, so masking keeps the draw uniform.
	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[b&31]
	}
	return string(out), nil
}
