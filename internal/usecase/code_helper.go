package usecase

import (
	"crypto/rand"
	"io"
	"regexp"
	"strings"
)

// CodeLength is the fixed length of every authenticity code.
const CodeLength = 12

var codePattern = regexp.MustCompile(`^[A-Z0-9]{12}$`)

// NormalizeCode uppercases and trims raw input and reports whether the result
// is a well-formed code. Callers must not touch the store when ok is false.
func NormalizeCode(raw string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if !codePattern.MatchString(code) {
		return "", false
	}
	return code, true
}

// generateCode creates a secure random code from a character set that avoids
// ambiguous glyphs like O/0 and I/1, matching what gets printed on booklets.
func generateCode() (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	buffer := make([]byte, CodeLength)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}
	for i := 0; i < CodeLength; i++ {
		buffer[i] = chars[int(buffer[i])%len(chars)]
	}
	return string(buffer), nil
}
