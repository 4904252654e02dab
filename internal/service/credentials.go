package service

import (
	"crypto/rand"
	"fmt"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
	// Largest multiple of len(codeAlphabet) that fits in a byte; bytes at or
	// above it are rejected so every symbol is equally likely.
	codeByteLimit = 256 - 256%len(codeAlphabet)
)

// generateCode draws codeLength symbols uniformly from codeAlphabet using
// crypto/rand.
func generateCode() (string, error) {
	out := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength*2)
	for len(out) < codeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= codeByteLimit {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == codeLength {
				break
			}
		}
	}
	return string(out), nil
}
