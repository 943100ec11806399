// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// CodeLength is the number of characters in a verification code
const CodeLength = 8

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateVerificationCode creates a random code of CodeLength characters
// drawn from upper-case letters and digits
func GenerateVerificationCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, CodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate verification code: %w", err)
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}

// MatchCode compares a user-typed code with the issued one.
// Case and surrounding whitespace are ignored.
func MatchCode(input, code string) bool {
	in := strings.ToUpper(strings.TrimSpace(input))
	want := strings.ToUpper(code)
	if len(in) != len(want) || want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(in), []byte(want)) == 1
}

// HashSignals derives a short stable identifier from a list of signals.
// Order matters; empty signals still occupy their slot.
func HashSignals(signals ...string) string {
	h := sha256.New()
	for _, s := range signals {
		// Length prefix keeps ("ab","c") and ("a","bc") apart
		fmt.Fprintf(h, "%d:%s;", len(s), s)
	}
	sum := h.Sum(nil)
	// First 16 hex chars (64 bits) - a heuristic, not an identity
	return hex.EncodeToString(sum[:8])
}
