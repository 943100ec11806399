// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides the small secrets used by the vote client.

# Verification Codes

Codes confirm a vote out of band (by email):

	code, err := auth.GenerateVerificationCode() // e.g. "Q7K2M9XA"
	ok := auth.MatchCode(userInput, code)

Codes are 8 characters from A-Z and 0-9. Matching is case-insensitive and
runs in constant time for equal-length inputs.

# Signal Hashing

Fingerprints are derived from environment signals:

	id := auth.HashSignals(goos, goarch, hostname)

Returns the first 8 bytes (16 hex chars) of SHA-256 over a length-prefixed
encoding. The result is a heuristic: different clients can collide and the
same client can drift.
*/
package auth
