// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tracker

import "errors"

var (
	// ErrValidation wraps a missing or invalid field. Nothing is written
	// when it is returned.
	ErrValidation = errors.New("invalid vote")

	ErrAlreadyVoted  = errors.New("a vote from this device is already recorded")
	ErrNoPendingVote = errors.New("no vote is awaiting confirmation")
	ErrExpiredCode   = errors.New("confirmation code expired, please vote again")
	ErrInvalidCode   = errors.New("wrong confirmation code")
)
