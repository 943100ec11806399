// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ttstore

import (
	"context"
	"time"

	"github.com/tarantool/go-tarantool/v2"
)

// DefaultAddress is used when Config.Address is empty.
const DefaultAddress = "127.0.0.1:3301"

const (
	ttReconnectSeconds = 3
	ttMaxReconnects    = 5
)

type Config struct {
	Address  string
	User     string
	Password string
}

// Connect dials Tarantool with a short request timeout and bounded reconnects.
func Connect(ctx context.Context, cfg Config) (*tarantool.Connection, error) {
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	dialer := tarantool.NetDialer{
		Address:  cfg.Address,
		User:     cfg.User,
		Password: cfg.Password,
	}
	opts := tarantool.Opts{
		Timeout:       time.Second,
		Reconnect:     ttReconnectSeconds * time.Second,
		MaxReconnects: ttMaxReconnects,
	}

	return tarantool.Connect(ctx, dialer, opts)
}
