// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Server

ParseFlags returns a Config for the aggregator:

	if err := cliparse.LoadEnv(); err != nil {
		log.Fatal(err)
	}
	cfg, err := cliparse.ParseFlags(os.Args[1:])

Flags fall back to environment variables:

	PORT          → -p  (default 3000)
	DATABASE_URL  → -d  (default votes.db for sqlite)
	DATABASE_TYPE → -t  (sqlite, postgres or tarantool; default sqlite)
	TT_USER, TT_PASSWORD (tarantool only, environment only)

CLI flags take precedence over environment variables. PostgreSQL needs a
URL and Tarantool needs TT_USER.

# Client

LoadClientConfig reads VOTE_SERVER_URL, VOTE_STATE_DIR, VOTE_TIMEOUT,
VOTE_FLUSH_SCHEDULE and the SMTP_HOST, SMTP_USER, SMTP_PASSWORD and MAIL_FROM
mail settings. The state directory defaults to tvorozhniki under the user
config directory.

LoadEnv reads .env files through godotenv without overriding variables that
are already set.
*/
package cliparse
