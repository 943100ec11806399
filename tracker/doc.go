// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tracker records one client's vote and keeps its statistics view.

# Recording

	t := tracker.New(tracker.Config{Ledger: st.Ledger, Outbox: st.Outbox, Remote: client})
	out, err := t.Submit(ctx, tracker.VoteData{Choice: models.ChoiceSyrniki, Name: "Ann", City: "Kazan"})

Submit refuses a client the ledger already knows (ErrAlreadyVoted). A
well-formed email sends a confirmation code and returns StatusPending;
Verify with that code records the vote. Otherwise the vote is written to
every ledger backend and then posted to the aggregator:

  - recorded: accepted, the record carries the server id
  - duplicate: the aggregator already had this fingerprint
  - recorded-locally: the aggregator was unreachable, the vote is queued

# Retry

Flusher resends the outbox on a cron schedule (DefaultFlushSchedule).

# Statistics

Reconciler.Statistics prefers the aggregator and falls back to the local
ledger. Subscribe streams fresh values until its context is cancelled.
*/
package tracker
