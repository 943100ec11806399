// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger stores, per client, whether and how this client has voted.

# Backends

A Ledger composes independent backends, each answering Has/Mark/List:

  - durable: voted.json, the last recorded vote
  - session: in-process flag
  - fingerprint: fingerprints.json, the set of fingerprints seen here
  - store: votes.ldb, a leveldb store of msgpack records (at most 1000)

HasVoted checks all of them and reports every signal; one positive signal
is enough. Mark writes to all of them and never stops at the first failure.

	st, err := ledger.Open(dir)
	status := st.Ledger.HasVoted(fp)
	if !status.Voted {
		_ = st.Ledger.Mark(rec)
	}

# Outbox

Votes the aggregator did not accept are queued in the same leveldb under
the outbox/ prefix. The queue keeps at most 100 entries.
*/
package ledger
