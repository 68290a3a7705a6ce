// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package governance implements vote topics, voting, and the proposal
lifecycle.

# Topic Registry

The Registry owns the topic table. Topics enter it three ways: the seed
list at startup (EnsureSeedTopics, idempotent), admin creation, and
proposal promotion. Topics are never deleted; expiry is derived from the
deadline at read time, with the deadline day itself still open.

# Voting

The VoteEngine records one vote per (topic, user) and recounts the tally
from storage after every write. Retraction deletes the stored record, so
a voter can change their mind by retracting and voting again. Admin-test
callers get a synthetic voter key per call and bypass uniqueness.

# Proposal Lifecycle

The ProposalEngine classifies every open proposal on each Evaluate pass:

  - at or past the support threshold → promoted to a vote topic
  - past the window with too few supports → rejected
  - otherwise → still pending, with days remaining reported

Promotion wins when both conditions hold on the same pass. The promoted
topic reuses the proposal's id, so supporters' links keep working, and
promotion is idempotent: a re-run pass neither duplicates the topic nor
re-promotes. Both terminal states refuse further supports.
*/
package governance
