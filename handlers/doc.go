// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Agora API.

# Handler Types

Each handler is a struct wrapping an engine plus the identity resolver:

  - TopicHandler: Topic listing, detail, results, admin creation
  - VoteHandler: Casting and retracting votes
  - ProposalHandler: Filing, supporting, and listing proposals
  - SignatureHandler: OTP dispatch and petition signatures

Handlers are created via constructor functions:

	topicHandler := handlers.NewTopicHandler(registry, votes, resolver, cfg)

# Governance Flow

Topics are voted on until their deadline passes:

	GET    /topics               → ListTopics (split active/expired)
	GET    /topics/{id}          → GetTopic
	GET    /topics/{id}/results  → GetResults (works after expiry)
	POST   /topics/{id}/votes    → CastVote (one per user)
	DELETE /topics/{id}/votes    → ResetVote (retract, then revote)

Voting requires a Bearer token; topic creation requires X-Admin-Key.

# Proposal Lifecycle

Proposals collect supporters and either promote or expire:

	POST /proposals                → CreateProposal
	POST /proposals/{id}/supports  → SupportProposal (one per user)
	GET  /proposals                → ListProposals

ListProposals runs the lifecycle evaluation pass before responding:
open proposals at or past the support threshold become vote topics,
and proposals past the window with too few supports are rejected.

# Petition Flow

Signing requires SMS verification:

	POST /signatures/otp    → SendOTP (vets the phone, sends a code)
	POST /signatures        → CreateSignature (verified submission)
	GET  /signatures/count  → GetSignatureCount (public counter)
	GET  /signatures        → ListSignatures (phones masked)

# Error Codes

Failure responses carry a machine-readable code (phone_format,
duplicate_phone, already_voted, proposal_closed, rate_limited, ...) so
the frontend can branch without parsing messages.
*/
package handlers
