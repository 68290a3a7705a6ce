// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateTopicRequest: title, deadline, optional display fields
  - CastVoteRequest: choice ("agree" or "disagree")
  - CreateProposalRequest: title, proposer_name, optional display fields
  - SendOTPRequest: phone
  - CreateSignatureRequest: consents, name, phone, confirmation_id, code

# Response Types

Types for JSON responses:

  - CreateTopicResponse: topic_id
  - CastVoteResponse: topic_id, choice, tally
  - ResetVoteResponse: topic_id, tally
  - CreateProposalResponse: proposal_id
  - SupportResponse: proposal_id, support_count
  - ProposalListResponse: active, promoted, rejected
  - SendOTPResponse: confirmation_id
  - CreateSignatureResponse: signature_id, count
  - SignatureCountResponse: count, today_count, formatted, daily_limit_reached
  - SignatureListResponse: count, signatures (phones masked)
  - ErrorResponse: error, code, message

# Domain Types

Internal data structures:

  - Topic: vote topic metadata; "expired" is derived from deadline
  - TopicView: topic plus tally and the caller's vote state
  - Proposal: citizen proposal with lifecycle status
  - PendingProposal: open proposal plus support count and days remaining
  - Signature: stored petition signature
  - PublicSignature: listing entry with the phone masked
  - Tally: agree/disagree counts with AgreePercent and Majority
  - Identity: resolved caller (uid, display name, admin-test flag)

# Constants

Vote choices:

	ChoiceAgree    = "agree"
	ChoiceDisagree = "disagree"

Proposal status values:

	ProposalStatusOpen     = "proposal"
	ProposalStatusPromoted = "promoted"
	ProposalStatusRejected = "rejected"

Signer types:

	SignerIndividual   = "individual"
	SignerOrganization = "organization"
*/
package models
