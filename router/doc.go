// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Agora API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Topics (public reads, admin create with X-Admin-Key):

	GET  /topics               - List topics, split active/expired
	POST /topics               - Create topic (admin)
	GET  /topics/{id}          - Topic detail with tally
	GET  /topics/{id}/results  - Tally, agree percent, majority

Voting (requires Bearer token):

	POST   /topics/{id}/votes - Cast agree/disagree
	DELETE /topics/{id}/votes - Retract the caller's vote

Proposals:

	GET  /proposals                - List (runs the lifecycle pass)
	POST /proposals                - File a proposal
	POST /proposals/{id}/supports  - Back a proposal (requires token)

Petition signatures (public):

	GET  /signatures        - Recent signatures, phones masked
	GET  /signatures/count  - Public counter
	POST /signatures/otp    - Request a verification code
	POST /signatures        - Submit a verified signature

# Handler Initialization

The router wires the engines and hands them to the handlers:

	registry := governance.NewRegistry(db)
	store := tally.NewStore(db)
	votes := governance.NewVoteEngine(registry, store)
	proposals := governance.NewProposalEngine(db, registry, store, policy)
	signatures := petition.NewEngine(db, petition.NewHMACOTP(cfg.OTPSecret), cfg.DailySignatureCap)

All handlers also receive the identity resolver and configuration.
*/
package router
