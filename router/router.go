// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/agora/cliparse"
	"github.com/danielhkuo/agora/governance"
	"github.com/danielhkuo/agora/handlers"
	"github.com/danielhkuo/agora/identity"
	"github.com/danielhkuo/agora/middleware"
	"github.com/danielhkuo/agora/petition"
	"github.com/danielhkuo/agora/tally"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Wire engines
	resolver := identity.NewResolver(cfg.JWTSecret, cfg.AdminTestSecret)
	store := tally.NewStore(db)
	registry := governance.NewRegistry(db)
	votes := governance.NewVoteEngine(registry, store)
	proposals := governance.NewProposalEngine(db, registry, store, governance.Policy{
		MinSupports: cfg.MinSupports,
		WindowDays:  cfg.ProposalWindowDays,
	})
	signatures := petition.NewEngine(db, petition.NewHMACOTP(cfg.OTPSecret), cfg.DailySignatureCap)

	// Initialize handlers
	topicHandler := handlers.NewTopicHandler(registry, votes, resolver, cfg)
	voteHandler := handlers.NewVoteHandler(votes, resolver, cfg)
	proposalHandler := handlers.NewProposalHandler(proposals, resolver, cfg)
	signatureHandler := handlers.NewSignatureHandler(signatures, resolver, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Topics (public reads, admin create)
	mux.HandleFunc("GET /topics", middleware.WithLogging(topicHandler.ListTopics))
	mux.HandleFunc("POST /topics", middleware.WithLogging(topicHandler.CreateTopic))
	mux.HandleFunc("GET /topics/{id}", middleware.WithLogging(topicHandler.GetTopic))
	mux.HandleFunc("GET /topics/{id}/results", middleware.WithLogging(topicHandler.GetResults))

	// Voting
	mux.HandleFunc("POST /topics/{id}/votes", middleware.WithLogging(voteHandler.CastVote))
	mux.HandleFunc("DELETE /topics/{id}/votes", middleware.WithLogging(voteHandler.ResetVote))

	// Proposals (list runs the lifecycle evaluation pass)
	mux.HandleFunc("GET /proposals", middleware.WithLogging(proposalHandler.ListProposals))
	mux.HandleFunc("POST /proposals", middleware.WithLogging(proposalHandler.CreateProposal))
	mux.HandleFunc("POST /proposals/{id}/supports", middleware.WithLogging(proposalHandler.SupportProposal))

	// Petition signatures
	mux.HandleFunc("GET /signatures", middleware.WithLogging(signatureHandler.ListSignatures))
	mux.HandleFunc("GET /signatures/count", middleware.WithLogging(signatureHandler.GetSignatureCount))
	mux.HandleFunc("POST /signatures/otp", middleware.WithLogging(signatureHandler.SendOTP))
	mux.HandleFunc("POST /signatures", middleware.WithLogging(signatureHandler.CreateSignature))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("agora API v1"))
	})

	return mux
}
