// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Agora API server.

Agora is a civic campaign backend: citizens sign a petition with SMS
verification, vote agree/disagree on governance topics, and file
proposals that are promoted to vote topics once enough supporters sign
on.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=file:agora.db JWT_SECRET=... OTP_SECRET=... go run main.go

Or with flags:

	go run main.go -p 3327 -d "postgres://..." -t postgres

# Configuration

Required settings:

  - DATABASE_URL (-d): sqlite file or PostgreSQL connection string
  - JWT_SECRET (-jwt-secret): HMAC secret for auth token verification
  - OTP_SECRET (-otp-secret): HMAC secret for OTP confirmation codes

Optional settings:

  - PORT (-p): Server port (default: 3327)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - ADMIN_TEST_SECRET (-admin-test-secret): enables admin test mode
  - MIN_SUPPORTS, PROPOSAL_WINDOW_DAYS, DAILY_SIGNATURE_CAP: policy knobs

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (topics, votes, proposals, signatures)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response and domain types
  - governance: Topic registry, vote engine, proposal lifecycle
  - petition: Signature admission, phone vetting, OTP verification
  - tally: Keyed-upsert record store shared by votes and supports
  - identity: Token verification and admin test mode
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
