// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3327)
  - DatabaseURL: sqlite file or PostgreSQL connection string (required)
  - DatabaseType: "sqlite" (default) or "postgres"
  - JWTSecret: HMAC secret for auth token verification (required)
  - OTPSecret: HMAC secret for OTP confirmation codes (required)
  - AdminTestSecret: admin test-mode secret (empty disables the mode)
  - MinSupports: supports required to promote a proposal (default: 10)
  - ProposalWindowDays: days before an unsupported proposal is rejected (default: 30)
  - DailySignatureCap: max signatures admitted per day (default: 1000)

# CLI Flags

	-p                  Server port
	-d                  Database URL
	-t                  Database type
	-jwt-secret         Auth token HMAC secret
	-otp-secret         OTP confirmation HMAC secret
	-admin-test-secret  Admin test-mode secret
	-min-supports       Promotion threshold
	-proposal-window    Rejection window in days
	-daily-cap          Daily signature ceiling

# Environment Variables

Flags fall back to environment variables:

	PORT                 → -p
	DATABASE_URL         → -d
	DATABASE_TYPE        → -t
	JWT_SECRET           → -jwt-secret
	OTP_SECRET           → -otp-secret
	ADMIN_TEST_SECRET    → -admin-test-secret
	MIN_SUPPORTS         → -min-supports
	PROPOSAL_WINDOW_DAYS → -proposal-window
	DAILY_SIGNATURE_CAP  → -daily-cap

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided
  - JWT_SECRET must be provided
  - OTP_SECRET must be provided
  - DATABASE_TYPE must be sqlite or postgres

# Example

	// In main.go
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open(cfg.DatabaseType, cfg.DatabaseURL)
	// ...
	mux := router.NewRouter(db, cfg)
*/
package cliparse
