package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	// Secrets
	JWTSecret       string
	OTPSecret       string
	AdminTestSecret string

	// Governance policy
	MinSupports        int
	ProposalWindowDays int

	// Petition policy
	DailySignatureCap int
}

// Policy defaults. MinSupports and ProposalWindowDays drive the proposal
// lifecycle; DailySignatureCap is the global per-day signature ceiling.
const (
	DefaultMinSupports        = 10
	DefaultProposalWindowDays = 30
	DefaultDailySignatureCap  = 1000
)

// ParseFlags validates flags and sets port number
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("agora", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "Auth token HMAC secret (prefer env)")
	fs.StringVar(&cfg.OTPSecret, "otp-secret", "", "OTP confirmation HMAC secret (prefer env)")
	fs.StringVar(&cfg.AdminTestSecret, "admin-test-secret", "", "Admin test-mode secret (empty disables)")

	// Policy knobs
	fs.IntVar(&cfg.MinSupports, "min-supports", 0, "Supports required to promote a proposal")
	fs.IntVar(&cfg.ProposalWindowDays, "proposal-window", 0, "Days before an unsupported proposal is rejected")
	fs.IntVar(&cfg.DailySignatureCap, "daily-cap", 0, "Max signatures admitted per day")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3327 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, errors.New("database type must be sqlite or postgres")
	}

	// Secrets - MUST be provided
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}

	if cfg.OTPSecret == "" {
		cfg.OTPSecret = os.Getenv("OTP_SECRET")
	}
	if cfg.OTPSecret == "" {
		return Config{}, errors.New("OTP_SECRET required")
	}

	// Admin test mode stays off unless a secret is configured.
	if cfg.AdminTestSecret == "" {
		cfg.AdminTestSecret = os.Getenv("ADMIN_TEST_SECRET")
	}

	if cfg.MinSupports == 0 {
		cfg.MinSupports = envInt("MIN_SUPPORTS", DefaultMinSupports)
	}
	if cfg.ProposalWindowDays == 0 {
		cfg.ProposalWindowDays = envInt("PROPOSAL_WINDOW_DAYS", DefaultProposalWindowDays)
	}
	if cfg.DailySignatureCap == 0 {
		cfg.DailySignatureCap = envInt("DAILY_SIGNATURE_CAP", DefaultDailySignatureCap)
	}

	return cfg, nil
}

func envInt(name string, fallback int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
