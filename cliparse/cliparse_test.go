// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"testing"
)

func TestParseFlags_EnvVars(t *testing.T) {
	// Set env vars
	os.Setenv("PORT", "9000")
	os.Setenv("DATABASE_URL", "postgres://test")
	os.Setenv("JWT_SECRET", "test-jwt")
	os.Setenv("OTP_SECRET", "test-otp")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected default type sqlite, got %s", cfg.DatabaseType)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	os.Setenv("PORT", "9000")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-jwt-secret", "s1", "-otp-secret", "s2"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
}

func TestParseFlags_PolicyDefaults(t *testing.T) {
	os.Setenv("DATABASE_URL", "file:test.db")
	os.Setenv("JWT_SECRET", "test-jwt")
	os.Setenv("OTP_SECRET", "test-otp")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.MinSupports != DefaultMinSupports {
		t.Errorf("expected default min-supports %d, got %d", DefaultMinSupports, cfg.MinSupports)
	}
	if cfg.ProposalWindowDays != DefaultProposalWindowDays {
		t.Errorf("expected default proposal window %d, got %d", DefaultProposalWindowDays, cfg.ProposalWindowDays)
	}
	if cfg.DailySignatureCap != DefaultDailySignatureCap {
		t.Errorf("expected default daily cap %d, got %d", DefaultDailySignatureCap, cfg.DailySignatureCap)
	}
	// Admin test mode is off unless configured
	if cfg.AdminTestSecret != "" {
		t.Errorf("expected admin test mode disabled, got %q", cfg.AdminTestSecret)
	}
}

func TestParseFlags_MissingSecrets(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing database URL",
			env:  map[string]string{"JWT_SECRET": "s1", "OTP_SECRET": "s2"},
		},
		{
			name: "missing JWT secret",
			env:  map[string]string{"DATABASE_URL": "file:test.db", "OTP_SECRET": "s2"},
		},
		{
			name: "missing OTP secret",
			env:  map[string]string{"DATABASE_URL": "file:test.db", "JWT_SECRET": "s1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.env {
				os.Setenv(k, v)
			}
			defer os.Clearenv()

			if _, err := ParseFlags([]string{}); err == nil {
				t.Error("expected error for incomplete config")
			}
		})
	}
}

func TestParseFlags_InvalidDatabaseType(t *testing.T) {
	os.Setenv("DATABASE_URL", "file:test.db")
	os.Setenv("JWT_SECRET", "s1")
	os.Setenv("OTP_SECRET", "s2")
	defer os.Clearenv()

	if _, err := ParseFlags([]string{"-t", "mysql"}); err == nil {
		t.Error("expected error for unsupported database type")
	}
}
