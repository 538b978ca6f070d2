package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("REPORTS_COLLECTION", "")
	t.Setenv("SESSION_TTL", "not-a-duration")

	cfg := Load()

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "approved_users", cfg.UsersCollection)
	assert.Equal(t, "gbv_reports", cfg.ReportsCollection)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.RosterHideAdmins)
	assert.Equal(t, 30, cfg.LogRetentionDays)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REPORTS_COLLECTION", "reports")
	t.Setenv("ROSTER_HIDE_ADMINS", "false")
	t.Setenv("STATS_TIMEZONE", "Africa/Nairobi")

	cfg := Load()

	assert.Equal(t, "reports", cfg.ReportsCollection)
	assert.False(t, cfg.RosterHideAdmins)
	assert.Equal(t, "Africa/Nairobi", cfg.Location().String())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "missing secret",
			mutate:  func(c *Config) { c.JWTSecret = "" },
			wantErr: "JWT_SECRET",
		},
		{
			name:    "postgres without password",
			mutate:  func(c *Config) { c.DBPassword = "" },
			wantErr: "DB_PASSWORD",
		},
		{
			name: "sqlite needs no password",
			mutate: func(c *Config) {
				c.DBDriver = "sqlite"
				c.DBPassword = ""
			},
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.DBDriver = "mysql" },
			wantErr: "DB_DRIVER",
		},
		{
			name: "short secret in production",
			mutate: func(c *Config) {
				c.AppEnv = "production"
				c.JWTSecret = "short"
			},
			wantErr: "32 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				DBDriver:          "postgres",
				DBPassword:        "pw",
				SQLitePath:        ":memory:",
				JWTSecret:         "dev-secret",
				UsersCollection:   "approved_users",
				ReportsCollection: "gbv_reports",
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLocation_InvalidFallsBackToLocal(t *testing.T) {
	cfg := &Config{StatsTimezone: "Mars/Olympus"}
	assert.Equal(t, time.Local, cfg.Location())
}
