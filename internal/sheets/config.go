// Package sheets provides the Google Sheets backed value store.
package sheets

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the configuration for the Google Sheets client.
type Config struct {
	CredentialsJSON    string
	ServiceAccountPath string
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	SpreadsheetID      string
	ValueInputOption   string
	RetryAttempts      int
	RetryDelay         time.Duration
	// RequestsPerMinute throttles API calls below the per-user quota; 0 disables it.
	RequestsPerMinute int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ValueInputOption:  "USER_ENTERED",
		RetryAttempts:     3,
		RetryDelay:        time.Second,
		RequestsPerMinute: 60,
	}
}

// LoadFromEnv loads the configuration from environment variables.
// G_API_CRED and G_SHEET_ID are honoured for older deployments.
func (c *Config) LoadFromEnv() error {
	c.CredentialsJSON = firstEnv("GOOGLE_SHEETS_CREDENTIALS_JSON", "G_API_CRED")
	c.ServiceAccountPath = os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH")

	// OAuth2 credentials
	c.ClientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
	c.ClientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
	c.RefreshToken = os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN")

	c.SpreadsheetID = firstEnv("GOOGLE_SHEETS_SPREADSHEET_ID", "G_SHEET_ID")

	if c.authMethods() == 0 {
		return fmt.Errorf("missing Google Sheets authentication: provide credentials JSON, a service account path or OAuth2 credentials")
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.authMethods() {
	case 0:
		return fmt.Errorf("no authentication method configured")
	case 1:
	default:
		return fmt.Errorf("multiple authentication methods configured; use exactly one of credentials JSON, service account path or OAuth2")
	}

	if strings.TrimSpace(c.SpreadsheetID) == "" {
		return fmt.Errorf("spreadsheet id is required")
	}

	switch c.ValueInputOption {
	case "RAW", "USER_ENTERED":
	default:
		return fmt.Errorf("value input option must be RAW or USER_ENTERED, got %q", c.ValueInputOption)
	}

	// Validate retry settings
	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts cannot be negative")
	}

	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}

	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("requests per minute cannot be negative")
	}

	return nil
}

func (c *Config) hasOAuth() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

func (c *Config) authMethods() int {
	n := 0
	if strings.TrimSpace(c.CredentialsJSON) != "" {
		n++
	}
	if c.ServiceAccountPath != "" {
		n++
	}
	if c.hasOAuth() {
		n++
	}
	return n
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
