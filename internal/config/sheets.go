package config

import (
	"github.com/spf13/viper"

	"github.com/Veraticus/feeledger/internal/sheets"
)

// LoadSheetsConfig loads Google Sheets configuration from Viper and environment variables.
// It follows this precedence:
// 1. Viper configuration (config file, FEELEDGER_ env vars, G_API_CRED and G_SHEET_ID)
// 2. Direct environment variables (GOOGLE_SHEETS_*)
// 3. Default values
func LoadSheetsConfig(v *viper.Viper) (sheets.Config, error) {
	config := sheets.DefaultConfig()

	config.CredentialsJSON = v.GetString("sheets.credentials_json")
	config.ServiceAccountPath = ExpandPath(v.GetString("sheets.service_account_path"))
	config.ClientID = v.GetString("sheets.client_id")
	config.ClientSecret = v.GetString("sheets.client_secret")
	config.RefreshToken = v.GetString("sheets.refresh_token")
	config.SpreadsheetID = v.GetString("sheets.spreadsheet_id")
	if v.IsSet("sheets.value_input_option") {
		config.ValueInputOption = v.GetString("sheets.value_input_option")
	}
	if v.IsSet("sheets.retry_attempts") {
		config.RetryAttempts = v.GetInt("sheets.retry_attempts")
	}
	if v.IsSet("sheets.retry_delay") {
		config.RetryDelay = v.GetDuration("sheets.retry_delay")
	}
	if v.IsSet("sheets.requests_per_minute") {
		config.RequestsPerMinute = v.GetInt("sheets.requests_per_minute")
	}

	// Fill gaps from GOOGLE_SHEETS_* variables. A missing auth method is
	// reported by Validate below.
	env := sheets.DefaultConfig()
	_ = env.LoadFromEnv()
	fill(&config.CredentialsJSON, env.CredentialsJSON)
	fill(&config.ServiceAccountPath, ExpandPath(env.ServiceAccountPath))
	fill(&config.ClientID, env.ClientID)
	fill(&config.ClientSecret, env.ClientSecret)
	fill(&config.RefreshToken, env.RefreshToken)
	fill(&config.SpreadsheetID, env.SpreadsheetID)

	if err := config.Validate(); err != nil {
		return sheets.Config{}, err
	}

	return config, nil
}

func fill(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}
