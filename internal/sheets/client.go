package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/feeledger/internal/common"
	"github.com/Veraticus/feeledger/internal/service"
)

// Client implements service.ValueStore for one Google spreadsheet.
type Client struct {
	service *sheets.Service
	limiter *rate.Limiter
	logger  *slog.Logger
	config  Config
}

var _ service.ValueStore = (*Client)(nil)

// NewClient creates a client for config.SpreadsheetID.
func NewClient(ctx context.Context, config Config, logger *slog.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	opts, err := authOptions(ctx, config)
	if err != nil {
		return nil, err
	}

	return newClient(ctx, config, logger, opts...)
}

func newClient(ctx context.Context, config Config, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		config:  config,
		service: srv,
		limiter: newLimiter(config.RequestsPerMinute),
		logger:  logger,
	}, nil
}

// authOptions picks the credential source configured in config.
func authOptions(ctx context.Context, config Config) ([]option.ClientOption, error) {
	switch {
	case strings.TrimSpace(config.CredentialsJSON) != "":
		data, err := normalizeCredentials(config.CredentialsJSON)
		if err != nil {
			return nil, err
		}
		creds, err := google.CredentialsFromJSON(ctx, data, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("invalid service account credentials: %w", err)
		}
		return []option.ClientOption{option.WithCredentials(creds)}, nil

	case config.ServiceAccountPath != "":
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}
		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		return []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, jwtConfig.TokenSource(ctx)))}, nil

	default:
		client := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}
		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		return []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, client.TokenSource(ctx, token)))}, nil
	}
}

// normalizeCredentials repairs private keys whose newlines arrived escaped,
// which happens when the JSON blob is pasted into a single env var.
func normalizeCredentials(raw string) ([]byte, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("credentials are not valid JSON: %w", err)
	}
	if key, ok := fields["private_key"].(string); ok {
		fields["private_key"] = strings.ReplaceAll(key, `\n`, "\n")
	}
	return json.Marshal(fields)
}

// newLimiter spreads requests evenly over a minute, allowing bursts of up to
// a tenth of the quota. Zero disables throttling.
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), max(1, perMinute/10))
}

// wait blocks until the per-minute request quota allows another call.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter canceled: %w", err)
	}
	return nil
}

func (c *Client) retryOptions() service.RetryOptions {
	attempts := c.config.RetryAttempts
	if attempts == 0 {
		attempts = 1
	}
	return service.RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: c.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// GetRange reads rng. Numbers come back unformatted so currency or
// thousands formatting on the sheet does not change what is parsed; dates
// keep their formatted text.
func (c *Client) GetRange(ctx context.Context, rng string) ([][]any, error) {
	var values [][]any
	err := common.WithRetry(ctx, func() error {
		if err := c.wait(ctx); err != nil {
			return err
		}
		resp, err := c.service.Spreadsheets.Values.Get(c.config.SpreadsheetID, rng).
			ValueRenderOption("UNFORMATTED_VALUE").
			DateTimeRenderOption("FORMATTED_STRING").
			Context(ctx).
			Do()
		if err != nil {
			return classify(err)
		}
		values = resp.Values
		return nil
	}, c.retryOptions())
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", common.ErrStoreRead, rng, err)
	}

	c.logger.Debug("read range", "range", rng, "rows", len(values))
	return values, nil
}

// GetCell reads a single cell as text. A blank cell reads as "".
func (c *Client) GetCell(ctx context.Context, cell string) (string, error) {
	values, err := c.GetRange(ctx, cell)
	if err != nil {
		return "", err
	}
	if len(values) == 0 || len(values[0]) == 0 {
		return "", nil
	}
	return CellText(values[0][0]), nil
}

// BatchUpdate writes every range in one values.batchUpdate call.
func (c *Client) BatchUpdate(ctx context.Context, updates []service.ValueUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	data := make([]*sheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		data = append(data, &sheets.ValueRange{
			Range:  u.Range,
			Values: u.Values,
		})
	}
	body := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: c.config.ValueInputOption,
		Data:             data,
	}

	var updated int64
	err := common.WithRetry(ctx, func() error {
		if err := c.wait(ctx); err != nil {
			return err
		}
		resp, err := c.service.Spreadsheets.Values.BatchUpdate(c.config.SpreadsheetID, body).Context(ctx).Do()
		if err != nil {
			return classify(err)
		}
		updated = resp.TotalUpdatedCells
		return nil
	}, c.retryOptions())
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStoreWrite, err)
	}

	c.logger.Debug("batch update applied", "ranges", len(updates), "cells", updated)
	return nil
}

// SheetTitles lists the worksheets of the spreadsheet.
func (c *Client) SheetTitles(ctx context.Context) ([]string, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.service.Spreadsheets.Get(c.config.SpreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to access spreadsheet %s: %w", c.config.SpreadsheetID, err)
	}

	titles := make([]string, 0, len(resp.Sheets))
	for _, sheet := range resp.Sheets {
		if sheet.Properties != nil {
			titles = append(titles, sheet.Properties.Title)
		}
	}
	return titles, nil
}

// classify marks Sheets API failures as retryable or permanent.
func classify(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return &common.RetryableError{Err: err, Retryable: true}
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return &common.RetryableError{Err: fmt.Errorf("%w: %w", common.ErrRateLimit, err), Retryable: true}
	case apiErr.Code >= http.StatusInternalServerError:
		return &common.RetryableError{Err: err, Retryable: true}
	default:
		return &common.RetryableError{Err: err, Retryable: false}
	}
}
