// Package google reads the dataset from a Google Sheets range.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"semmelweis/internal/core"
	"semmelweis/internal/dataset"
	applog "semmelweis/internal/log"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultRange covers the four dataset columns plus room for extras.
const DefaultRange = "Data!A:Z"

// Config selects the sheet and the service account used to read it.
type Config struct {
	SpreadsheetID      string
	Range              string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Source struct {
	svc           *gsheet.Service
	spreadsheetID string
	rng           string
}

var _ dataset.Source = (*Source)(nil)

// New creates a Sheets-backed source using service account credentials.
func New(ctx context.Context, cfg Config) (*Source, error) {
	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, id, cfg.Range), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, rng string) *Source {
	if strings.TrimSpace(rng) == "" {
		rng = DefaultRange
	}
	return &Source{svc: svc, spreadsheetID: spreadsheetID, rng: rng}
}

// newSheetsService initializes a read-only Sheets service from inline JSON,
// a key file, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case inline != "":
		credentialsJSON = []byte(inline)
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentDataset).InfoContext(ctx, "Creating Google Sheets service",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsReadonlyScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

func (s *Source) Name() string { return "sheets:" + s.spreadsheetID }

// Fingerprint is static: the values API offers no cheap revision signal, so
// freshness is bounded by the cache TTL instead.
func (s *Source) Fingerprint(_ context.Context) (string, error) {
	return "sheets:" + s.spreadsheetID + "!" + s.rng, nil
}

func (s *Source) Load(ctx context.Context) ([]core.Record, error) {
	if s.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return nil, fmt.Errorf("read %s: %w", s.rng, core.ErrResourceNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", s.rng, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = toStrings(row)
	}
	records, err := dataset.ParseRows(rows)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.rng, err)
	}
	return records, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch x := v.(type) {
		case float64:
			// Unformatted numeric cells arrive as JSON numbers.
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}
