package sheet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrNoWorksheet = errors.New("sheet: no worksheet with the expected header")

const defaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

// ClientConfig configures the Google Sheets values-API client.
type ClientConfig struct {
	SpreadsheetID string
	APIKey        string
	// BaseURL overrides the API endpoint (tests).
	BaseURL string
	Timeout time.Duration
}

// Client reads a spreadsheet through the Sheets v4 values API with an API
// key. Only the two read calls the roster needs are implemented.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("sheet: spreadsheet id is empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: timeout}}, nil
}

func (c *Client) Worksheets(ctx context.Context) ([]string, error) {
	u := fmt.Sprintf("%s/%s?fields=sheets.properties.title&key=%s",
		c.cfg.BaseURL, url.PathEscape(c.cfg.SpreadsheetID), url.QueryEscape(c.cfg.APIKey))

	var out struct {
		Sheets []struct {
			Properties struct {
				Title string `json:"title"`
			} `json:"properties"`
		} `json:"sheets"`
	}
	if err := c.get(ctx, u, &out); err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(out.Sheets))
	for _, s := range out.Sheets {
		titles = append(titles, s.Properties.Title)
	}
	return titles, nil
}

func (c *Client) Values(ctx context.Context, worksheet, a1Range string) ([][]string, error) {
	rng := fmt.Sprintf("'%s'!%s", worksheet, a1Range)
	u := fmt.Sprintf("%s/%s/values/%s?key=%s",
		c.cfg.BaseURL, url.PathEscape(c.cfg.SpreadsheetID), url.PathEscape(rng), url.QueryEscape(c.cfg.APIKey))

	// The values API returns cells as strings, numbers, or bools depending on
	// render options; decode loosely and stringify so numeric serials survive.
	var out struct {
		Values [][]any `json:"values"`
	}
	if err := c.get(ctx, u, &out); err != nil {
		return nil, err
	}
	rows := make([][]string, len(out.Values))
	for i, r := range out.Values {
		row := make([]string, len(r))
		for j, cell := range r {
			row[j] = cellString(cell)
		}
		rows[i] = row
	}
	return rows, nil
}

func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var apiErr struct {
			Error struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
				Status  string `json:"status"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error.Message != "" {
			return fmt.Errorf("sheet: api error: %s (status=%s http=%d)",
				apiErr.Error.Message, apiErr.Error.Status, resp.StatusCode)
		}
		return fmt.Errorf("sheet: api error: http=%d", resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(out)
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprint(x)
	}
}
