package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"arbpanel/internal/models"
	"arbpanel/internal/panel"
)

var _ panel.API = (*Client)(nil)

// AuthCheck validates cred itself rather than the stored session credential.
func (c *Client) AuthCheck(ctx context.Context, cred models.Credential) error {
	return c.doJSON(ctx, http.MethodGet, panel.PathAuthCheck, Options{Credential: &cred}, nil)
}

func (c *Client) RunningBots(ctx context.Context) (models.RunningSet, error) {
	var resp symbolsResponse
	if err := c.doJSON(ctx, http.MethodGet, panel.PathSymbols, Options{}, &resp); err != nil {
		return nil, err
	}
	return models.NewRunningSet(resp.Running), nil
}

func (c *Client) Configs(ctx context.Context) ([]models.SymbolConfig, error) {
	var doc configDocument
	if err := c.doJSON(ctx, http.MethodGet, panel.PathConfig, Options{}, &doc); err != nil {
		return nil, err
	}
	if doc.Symbols == nil {
		return []models.SymbolConfig{}, nil
	}
	return doc.Symbols, nil
}

func (c *Client) SaveConfigs(ctx context.Context, configs []models.SymbolConfig) error {
	if configs == nil {
		configs = []models.SymbolConfig{}
	}
	body := configPayload{Data: configDocument{Symbols: configs}}
	return c.doJSON(ctx, http.MethodPut, panel.PathConfig, Options{Body: body}, nil)
}

func (c *Client) Start(ctx context.Context, id models.Identity) error {
	return c.doJSON(ctx, http.MethodPost, panel.PathStart, Options{Params: panel.IdentityQuery(id)}, nil)
}

func (c *Client) Stop(ctx context.Context, id models.Identity) error {
	return c.doJSON(ctx, http.MethodPost, panel.PathStop, Options{Params: panel.IdentityQuery(id)}, nil)
}

// Logs returns the tail text. For error statuses the server's text comes back with the error.
func (c *Client) Logs(ctx context.Context, id models.Identity, lines int) (string, error) {
	params := url.Values{}
	if lines > 0 {
		params.Set("lines", strconv.Itoa(lines))
	}
	return c.doText(ctx, http.MethodGet, panel.IdentityPath(panel.PathLogs, id), Options{Params: params})
}

func (c *Client) Env(ctx context.Context) (string, error) {
	text, err := c.doText(ctx, http.MethodGet, panel.PathEnv, Options{})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (c *Client) SaveEnv(ctx context.Context, text string) error {
	return c.doJSON(ctx, http.MethodPut, panel.PathEnv, Options{Body: envPayload{Text: text}}, nil)
}

func (c *Client) Daily(ctx context.Context, venue panel.Venue) ([]panel.Record, error) {
	return c.records(ctx, panel.DailyPath(venue))
}

func (c *Client) Trades(ctx context.Context, venue panel.Venue, view panel.TradeView) ([]panel.Record, error) {
	return c.records(ctx, panel.TradesPath(venue, view))
}

func (c *Client) records(ctx context.Context, path string) ([]panel.Record, error) {
	var rows []map[string]any
	if err := c.doJSON(ctx, http.MethodGet, path, Options{}, &rows); err != nil {
		return nil, err
	}

	out := make([]panel.Record, 0, len(rows))
	for _, row := range rows {
		rec := make(panel.Record, len(row))
		for k, v := range row {
			if v == nil {
				rec[k] = ""
				continue
			}
			if s, ok := v.(string); ok {
				rec[k] = s
				continue
			}
			rec[k] = fmt.Sprint(v)
		}
		out = append(out, rec)
	}
	return out, nil
}

// IsNotFound reports a 404 from the backend, e.g. a missing log file.
func IsNotFound(err error) bool {
	var statusErr *panel.StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound
}
