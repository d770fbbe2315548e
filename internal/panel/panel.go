// Package panel describes the bot-control backend the client talks to.
package panel

import (
	"context"
	"net/url"
	"strings"

	"arbpanel/internal/models"
)

const (
	PathAuthCheck  = "/api/auth_check"
	PathSymbols    = "/api/symbols"
	PathConfig     = "/api/config"
	PathStart      = "/api/start"
	PathStop       = "/api/stop"
	PathEnv        = "/api/env"
	PathLogs       = "/api/logs"
	PathLiveStream = "/api/live_stream"
)

type Venue string

const (
	VenueLighter  Venue = "lig"
	VenueExtended Venue = "ext"
)

type TradeView string

const (
	TradeViewRecent TradeView = ""
	TradeViewFIFO   TradeView = "fifo"
	TradeViewCycle  TradeView = "cycle"
)

// Record is one row of a read-only aggregate (daily PnL, trades).
type Record map[string]string

// API is the backend surface used by the controllers.
type API interface {
	AuthCheck(ctx context.Context, cred models.Credential) error
	RunningBots(ctx context.Context) (models.RunningSet, error)
	Configs(ctx context.Context) ([]models.SymbolConfig, error)
	SaveConfigs(ctx context.Context, configs []models.SymbolConfig) error
	Start(ctx context.Context, id models.Identity) error
	Stop(ctx context.Context, id models.Identity) error
	Logs(ctx context.Context, id models.Identity, lines int) (string, error)
	Env(ctx context.Context) (string, error)
	SaveEnv(ctx context.Context, text string) error
}

// IdentityPath appends the escaped identity segments to base.
func IdentityPath(base string, id models.Identity) string {
	segments := id.PathSegments()
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return base + "/" + strings.Join(escaped, "/")
}

// IdentityQuery encodes the identity the way start/stop expect it.
func IdentityQuery(id models.Identity) url.Values {
	params := url.Values{}
	params.Set("symbolL", id.Lighter)
	if id.Extended != "" {
		params.Set("symbolE", id.Extended)
	}
	return params
}

func DailyPath(venue Venue) string {
	return "/get_daily_" + string(venue)
}

func TradesPath(venue Venue, view TradeView) string {
	if view == TradeViewRecent {
		return "/get_" + string(venue)
	}
	return "/get_trades_" + string(view) + "_" + string(venue)
}
