package main

import (
	"bytes"
	"strings"
	"testing"

	"arbpanel/internal/engine"
	"arbpanel/internal/models"
	"arbpanel/internal/panel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentity(t *testing.T) {
	id, rest, err := parseIdentity([]string{"btc", "btc-usd", "MIN_SPREAD=0.4"})
	require.NoError(t, err)
	assert.Equal(t, models.Identity{Lighter: "BTC", Extended: "BTC-USD"}, id)
	assert.Equal(t, []string{"MIN_SPREAD=0.4"}, rest)

	id, rest, err = parseIdentity([]string{"eth", "SPREAD_TP=1"})
	require.NoError(t, err)
	assert.Equal(t, models.Identity{Lighter: "ETH"}, id)
	assert.Equal(t, []string{"SPREAD_TP=1"}, rest)

	_, _, err = parseIdentity(nil)
	assert.ErrorIs(t, err, errUsage)
}

func TestPrintRows(t *testing.T) {
	cfg := models.DefaultTemplate()
	var buf bytes.Buffer
	require.NoError(t, printRows(&buf, []engine.Row{{
		Identity: cfg.Identity(),
		Config:   cfg,
		Running:  true,
	}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "PAIR"))
	assert.Contains(t, lines[1], "NEW-NEW-USD")
	assert.Contains(t, lines[1], "running")
	assert.Contains(t, lines[1], "0.3")
}

func TestPrintRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printRecords(&buf, []panel.Record{
		{"date": "2026-10-01", "pnl": "12.5"},
		{"date": "2026-10-02", "pnl": "-3"},
	}))
	out := buf.String()
	assert.Contains(t, out, "date")
	assert.Contains(t, out, "2026-10-02")

	buf.Reset()
	require.NoError(t, printRecords(&buf, nil))
	assert.Equal(t, "no records\n", buf.String())
}
