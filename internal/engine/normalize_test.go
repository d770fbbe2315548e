package engine

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"arbpanel/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToServerFormParsesNumericText(t *testing.T) {
	cfg := models.SymbolConfig{
		models.FieldSymbolLighter:    "btc",
		models.FieldSymbolExtended:   "btc-usd",
		models.FieldMinSpread:        "1,5",
		models.FieldSpreadTP:         " 0.25 ",
		models.FieldPercOfOB:         30.0,
		models.FieldMinTradeValue:    "abc",
		models.FieldSpreadMultiplier: "",
		"NOTE":                       "keep me",
	}

	out := ToServerForm(cfg)

	assert.Equal(t, "BTC", out[models.FieldSymbolLighter])
	assert.Equal(t, "BTC-USD", out[models.FieldSymbolExtended])
	assert.Equal(t, 1.5, out[models.FieldMinSpread])
	assert.Equal(t, 0.25, out[models.FieldSpreadTP])
	assert.Equal(t, 30.0, out[models.FieldPercOfOB])
	assert.Equal(t, "abc", out[models.FieldMinTradeValue])
	assert.Equal(t, "", out[models.FieldSpreadMultiplier])
	assert.Equal(t, "keep me", out["NOTE"])

	assert.Equal(t, "btc", cfg[models.FieldSymbolLighter], "input must not be mutated")
	assert.Equal(t, "1,5", cfg[models.FieldMinSpread])
}

func TestToServerFormLeavesNonFiniteText(t *testing.T) {
	cfg := models.SymbolConfig{
		models.FieldMinSpread:     "NaN",
		models.FieldSpreadTP:      "Inf",
		models.FieldPercOfOB:      "1e400",
		models.FieldMinTradeValue: math.Inf(1),
	}

	out := ToServerForm(cfg)

	assert.Equal(t, "NaN", out[models.FieldMinSpread])
	assert.Equal(t, "Inf", out[models.FieldSpreadTP])
	assert.Equal(t, "1e400", out[models.FieldPercOfOB])
	assert.True(t, math.IsInf(out[models.FieldMinTradeValue].(float64), 1))
}

func TestToServerFormIsIdempotent(t *testing.T) {
	inputs := []models.SymbolConfig{
		models.DefaultTemplate(),
		{
			models.FieldSymbolLighter:  "eth",
			models.FieldMinSpread:      "0,3",
			models.FieldTradesInterval: "-",
			models.FieldInvLevelToMult: "5.",
		},
		{},
	}
	for _, cfg := range inputs {
		once := ToServerForm(cfg)
		twice := ToServerForm(once)
		assert.Equal(t, once, twice)
	}
	assert.Nil(t, ToServerForm(nil))
}

func TestSanitizeNumericKeystroke(t *testing.T) {
	cases := []struct {
		prev string
		raw  string
		want string
	}{
		{"", "1,5", "1.5"},
		{"", "-", "-"},
		{"1", "1.", "1."},
		{"-0", "-0.", "-0."},
		{"", "1.2.3", "1.23"},
		{"", "12a3", "123"},
		{"", "1-2", "-12"},
		{"", "--5", "-5"},
		{"", "-1-", "-1"},
		{"", ",5", ".5"},
		{"0.3", "", ""},
		{"0.3", "x", "0.3"},
		{"", "1e5", "15"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeNumericKeystroke(tc.prev, tc.raw), "raw %q", tc.raw)
	}
}

func TestSanitizeNumericKeystrokeShape(t *testing.T) {
	const alphabet = "0123456789.,-- abcxe+"
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		n := rng.Intn(12)
		raw := make([]byte, n)
		for j := range raw {
			raw[j] = alphabet[rng.Intn(len(alphabet))]
		}

		got := SanitizeNumericKeystroke("", string(raw))

		require.LessOrEqual(t, strings.Count(got, "."), 1, "raw %q", raw)
		require.LessOrEqual(t, strings.Count(got, "-"), 1, "raw %q", raw)
		if i := strings.IndexByte(got, '-'); i >= 0 {
			require.Equal(t, 0, i, "raw %q", raw)
		}
		for _, r := range got {
			require.True(t, (r >= '0' && r <= '9') || r == '.' || r == '-', "raw %q", raw)
		}
		require.Equal(t, got, SanitizeNumericKeystroke("", got), "raw %q", raw)
	}
}

func TestFieldText(t *testing.T) {
	assert.Equal(t, "0.3", FieldText(0.3))
	assert.Equal(t, "100", FieldText(100.0))
	assert.Equal(t, "1.", FieldText("1."))
	assert.Equal(t, "", FieldText(nil))
	assert.Equal(t, "5", FieldText(5))
}
