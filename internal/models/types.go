package models

import (
	"fmt"
	"sort"
)

const (
	FieldSymbolLighter  = "SYMBOL_LIGHTER"
	FieldSymbolExtended = "SYMBOL_EXTENDED"

	FieldTradesInterval     = "TRADES_INTERVAL"
	FieldMinSpread          = "MIN_SPREAD"
	FieldSpreadMultiplier   = "SPREAD_MULTIPLIER"
	FieldSpreadTP           = "SPREAD_TP"
	FieldMinTradeValue      = "MIN_TRADE_VALUE"
	FieldMaxTradeValueEntry = "MAX_TRADE_VALUE_ENTRY"
	FieldMaxTradeValueExit  = "MAX_TRADE_VALUE_EXIT"
	FieldPercOfOB           = "PERC_OF_OB"
	FieldInvLevelToMult     = "INV_LEVEL_TO_MULT"
	FieldMaxInventoryValue  = "MAX_INVENTORY_VALUE"

	RunningKeyPrefix  = "arb_"
	NewSymbolLighter  = "NEW"
	NewSymbolExtended = "NEW-USD"
)

// NumericFields are the trading parameters sent to the server as numbers.
var NumericFields = []string{
	FieldTradesInterval,
	FieldMinSpread,
	FieldSpreadMultiplier,
	FieldSpreadTP,
	FieldMinTradeValue,
	FieldMaxTradeValueEntry,
	FieldMaxTradeValueExit,
	FieldPercOfOB,
	FieldInvLevelToMult,
	FieldMaxInventoryValue,
}

var numericFieldSet = func() map[string]bool {
	set := make(map[string]bool, len(NumericFields))
	for _, key := range NumericFields {
		set[key] = true
	}
	return set
}()

func IsNumericField(key string) bool {
	return numericFieldSet[key]
}

// Credential is considered absent unless both fields are set.
type Credential struct {
	Username string
	Secret   string
}

func (c Credential) Valid() bool {
	return c.Username != "" && c.Secret != ""
}

// Identity keys one bot. Single-venue deployments leave Extended empty.
type Identity struct {
	Lighter  string
	Extended string
}

func (id Identity) IsZero() bool {
	return id.Lighter == "" && id.Extended == ""
}

func (id Identity) String() string {
	if id.Extended == "" {
		return id.Lighter
	}
	return id.Lighter + "-" + id.Extended
}

// RunningKey derives the bot-instance identifier the server reports in its running set.
func (id Identity) RunningKey() string {
	if id.Extended == "" {
		return RunningKeyPrefix + id.Lighter
	}
	return RunningKeyPrefix + id.Lighter + "_" + id.Extended
}

func (id Identity) PathSegments() []string {
	if id.Extended == "" {
		return []string{id.Lighter}
	}
	return []string{id.Lighter, id.Extended}
}

// SymbolConfig is one bot's parameter record as exchanged with the server.
// Values are float64 or string after JSON decoding; edited numeric fields hold text until normalized.
type SymbolConfig map[string]any

func (c SymbolConfig) Identity() Identity {
	return Identity{
		Lighter:  c.text(FieldSymbolLighter),
		Extended: c.text(FieldSymbolExtended),
	}
}

func (c SymbolConfig) text(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (c SymbolConfig) Clone() SymbolConfig {
	if c == nil {
		return nil
	}
	out := make(SymbolConfig, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Keys returns the parameter names in a stable order.
func (c SymbolConfig) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func DefaultTemplate() SymbolConfig {
	return SymbolConfig{
		FieldSymbolLighter:      NewSymbolLighter,
		FieldSymbolExtended:     NewSymbolExtended,
		FieldMinSpread:          0.3,
		FieldSpreadMultiplier:   1.1,
		FieldSpreadTP:           0.2,
		FieldMinTradeValue:      100.0,
		FieldMaxTradeValueEntry: 200.0,
		FieldMaxTradeValueExit:  200.0,
		FieldMaxInventoryValue:  1000.0,
		FieldPercOfOB:           30.0,
		FieldInvLevelToMult:     5.0,
		FieldTradesInterval:     1.0,
	}
}

func CloneConfigs(configs []SymbolConfig) []SymbolConfig {
	if configs == nil {
		return nil
	}
	out := make([]SymbolConfig, len(configs))
	for i, c := range configs {
		out[i] = c.Clone()
	}
	return out
}

// RunningSet is the server-reported set of active bot-instance identifiers.
type RunningSet map[string]struct{}

func NewRunningSet(keys []string) RunningSet {
	set := make(RunningSet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func (s RunningSet) Contains(key string) bool {
	_, ok := s[key]
	return ok
}

func (s RunningSet) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
