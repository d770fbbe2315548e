package engine

import (
	"math"
	"strconv"
	"strings"

	"arbpanel/internal/models"
)

var identityFields = []string{models.FieldSymbolLighter, models.FieldSymbolExtended}

// ToServerForm returns a copy of cfg with numeric fields parsed and identity fields upper-cased.
// Text that does not parse is left as it is; the server validates it on save.
func ToServerForm(cfg models.SymbolConfig) models.SymbolConfig {
	out := cfg.Clone()
	if out == nil {
		return nil
	}

	for _, key := range models.NumericFields {
		v, ok := out[key]
		if !ok {
			continue
		}
		if num, ok := parseNumeric(v); ok {
			out[key] = num
		}
	}

	for _, key := range identityFields {
		if s, ok := out[key].(string); ok {
			out[key] = strings.ToUpper(s)
		}
	}
	return out
}

func parseNumeric(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(n, ",", ".")), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// SanitizeNumericKeystroke filters raw input for a numeric field. Partial states such as "-", "1." and "-0."
// survive so typing is never forced back to the previous number. When raw holds nothing usable at all,
// the previous text is kept.
func SanitizeNumericKeystroke(prev, raw string) string {
	s := filterNumeric(raw)
	if s == "" && raw != "" {
		return filterNumeric(prev)
	}
	return s
}

func filterNumeric(raw string) string {
	raw = strings.ReplaceAll(raw, ",", ".")

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	s := b.String()

	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i+1] + strings.ReplaceAll(s[i+1:], ".", "")
	}

	if len(s) > 1 && strings.Contains(s[1:], "-") {
		s = "-" + strings.ReplaceAll(s, "-", "")
	}
	return s
}

// FieldText renders a config value the way an edit field shows it.
func FieldText(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(n)
	default:
		if f, ok := parseNumeric(n); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return ""
	}
}
