package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleFloat decodes a JSON number that collaborator payloads sometimes
// deliver as a formatted string ("1,250.00", "$40", "12 %"). Null and the
// empty string decode to zero.
type FlexibleFloat float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexibleFloat) UnmarshalJSON(raw []byte) error {
	s := string(raw)
	if len(raw) == 0 || s == "null" {
		*f = 0
		return nil
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		*f = FlexibleFloat(numVal)
		return nil
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err != nil {
		return fmt.Errorf("value %s is neither number nor string", s)
	}

	cleaned := cleanNumeric(strVal)
	if cleaned == "" {
		*f = 0
		return nil
	}

	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return fmt.Errorf("parse %q as number: %w", strVal, err)
	}
	*f = FlexibleFloat(parsed)
	return nil
}

// Value returns the plain float64.
func (f FlexibleFloat) Value() float64 {
	return float64(f)
}

// cleanNumeric strips currency symbols, grouping commas, percent signs and
// accounting parentheses before parsing.
func cleanNumeric(s string) string {
	negative := strings.Contains(s, "(") && strings.Contains(s, ")")
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', ',', '%', ' ', '(', ')':
			return -1
		}
		return r
	}, s)
	cleaned = strings.TrimSpace(cleaned)
	if negative && cleaned != "" && !strings.HasPrefix(cleaned, "-") {
		cleaned = "-" + cleaned
	}
	return cleaned
}

// FlexibleStringValue converts a raw JSON value to a string, tolerating
// numbers and booleans where a string was expected. Returns "" for null.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return strconv.FormatInt(int64(numVal), 10)
		}
		return strconv.FormatFloat(numVal, 'g', -1, 64)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return strconv.FormatBool(boolVal)
	}

	return string(raw)
}
