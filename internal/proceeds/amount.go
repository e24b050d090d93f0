package proceeds

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iwvelando/use-of-proceeds/pkg/mathutil"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Amount is a non-negative currency value that decodes from either a number
// or a numeric string.
type Amount float64

// Float64 returns the amount as a float64.
func (a Amount) Float64() float64 {
	return float64(a)
}

// ParseAmount converts user input such as "1250", "$1,250.50" or "" into a
// number. Anything that does not parse, and any negative or non-finite
// value, becomes 0.
func ParseAmount(raw string) float64 {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return 0
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0
	}
	value, _ := d.Float64()
	return mathutil.NonNegative(value)
}

// UnmarshalJSON accepts numbers, numeric strings and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = 0
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("failed to decode amount: %w", err)
		}
		*a = Amount(ParseAmount(s))
		return nil
	}
	var f float64
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return fmt.Errorf("failed to decode amount: %w", err)
	}
	*a = Amount(mathutil.NonNegative(f))
	return nil
}

// UnmarshalYAML accepts scalar numbers and numeric strings.
func (a *Amount) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("expected scalar amount at line %d", value.Line)
	}
	*a = Amount(ParseAmount(value.Value))
	return nil
}
