package types

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyReplacer = strings.NewReplacer("£", "", "$", "", ",", "")

// ParseAmount converts a string-encoded monetary value into a decimal,
// stripping currency symbols and thousands separators. Unparseable or empty
// input yields zero; price fields from legacy clients arrive as "£12.50",
// "12.50" or bare numbers and none of them should abort a pricing pass.
func ParseAmount(value string) decimal.Decimal {
	cleaned := strings.TrimSpace(currencyReplacer.Replace(value))
	if cleaned == "" {
		return decimal.Zero
	}
	parsed, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return parsed
}

// FlexAmount is a decimal that unmarshals from either a JSON number or a
// currency-prefixed string.
type FlexAmount struct {
	decimal.Decimal
}

func NewFlexAmount(d decimal.Decimal) FlexAmount {
	return FlexAmount{Decimal: d}
}

func (a *FlexAmount) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		a.Decimal = ParseAmount(s)
		return nil
	}
	return a.Decimal.UnmarshalJSON(data)
}

func (a FlexAmount) MarshalJSON() ([]byte, error) {
	return a.Decimal.MarshalJSON()
}
