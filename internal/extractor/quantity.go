package extractor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var leadingNumberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// Quantity accepts a JSON number or a string with embedded units
// ("30gm tube", "16 ml"). Raw keeps the original wording for calculators
// that parse units out of it.
type Quantity struct {
	Value float64
	Raw   string
}

func NewQuantity(value float64) Quantity {
	return Quantity{Value: value}
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	var number float64
	if err := json.Unmarshal(data, &number); err == nil {
		q.Value = number
		q.Raw = ""
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("quantity must be a number or a string: %w", err)
	}
	q.Raw = text

	trimmed := strings.TrimSpace(text)
	if value, err := strconv.ParseFloat(trimmed, 64); err == nil {
		q.Value = value
		return nil
	}
	if match := leadingNumberPattern.FindString(trimmed); match != "" {
		value, err := strconv.ParseFloat(match, 64)
		if err != nil {
			return fmt.Errorf("strconv.ParseFloat(%q) > %w", match, err)
		}
		q.Value = value
		return nil
	}
	q.Value = 0
	return nil
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.Raw != "" {
		return json.Marshal(q.Raw)
	}
	return json.Marshal(q.Value)
}
