package order

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CartParseError is returned when an order's cart cannot be decoded.
type CartParseError struct {
	OrderNumber string
	Err         error
}

func (e *CartParseError) Error() string {
	return fmt.Sprintf("failed to parse cart of order %s: %v", e.OrderNumber, e.Err)
}

func (e *CartParseError) Unwrap() error {
	return e.Err
}

// Items decodes the cart. The API usually sends it as a JSON string holding
// the serialized item list; a plain array is accepted too. A missing or
// empty cart has no items.
func (o Order) Items() ([]LineItem, error) {
	raw := bytes.TrimSpace(o.Cart)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, &CartParseError{OrderNumber: o.Label(), Err: err}
		}
		raw = bytes.TrimSpace([]byte(s))
		if len(raw) == 0 || string(raw) == "null" {
			return nil, nil
		}
	}

	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &CartParseError{OrderNumber: o.Label(), Err: err}
	}

	return items, nil
}
