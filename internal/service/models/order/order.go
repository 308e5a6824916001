package order

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

const PaymentStatusPaid = "paid"

// Order represents a customer transaction fetched from the order API.
type Order struct {
	ID            ID              `json:"id"`
	OrderNumber   string          `json:"order_number"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	CustomerNotes string          `json:"customer_notes"`
	CreatedAt     Time            `json:"created_at"`
	DueAt         Time            `json:"due_at"`
	Subtotal      Amount          `json:"subtotal"`
	GST           Amount          `json:"gst"`
	Tip           Amount          `json:"tip"`
	Total         Amount          `json:"total"`
	PaymentStatus string          `json:"payment_status"`
	PrintStatus   json.RawMessage `json:"print_status"`
	Cart          json.RawMessage `json:"cart"`
}

// Printed reports whether the server already holds a print status for the
// order. Null, false, zero and the empty string all count as unset.
func (o Order) Printed() bool {
	raw := bytes.TrimSpace(o.PrintStatus)
	switch string(raw) {
	case "", "null", "false", "0", `""`:
		return false
	}

	return true
}

// Printable reports whether the order is due for printing: paid and not yet
// printed.
func (o Order) Printable() bool {
	return !o.Printed() && o.PaymentStatus == PaymentStatusPaid
}

// ShortNumber returns the part of the order number after the first dash,
// the whole number when there is no dash, or "N/A" when it is empty.
func (o Order) ShortNumber() string {
	if o.OrderNumber == "" {
		return "N/A"
	}
	if _, after, ok := strings.Cut(o.OrderNumber, "-"); ok && after != "" {
		return after
	}

	return o.OrderNumber
}

// Label identifies the order in logs.
func (o Order) Label() string {
	if o.OrderNumber != "" {
		return o.OrderNumber
	}

	return o.ID.String()
}

// LineItem is one ordered product.
type LineItem struct {
	Name                string        `json:"name"`
	ItemName            string        `json:"item_name"`
	Quantity            Amount        `json:"quantity"`
	BasePrice           Amount        `json:"basePrice"`
	Price               Amount        `json:"price"`
	Subtotal            Amount        `json:"subtotal"`
	SpecialInstructions string        `json:"specialInstructions"`
	Options             []OptionGroup `json:"options"`
}

// DisplayName returns the item name, falling back to item_name and then
// "Unknown".
func (li LineItem) DisplayName() string {
	switch {
	case li.Name != "":
		return li.Name
	case li.ItemName != "":
		return li.ItemName
	default:
		return "Unknown"
	}
}

// Qty returns the ordered quantity, 1 when absent or zero.
func (li LineItem) Qty() decimal.Decimal {
	if !li.Quantity.Valid || li.Quantity.Decimal.IsZero() {
		return decimal.NewFromInt(1)
	}

	return li.Quantity.Decimal
}

// LinePrice is the subtotal when present, else quantity times the base (or
// plain) price, else zero.
func (li LineItem) LinePrice() decimal.Decimal {
	if li.Subtotal.Valid {
		return li.Subtotal.Decimal
	}
	if li.BasePrice.Valid {
		return li.BasePrice.Decimal.Mul(li.Qty())
	}
	if li.Price.Valid {
		return li.Price.Decimal.Mul(li.Qty())
	}

	return decimal.Zero
}

// OptionGroup is a named set of selected choices. Sub options of a choice
// are option groups too.
type OptionGroup struct {
	Name    string   `json:"name"`
	Choices []Choice `json:"choices"`
}

// Choice is a selected option together with its own sub options.
type Choice struct {
	Name            string        `json:"name"`
	ExtraPrice      Amount        `json:"extraPrice"`
	AdditionalPrice Amount        `json:"additional_price"`
	Price           Amount        `json:"price"`
	SubOptions      []OptionGroup `json:"subOptions"`
}

// OwnPrice is the first present of extraPrice, additional_price and price.
func (c Choice) OwnPrice() decimal.Decimal {
	for _, p := range []Amount{c.ExtraPrice, c.AdditionalPrice, c.Price} {
		if p.Valid {
			return p.Decimal
		}
	}

	return decimal.Zero
}

// TotalPrice is the choice's own price plus the total of every sub choice.
func (c Choice) TotalPrice() decimal.Decimal {
	total := c.OwnPrice()
	for _, g := range c.SubOptions {
		for _, sub := range g.Choices {
			total = total.Add(sub.TotalPrice())
		}
	}

	return total
}

// DisplayName renders the choice name followed by each sub choice in
// parentheses. name maps every individual name before it is joined and may
// be nil.
func (c Choice) DisplayName(name func(string) string) string {
	n := c.Name
	if n == "" {
		n = "N/A"
	}
	if name != nil {
		n = name(n)
	}

	var b strings.Builder
	b.WriteString(n)
	for _, g := range c.SubOptions {
		for _, sub := range g.Choices {
			b.WriteString(" (")
			b.WriteString(sub.DisplayName(name))
			b.WriteString(")")
		}
	}

	return b.String()
}
