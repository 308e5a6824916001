package order

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOrder = `{
	"id": 42,
	"order_number": "NOC-1042",
	"customer_name": "Jamie",
	"created_at": "2025-04-15T19:00:00Z",
	"due_at": "2025-04-15 19:25:00",
	"subtotal": "12.50",
	"gst": 0.63,
	"total": 13.13,
	"payment_status": "paid",
	"print_status": null,
	"cart": "[{\"name\":\"Milk Tea 奶茶\",\"quantity\":2,\"price\":\"5.00\",\"options\":[{\"name\":\"Size\",\"choices\":[{\"name\":\"Large\",\"extraPrice\":1,\"subOptions\":[{\"name\":\"Topping\",\"choices\":[{\"name\":\"Boba\",\"additional_price\":\"0.75\"}]}]}]}]}]"
}`

func TestDecodeOrder(t *testing.T) {
	var o Order
	require.NoError(t, json.Unmarshal([]byte(sampleOrder), &o))

	assert.Equal(t, ID("42"), o.ID)
	assert.Equal(t, "1042", o.ShortNumber())
	assert.True(t, o.Printable())
	assert.True(t, o.Subtotal.Decimal.Equal(decimal.RequireFromString("12.5")))
	assert.False(t, o.Tip.Valid)
	assert.Equal(t, time.Date(2025, 4, 15, 19, 25, 0, 0, time.UTC), o.DueAt.Time)

	items, err := o.Items()
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "Milk Tea 奶茶", item.DisplayName())
	assert.True(t, item.LinePrice().Equal(decimal.NewFromInt(10)))

	choice := item.Options[0].Choices[0]
	assert.True(t, choice.TotalPrice().Equal(decimal.RequireFromString("1.75")))
	assert.Equal(t, "Large (Boba)", choice.DisplayName(nil))
	assert.Equal(t, "LARGE (BOBA)", choice.DisplayName(strings.ToUpper))
}

func TestItemsAcceptsArrayAndEmpty(t *testing.T) {
	o := Order{Cart: json.RawMessage(`[{"item_name":"Congee"}]`)}
	items, err := o.Items()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Congee", items[0].DisplayName())
	assert.True(t, items[0].Qty().Equal(decimal.NewFromInt(1)))
	assert.True(t, items[0].LinePrice().IsZero())

	for _, raw := range []string{``, `null`, `""`, `"null"`} {
		items, err := Order{Cart: json.RawMessage(raw)}.Items()
		require.NoError(t, err, raw)
		assert.Empty(t, items, raw)
	}
}

func TestItemsRejectsMalformedCart(t *testing.T) {
	o := Order{OrderNumber: "NOC-7", Cart: json.RawMessage(`"[{\"name\": "`)}

	_, err := o.Items()
	require.Error(t, err)

	var cpe *CartParseError
	require.True(t, errors.As(err, &cpe))
	assert.Equal(t, "NOC-7", cpe.OrderNumber)
}

func TestPrintable(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		payment string
		want    bool
	}{
		{name: "unset and paid", status: `null`, payment: "paid", want: true},
		{name: "missing and paid", status: ``, payment: "paid", want: true},
		{name: "empty string", status: `""`, payment: "paid", want: true},
		{name: "false", status: `false`, payment: "paid", want: true},
		{name: "already printed", status: `"printed"`, payment: "paid", want: false},
		{name: "unpaid", status: `null`, payment: "pending", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Order{PrintStatus: json.RawMessage(tt.status), PaymentStatus: tt.payment}
			assert.Equal(t, tt.want, o.Printable())
		})
	}
}

func TestLinePrice(t *testing.T) {
	d := func(s string) Amount {
		return NewAmount(decimal.RequireFromString(s))
	}

	assert.True(t, LineItem{Subtotal: d("7"), Price: d("100")}.LinePrice().Equal(decimal.NewFromInt(7)))
	assert.True(t, LineItem{Quantity: d("3"), BasePrice: d("2"), Price: d("100")}.LinePrice().Equal(decimal.NewFromInt(6)))
	assert.True(t, LineItem{Quantity: d("3"), Price: d("1.5")}.LinePrice().Equal(decimal.RequireFromString("4.5")))
}

func TestShortNumber(t *testing.T) {
	assert.Equal(t, "N/A", Order{}.ShortNumber())
	assert.Equal(t, "77", Order{OrderNumber: "77"}.ShortNumber())
	assert.Equal(t, "0012", Order{OrderNumber: "A-0012"}.ShortNumber())
}

func TestIDMarshal(t *testing.T) {
	b, err := json.Marshal(map[string]ID{"a": "42", "b": "ord_9"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":42,"b":"ord_9"}`, string(b))
}

func TestLenientFields(t *testing.T) {
	var o Order
	require.NoError(t, json.Unmarshal([]byte(`{
		"created_at": "2025-04-15T12:00:00.000+0000",
		"due_at": "2025-04-15 12:30:00-0700",
		"subtotal": "",
		"gst": null,
		"total": "6.83"
	}`), &o))

	assert.True(t, o.CreatedAt.Equal(time.Date(2025, 4, 15, 12, 0, 0, 0, time.UTC)))
	assert.True(t, o.DueAt.Equal(time.Date(2025, 4, 15, 19, 30, 0, 0, time.UTC)))
	assert.False(t, o.Subtotal.Valid)
	assert.False(t, o.GST.Valid)
	assert.True(t, o.Total.Decimal.Equal(decimal.RequireFromString("6.83")))

	var a Amount
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &a))
}
