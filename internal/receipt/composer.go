package receipt

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/Dongwon38/print-agent/internal/layout"
	"github.com/Dongwon38/print-agent/internal/service/models/document"
	"github.com/Dongwon38/print-agent/internal/service/models/order"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Venue is printed in the customer receipt footer. Empty fields are skipped.
type Venue struct {
	Name           string
	Address        string
	Phone          string
	TaxNumber      string
	TaxNumberLabel string
}

// Composer turns orders into printable documents.
type Composer struct {
	aligner  layout.Aligner
	ruleChar string
	taxLabel string
	thankYou string
	location *time.Location
	venue    Venue
}

// Receipts holds every document produced for one order.
type Receipts struct {
	Customer document.Document
	Kitchen  []document.Document
}

// Documents returns the customer receipt copies times followed by the
// kitchen tickets, in print order.
func (r Receipts) Documents(copies int) []document.Document {
	copies = max(copies, 0)
	docs := make([]document.Document, 0, copies+len(r.Kitchen))
	for range copies {
		docs = append(docs, r.Customer)
	}

	return append(docs, r.Kitchen...)
}

// option is a function that configures the Composer.
type option func(*Composer)

// MustNewComposer creates a Composer from the receipt.* configuration. It
// panics when the configured time zone is unknown.
func MustNewComposer(opts ...option) *Composer {
	lineWidth := viper.GetInt("receipt.line_width")
	if lineWidth == 0 {
		lineWidth = 48
	}

	priceWidth := viper.GetInt("receipt.price_width")
	if priceWidth == 0 {
		priceWidth = 7
	}

	ruleChar := viper.GetString("receipt.rule_char")
	if ruleChar == "" {
		ruleChar = "-"
	}

	taxLabel := viper.GetString("receipt.tax_label")
	if taxLabel == "" {
		taxLabel = "GST (5%)"
	}

	thankYou := viper.GetString("receipt.thank_you")
	if thankYou == "" {
		thankYou = "Thank you for your order!"
	}

	tz := viper.GetString("receipt.timezone")
	if tz == "" {
		tz = "America/Vancouver"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		panic(fmt.Errorf("failed to load receipt time zone %q: %w", tz, err))
	}

	taxNumberLabel := viper.GetString("receipt.venue.tax_number_label")
	if taxNumberLabel == "" {
		taxNumberLabel = "GST Number"
	}

	c := &Composer{
		aligner:  layout.Aligner{LineWidth: lineWidth, PriceWidth: priceWidth},
		ruleChar: ruleChar,
		taxLabel: taxLabel,
		thankYou: thankYou,
		location: loc,
		venue: Venue{
			Name:           viper.GetString("receipt.venue.name"),
			Address:        viper.GetString("receipt.venue.address"),
			Phone:          viper.GetString("receipt.venue.phone"),
			TaxNumber:      viper.GetString("receipt.venue.tax_number"),
			TaxNumberLabel: taxNumberLabel,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithWidths overrides the line and price column widths.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithWidths(lineWidth, priceWidth int) option {
	return func(c *Composer) {
		c.aligner = layout.Aligner{LineWidth: lineWidth, PriceWidth: priceWidth}
	}
}

// WithLocation sets the time zone pickup times are rendered in.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithLocation(loc *time.Location) option {
	return func(c *Composer) {
		c.location = loc
	}
}

// WithVenue sets the footer venue block.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithVenue(v Venue) option {
	return func(c *Composer) {
		if v.TaxNumberLabel == "" {
			v.TaxNumberLabel = c.venue.TaxNumberLabel
		}
		c.venue = v
	}
}

// Compose parses the order's cart once and renders the customer receipt and
// one kitchen ticket per line item. now stands in for a missing creation
// time.
func (c *Composer) Compose(o order.Order, now time.Time) (Receipts, error) {
	items, err := o.Items()
	if err != nil {
		return Receipts{}, err
	}

	return Receipts{
		Customer: c.customer(o, items, now),
		Kitchen:  c.kitchen(o, items, now),
	}, nil
}

// ComposeCustomer renders the customer receipt only.
func (c *Composer) ComposeCustomer(o order.Order, now time.Time) (document.Document, error) {
	items, err := o.Items()
	if err != nil {
		return document.Document{}, err
	}

	return c.customer(o, items, now), nil
}

// ComposeKitchen renders the kitchen tickets only.
func (c *Composer) ComposeKitchen(o order.Order, now time.Time) ([]document.Document, error) {
	items, err := o.Items()
	if err != nil {
		return nil, err
	}

	return c.kitchen(o, items, now), nil
}

func (c *Composer) customer(o order.Order, items []order.LineItem, now time.Time) document.Document {
	width := c.aligner.LineWidth
	rule := c.aligner.Rule(c.ruleChar)

	b := newBuilder()
	b.add(document.Align(document.AlignLeft), document.SetSize(2, 2))
	for _, l := range c.title(o) {
		b.text(l)
	}
	b.add(document.SetSize(1, 2))
	b.text(c.pickup(o, now))
	b.add(document.SetSize(1, 1))
	b.text("Order at " + c.orderTime(o))
	b.text("Phone: " + orDefault(o.CustomerPhone, "N/A"))

	if strings.TrimSpace(o.CustomerNotes) != "" {
		b.text("Customer Notes:")
		for _, l := range layout.Wrap(o.CustomerNotes, width-2) {
			b.text("  " + l)
		}
	}
	b.text("")
	b.text(rule)

	if len(items) == 0 {
		b.text("No items in this order.")
	}
	for i, item := range items {
		prefix := item.Qty().String() + " x "
		for _, l := range c.aligner.WrapWithPrice(item.DisplayName(), prefix, item.LinePrice()) {
			b.text(l)
		}

		for _, group := range item.Options {
			for _, choice := range group.Choices {
				for _, l := range c.aligner.WrapWithPrice(choice.DisplayName(nil), "- ", choice.TotalPrice()) {
					b.text(l)
				}
			}
		}

		c.note(b, item.SpecialInstructions)

		if i < len(items)-1 {
			b.text(rule)
		}
	}

	b.text(rule)
	b.text("")
	b.text(c.aligner.RightAlign("Subtotal: ", amount(o.Subtotal)))
	b.text(c.aligner.RightAlign(c.taxLabel+": ", amount(o.GST)))
	b.text(c.aligner.RightAlign("Tip: ", amount(o.Tip)))

	// Double-width text halves the cells per line.
	wide := layout.Aligner{LineWidth: width / 2, PriceWidth: c.aligner.PriceWidth}
	b.add(document.SetSize(2, 2))
	b.text(wide.RightAlign("TOTAL: ", amount(o.Total)))
	b.add(document.SetSize(1, 1))

	b.add(document.Align(document.AlignCenter))
	b.text("")
	b.text(c.thankYou)
	for _, l := range []string{c.venue.Name, c.venue.Address, c.venue.Phone} {
		if l != "" {
			b.text(l)
		}
	}
	if c.venue.TaxNumber != "" {
		b.text(c.venue.TaxNumberLabel + ": " + c.venue.TaxNumber)
	}
	b.add(document.Feed(3), document.Cut())

	return document.New(document.KindCustomer, "customer "+o.Label(), b.dirs)
}

func (c *Composer) kitchen(o order.Order, items []order.LineItem, now time.Time) []document.Document {
	width := c.aligner.LineWidth
	rule := c.aligner.Rule(c.ruleChar)
	pickup := c.pickup(o, now)

	docs := make([]document.Document, 0, len(items))
	for i, item := range items {
		b := newBuilder()
		b.add(document.Align(document.AlignLeft), document.SetSize(2, 2))
		for _, l := range c.title(o) {
			b.text(l)
		}
		b.add(document.SetSize(1, 1))
		b.text(pickup)
		b.text(rule)

		b.add(document.SetSize(1, 2))
		for _, l := range layout.Wrap(item.Qty().String()+" x "+layout.ExtractCJK(item.DisplayName()), width) {
			b.text(l)
		}

		for _, group := range item.Options {
			for _, choice := range group.Choices {
				lines := layout.WrapSpaced("- "+choice.DisplayName(layout.ExtractCJK), width)
				for _, l := range append([]string{""}, lines...) {
					if l == "" {
						b.add(document.SetSize(1, 1), document.Feed(1), document.SetSize(1, 2))
						continue
					}
					b.text(l)
				}
			}
		}

		c.note(b, item.SpecialInstructions)

		b.add(document.SetSize(1, 1), document.Feed(2), document.Cut())

		label := fmt.Sprintf("kitchen %s %d/%d", o.Label(), i+1, len(items))
		docs = append(docs, document.New(document.KindKitchen, label, b.dirs))
	}

	return docs
}

func (c *Composer) note(b *builder, instructions string) {
	if strings.TrimSpace(instructions) == "" {
		return
	}

	b.text("- Note: ")
	for _, l := range layout.Wrap(instructions, c.aligner.LineWidth-2) {
		b.text("  " + l)
	}
}

// title is printed at double width, so it wraps at half the line.
func (c *Composer) title(o order.Order) []string {
	t := fmt.Sprintf("%s(%s)", orDefault(o.CustomerName, "Unknown"), o.ShortNumber())

	return layout.Wrap(t, c.aligner.LineWidth/2)
}

func (c *Composer) orderTime(o order.Order) string {
	if o.CreatedAt.IsZero() {
		return "N/A"
	}

	return o.CreatedAt.In(c.location).Format("Jan 2, 3:04 PM")
}

// pickup renders the pickup sentence from the gap between creation and due
// time, both taken in the venue's time zone.
func (c *Composer) pickup(o order.Order, now time.Time) string {
	if o.DueAt.IsZero() {
		return "Pickup time N/A"
	}

	from := o.CreatedAt.Time
	if from.IsZero() {
		from = now
	}
	due := o.DueAt.In(c.location)
	from = from.In(c.location)

	if due.Year() != from.Year() || due.YearDay() != from.YearDay() {
		return "Pickup at " + due.Format("Jan 2, 3:04 PM")
	}

	clock := due.Format("3:04 PM")
	mins := max(int(due.Sub(from).Round(time.Minute).Minutes()), 0)
	if mins < 60 {
		return fmt.Sprintf("Pickup at %s (in %d mins)", clock, mins)
	}

	return fmt.Sprintf("Pickup at %s (in %d hr %d mins)", clock, mins/60, mins%60)
}

func amount(d order.Amount) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}

	return d.Decimal
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}

	return s
}

// builder collects directives and inserts code page switches whenever the
// script of the next text differs from the active one.
type builder struct {
	dirs   []document.Directive
	script layout.Script
}

func newBuilder() *builder {
	return &builder{
		dirs:   []document.Directive{document.Reset(), document.SetCodePage(layout.ScriptLatin)},
		script: layout.ScriptLatin,
	}
}

func (b *builder) add(dirs ...document.Directive) {
	b.dirs = append(b.dirs, dirs...)
}

func (b *builder) text(s string) {
	if strings.TrimSpace(s) != "" {
		if script := layout.Classify(s); script != b.script {
			b.add(document.SetCodePage(script))
			b.script = script
		}
	}
	b.add(document.Text(s))
}
