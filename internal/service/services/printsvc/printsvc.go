package printsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dongwon38/print-agent/internal/dal/interfaces/ieventpublisher"
	"github.com/Dongwon38/print-agent/internal/dal/interfaces/iorderapi"
	"github.com/Dongwon38/print-agent/internal/dal/interfaces/iprinter"
	"github.com/Dongwon38/print-agent/internal/dal/interfaces/iprintjobrepo"
	"github.com/Dongwon38/print-agent/internal/receipt"
	"github.com/Dongwon38/print-agent/internal/service/errs"
	"github.com/Dongwon38/print-agent/internal/service/models/document"
	"github.com/Dongwon38/print-agent/internal/service/models/event"
	"github.com/Dongwon38/print-agent/internal/service/models/order"
	"github.com/Dongwon38/print-agent/internal/service/models/printjob"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type composer interface {
	Compose(o order.Order, now time.Time) (receipt.Receipts, error)
}

// PrintService turns pending orders into printed, acknowledged receipts.
type PrintService struct {
	composer composer
	printer  iprinter.ISession
	api      iorderapi.IOrderAPI
	journal  iprintjobrepo.IPrintJobRepository
	events   ieventpublisher.IEventPublisher
	copies   int
	now      func() time.Time
}

// TickResult summarises one pass over the pending orders.
type TickResult struct {
	Fetched int `json:"fetched"`
	Printed int `json:"printed"`
	Failed  int `json:"failed"`
}

// option is a function that configures the PrintService.
type option func(*PrintService)

// MustNewPrintService creates a new PrintService. The journal and the event
// publisher are optional.
func MustNewPrintService(opts ...option) *PrintService {
	copies := viper.GetInt("receipt.customer_copies")
	if copies <= 0 {
		copies = 2
	}

	s := &PrintService{
		copies: copies,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.composer == nil || s.printer == nil || s.api == nil {
		panic("print service requires a composer, a printer and an order API")
	}

	return s
}

// WithComposer sets the receipt composer.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithComposer(c composer) option {
	return func(s *PrintService) {
		s.composer = c
	}
}

// WithPrinter sets the printer session.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPrinter(p iprinter.ISession) option {
	return func(s *PrintService) {
		s.printer = p
	}
}

// WithOrderAPI sets the order source.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderAPI(api iorderapi.IOrderAPI) option {
	return func(s *PrintService) {
		s.api = api
	}
}

// WithJournal enables the print journal.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithJournal(j iprintjobrepo.IPrintJobRepository) option {
	return func(s *PrintService) {
		s.journal = j
	}
}

// WithEventPublisher enables operator notifications.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithEventPublisher(p ieventpublisher.IEventPublisher) option {
	return func(s *PrintService) {
		s.events = p
	}
}

// WithCustomerCopies overrides receipt.customer_copies.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCustomerCopies(n int) option {
	return func(s *PrintService) {
		s.copies = max(n, 1)
	}
}

// ProcessTick fetches pending orders and prints the printable ones one after
// another. A failed order is logged and the next one is still attempted. The
// returned error is non-nil only when the fetch fails or the API rejects the
// token, in which case the remaining orders are left for a later tick.
func (s *PrintService) ProcessTick(ctx context.Context, token string) (TickResult, error) {
	ctx, span := otel.Tracer("print-service").Start(ctx, "PrintService.ProcessTick")
	defer span.End()

	var res TickResult

	orders, err := s.api.PendingOrders(ctx, token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return res, fmt.Errorf("failed to fetch pending orders: %w", err)
	}
	res.Fetched = len(orders)

	tickID := uuid.New()
	for _, o := range orders {
		if !o.Printable() {
			continue
		}

		if err := s.processOrder(ctx, tickID, token, o); err != nil {
			if errors.Is(err, errs.ErrAuth) {
				span.RecordError(err)
				return res, err
			}

			res.Failed++
			slog.Error("Failed to print order", "order_id", o.ID, "order_number", o.OrderNumber, "error", err)
			continue
		}

		res.Printed++
	}

	span.SetAttributes(
		attribute.Int("orders.fetched", res.Fetched),
		attribute.Int("orders.printed", res.Printed),
		attribute.Int("orders.failed", res.Failed),
	)

	return res, nil
}

// processOrder prints and acknowledges a single order.
func (s *PrintService) processOrder(ctx context.Context, tickID uuid.UUID, token string, o order.Order) error {
	ctx, span := otel.Tracer("print-service").Start(ctx, "PrintService.ProcessOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", o.ID.String()))

	job := printjob.Job{
		ID:          uuid.New(),
		TickID:      tickID,
		OrderID:     o.ID.String(),
		OrderNumber: o.OrderNumber,
		Status:      printjob.StatusFailed,
		CreatedAt:   s.now(),
	}

	err := s.printAndAcknowledge(ctx, token, o, &job)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order failed")
		job.Error = err.Error()
		s.record(ctx, job)
		s.publish(ctx, event.Event{
			Type:    event.TypeOrderFailed,
			Message: fmt.Sprintf("Order %s was not printed: %v", o.Label(), err),
			OrderID: job.OrderID,
			At:      s.now(),
		})

		return err
	}

	job.Status = printjob.StatusPrinted
	s.record(ctx, job)
	s.publish(ctx, event.Event{
		Type:    event.TypeOrderPrinted,
		Message: fmt.Sprintf("Order %s printed", o.Label()),
		OrderID: job.OrderID,
		At:      s.now(),
	})
	slog.Info("Order printed", "order_id", o.ID, "order_number", o.OrderNumber, "documents", job.Documents)

	return nil
}

func (s *PrintService) printAndAcknowledge(ctx context.Context, token string, o order.Order, job *printjob.Job) error {
	receipts, err := s.composer.Compose(o, s.now())
	if err != nil {
		return fmt.Errorf("failed to compose receipts: %w", err)
	}

	docs := receipts.Documents(s.copies)
	job.Documents = len(docs)

	if err := s.print(ctx, docs); err != nil {
		return err
	}

	if err := s.api.MarkPrinted(ctx, token, o.ID); err != nil {
		return fmt.Errorf("failed to acknowledge order: %w", err)
	}
	job.Acknowledged = true

	return nil
}

// print writes every document through one printer session, flushing after
// each so a document is never interleaved with another.
func (s *PrintService) print(ctx context.Context, docs []document.Document) (err error) {
	if err := s.printer.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if cerr := s.printer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for _, doc := range docs {
		for _, d := range doc.Directives() {
			if err := s.printer.Write(d); err != nil {
				return fmt.Errorf("failed to write %s: %w", doc.Label, err)
			}
		}

		if err := s.printer.Flush(ctx); err != nil {
			return fmt.Errorf("failed to flush %s: %w", doc.Label, err)
		}
	}

	return nil
}

// RecentJobs returns the newest journal entries, or nil when the journal is
// disabled.
func (s *PrintService) RecentJobs(ctx context.Context, limit uint64) ([]printjob.Job, error) {
	if s.journal == nil {
		return nil, nil
	}

	return s.journal.ListRecent(ctx, limit)
}

func (s *PrintService) record(ctx context.Context, job printjob.Job) {
	if s.journal == nil {
		return
	}

	if err := s.journal.Record(ctx, job); err != nil {
		slog.Error("Failed to record print job", "order_id", job.OrderID, "error", err)
	}
}

func (s *PrintService) publish(ctx context.Context, e event.Event) {
	if s.events == nil {
		return
	}

	if err := s.events.Publish(ctx, e); err != nil {
		slog.Error("Failed to publish event", "type", e.Type, "error", err)
	}
}
