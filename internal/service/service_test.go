package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/billing-system/internal/model"
	"github.com/mmeshcher/billing-system/internal/repository"
	"github.com/mmeshcher/billing-system/internal/stream"
	"github.com/mmeshcher/billing-system/internal/validation"
)

type stubRepo struct {
	applyCalls     int
	applyConflicts int
	applyErr       error
	applyResult    *model.Payment
	lastApplyIn    model.PaymentInput

	reverseCalls          int
	reverseErr            error
	reverseResult         *model.Payment
	reverseInvoiceUpdated bool

	client  *model.Client
	invoice *model.Invoice
}

func (s *stubRepo) Close() error { return nil }

func (s *stubRepo) ApplyPayment(ctx context.Context, in model.PaymentInput) (*model.Payment, error) {
	s.applyCalls++
	s.lastApplyIn = in
	if s.applyCalls <= s.applyConflicts {
		return nil, repository.ErrTransactionConflict
	}
	if s.applyErr != nil {
		return nil, s.applyErr
	}
	return s.applyResult, nil
}

func (s *stubRepo) ReversePayment(ctx context.Context, id string) (*model.Payment, bool, error) {
	s.reverseCalls++
	if s.reverseErr != nil {
		return nil, false, s.reverseErr
	}
	return s.reverseResult, s.reverseInvoiceUpdated, nil
}

func (s *stubRepo) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	return s.applyResult, nil
}

func (s *stubRepo) ListPayments(ctx context.Context, invoiceID, clientID string) ([]model.Payment, error) {
	return nil, nil
}

func (s *stubRepo) CreateClient(ctx context.Context, in model.ClientInput) (*model.Client, error) {
	return s.client, nil
}

func (s *stubRepo) GetClient(ctx context.Context, id string) (*model.Client, error) {
	return s.client, nil
}

func (s *stubRepo) ListClients(ctx context.Context) ([]model.Client, error) { return nil, nil }

func (s *stubRepo) UpdateClient(ctx context.Context, id string, in model.ClientInput) (*model.Client, error) {
	return s.client, nil
}

func (s *stubRepo) DeleteClient(ctx context.Context, id string) error { return nil }

func (s *stubRepo) CreateInvoice(ctx context.Context, in model.InvoiceInput) (*model.Invoice, error) {
	return s.invoice, nil
}

func (s *stubRepo) GetInvoice(ctx context.Context, id string) (*model.Invoice, error) {
	return s.invoice, nil
}

func (s *stubRepo) ListInvoices(ctx context.Context, clientID string) ([]model.Invoice, error) {
	return nil, nil
}

func (s *stubRepo) DeleteInvoice(ctx context.Context, id string) error { return nil }

func (s *stubRepo) CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	return &model.Product{ID: "pr-1"}, nil
}

func (s *stubRepo) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return nil, repository.ErrProductNotFound
}

func (s *stubRepo) ListProducts(ctx context.Context) ([]model.Product, error) { return nil, nil }

func (s *stubRepo) UpdateProduct(ctx context.Context, id string, in model.ProductInput) (*model.Product, error) {
	return &model.Product{ID: id}, nil
}

func (s *stubRepo) DeleteProduct(ctx context.Context, id string) error { return nil }

func (s *stubRepo) CreateNote(ctx context.Context, in model.NoteInput) (*model.Note, error) {
	return &model.Note{ID: "n-1"}, nil
}

func (s *stubRepo) GetNote(ctx context.Context, id string) (*model.Note, error) {
	return nil, repository.ErrNoteNotFound
}

func (s *stubRepo) ListNotes(ctx context.Context) ([]model.Note, error) { return nil, nil }

func (s *stubRepo) UpdateNote(ctx context.Context, id string, in model.NoteInput) (*model.Note, error) {
	return &model.Note{ID: id}, nil
}

func (s *stubRepo) DeleteNote(ctx context.Context, id string) error { return nil }

func newTestService(repo Repository, hub *stream.Hub) *Service {
	svc := NewService(repo, hub, nil)
	svc.retryBase = time.Millisecond
	return svc
}

func paymentInput() model.PaymentInput {
	return model.PaymentInput{
		InvoiceID: "inv-1",
		ClientID:  "cl-1",
		Amount:    decimal.NewFromInt(400),
		Method:    model.PaymentMethodCard,
		Reference: "PAY-001",
	}
}

func TestCreatePayment_ValidationRejectsBeforeRepository(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo, nil)

	in := paymentInput()
	in.Amount = decimal.Zero

	_, err := svc.CreatePayment(context.Background(), in)

	var vErr *validation.Error
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.applyCalls != 0 {
		t.Fatalf("repository must not be called on invalid input, calls = %d", repo.applyCalls)
	}
}

func TestCreatePayment_PropagatesInvoiceNotFound(t *testing.T) {
	repo := &stubRepo{applyErr: repository.ErrInvoiceNotFound}
	svc := newTestService(repo, nil)

	_, err := svc.CreatePayment(context.Background(), paymentInput())
	if !errors.Is(err, repository.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
	if repo.applyCalls != 1 {
		t.Fatalf("NotFound must not be retried, calls = %d", repo.applyCalls)
	}
}

func TestCreatePayment_RetriesConflicts(t *testing.T) {
	repo := &stubRepo{
		applyConflicts: 2,
		applyResult: &model.Payment{
			ID:        "p-1",
			InvoiceID: "inv-1",
			ClientID:  "cl-1",
			Amount:    decimal.NewFromInt(400),
		},
	}
	svc := newTestService(repo, nil)

	p, err := svc.CreatePayment(context.Background(), paymentInput())
	if err != nil {
		t.Fatalf("CreatePayment error: %v", err)
	}
	if p.ID != "p-1" {
		t.Fatalf("unexpected payment: %+v", p)
	}
	if repo.applyCalls != 3 {
		t.Fatalf("applyCalls = %d, want 3", repo.applyCalls)
	}
}

func TestCreatePayment_GivesUpAfterRetryBudget(t *testing.T) {
	repo := &stubRepo{applyConflicts: 100}
	svc := newTestService(repo, nil)

	_, err := svc.CreatePayment(context.Background(), paymentInput())
	if !errors.Is(err, repository.ErrTransactionConflict) {
		t.Fatalf("expected ErrTransactionConflict, got %v", err)
	}
	if repo.applyCalls != int(svc.retryMax)+1 {
		t.Fatalf("applyCalls = %d, want %d", repo.applyCalls, svc.retryMax+1)
	}
}

func TestCreatePayment_DefaultsDate(t *testing.T) {
	repo := &stubRepo{applyResult: &model.Payment{ID: "p-1"}}
	svc := newTestService(repo, nil)

	if _, err := svc.CreatePayment(context.Background(), paymentInput()); err != nil {
		t.Fatalf("CreatePayment error: %v", err)
	}
	if repo.lastApplyIn.Date.IsZero() {
		t.Fatalf("payment date must default to current time")
	}
}

func collectEvents(sub *stream.Subscription, n int, t *testing.T) []stream.Event {
	t.Helper()
	var events []stream.Event
	for i := 0; i < n; i++ {
		select {
		case e := <-sub.C():
			events = append(events, e)
		case <-time.After(time.Second):
			t.Fatalf("got %d events, want %d", len(events), n)
		}
	}
	return events
}

func TestCreatePayment_PublishesEvents(t *testing.T) {
	hub := stream.NewHub()
	defer hub.Close()

	sub := hub.Subscribe()
	defer sub.Close()

	repo := &stubRepo{
		applyResult: &model.Payment{ID: "p-1", InvoiceID: "inv-1", ClientID: "cl-1"},
	}
	svc := newTestService(repo, hub)

	if _, err := svc.CreatePayment(context.Background(), paymentInput()); err != nil {
		t.Fatalf("CreatePayment error: %v", err)
	}

	events := collectEvents(sub, 3, t)

	want := map[string]stream.Op{
		stream.CollectionPayments: stream.OpCreated,
		stream.CollectionInvoices: stream.OpUpdated,
		stream.CollectionClients:  stream.OpUpdated,
	}
	for _, e := range events {
		op, ok := want[e.Collection]
		if !ok {
			t.Fatalf("unexpected event collection %q", e.Collection)
		}
		if e.Op != op {
			t.Fatalf("collection %s: op = %s, want %s", e.Collection, e.Op, op)
		}
		delete(want, e.Collection)
	}
}

func TestCreatePayment_NoEventsOnFailure(t *testing.T) {
	hub := stream.NewHub()
	defer hub.Close()

	sub := hub.Subscribe()
	defer sub.Close()

	repo := &stubRepo{applyErr: repository.ErrInvoiceNotFound}
	svc := newTestService(repo, hub)

	if _, err := svc.CreatePayment(context.Background(), paymentInput()); err == nil {
		t.Fatalf("expected error")
	}

	select {
	case e := <-sub.C():
		t.Fatalf("unexpected event after failed apply: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDeletePayment_SkipsInvoiceEventWhenInvoiceGone(t *testing.T) {
	hub := stream.NewHub()
	defer hub.Close()

	sub := hub.Subscribe()
	defer sub.Close()

	repo := &stubRepo{
		reverseResult:         &model.Payment{ID: "p-1", InvoiceID: "inv-gone", ClientID: "cl-1"},
		reverseInvoiceUpdated: false,
	}
	svc := newTestService(repo, hub)

	if err := svc.DeletePayment(context.Background(), "p-1"); err != nil {
		t.Fatalf("DeletePayment error: %v", err)
	}

	events := collectEvents(sub, 2, t)
	for _, e := range events {
		if e.Collection == stream.CollectionInvoices {
			t.Fatalf("invoice event published for a missing invoice: %+v", e)
		}
	}

	select {
	case e := <-sub.C():
		t.Fatalf("unexpected extra event: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDeletePayment_PropagatesPaymentNotFound(t *testing.T) {
	repo := &stubRepo{reverseErr: repository.ErrPaymentNotFound}
	svc := newTestService(repo, nil)

	err := svc.DeletePayment(context.Background(), "missing")
	if !errors.Is(err, repository.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
	if repo.reverseCalls != 1 {
		t.Fatalf("NotFound must not be retried, calls = %d", repo.reverseCalls)
	}
}

func TestCreateInvoice_DefaultsIssuedAt(t *testing.T) {
	repo := &stubRepo{invoice: &model.Invoice{ID: "inv-1"}}
	svc := newTestService(repo, nil)

	inv, err := svc.CreateInvoice(context.Background(), model.InvoiceInput{
		ClientID: "cl-1",
		Number:   "INV-001",
		Total:    decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("CreateInvoice error: %v", err)
	}
	if inv.ID != "inv-1" {
		t.Fatalf("unexpected invoice: %+v", inv)
	}
}

func TestStartWebhookDelivery_NoClient(t *testing.T) {
	svc := &Service{}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})

	go func() {
		svc.StartWebhookDelivery(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("StartWebhookDelivery did not return without client")
	}
}
