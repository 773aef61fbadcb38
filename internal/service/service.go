// Package service реализует бизнес-логику сервиса биллинга.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/mmeshcher/billing-system/internal/model"
	"github.com/mmeshcher/billing-system/internal/notify"
	"github.com/mmeshcher/billing-system/internal/repository"
	"github.com/mmeshcher/billing-system/internal/stream"
	"github.com/mmeshcher/billing-system/internal/validation"
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateClient(ctx context.Context, in model.ClientInput) (*model.Client, error)
	GetClient(ctx context.Context, id string) (*model.Client, error)
	ListClients(ctx context.Context) ([]model.Client, error)
	UpdateClient(ctx context.Context, id string, in model.ClientInput) (*model.Client, error)
	DeleteClient(ctx context.Context, id string) error

	CreateInvoice(ctx context.Context, in model.InvoiceInput) (*model.Invoice, error)
	GetInvoice(ctx context.Context, id string) (*model.Invoice, error)
	ListInvoices(ctx context.Context, clientID string) ([]model.Invoice, error)
	DeleteInvoice(ctx context.Context, id string) error

	ApplyPayment(ctx context.Context, in model.PaymentInput) (*model.Payment, error)
	ReversePayment(ctx context.Context, id string) (*model.Payment, bool, error)
	GetPayment(ctx context.Context, id string) (*model.Payment, error)
	ListPayments(ctx context.Context, invoiceID, clientID string) ([]model.Payment, error)

	CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	UpdateProduct(ctx context.Context, id string, in model.ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	CreateNote(ctx context.Context, in model.NoteInput) (*model.Note, error)
	GetNote(ctx context.Context, id string) (*model.Note, error)
	ListNotes(ctx context.Context) ([]model.Note, error)
	UpdateNote(ctx context.Context, id string, in model.NoteInput) (*model.Note, error)
	DeleteNote(ctx context.Context, id string) error
}

// Service содержит бизнес-логику сервиса биллинга.
type Service struct {
	repo    Repository
	hub     *stream.Hub
	webhook *notify.Client

	retryBase time.Duration
	retryMax  uint64
}

// NewService создаёт новый сервис с указанным репозиторием, лентой изменений
// и клиентом вебхука (оба опциональны и могут быть nil).
func NewService(repo Repository, hub *stream.Hub, webhook *notify.Client) *Service {
	return &Service{
		repo:      repo,
		hub:       hub,
		webhook:   webhook,
		retryBase: 100 * time.Millisecond,
		retryMax:  4,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.hub != nil {
		s.hub.Close()
	}
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

func (s *Service) publish(collection string, op stream.Op, id string) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(stream.Event{
		Collection: collection,
		Op:         op,
		ID:         id,
		At:         time.Now().UTC(),
	})
}

// withConflictRetry повторяет операцию при конфликте транзакций с
// экспоненциальной выдержкой; прочие ошибки возвращаются сразу.
func (s *Service) withConflictRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(s.retryMax, retry.NewExponential(s.retryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && errors.Is(err, repository.ErrTransactionConflict) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// CreatePayment проводит платёж: атомарно создаёт запись платежа, обновляет
// балансы счёта и накопленную сумму оплат клиента.
func (s *Service) CreatePayment(ctx context.Context, in model.PaymentInput) (*model.Payment, error) {
	if err := validation.ValidatePayment(in); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}

	var p *model.Payment
	err := s.withConflictRetry(ctx, func(ctx context.Context) error {
		created, err := s.repo.ApplyPayment(ctx, in)
		if err != nil {
			return err
		}
		p = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(stream.CollectionPayments, stream.OpCreated, p.ID)
	s.publish(stream.CollectionInvoices, stream.OpUpdated, p.InvoiceID)
	s.publish(stream.CollectionClients, stream.OpUpdated, p.ClientID)

	return p, nil
}

// DeletePayment отменяет платёж: атомарно удаляет запись, откатывает балансы
// счёта (если счёт ещё существует) и накопленную сумму оплат клиента.
func (s *Service) DeletePayment(ctx context.Context, id string) error {
	var p *model.Payment
	var invoiceUpdated bool
	err := s.withConflictRetry(ctx, func(ctx context.Context) error {
		reversed, updated, err := s.repo.ReversePayment(ctx, id)
		if err != nil {
			return err
		}
		p = reversed
		invoiceUpdated = updated
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(stream.CollectionPayments, stream.OpDeleted, p.ID)
	if invoiceUpdated {
		s.publish(stream.CollectionInvoices, stream.OpUpdated, p.InvoiceID)
	}
	s.publish(stream.CollectionClients, stream.OpUpdated, p.ClientID)

	return nil
}

// GetPayment возвращает платёж по идентификатору.
func (s *Service) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	return s.repo.GetPayment(ctx, id)
}

// ListPayments возвращает платежи с необязательной фильтрацией по счёту и клиенту.
func (s *Service) ListPayments(ctx context.Context, invoiceID, clientID string) ([]model.Payment, error) {
	return s.repo.ListPayments(ctx, invoiceID, clientID)
}

// CreateClient создаёт нового клиента.
func (s *Service) CreateClient(ctx context.Context, in model.ClientInput) (*model.Client, error) {
	if err := validation.ValidateClient(in); err != nil {
		return nil, err
	}
	c, err := s.repo.CreateClient(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publish(stream.CollectionClients, stream.OpCreated, c.ID)
	return c, nil
}

// GetClient возвращает клиента по идентификатору.
func (s *Service) GetClient(ctx context.Context, id string) (*model.Client, error) {
	return s.repo.GetClient(ctx, id)
}

// ListClients возвращает всех клиентов.
func (s *Service) ListClients(ctx context.Context) ([]model.Client, error) {
	return s.repo.ListClients(ctx)
}

// UpdateClient обновляет описательные поля клиента.
func (s *Service) UpdateClient(ctx context.Context, id string, in model.ClientInput) (*model.Client, error) {
	if err := validation.ValidateClient(in); err != nil {
		return nil, err
	}
	c, err := s.repo.UpdateClient(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.publish(stream.CollectionClients, stream.OpUpdated, c.ID)
	return c, nil
}

// DeleteClient удаляет клиента.
func (s *Service) DeleteClient(ctx context.Context, id string) error {
	if err := s.repo.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.publish(stream.CollectionClients, stream.OpDeleted, id)
	return nil
}

// CreateInvoice создаёт счёт с нулевой оплатой и статусом pending.
func (s *Service) CreateInvoice(ctx context.Context, in model.InvoiceInput) (*model.Invoice, error) {
	if err := validation.ValidateInvoice(in); err != nil {
		return nil, err
	}
	if in.IssuedAt.IsZero() {
		in.IssuedAt = time.Now().UTC()
	}
	inv, err := s.repo.CreateInvoice(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publish(stream.CollectionInvoices, stream.OpCreated, inv.ID)
	return inv, nil
}

// GetInvoice возвращает счёт по идентификатору.
func (s *Service) GetInvoice(ctx context.Context, id string) (*model.Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

// ListInvoices возвращает счета, при непустом clientID — только счета этого клиента.
func (s *Service) ListInvoices(ctx context.Context, clientID string) ([]model.Invoice, error) {
	return s.repo.ListInvoices(ctx, clientID)
}

// DeleteInvoice удаляет счёт. Платежи счёта сохраняются.
func (s *Service) DeleteInvoice(ctx context.Context, id string) error {
	if err := s.repo.DeleteInvoice(ctx, id); err != nil {
		return err
	}
	s.publish(stream.CollectionInvoices, stream.OpDeleted, id)
	return nil
}

// CreateProduct создаёт позицию каталога.
func (s *Service) CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	if err := validation.ValidateProduct(in); err != nil {
		return nil, err
	}
	p, err := s.repo.CreateProduct(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publish(stream.CollectionProducts, stream.OpCreated, p.ID)
	return p, nil
}

// GetProduct возвращает позицию каталога по идентификатору.
func (s *Service) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ListProducts возвращает все позиции каталога.
func (s *Service) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.repo.ListProducts(ctx)
}

// UpdateProduct обновляет позицию каталога.
func (s *Service) UpdateProduct(ctx context.Context, id string, in model.ProductInput) (*model.Product, error) {
	if err := validation.ValidateProduct(in); err != nil {
		return nil, err
	}
	p, err := s.repo.UpdateProduct(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.publish(stream.CollectionProducts, stream.OpUpdated, p.ID)
	return p, nil
}

// DeleteProduct удаляет позицию каталога.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.publish(stream.CollectionProducts, stream.OpDeleted, id)
	return nil
}

// CreateNote создаёт заметку.
func (s *Service) CreateNote(ctx context.Context, in model.NoteInput) (*model.Note, error) {
	if err := validation.ValidateNote(in); err != nil {
		return nil, err
	}
	n, err := s.repo.CreateNote(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publish(stream.CollectionNotes, stream.OpCreated, n.ID)
	return n, nil
}

// GetNote возвращает заметку по идентификатору.
func (s *Service) GetNote(ctx context.Context, id string) (*model.Note, error) {
	return s.repo.GetNote(ctx, id)
}

// ListNotes возвращает все заметки.
func (s *Service) ListNotes(ctx context.Context) ([]model.Note, error) {
	return s.repo.ListNotes(ctx)
}

// UpdateNote обновляет заметку.
func (s *Service) UpdateNote(ctx context.Context, id string, in model.NoteInput) (*model.Note, error) {
	if err := validation.ValidateNote(in); err != nil {
		return nil, err
	}
	n, err := s.repo.UpdateNote(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.publish(stream.CollectionNotes, stream.OpUpdated, n.ID)
	return n, nil
}

// DeleteNote удаляет заметку.
func (s *Service) DeleteNote(ctx context.Context, id string) error {
	if err := s.repo.DeleteNote(ctx, id); err != nil {
		return err
	}
	s.publish(stream.CollectionNotes, stream.OpDeleted, id)
	return nil
}

// StartWebhookDelivery запускает фоновую доставку событий изменений на вебхук.
func (s *Service) StartWebhookDelivery(ctx context.Context) {
	if s.webhook == nil || s.hub == nil {
		return
	}

	go func() {
		sub := s.hub.Subscribe()
		defer sub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-sub.C():
				if !ok {
					return
				}
				_ = s.webhook.Send(ctx, e)
			}
		}
	}()
}
