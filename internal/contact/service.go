package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arsarazi/realty/internal/customer"
	"github.com/arsarazi/realty/internal/store"
)

// CustomerSource is the source recorded on customers created from the form.
const CustomerSource = "contact_form"

// Customers is the part of the customer repository the service needs.
type Customers interface {
	FindByPhone(ctx context.Context, phone string) (*customer.Customer, error)
	Insert(ctx context.Context, c *customer.Customer) (*customer.Customer, error)
}

// Notifier tells the office about a new submission.
type Notifier interface {
	NotifyContact(ctx context.Context, s *Submission) error
}

// Service accepts contact form submissions. A submission is stored first;
// creating the matching customer and notifying the office are best effort
// and only logged when they fail.
type Service struct {
	repo      *Repository
	customers Customers
	notifier  Notifier
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCustomers records a prospective buyer for every new phone number.
func WithCustomers(c Customers) Option {
	return func(s *Service) { s.customers = c }
}

// WithNotifier sends a notification for every submission.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a contact service over repo.
func NewService(repo *Repository, opts ...Option) *Service {
	s := &Service{repo: repo, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repository returns the underlying repository for admin reads.
func (s *Service) Repository() *Repository {
	return s.repo
}

// Submit validates and stores a submission.
func (s *Service) Submit(ctx context.Context, in *Submission) (*Submission, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	saved, err := s.repo.Insert(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("contact submission received", "id", saved.ID, "subject", saved.Subject)

	if s.customers != nil && saved.Phone != "" {
		if err := s.ensureCustomer(ctx, saved); err != nil {
			s.logger.Error("creating customer from contact", "submission", saved.ID, "error", err)
		}
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyContact(ctx, saved); err != nil {
			s.logger.Error("sending contact notification", "submission", saved.ID, "error", err)
		}
	}

	return saved, nil
}

func (s *Service) ensureCustomer(ctx context.Context, sub *Submission) error {
	_, err := s.customers.FindByPhone(ctx, sub.Phone)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	c, err := s.customers.Insert(ctx, &customer.Customer{
		Name:      sub.Name,
		Email:     sub.Email,
		Phone:     sub.Phone,
		Type:      customer.ProspectiveBuyer,
		Status:    customer.New,
		Interests: []string{string(sub.Subject)},
		Notes:     truncate("Contact form: "+sub.Message, 2000),
		Source:    CustomerSource,
	})
	if err != nil {
		return fmt.Errorf("inserting customer: %w", err)
	}
	s.logger.Info("customer created from contact", "customer", c.ID, "submission", sub.ID)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
