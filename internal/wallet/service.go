// Package wallet keeps the owner's personal income, expense and saving ledger.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/portfolio-advisor/internal/database"
	"github.com/trogers1052/portfolio-advisor/internal/models"
)

var (
	ErrInvalidRequest    = errors.New("invalid wallet request")
	ErrAdviceUnavailable = errors.New("wallet advice is not configured")
)

// DefaultSummaryDays is the window of the spending summary
const DefaultSummaryDays = 30

// Store is the persistence the service needs
type Store interface {
	EnsureWalletUser(ctx context.Context, owner string, balance decimal.Decimal, cards []string) (bool, error)
	GetWalletUser(ctx context.Context, owner string) (*models.WalletUser, error)
	CreateWalletTransaction(ctx context.Context, owner string, t *models.WalletTransaction) error
	GetWalletTransactions(ctx context.Context, owner string, limit int) ([]*models.WalletTransaction, error)
	DeleteWalletTransaction(ctx context.Context, owner string, id int) error
	GetWalletSummary(ctx context.Context, owner string, since time.Time) (*models.WalletSummary, error)
	GetMonthlyTotals(ctx context.Context, owner string) ([]models.MonthlyAmount, error)
	GetWalletGraph(ctx context.Context, owner string) ([]models.GraphPoint, error)
}

// Advisor writes budgeting suggestions
type Advisor interface {
	WalletSuggestion(ctx context.Context, query string, summary *models.WalletSummary) (string, error)
}

// TransactionRequest books one ledger entry. A zero Date means now.
type TransactionRequest struct {
	Type   string
	Name   string
	Amount decimal.Decimal
	Date   time.Time
}

// Service manages the single owner's wallet
type Service struct {
	store   Store
	advisor Advisor
	owner   string
	log     zerolog.Logger
	now     func() time.Time
}

// NewService creates a wallet service. advisor may be nil.
func NewService(store Store, advisor Advisor, owner string, log zerolog.Logger) *Service {
	return &Service{
		store:   store,
		advisor: advisor,
		owner:   owner,
		log:     log.With().Str("component", "wallet").Logger(),
		now:     time.Now,
	}
}

// User loads the owner's wallet, creating an empty one on first access
func (s *Service) User(ctx context.Context) (*models.WalletUser, error) {
	u, err := s.store.GetWalletUser(ctx, s.owner)
	if errors.Is(err, database.ErrWalletNotFound) {
		if err := s.ensure(ctx); err != nil {
			return nil, err
		}
		u, err = s.store.GetWalletUser(ctx, s.owner)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Cards lists the owner's payment cards
func (s *Service) Cards(ctx context.Context) ([]string, error) {
	u, err := s.User(ctx)
	if err != nil {
		return nil, err
	}
	return u.Cards, nil
}

// Summary totals the ledger over the last days days
func (s *Service) Summary(ctx context.Context, days int) (*models.WalletSummary, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive", ErrInvalidRequest)
	}
	since := s.now().AddDate(0, 0, -days)
	summary, err := s.store.GetWalletSummary(ctx, s.owner, since)
	if errors.Is(err, database.ErrWalletNotFound) {
		return &models.WalletSummary{Since: since}, nil
	}
	return summary, err
}

// Monthly sums the ledger per calendar month
func (s *Service) Monthly(ctx context.Context) ([]models.MonthlyAmount, error) {
	return s.store.GetMonthlyTotals(ctx, s.owner)
}

// Graph returns the savings versus expenses chart series
func (s *Service) Graph(ctx context.Context) ([]models.GraphPoint, error) {
	return s.store.GetWalletGraph(ctx, s.owner)
}

// Transactions returns the newest ledger entries
func (s *Service) Transactions(ctx context.Context, limit int) ([]*models.WalletTransaction, error) {
	return s.store.GetWalletTransactions(ctx, s.owner, limit)
}

// AddTransaction validates and books a ledger entry
func (s *Service) AddTransaction(ctx context.Context, req TransactionRequest) (*models.WalletTransaction, error) {
	name := strings.TrimSpace(req.Name)
	switch {
	case !models.ValidWalletType(req.Type):
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidRequest, req.Type)
	case name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	case !req.Amount.IsPositive():
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}

	t := &models.WalletTransaction{
		Type:       req.Type,
		Amount:     req.Amount.Round(2),
		Name:       name,
		OccurredAt: req.Date,
	}
	if t.OccurredAt.IsZero() {
		t.OccurredAt = s.now()
	}

	err := s.store.CreateWalletTransaction(ctx, s.owner, t)
	if errors.Is(err, database.ErrWalletNotFound) {
		if err := s.ensure(ctx); err != nil {
			return nil, err
		}
		err = s.store.CreateWalletTransaction(ctx, s.owner, t)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int("id", t.ID).
		Str("type", t.Type).
		Str("amount", t.Amount.String()).
		Msg("Wallet transaction booked")
	return t, nil
}

// DeleteTransaction removes a ledger entry
func (s *Service) DeleteTransaction(ctx context.Context, id int) error {
	if id <= 0 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidRequest)
	}
	if err := s.store.DeleteWalletTransaction(ctx, s.owner, id); err != nil {
		return err
	}
	s.log.Info().Int("id", id).Msg("Wallet transaction deleted")
	return nil
}

// Suggest asks the advisor for budgeting advice grounded on the default summary window
func (s *Service) Suggest(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}
	if s.advisor == nil {
		return "", ErrAdviceUnavailable
	}

	summary, err := s.Summary(ctx, DefaultSummaryDays)
	if err != nil {
		return "", err
	}
	return s.advisor.WalletSuggestion(ctx, query, summary)
}

func (s *Service) ensure(ctx context.Context) error {
	created, err := s.store.EnsureWalletUser(ctx, s.owner, decimal.Zero, nil)
	if err != nil {
		return err
	}
	if created {
		s.log.Info().Str("owner", s.owner).Msg("Created empty wallet")
	}
	return nil
}
