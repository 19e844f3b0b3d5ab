package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/portfolio-advisor/internal/analysis"
	"github.com/trogers1052/portfolio-advisor/internal/database"
	"github.com/trogers1052/portfolio-advisor/internal/models"
)

var (
	ErrPositionNotFound     = errors.New("position not found")
	ErrInsufficientQuantity = errors.New("not enough quantity")
	ErrInvalidTrade         = errors.New("invalid trade")
	ErrUnknownKind          = errors.New("unknown portfolio kind")
	ErrDuplicateCommand     = errors.New("trade command already applied")
)

// priceScale matches the NUMERIC(20, 8) columns
const priceScale = 8

// Store is the persistence the service needs
type Store interface {
	EnsurePortfolio(ctx context.Context, owner, kind string) (bool, error)
	GetPortfolio(ctx context.Context, owner, kind string) (*models.Portfolio, error)
	ApplyTrade(ctx context.Context, portfolioID int, positions []*models.Position, totalProfit decimal.Decimal, trade *models.Trade) error
	TradeExistsByCommandID(ctx context.Context, commandID string) (bool, error)
	GetTradesByPortfolio(ctx context.Context, portfolioID, limit int) ([]*models.Trade, error)
}

// Publisher announces portfolio changes
type Publisher interface {
	PublishPortfolioUpdated(ctx context.Context, p *models.Portfolio, trade *models.Trade) error
}

// TradeRequest is one buy or sell against a portfolio
type TradeRequest struct {
	Kind      string
	Symbol    string
	Side      string
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	Sector    string
	CommandID string
}

// Service applies trades to the single owner's portfolios
type Service struct {
	store     Store
	publisher Publisher
	owner     string
	log       zerolog.Logger

	// serializes read-modify-replace cycles within this process
	mu sync.Mutex
}

// NewService creates a portfolio service. publisher may be nil.
func NewService(store Store, publisher Publisher, owner string, log zerolog.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		owner:     owner,
		log:       log.With().Str("component", "portfolio").Logger(),
	}
}

// Owner returns the portfolio owner this service manages
func (s *Service) Owner() string {
	return s.owner
}

// Get loads a portfolio, creating an empty one on first access
func (s *Service) Get(ctx context.Context, kind string) (*models.Portfolio, error) {
	if !models.ValidKind(kind) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	p, err := s.store.GetPortfolio(ctx, s.owner, kind)
	if errors.Is(err, database.ErrPortfolioNotFound) {
		if _, err := s.store.EnsurePortfolio(ctx, s.owner, kind); err != nil {
			return nil, err
		}
		p, err = s.store.GetPortfolio(ctx, s.owner, kind)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Holdings returns the portfolio's positions in their analysis form
func (s *Service) Holdings(ctx context.Context, kind string) ([]analysis.Holding, error) {
	p, err := s.Get(ctx, kind)
	if err != nil {
		return nil, err
	}
	return ToHoldings(p.Positions), nil
}

// Trades returns the most recent trades of a portfolio
func (s *Service) Trades(ctx context.Context, kind string, limit int) ([]*models.Trade, error) {
	p, err := s.Get(ctx, kind)
	if err != nil {
		return nil, err
	}
	return s.store.GetTradesByPortfolio(ctx, p.ID, limit)
}

// Execute dispatches a request on its side. Requests carrying a command id are applied at most once.
func (s *Service) Execute(ctx context.Context, req TradeRequest) (*models.Portfolio, *models.Trade, error) {
	if req.CommandID != "" {
		exists, err := s.store.TradeExistsByCommandID(ctx, req.CommandID)
		if err != nil {
			return nil, nil, err
		}
		if exists {
			return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateCommand, req.CommandID)
		}
	}

	switch strings.ToUpper(req.Side) {
	case models.TradeTypeBuy:
		return s.Buy(ctx, req)
	case models.TradeTypeSell:
		return s.Sell(ctx, req)
	default:
		return nil, nil, fmt.Errorf("%w: unknown side %q", ErrInvalidTrade, req.Side)
	}
}

// Buy adds to a position, averaging the cost basis when the symbol is already held
func (s *Service) Buy(ctx context.Context, req TradeRequest) (*models.Portfolio, *models.Trade, error) {
	req, err := normalize(req)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.Get(ctx, req.Kind)
	if err != nil {
		return nil, nil, err
	}

	if pos := p.FindPosition(req.Symbol); pos != nil {
		totalQty := pos.Quantity.Add(req.Quantity)
		cost := pos.BuyPrice.Mul(pos.Quantity).Add(req.Price.Mul(req.Quantity))
		pos.BuyPrice = cost.Div(totalQty).Round(priceScale)
		pos.Quantity = totalQty
		if req.Sector != "" {
			pos.Sector = req.Sector
		}
	} else {
		p.Positions = append(p.Positions, &models.Position{
			Symbol:       req.Symbol,
			Quantity:     req.Quantity,
			BuyPrice:     req.Price,
			CurrentPrice: req.Price,
			Sector:       req.Sector,
		})
	}

	trade := &models.Trade{
		CommandID:   req.CommandID,
		Symbol:      req.Symbol,
		Side:        models.TradeTypeBuy,
		Quantity:    req.Quantity,
		Price:       req.Price,
		TotalCost:   req.Quantity.Mul(req.Price),
		RealizedPnl: decimal.Zero,
		ExecutedAt:  time.Now(),
	}
	if err := s.commit(ctx, p, trade); err != nil {
		return nil, nil, err
	}
	return p, trade, nil
}

// Sell reduces a position at the given price, removing it when nothing is left
func (s *Service) Sell(ctx context.Context, req TradeRequest) (*models.Portfolio, *models.Trade, error) {
	req, err := normalize(req)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.Get(ctx, req.Kind)
	if err != nil {
		return nil, nil, err
	}

	pos := p.FindPosition(req.Symbol)
	if pos == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrPositionNotFound, req.Symbol)
	}
	if pos.Quantity.LessThan(req.Quantity) {
		return nil, nil, fmt.Errorf("%w: holding %s %s, selling %s",
			ErrInsufficientQuantity, pos.Quantity.String(), req.Symbol, req.Quantity.String())
	}

	realized := req.Price.Sub(pos.BuyPrice).Mul(req.Quantity)
	pos.Quantity = pos.Quantity.Sub(req.Quantity)
	pos.CurrentPrice = req.Price
	if pos.Quantity.IsZero() {
		p.Positions = removePosition(p.Positions, req.Symbol)
	}

	trade := &models.Trade{
		CommandID:   req.CommandID,
		Symbol:      req.Symbol,
		Side:        models.TradeTypeSell,
		Quantity:    req.Quantity,
		Price:       req.Price,
		TotalCost:   req.Quantity.Mul(req.Price),
		RealizedPnl: realized,
		ExecutedAt:  time.Now(),
	}
	if err := s.commit(ctx, p, trade); err != nil {
		return nil, nil, err
	}
	return p, trade, nil
}

func (s *Service) commit(ctx context.Context, p *models.Portfolio, trade *models.Trade) error {
	p.RecalculateProfit()
	if err := s.store.ApplyTrade(ctx, p.ID, p.Positions, p.TotalProfit, trade); err != nil {
		return fmt.Errorf("failed to save %s portfolio: %w", p.Kind, err)
	}

	s.log.Info().
		Str("kind", p.Kind).
		Str("side", trade.Side).
		Str("symbol", trade.Symbol).
		Str("quantity", trade.Quantity.String()).
		Str("price", trade.Price.String()).
		Str("total_profit", p.TotalProfit.String()).
		Msg("Trade applied")

	if s.publisher != nil {
		if err := s.publisher.PublishPortfolioUpdated(ctx, p, trade); err != nil {
			s.log.Warn().Err(err).Str("kind", p.Kind).Msg("Failed to publish portfolio update")
		}
	}
	return nil
}

func normalize(req TradeRequest) (TradeRequest, error) {
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	req.Sector = strings.TrimSpace(req.Sector)
	if req.Symbol == "" {
		return req, fmt.Errorf("%w: symbol is required", ErrInvalidTrade)
	}
	if !req.Quantity.IsPositive() {
		return req, fmt.Errorf("%w: quantity must be positive", ErrInvalidTrade)
	}
	if !req.Price.IsPositive() {
		return req, fmt.Errorf("%w: price must be positive", ErrInvalidTrade)
	}
	return req, nil
}

func removePosition(positions []*models.Position, symbol string) []*models.Position {
	out := positions[:0]
	for _, p := range positions {
		if p.Symbol != symbol {
			out = append(out, p)
		}
	}
	return out
}

// ToHoldings converts stored positions into analysis holdings
func ToHoldings(positions []*models.Position) []analysis.Holding {
	holdings := make([]analysis.Holding, 0, len(positions))
	for _, p := range positions {
		holdings = append(holdings, analysis.Holding{
			Symbol:       p.Symbol,
			Quantity:     p.Quantity.InexactFloat64(),
			BuyPrice:     p.BuyPrice.InexactFloat64(),
			CurrentPrice: p.CurrentPrice.InexactFloat64(),
			Sector:       p.Sector,
		})
	}
	return holdings
}

// DaysHeld returns the whole days each position has been open at now, parallel to positions.
// Positions without an opening time count as opened today.
func DaysHeld(positions []*models.Position, now time.Time) []int {
	days := make([]int, 0, len(positions))
	for _, p := range positions {
		d := 0
		if !p.CreatedAt.IsZero() && now.After(p.CreatedAt) {
			d = int(now.Sub(p.CreatedAt).Hours() / 24)
		}
		days = append(days, d)
	}
	return days
}
