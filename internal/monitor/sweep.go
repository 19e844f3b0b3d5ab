package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/trogers1052/portfolio-advisor/internal/analysis"
	"github.com/trogers1052/portfolio-advisor/internal/models"
	"github.com/trogers1052/portfolio-advisor/internal/portfolio"
)

// PortfolioLoader loads a portfolio by kind
type PortfolioLoader interface {
	Get(ctx context.Context, kind string) (*models.Portfolio, error)
}

// Store persists snapshots and alerts. CreateRiskAlert reports false for a breach already
// recorded the same day.
type Store interface {
	UpsertSnapshot(ctx context.Context, s *models.PortfolioSnapshot) error
	GetSnapshot(ctx context.Context, portfolioID int, date time.Time) (*models.PortfolioSnapshot, error)
	CreateRiskAlert(ctx context.Context, a *models.RiskAlert) (bool, error)
	MarkRiskAlertPublished(ctx context.Context, id int) error
}

// AlertPublisher announces triggered alerts
type AlertPublisher interface {
	PublishRiskAlert(ctx context.Context, kind string, alert *models.RiskAlert) error
}

// Recorder receives sweep observations
type Recorder interface {
	ObservePortfolio(kind string, score int, value float64)
	RecordRiskAlert(alertType, severity string)
	RecordMonitorRun(kind string, err error)
}

// RiskSweep snapshots every portfolio and checks it against the risk limits
type RiskSweep struct {
	loader    PortfolioLoader
	store     Store
	publisher AlertPublisher
	analyzer  *analysis.Analyzer
	recorder  Recorder
	log       zerolog.Logger
	timeout   time.Duration
	now       func() time.Time
}

// Option configures a RiskSweep
type Option func(*RiskSweep)

// WithPublisher publishes each new alert
func WithPublisher(p AlertPublisher) Option {
	return func(s *RiskSweep) { s.publisher = p }
}

// WithAnalyzer scores each portfolio during the sweep
func WithAnalyzer(a *analysis.Analyzer) Option {
	return func(s *RiskSweep) { s.analyzer = a }
}

// WithRecorder reports sweep results as metrics
func WithRecorder(r Recorder) Option {
	return func(s *RiskSweep) { s.recorder = r }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *RiskSweep) { s.now = now }
}

// NewRiskSweep creates the sweep job
func NewRiskSweep(loader PortfolioLoader, store Store, log zerolog.Logger, opts ...Option) *RiskSweep {
	s := &RiskSweep{
		loader:  loader,
		store:   store,
		log:     log.With().Str("component", "risk_monitor").Logger(),
		timeout: 2 * time.Minute,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RiskSweep) Name() string {
	return "risk_sweep"
}

// Run sweeps every portfolio kind. A failing portfolio does not stop the others.
func (s *RiskSweep) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var errs []error
	for _, kind := range models.Kinds() {
		_, err := s.Sweep(ctx, kind)
		if s.recorder != nil {
			s.recorder.RecordMonitorRun(kind, err)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
		}
	}
	return errors.Join(errs...)
}

// Sweep snapshots one portfolio, derives today's P&L and persists any triggered alerts.
// Only alerts new for the day are returned and published.
func (s *RiskSweep) Sweep(ctx context.Context, kind string) ([]*models.RiskAlert, error) {
	p, err := s.loader.Get(ctx, kind)
	if err != nil {
		return nil, err
	}

	now := s.now()
	value := p.TotalValue()
	snapshot := &models.PortfolioSnapshot{
		PortfolioID:     p.ID,
		Date:            now,
		TotalValue:      value,
		TotalInvestment: p.TotalInvestment(),
		TotalProfit:     p.TotalProfit,
	}
	if err := s.store.UpsertSnapshot(ctx, snapshot); err != nil {
		return nil, err
	}

	dailyPnL, err := s.dailyPnL(ctx, p.ID, now, value.InexactFloat64())
	if err != nil {
		return nil, err
	}

	holdings := portfolio.ToHoldings(p.Positions)
	if s.analyzer != nil && s.recorder != nil && len(holdings) > 0 {
		if score, _, err := s.analyzer.Score(holdings); err == nil {
			s.recorder.ObservePortfolio(kind, score, value.InexactFloat64())
		}
	}

	found, err := analysis.CheckPortfolioRiskLimits(holdings, dailyPnL)
	if err != nil {
		return nil, fmt.Errorf("failed to check risk limits: %w", err)
	}

	alerts := make([]*models.RiskAlert, 0, len(found))
	for _, a := range found {
		alert := &models.RiskAlert{
			PortfolioID: p.ID,
			AlertType:   a.Type,
			Severity:    a.Severity,
			Symbol:      a.Symbol,
			Message:     a.Message,
			Action:      a.Action,
			TriggeredAt: now,
		}
		created, err := s.store.CreateRiskAlert(ctx, alert)
		if err != nil {
			return alerts, err
		}
		if !created {
			continue
		}
		if s.recorder != nil {
			s.recorder.RecordRiskAlert(alert.AlertType, alert.Severity)
		}
		s.publish(ctx, kind, alert)
		alerts = append(alerts, alert)
	}

	s.log.Info().
		Str("kind", kind).
		Float64("daily_pnl", dailyPnL).
		Int("positions", len(holdings)).
		Int("breaches", len(found)).
		Int("alerts", len(alerts)).
		Msg("Risk sweep completed")
	return alerts, nil
}

// dailyPnL compares today's value with yesterday's snapshot; without one the change is zero
func (s *RiskSweep) dailyPnL(ctx context.Context, portfolioID int, now time.Time, value float64) (float64, error) {
	prev, err := s.store.GetSnapshot(ctx, portfolioID, now.AddDate(0, 0, -1))
	if err != nil {
		return 0, err
	}
	if prev == nil {
		return 0, nil
	}
	prevValue := prev.TotalValue.InexactFloat64()
	if prevValue <= 0 {
		return 0, nil
	}
	return (value - prevValue) / prevValue, nil
}

func (s *RiskSweep) publish(ctx context.Context, kind string, alert *models.RiskAlert) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRiskAlert(ctx, kind, alert); err != nil {
		s.log.Warn().Err(err).Str("alert_type", alert.AlertType).Msg("Failed to publish risk alert")
		return
	}
	if err := s.store.MarkRiskAlertPublished(ctx, alert.ID); err != nil {
		s.log.Warn().Err(err).Int("alert_id", alert.ID).Msg("Failed to mark risk alert published")
		return
	}
	alert.Published = true
}
