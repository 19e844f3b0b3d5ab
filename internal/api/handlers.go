package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/portfolio-advisor/internal/advice"
	"github.com/trogers1052/portfolio-advisor/internal/analysis"
	"github.com/trogers1052/portfolio-advisor/internal/database"
	"github.com/trogers1052/portfolio-advisor/internal/metrics"
	"github.com/trogers1052/portfolio-advisor/internal/models"
	"github.com/trogers1052/portfolio-advisor/internal/portfolio"
	"github.com/trogers1052/portfolio-advisor/internal/wallet"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// PortfolioService is the portfolio behaviour the handlers need
type PortfolioService interface {
	Get(ctx context.Context, kind string) (*models.Portfolio, error)
	Buy(ctx context.Context, req portfolio.TradeRequest) (*models.Portfolio, *models.Trade, error)
	Sell(ctx context.Context, req portfolio.TradeRequest) (*models.Portfolio, *models.Trade, error)
	Trades(ctx context.Context, kind string, limit int) ([]*models.Trade, error)
}

// AlertStore lists persisted risk alerts
type AlertStore interface {
	GetRecentRiskAlerts(ctx context.Context, limit int) ([]*models.RiskAlert, error)
}

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	portfolios PortfolioService
	analyzer   *analysis.Analyzer
	alerts     AlertStore
	renderer   advice.Renderer
	assistant  advice.Assistant
	wallet     WalletService
	db         Pinger
	metrics    *metrics.Metrics
	log        zerolog.Logger
	now        func() time.Time
}

// Deps groups the Handler's collaborators. Renderer, Assistant, DB and Metrics may be nil.
type Deps struct {
	Portfolios PortfolioService
	Analyzer   *analysis.Analyzer
	Alerts     AlertStore
	Renderer   advice.Renderer
	Assistant  advice.Assistant
	Wallet     WalletService
	DB         Pinger
	Metrics    *metrics.Metrics
	Log        zerolog.Logger
}

// NewHandler creates a new Handler
func NewHandler(d Deps) *Handler {
	return &Handler{
		portfolios: d.Portfolios,
		analyzer:   d.Analyzer,
		alerts:     d.Alerts,
		renderer:   d.Renderer,
		assistant:  d.Assistant,
		wallet:     d.Wallet,
		db:         d.DB,
		metrics:    d.Metrics,
		log:        d.Log.With().Str("component", "api").Logger(),
		now:        time.Now,
	}
}

type tradeRequest struct {
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Sector   string          `json:"sector,omitempty"`
}

type tradeResponse struct {
	Success   bool              `json:"success"`
	Msg       string            `json:"msg"`
	Portfolio *models.Portfolio `json:"portfolio"`
	Trade     *models.Trade     `json:"trade"`
}

type analysisResponse struct {
	Kind           string           `json:"kind"`
	Result         *analysis.Result `json:"result"`
	Explanation    string           `json:"explanation,omitempty"`
	RiskNarrative  string           `json:"risk_narrative,omitempty"`
	NarrationError string           `json:"narration_error,omitempty"`
}

type riskResponse struct {
	Kind            string                          `json:"kind"`
	Metrics         analysis.Metrics                `json:"metrics"`
	Report          *analysis.RiskReport            `json:"report"`
	Alerts          []analysis.Alert                `json:"alerts"`
	Diversification *analysis.DiversificationReport `json:"diversification"`
	Positions       []*analysis.PositionRiskReport  `json:"positions"`
}

// GetPortfolio handles GET /portfolios/{kind}
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := h.portfolios.Get(r.Context(), mux.Vars(r)["kind"])
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// Buy handles POST /portfolios/{kind}/buy
func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, models.TradeTypeBuy)
}

// Sell handles POST /portfolios/{kind}/sell
func (h *Handler) Sell(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, models.TradeTypeSell)
}

func (h *Handler) trade(w http.ResponseWriter, r *http.Request, side string) {
	var body tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	kind := mux.Vars(r)["kind"]
	req := portfolio.TradeRequest{
		Kind:     kind,
		Symbol:   body.Symbol,
		Side:     side,
		Quantity: body.Quantity,
		Price:    body.Price,
		Sector:   body.Sector,
	}

	var (
		p   *models.Portfolio
		t   *models.Trade
		err error
		msg string
	)
	if side == models.TradeTypeBuy {
		p, t, err = h.portfolios.Buy(r.Context(), req)
		msg = "Position bought"
	} else {
		p, t, err = h.portfolios.Sell(r.Context(), req)
		msg = "Position sold"
	}
	if err != nil {
		h.respondError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordTrade(kind, side)
	}
	respondJSON(w, http.StatusOK, tradeResponse{Success: true, Msg: msg, Portfolio: p, Trade: t})
}

// GetTrades handles GET /portfolios/{kind}/trades
func (h *Handler) GetTrades(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	trades, err := h.portfolios.Trades(r.Context(), mux.Vars(r)["kind"], limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, trades)
}

// GetAnalysis handles GET /portfolios/{kind}/analysis
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	holdings, ok := h.holdings(w, r, kind)
	if !ok {
		return
	}

	dailyPnL := 0.0
	if v := r.URL.Query().Get("daily_pnl"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse("daily_pnl must be a number"))
			return
		}
		dailyPnL = parsed
	}

	result, err := h.analyzer.Analyze(holdings, analysis.Options{DailyPnL: dailyPnL})
	if err != nil {
		h.respondError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObservePortfolio(kind, result.Score, result.Metrics.TotalValue)
	}

	resp := analysisResponse{Kind: kind, Result: result}
	if narrate, _ := strconv.ParseBool(r.URL.Query().Get("narrate")); narrate {
		h.narrate(r.Context(), &resp, holdings)
	}
	respondJSON(w, http.StatusOK, resp)
}

// narrate fills in the rendered text. Failures leave the structured result intact.
func (h *Handler) narrate(ctx context.Context, resp *analysisResponse, holdings []analysis.Holding) {
	if h.renderer == nil {
		resp.NarrationError = "narration is not configured"
		return
	}

	explanation, err := h.renderer.RenderExplanation(ctx, resp.Result.Score, analysis.Symbols(holdings))
	if err == nil {
		resp.Explanation = explanation
		resp.RiskNarrative, err = h.renderer.RenderRiskNarrative(ctx, resp.Result.RiskReport)
	}
	if h.metrics != nil {
		h.metrics.RecordNarration(err)
	}
	if err != nil {
		h.log.Warn().Err(err).Str("kind", resp.Kind).Msg("Narration failed")
		resp.NarrationError = err.Error()
	}
}

// GetRisk handles GET /portfolios/{kind}/risk
func (h *Handler) GetRisk(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	holdings, ok := h.holdings(w, r, kind)
	if !ok {
		return
	}

	m := analysis.CalculatePortfolioMetrics(holdings)
	resp := riskResponse{Kind: kind, Metrics: m, Alerts: []analysis.Alert{}, Positions: []*analysis.PositionRiskReport{}}
	var err error
	if len(holdings) > 0 {
		if resp.Report, err = analysis.GenerateRiskReport(holdings, m); err != nil {
			h.respondError(w, err)
			return
		}
		if resp.Alerts, err = analysis.CheckPortfolioRiskLimits(holdings, 0); err != nil {
			h.respondError(w, err)
			return
		}
		if resp.Positions, err = analysis.AssessAllPositions(holdings); err != nil {
			h.respondError(w, err)
			return
		}
	}
	if resp.Diversification, err = analysis.AnalyzeDiversification(holdings); err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetRebalance handles GET /portfolios/{kind}/rebalance
func (h *Handler) GetRebalance(w http.ResponseWriter, r *http.Request) {
	holdings, ok := h.holdings(w, r, mux.Vars(r)["kind"])
	if !ok {
		return
	}

	suggestions := []analysis.Suggestion{}
	if len(holdings) > 0 {
		var err error
		if suggestions, err = analysis.GenerateRebalancingSuggestions(holdings, nil); err != nil {
			h.respondError(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

// GetSignals handles GET /portfolios/{kind}/signals
func (h *Handler) GetSignals(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	p, err := h.portfolios.Get(r.Context(), kind)
	if err != nil {
		h.respondError(w, err)
		return
	}

	signals, err := analysis.GenerateExitSignals(portfolio.ToHoldings(p.Positions), portfolio.DaysHeld(p.Positions, h.now()))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"kind": kind, "signals": signals})
}

// AssessPosition handles POST /risk/position
func (h *Handler) AssessPosition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol         string  `json:"symbol"`
		EntryPrice     float64 `json:"entry_price"`
		CurrentPrice   float64 `json:"current_price"`
		Quantity       float64 `json:"quantity"`
		PortfolioValue float64 `json:"portfolio_value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	report, err := analysis.AssessPositionRisk(req.Symbol, req.EntryPrice, req.CurrentPrice, req.Quantity, req.PortfolioValue)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// CalculateVaR handles POST /risk/var
func (h *Handler) CalculateVaR(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Positions   []analysis.Holding `json:"positions"`
		Confidence  float64            `json:"confidence_level"`
		TimeHorizon float64            `json:"time_horizon"`
	}{Confidence: 0.95, TimeHorizon: 1}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	v, err := analysis.CalculateVaR(req.Positions, req.Confidence, req.TimeHorizon)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]float64{
		"var":              v,
		"confidence_level": req.Confidence,
		"time_horizon":     req.TimeHorizon,
	})
}

// PositionSize handles POST /sizing
func (h *Handler) PositionSize(w http.ResponseWriter, r *http.Request) {
	req := struct {
		PortfolioValue float64            `json:"portfolio_value"`
		Confidence     float64            `json:"confidence"`
		RiskLevel      analysis.RiskLevel `json:"risk_level"`
	}{Confidence: 50, RiskLevel: analysis.RiskMedium}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	size, err := analysis.CalculatePositionSize(req.PortfolioValue, req.Confidence, req.RiskLevel)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]float64{"position_size": size})
}

// GetAlerts handles GET /alerts
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	alerts, err := h.alerts.GetRecentRiskAlerts(r.Context(), limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, alerts)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) holdings(w http.ResponseWriter, r *http.Request, kind string) ([]analysis.Holding, bool) {
	p, err := h.portfolios.Get(r.Context(), kind)
	if err != nil {
		h.respondError(w, err)
		return nil, false
	}
	return portfolio.ToHoldings(p.Positions), true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Request failed")
	}
	respondJSON(w, status, errorResponse(err.Error()))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, portfolio.ErrUnknownKind),
		errors.Is(err, portfolio.ErrPositionNotFound),
		errors.Is(err, database.ErrPortfolioNotFound),
		errors.Is(err, database.ErrWalletNotFound),
		errors.Is(err, database.ErrWalletTransactionNotFound),
		errors.Is(err, advice.ErrUnknownMarket):
		return http.StatusNotFound
	case errors.Is(err, portfolio.ErrInvalidTrade),
		errors.Is(err, portfolio.ErrInsufficientQuantity),
		errors.Is(err, wallet.ErrInvalidRequest),
		errors.Is(err, advice.ErrEmptyPrompt):
		return http.StatusBadRequest
	case errors.Is(err, wallet.ErrAdviceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, analysis.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func parseLimit(r *http.Request) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(v)
	if err != nil || limit <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, nil
}

func errorResponse(msg string) map[string]any {
	return map[string]any{"success": false, "msg": msg}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
