package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/portfolio-advisor/internal/analysis"
	"github.com/trogers1052/portfolio-advisor/internal/metrics"
	"github.com/trogers1052/portfolio-advisor/internal/models"
	"github.com/trogers1052/portfolio-advisor/internal/portfolio"
)

type fakePortfolios struct {
	portfolios map[string]*models.Portfolio
	tradeErr   error
	lastReq    portfolio.TradeRequest
}

func (f *fakePortfolios) Get(_ context.Context, kind string) (*models.Portfolio, error) {
	if !models.ValidKind(kind) {
		return nil, portfolio.ErrUnknownKind
	}
	if p, ok := f.portfolios[kind]; ok {
		return p, nil
	}
	return &models.Portfolio{Kind: kind, Positions: []*models.Position{}}, nil
}

func (f *fakePortfolios) Buy(ctx context.Context, req portfolio.TradeRequest) (*models.Portfolio, *models.Trade, error) {
	return f.apply(ctx, req)
}

func (f *fakePortfolios) Sell(ctx context.Context, req portfolio.TradeRequest) (*models.Portfolio, *models.Trade, error) {
	return f.apply(ctx, req)
}

func (f *fakePortfolios) apply(ctx context.Context, req portfolio.TradeRequest) (*models.Portfolio, *models.Trade, error) {
	f.lastReq = req
	if f.tradeErr != nil {
		return nil, nil, f.tradeErr
	}
	p, err := f.Get(ctx, req.Kind)
	if err != nil {
		return nil, nil, err
	}
	return p, &models.Trade{Symbol: req.Symbol, Side: req.Side, Quantity: req.Quantity, Price: req.Price}, nil
}

func (f *fakePortfolios) Trades(_ context.Context, kind string, limit int) ([]*models.Trade, error) {
	if !models.ValidKind(kind) {
		return nil, portfolio.ErrUnknownKind
	}
	trades := []*models.Trade{}
	for i := 0; i < limit && i < 3; i++ {
		trades = append(trades, &models.Trade{ID: i + 1})
	}
	return trades, nil
}

type fakeAlerts struct {
	limit int
}

func (f *fakeAlerts) GetRecentRiskAlerts(_ context.Context, limit int) ([]*models.RiskAlert, error) {
	f.limit = limit
	return []*models.RiskAlert{{ID: 1, AlertType: analysis.AlertConcentrationRisk}}, nil
}

type fakeRenderer struct {
	err error
}

func (f *fakeRenderer) RenderExplanation(_ context.Context, score int, symbols []string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return strings.Join(symbols, ","), nil
}

func (f *fakeRenderer) RenderRiskNarrative(_ context.Context, report *analysis.RiskReport) (string, error) {
	return "overall " + string(report.OverallRisk), nil
}

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error { return f.err }

type fixedScorer int

func (s fixedScorer) Score(analysis.FeatureVector) int { return int(s) }

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func demoStocks() *models.Portfolio {
	p := &models.Portfolio{
		ID:   1,
		Kind: models.KindStocks,
		Positions: []*models.Position{
			{Symbol: "AAPL", Quantity: d("10"), BuyPrice: d("150"), CurrentPrice: d("180")},
			{Symbol: "TSLA", Quantity: d("5"), BuyPrice: d("600"), CurrentPrice: d("650")},
			{Symbol: "TATASTEEL", Quantity: d("20"), BuyPrice: d("110"), CurrentPrice: d("140")},
		},
	}
	p.RecalculateProfit()
	return p
}

type testServer struct {
	handler    http.Handler
	portfolios *fakePortfolios
	alerts     *fakeAlerts
	renderer   *fakeRenderer
	wallet     *fakeWallet
	assistant  *fakeAssistant
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		portfolios: &fakePortfolios{portfolios: map[string]*models.Portfolio{models.KindStocks: demoStocks()}},
		alerts:     &fakeAlerts{},
		renderer:   &fakeRenderer{},
		wallet:     newFakeWallet(),
		assistant:  &fakeAssistant{},
	}
	h := NewHandler(Deps{
		Portfolios: ts.portfolios,
		Analyzer:   analysis.NewAnalyzer(fixedScorer(61)),
		Alerts:     ts.alerts,
		Renderer:   ts.renderer,
		Assistant:  ts.assistant,
		Wallet:     ts.wallet,
		DB:         fakePinger{},
		Log:        zerolog.Nop(),
	})
	h.now = func() time.Time { return testNow }
	ts.handler = SetupRoutes(h, metrics.New("test"), []string{"*"})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)
	rec, body := ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])

	h := NewHandler(Deps{DB: fakePinger{err: errors.New("connection refused")}, Log: zerolog.Nop()})
	rec = httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetPortfolio(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.do(t, http.MethodGet, "/api/v1/portfolios/stocks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	positions := body["portfolio"].([]any)
	assert.Len(t, positions, 3)
	assert.Equal(t, "1150", body["total_profit"])

	rec, body = ts.do(t, http.MethodGet, "/api/v1/portfolios/bonds", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestBuyAndSell(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.do(t, http.MethodPost, "/api/v1/portfolios/stocks/buy", `{"symbol":"msft","quantity":2,"price":"310.5","sector":"Tech"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Position bought", body["msg"])
	assert.Equal(t, models.TradeTypeBuy, ts.portfolios.lastReq.Side)
	assert.True(t, ts.portfolios.lastReq.Price.Equal(d("310.5")))
	assert.Equal(t, "Tech", ts.portfolios.lastReq.Sector)

	rec, body = ts.do(t, http.MethodPost, "/api/v1/portfolios/crypto/sell", `{"symbol":"BTC","quantity":0.1,"price":60000}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Position sold", body["msg"])
	assert.Equal(t, models.KindCrypto, ts.portfolios.lastReq.Kind)

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/portfolios/stocks/buy", `{"symbol":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTradeErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{portfolio.ErrPositionNotFound, http.StatusNotFound},
		{portfolio.ErrInsufficientQuantity, http.StatusBadRequest},
		{portfolio.ErrInvalidTrade, http.StatusBadRequest},
		{analysis.ErrInvalidInput, http.StatusUnprocessableEntity},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			ts := newTestServer(t)
			ts.portfolios.tradeErr = tt.err
			rec, body := ts.do(t, http.MethodPost, "/api/v1/portfolios/stocks/sell", `{"symbol":"AAPL","quantity":1,"price":1}`)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.err.Error(), body["msg"])
		})
	}
}

func TestGetTradesAndAlerts(t *testing.T) {
	ts := newTestServer(t)

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/portfolios/stocks/trades?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var trades []models.Trade
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trades))
	assert.Len(t, trades, 2)

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/portfolios/stocks/trades?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/alerts?limit=10000", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxListLimit, ts.alerts.limit)
}

func TestGetAnalysis(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.do(t, http.MethodGet, "/api/v1/portfolios/stocks/analysis?daily_pnl=-0.06", "")
	require.Equal(t, http.StatusOK, rec.Code)
	result := body["result"].(map[string]any)
	assert.Equal(t, 61.0, result["score"])
	assert.Len(t, result["alerts"], 3)
	assert.NotContains(t, body, "explanation")

	rec, body = ts.do(t, http.MethodGet, "/api/v1/portfolios/stocks/analysis?narrate=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "AAPL,TSLA,TATASTEEL", body["explanation"])
	assert.Equal(t, "overall LOW", body["risk_narrative"])

	ts.renderer.err = errors.New("provider timeout")
	rec, body = ts.do(t, http.MethodGet, "/api/v1/portfolios/stocks/analysis?narrate=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "provider timeout", body["narration_error"])
	assert.NotNil(t, body["result"])

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/portfolios/stocks/analysis?daily_pnl=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/portfolios/crypto/analysis", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetRiskAndRebalance(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.do(t, http.MethodGet, "/api/v1/portfolios/stocks/risk", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["alerts"], 2)
	assert.Len(t, body["positions"], 3)
	report := body["report"].(map[string]any)
	assert.Equal(t, "LOW", report["overall_risk"])

	rec, body = ts.do(t, http.MethodGet, "/api/v1/portfolios/crypto/risk", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, body["report"])
	assert.Empty(t, body["alerts"])

	rec, body = ts.do(t, http.MethodGet, "/api/v1/portfolios/stocks/rebalance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	suggestions := body["suggestions"].([]any)
	require.Len(t, suggestions, 3)
	first := suggestions[0].(map[string]any)
	assert.Equal(t, "AAPL", first["symbol"])
	assert.Equal(t, analysis.ActionReduce, first["action"])
}

func TestCalculators(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.do(t, http.MethodPost, "/api/v1/risk/position",
		`{"symbol":"AAPL","entry_price":100,"current_price":85,"quantity":10,"portfolio_value":10000}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIGH", body["risk_level"])

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/risk/position",
		`{"symbol":"AAPL","entry_price":100,"current_price":85,"quantity":10,"portfolio_value":0}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/risk/position",
		`{"symbol":"AAPL","entry_price":100,"current_price":100,"quantity":-5000,"portfolio_value":10000}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, body = ts.do(t, http.MethodPost, "/api/v1/risk/var",
		`{"positions":[{"symbol":"X","quantity":1000,"buy_price":100,"current_price":100}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 3290.0, body["var"], 0.001)
	assert.Equal(t, 0.95, body["confidence_level"])

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/risk/var", `{"positions":[]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, body = ts.do(t, http.MethodPost, "/api/v1/sizing", `{"portfolio_value":100000,"confidence":80,"risk_level":"HIGH"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 12000.0, body["position_size"], 0.001)

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/sizing", `{"portfolio_value":100000,"confidence":120}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCORSPreflightAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/portfolios/stocks/buy", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	ts.do(t, http.MethodGet, "/api/v1/portfolios/stocks", "")
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_http_requests_total{method="GET",route="/api/v1/portfolios/{kind}",status="200"} 1`)
}
