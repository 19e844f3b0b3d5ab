package api

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/trogers1052/portfolio-advisor/internal/metrics"
)

// SetupRoutes configures all API routes. m may be nil.
func SetupRoutes(handler *Handler, m *metrics.Metrics, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	if m != nil {
		r.Use(m.Middleware)
		r.Handle("/metrics", m.Handler()).Methods("GET")
	}

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Portfolio routes
	api.HandleFunc("/portfolios/{kind}", handler.GetPortfolio).Methods("GET")
	api.HandleFunc("/portfolios/{kind}/buy", handler.Buy).Methods("POST")
	api.HandleFunc("/portfolios/{kind}/sell", handler.Sell).Methods("POST")
	api.HandleFunc("/portfolios/{kind}/trades", handler.GetTrades).Methods("GET")
	api.HandleFunc("/portfolios/{kind}/analysis", handler.GetAnalysis).Methods("GET")
	api.HandleFunc("/portfolios/{kind}/risk", handler.GetRisk).Methods("GET")
	api.HandleFunc("/portfolios/{kind}/rebalance", handler.GetRebalance).Methods("GET")
	api.HandleFunc("/portfolios/{kind}/signals", handler.GetSignals).Methods("GET")

	// Stateless calculators
	api.HandleFunc("/risk/position", handler.AssessPosition).Methods("POST")
	api.HandleFunc("/risk/var", handler.CalculateVaR).Methods("POST")
	api.HandleFunc("/sizing", handler.PositionSize).Methods("POST")

	api.HandleFunc("/alerts", handler.GetAlerts).Methods("GET")

	// Assistant
	api.HandleFunc("/market/{market}/summary", handler.GetMarketSummary).Methods("GET")
	api.HandleFunc("/ask", handler.Ask).Methods("POST")

	// Wallet routes
	api.HandleFunc("/wallet/user", handler.GetWalletUser).Methods("GET")
	api.HandleFunc("/wallet/cards", handler.GetWalletCards).Methods("GET")
	api.HandleFunc("/wallet/summary", handler.GetWalletSummary).Methods("GET")
	api.HandleFunc("/wallet/monthly", handler.GetWalletMonthly).Methods("GET")
	api.HandleFunc("/wallet/graph", handler.GetWalletGraph).Methods("GET")
	api.HandleFunc("/wallet/transactions", handler.GetWalletTransactions).Methods("GET")
	api.HandleFunc("/wallet/transactions", handler.CreateWalletTransaction).Methods("POST")
	api.HandleFunc("/wallet/transactions/{id:[0-9]+}", handler.DeleteWalletTransaction).Methods("DELETE")
	api.HandleFunc("/wallet/ai", handler.WalletSuggestion).Methods("POST")

	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	})(r)
}
