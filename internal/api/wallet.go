package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/portfolio-advisor/internal/models"
	"github.com/trogers1052/portfolio-advisor/internal/wallet"
)

// WalletService is the wallet behaviour the handlers need
type WalletService interface {
	User(ctx context.Context) (*models.WalletUser, error)
	Cards(ctx context.Context) ([]string, error)
	Summary(ctx context.Context, days int) (*models.WalletSummary, error)
	Monthly(ctx context.Context) ([]models.MonthlyAmount, error)
	Graph(ctx context.Context) ([]models.GraphPoint, error)
	Transactions(ctx context.Context, limit int) ([]*models.WalletTransaction, error)
	AddTransaction(ctx context.Context, req wallet.TransactionRequest) (*models.WalletTransaction, error)
	DeleteTransaction(ctx context.Context, id int) error
	Suggest(ctx context.Context, query string) (string, error)
}

type walletTransactionRequest struct {
	Type   string          `json:"type"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Date   *time.Time      `json:"date,omitempty"`
}

// GetWalletUser handles GET /wallet/user
func (h *Handler) GetWalletUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.wallet.User(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

// GetWalletCards handles GET /wallet/cards
func (h *Handler) GetWalletCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.wallet.Cards(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cards)
}

// GetWalletSummary handles GET /wallet/summary
func (h *Handler) GetWalletSummary(w http.ResponseWriter, r *http.Request) {
	days := wallet.DefaultSummaryDays
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse("days must be an integer"))
			return
		}
		days = parsed
	}

	summary, err := h.wallet.Summary(r.Context(), days)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// GetWalletMonthly handles GET /wallet/monthly
func (h *Handler) GetWalletMonthly(w http.ResponseWriter, r *http.Request) {
	totals, err := h.wallet.Monthly(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, totals)
}

// GetWalletGraph handles GET /wallet/graph
func (h *Handler) GetWalletGraph(w http.ResponseWriter, r *http.Request) {
	points, err := h.wallet.Graph(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, points)
}

// GetWalletTransactions handles GET /wallet/transactions
func (h *Handler) GetWalletTransactions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	txs, err := h.wallet.Transactions(r.Context(), limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, txs)
}

// CreateWalletTransaction handles POST /wallet/transactions
func (h *Handler) CreateWalletTransaction(w http.ResponseWriter, r *http.Request) {
	var body walletTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	req := wallet.TransactionRequest{Type: body.Type, Name: body.Name, Amount: body.Amount}
	if body.Date != nil {
		req.Date = *body.Date
	}
	t, err := h.wallet.AddTransaction(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"success": true, "msg": "Transaction added", "transaction": t})
}

// DeleteWalletTransaction handles DELETE /wallet/transactions/{id}
func (h *Handler) DeleteWalletTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse("id must be an integer"))
		return
	}

	if err := h.wallet.DeleteTransaction(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "msg": "Transaction deleted"})
}

// WalletSuggestion handles POST /wallet/ai
func (h *Handler) WalletSuggestion(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	text, err := h.wallet.Suggest(r.Context(), body.Query)
	if err != nil {
		h.respondAdviceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"response": text})
}

// GetMarketSummary handles GET /market/{market}/summary
func (h *Handler) GetMarketSummary(w http.ResponseWriter, r *http.Request) {
	if h.assistant == nil {
		respondJSON(w, http.StatusServiceUnavailable, errorResponse("assistant is not configured"))
		return
	}

	market := mux.Vars(r)["market"]
	text, err := h.assistant.MarketSummary(r.Context(), market)
	if err != nil {
		h.respondAdviceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "market": market, "summary": text})
}

// Ask handles POST /ask
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	if h.assistant == nil {
		respondJSON(w, http.StatusServiceUnavailable, errorResponse("assistant is not configured"))
		return
	}

	var body struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	text, err := h.assistant.Answer(r.Context(), body.Question)
	if err != nil {
		h.respondAdviceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"answer": text})
}

// respondAdviceError maps unclassified failures to 502 since they come from the text provider
func (h *Handler) respondAdviceError(w http.ResponseWriter, err error) {
	if statusFor(err) != http.StatusInternalServerError {
		h.respondError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordNarration(err)
	}
	h.log.Warn().Err(err).Msg("Advice provider failed")
	respondJSON(w, http.StatusBadGateway, errorResponse(err.Error()))
}
