package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"budgeter/internal/core"
	"budgeter/internal/export"
	"budgeter/internal/log"
	"budgeter/internal/storage"
)

// transactionRequest is the JSON body for create and update. Amounts are
// decimal strings and must carry exactly two decimals when a point is used.
type transactionRequest struct {
	Date        string `json:"iso_date"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

type transactionResponse struct {
	ID          int64  `json:"id"`
	Date        string `json:"iso_date"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	SignedCents int64  `json:"signed_cents"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	Synced      bool   `json:"synced"`
}

func toResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Date:        tx.Date,
		Amount:      core.FormatAmount(tx.AmountCents),
		AmountCents: tx.AmountCents,
		SignedCents: tx.SignedCents(),
		Type:        string(tx.Type),
		Category:    tx.Category,
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt.UTC().Format(time.RFC3339),
		Synced:      tx.Synced,
	}
}

// draftFromRequest validates the request body into a Draft.
func (s *Server) draftFromRequest(req transactionRequest) (core.Draft, error) {
	cents, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.Draft{}, err
	}
	if cents < 0 {
		cents = -cents
	}

	d := core.Draft{
		Date:        sanitizeInput(req.Date),
		AmountCents: cents,
		Type:        core.Type(sanitizeInput(req.Type)),
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
	}
	if err := d.Validate(); err != nil {
		return core.Draft{}, err
	}

	if len(s.categories) > 0 && !s.hasCategory(d.Category) {
		return core.Draft{}, fmt.Errorf("unknown category '%s'", d.Category)
	}
	return d, nil
}

func (s *Server) hasCategory(name string) bool {
	for _, c := range s.categories {
		if c == name {
			return true
		}
	}
	return false
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	draft, err := s.draftFromRequest(req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.ledger.Add(r.Context(), draft)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Create transaction failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not store transaction")
		return
	}

	s.summaryCache.Purge()

	tx, err := s.ledger.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not read back transaction")
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(tx))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := idFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := s.ledger.Get(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not read transaction")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := idFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	draft, err := s.draftFromRequest(req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	err = s.ledger.Update(r.Context(), id, draft)
	if errors.Is(err, core.ErrNotFound) {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Update transaction failed", log.FieldTxID, id, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not update transaction")
		return
	}

	s.summaryCache.Purge()

	tx, err := s.ledger.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not read back transaction")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := idFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.ledger.Delete(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not delete transaction")
		return
	}

	s.summaryCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}

// handleClearTransactions wipes the ledger. Destructive, so the caller must
// pass confirm=true explicitly.
func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "pass confirm=true to delete all transactions")
		return
	}

	if err := s.ledger.ClearAll(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "could not clear transactions")
		return
	}

	s.summaryCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.Filter{
		Month:    q.Get("month"),
		Start:    q.Get("start"),
		End:      q.Get("end"),
		Category: q.Get("category"),
	}

	txs, err := s.ledger.List(r.Context(), filter)
	if err != nil {
		if errors.Is(err, core.ErrInvalidMonth) || errors.Is(err, core.ErrInvalidDate) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "could not list transactions")
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toResponse(tx))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": out,
		"count":        len(out),
	})
}

type budgetLineResponse struct {
	Category  string `json:"category"`
	Budget    string `json:"budget"`
	Actual    string `json:"actual"`
	Remaining string `json:"remaining"`
}

type summaryResponse struct {
	Month      string               `json:"month"`
	ByCategory map[string]string    `json:"by_category"`
	TotalCents map[string]int64     `json:"total_cents"`
	Budgets    []budgetLineResponse `json:"budgets,omitempty"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().UTC().Format("2006-01")
	}

	summary, cached := s.summaryCache.Get(month)
	if !cached {
		var err error
		summary, err = s.ledger.MonthlySummary(r.Context(), month)
		if errors.Is(err, core.ErrInvalidMonth) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not compute summary")
			return
		}
		s.summaryCache.Set(month, summary)
	}

	resp := summaryResponse{
		Month:      summary.Month,
		ByCategory: make(map[string]string, len(summary.ByCategory)),
		TotalCents: summary.ByCategory,
	}
	for cat, cents := range summary.ByCategory {
		resp.ByCategory[cat] = core.FormatAmount(cents)
	}
	if resp.TotalCents == nil {
		resp.TotalCents = map[string]int64{}
	}

	if len(s.budgets) > 0 {
		for _, line := range summary.BudgetLines(s.categories, s.budgets) {
			resp.Budgets = append(resp.Budgets, budgetLineResponse{
				Category:  line.Category,
				Budget:    core.FormatAmount(line.BudgetCents),
				Actual:    core.FormatAmount(line.ActualCents),
				Remaining: core.FormatAmount(line.RemainingCents),
			})
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": s.categories})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.List(r.Context(), storage.Filter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not list transactions")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := export.WriteCSV(w, txs); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "CSV export failed", log.FieldError, err)
	}
}

type syncResponse struct {
	Attempted int              `json:"attempted"`
	Confirmed []int64          `json:"confirmed"`
	Failures  map[int64]string `json:"failures,omitempty"`
}

// handleSync runs one sync pass on demand.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.syncEngine == nil {
		writeError(w, http.StatusServiceUnavailable, "no sync backend configured")
		return
	}

	report, err := s.syncEngine.Run(r.Context())
	if errors.Is(err, core.ErrNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, "no sync backend configured")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sync run failed")
		return
	}

	resp := syncResponse{
		Attempted: report.Attempted(),
		Confirmed: report.Confirmed,
	}
	if resp.Confirmed == nil {
		resp.Confirmed = []int64{}
	}
	if report.FailedCount() > 0 {
		resp.Failures = make(map[int64]string, report.FailedCount())
		for _, f := range report.Failures {
			resp.Failures[f.ID] = f.Err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
