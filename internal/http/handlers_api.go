package http

import (
	"net/http"

	"smartspend/internal/advisor"
	"smartspend/internal/core"
	"smartspend/internal/insights"
	"smartspend/internal/log"
)

type transactionsResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	Count        int                `json:"count"`
}

type summaryResponse struct {
	core.Summary
	Level insights.Level `json:"level"`
}

type budgetResponse struct {
	Budget core.Money `json:"budget"`
}

type categorizeResponse struct {
	Category core.Category `json:"category"`
}

type adviceResponse struct {
	advisor.Advice
	Tone     advisor.Tone `json:"tone"`
	Fallback bool         `json:"fallback"`
}

// apiListTransactions returns the collection in natural order, or newest
// date first with ?sort=date.
func (s *Server) apiListTransactions(w http.ResponseWriter, r *http.Request) {
	var txs []core.Transaction
	switch r.URL.Query().Get("sort") {
	case "", "natural":
		txs = s.ledger.List()
	case "date":
		txs = s.ledger.ByDate()
	default:
		writeJSONError(w, http.StatusBadRequest, "sort must be natural or date")
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactionsResponse{Transactions: txs, Count: len(txs)})
}

func (s *Server) apiCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.badBody(w, r, err)
		return
	}

	tx, err := s.ledger.Add(ctx, p.NewTransaction(s.today()))
	if err != nil {
		status, msg := classifyError(err)
		if status >= http.StatusInternalServerError {
			log.FromContext(ctx).ErrorContext(ctx, "Failed to add transaction",
				log.FieldOperation, log.OpCreate,
				log.FieldError, err)
		}
		writeJSONError(w, status, msg)
		return
	}

	log.FromContext(ctx).InfoContext(ctx, "Transaction created",
		log.NewFields().WithOperation(log.OpCreate).WithTransaction(tx).ToSlice()...)
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) apiDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	removed, err := s.ledger.Delete(ctx, r.PathValue("id"))
	if err != nil {
		status, msg := classifyError(err)
		writeJSONError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": removed})
}

func (s *Server) apiSummary(w http.ResponseWriter, r *http.Request) {
	summary := insights.Summarize(s.ledger.List(), s.budget.Value())
	if summary.ByCategory == nil {
		summary.ByCategory = []core.CategoryTotal{}
	}
	if summary.Recent == nil {
		summary.Recent = []core.DayTotal{}
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Summary: summary,
		Level:   insights.ProgressLevel(summary.Progress),
	})
}

func (s *Server) apiGetBudget(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, budgetResponse{Budget: s.budget.Value()})
}

func (s *Server) apiSetBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.badBody(w, r, err)
		return
	}

	budget, err := s.budget.Set(ctx, p.Get("budget"))
	if err != nil {
		status, msg := classifyError(err)
		writeJSONError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, budgetResponse{Budget: budget})
}

func (s *Server) apiCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"categories": core.CategoryNames()})
}

// apiCategorize always answers with a category. A form_id opts into the
// per-form in-flight guard.
func (s *Server) apiCategorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.badBody(w, r, err)
		return
	}

	description, amount := p.Get("description"), p.Amount()
	formID := p.Get("form_id")
	if formID == "" {
		writeJSON(w, http.StatusOK, categorizeResponse{Category: s.advisor.Categorize(ctx, description, amount)})
		return
	}

	c, err := s.advisor.CategorizeForm(ctx, formID, description, amount)
	if err != nil {
		status, msg := classifyError(err)
		writeJSONError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, categorizeResponse{Category: c})
}

const msgNoTransactions = "Add some expenses first to unlock AI advice!"

func (s *Server) apiAdvice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.badBody(w, r, err)
		return
	}

	tone, err := advisor.ParseTone(p.Get("tone"))
	if err != nil {
		status, msg := classifyError(err)
		writeJSONError(w, status, msg)
		return
	}

	txs := s.ledger.List()
	if len(txs) == 0 {
		writeJSONError(w, http.StatusUnprocessableEntity, msgNoTransactions)
		return
	}

	advice := s.advisor.GenerateAdvice(ctx, txs, s.budget.Value(), tone)
	writeJSON(w, http.StatusOK, adviceResponse{
		Advice:   advice,
		Tone:     tone,
		Fallback: advice.IsFallback(),
	})
}
