package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"smartspend/internal/advisor"
	"smartspend/internal/core"
	"smartspend/internal/insights"
	"smartspend/internal/log"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html", indexView{
		Today: s.today().String(),
		Field: categoryFieldView{
			Categories: core.CategoryNames(),
			Selected:   string(core.CategoryFood),
			FormID:     uuid.NewString(),
		},
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary := insights.Summarize(s.ledger.List(), s.budget.Value())
	s.render(w, r, "dashboard", newDashboardView(summary))
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "transactions", newTransactionsView(s.ledger.ByDate()))
}

func (s *Server) handleAdvisor(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "advisor", adviceView{
		Tone:    advisor.ToneSerious,
		HasData: s.ledger.Len() > 0,
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.badBody(w, r, err)
		return
	}

	tx, err := s.ledger.Add(ctx, p.NewTransaction(s.today()))
	if err != nil {
		status, msg := classifyError(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(ctx, "Failed to add transaction",
				log.FieldOperation, log.OpCreate,
				log.FieldErrorType, log.ErrorTypePersistence,
				log.FieldError, err)
		} else {
			logger.InfoContext(ctx, "Rejected transaction",
				log.FieldOperation, log.OpCreate,
				log.FieldErrorType, log.ErrorTypeValidation,
				log.FieldError, err)
		}
		ErrorResponse(status, msg).Write(w)
		return
	}

	logger.InfoContext(ctx, "Transaction created",
		log.NewFields().WithOperation(log.OpCreate).WithTransaction(tx).ToSlice()...)

	NewHTMXResponse().
		TriggerLedgerChanged(s.ledger.Len()).
		TriggerFormReset().
		TriggerSuccessNotification(fmt.Sprintf("Added %s (%s)", tx.Description, formatMoney(tx.Amount))).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	removed, err := s.ledger.Delete(ctx, id)
	if err != nil {
		status, msg := classifyError(err)
		log.FromContext(ctx).ErrorContext(ctx, "Failed to delete transaction",
			log.FieldOperation, log.OpDelete,
			log.FieldTransactionID, id,
			log.FieldError, err)
		ErrorResponse(status, msg).Write(w)
		return
	}

	b := NewHTMXResponse().TriggerLedgerChanged(s.ledger.Len())
	if removed {
		b.TriggerSuccessNotification("Transaction deleted")
	}
	// Empty body: the row is swapped out with outerHTML.
	b.Write(w)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.badBody(w, r, err)
		return
	}

	budget, err := s.budget.Set(ctx, p.Get("budget"))
	if err != nil {
		status, msg := classifyError(err)
		log.FromContext(ctx).InfoContext(ctx, "Rejected budget",
			log.FieldOperation, log.OpSetBudget,
			log.FieldError, err)
		ErrorResponse(status, msg).Write(w)
		return
	}

	display := formatMoney(budget)
	NewHTMXResponse().
		TriggerBudgetChanged(display).
		TriggerSuccessNotification("Budget set to " + display).
		Write(w)
}

// handleCategorize returns the category field with the suggestion selected.
// A blank description returns the field unchanged without asking the model.
func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.badBody(w, r, err)
		return
	}

	view := categoryFieldView{
		Categories: core.CategoryNames(),
		FormID:     p.Get("form_id"),
		Selected:   p.Get("category"),
	}
	if custom := p.Get("custom_category"); view.Selected == customCategoryValue && custom != "" {
		view.Selected = custom
	}
	description := p.Get("description")
	if description == "" {
		s.render(w, r, "category_field", view)
		return
	}

	var suggested core.Category
	if view.FormID == "" {
		suggested = s.advisor.Categorize(ctx, description, p.Amount())
	} else {
		var err error
		suggested, err = s.advisor.CategorizeForm(ctx, view.FormID, description, p.Amount())
		if errors.Is(err, advisor.ErrBusy) {
			status, msg := classifyError(err)
			NewHTMXResponse().
				Status(status).
				Header("HX-Reswap", "none").
				TriggerNotification(NotificationWarning, msg, 3000).
				Write(w)
			return
		}
	}

	view.Selected = suggested.String()
	s.respond(w, r, NewHTMXResponse().TriggerNotification(NotificationInfo, "Suggested: "+view.Selected, 2000),
		"category_field", view)
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.badBody(w, r, err)
		return
	}

	// The page defaults to the professional voice.
	raw := p.Get("tone")
	if raw == "" {
		raw = string(advisor.ToneSerious)
	}
	tone, err := advisor.ParseTone(raw)
	if err != nil {
		status, msg := classifyError(err)
		ErrorResponse(status, msg).Write(w)
		return
	}

	view := adviceView{Tone: tone}
	txs := s.ledger.List()
	if len(txs) == 0 {
		s.render(w, r, "advice_card", view)
		return
	}

	view.HasData = true
	view.Advice = s.advisor.GenerateAdvice(ctx, txs, s.budget.Value(), tone)
	view.Fallback = view.Advice.IsFallback()
	log.FromContext(ctx).InfoContext(ctx, "Advice generated",
		log.FieldOperation, log.OpAdvice,
		log.FieldTone, tone.String(),
		"fallback", view.Fallback)
	s.render(w, r, "advice_card", view)
}

func (s *Server) badBody(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusBadRequest, "Invalid request format."
	if errors.Is(err, errBodyTooLarge) {
		status, msg = http.StatusRequestEntityTooLarge, "Request too large."
	}
	log.FromContext(r.Context()).WarnContext(r.Context(), "Unreadable request body",
		log.FieldPath, r.URL.Path,
		log.FieldError, err)
	if wantsJSON(r) {
		writeJSONError(w, status, msg)
		return
	}
	ErrorResponse(status, msg).Write(w)
}
