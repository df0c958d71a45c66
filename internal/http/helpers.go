package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"smartspend/internal/advisor"
	"smartspend/internal/core"
	"smartspend/internal/ledger"
)

// formatMoney renders an amount as dollars with thousands separators
// ("$1,234.50").
func formatMoney(m core.Money) string {
	s := m.String()
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteByte('$')
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims surrounding whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// classifyError maps domain errors to a status code and a message that is
// safe to show to the user.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, "Please enter a valid, non-negative amount."
	case errors.Is(err, core.ErrEmptyDescription):
		return http.StatusUnprocessableEntity, "Please enter a description."
	case errors.Is(err, core.ErrLongDescription):
		return http.StatusUnprocessableEntity, "Description is too long (max 200 characters)."
	case errors.Is(err, core.ErrEmptyCategory):
		return http.StatusUnprocessableEntity, "Please choose a category."
	case errors.Is(err, core.ErrLongCategory):
		return http.StatusUnprocessableEntity, "Category is too long (max 40 characters)."
	case errors.Is(err, core.ErrInvalidDate):
		return http.StatusUnprocessableEntity, "Please enter a valid date (YYYY-MM-DD)."
	case errors.Is(err, core.ErrEmptyID):
		return http.StatusBadRequest, "Missing transaction id."
	case errors.Is(err, ledger.ErrInvalidBudget):
		return http.StatusUnprocessableEntity, "Budget must be a non-negative number."
	case errors.Is(err, advisor.ErrInvalidTone):
		return http.StatusUnprocessableEntity, "Tone must be funny or serious."
	case errors.Is(err, advisor.ErrBusy):
		return http.StatusConflict, "A suggestion is already being prepared for this form."
	case errors.Is(err, ledger.ErrPersist):
		return http.StatusInternalServerError, "Could not save your changes. Please try again."
	default:
		return http.StatusInternalServerError, "Something went wrong."
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}

// wantsJSON reports whether r targets the JSON API.
func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}
