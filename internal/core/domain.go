package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// DateLayout is the wire and storage format of a transaction date.
const DateLayout = "2006-01-02"

// MaxDescriptionLength bounds free-text transaction labels.
const MaxDescriptionLength = 200

type (
	// Date is a calendar date without time-of-day semantics, always UTC midnight.
	Date struct {
		time.Time
	}

	// Transaction is a single recorded expense.
	Transaction struct {
		ID          string   `json:"id"`
		Amount      Money    `json:"amount"`
		Description string   `json:"description"`
		Category    Category `json:"category"`
		Date        Date     `json:"date"`
	}

	// NewTransaction carries raw user input for a transaction that does not
	// exist yet. It is validated and parsed by Parse.
	NewTransaction struct {
		Amount      string
		Description string
		Category    string
		Date        string
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrLongDescription  = errors.New("description too long (max 200 characters)")
	ErrEmptyID          = errors.New("empty transaction id")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return ErrLongDescription
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	return t.Category.Validate()
}

// Parse validates raw input and returns a transaction without an ID.
// The caller assigns the ID at creation time.
func (n NewTransaction) Parse() (Transaction, error) {
	amount, err := ParseAmount(n.Amount)
	if err != nil {
		return Transaction{}, err
	}
	desc := strings.TrimSpace(n.Description)
	if desc == "" {
		return Transaction{}, ErrEmptyDescription
	}
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return Transaction{}, ErrLongDescription
	}
	cat, err := ParseCategory(n.Category)
	if err != nil {
		return Transaction{}, err
	}
	date, err := ParseDate(n.Date)
	if err != nil {
		return Transaction{}, err
	}
	if err := date.Validate(); err != nil {
		return Transaction{}, err
	}
	return Transaction{
		Amount:      amount,
		Description: desc,
		Category:    cat,
		Date:        date,
	}, nil
}
