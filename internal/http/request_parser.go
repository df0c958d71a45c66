// Package http serves the htmx UI and the JSON API.
//
// This file holds the request body parser shared by form and JSON handlers.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"smartspend/internal/core"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 64 << 10

// customCategoryValue is the select option that reveals the free-text field.
const customCategoryValue = "__custom__"

var errBodyTooLarge = errors.New("request body too large")

// RequestBodyParser reads a JSON or form-encoded body once and exposes its
// fields uniformly.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse decodes the body as JSON when it looks like JSON or the content type
// says so, and as a form otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(trimmed, "{") || strings.Contains(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns the sanitized value of key, or "".
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// NewTransaction collects the raw transaction fields. An empty date is
// replaced by today.
func (p *RequestBodyParser) NewTransaction(today core.Date) core.NewTransaction {
	category := p.Get("category")
	if category == customCategoryValue {
		category = p.Get("custom_category")
	}
	date := p.Get("date")
	if date == "" {
		date = today.String()
	}
	return core.NewTransaction{
		Amount:      p.Get("amount"),
		Description: p.Get("description"),
		Category:    category,
		Date:        date,
	}
}

// Amount parses the amount field, treating a missing or invalid value as zero.
func (p *RequestBodyParser) Amount() core.Money {
	m, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.Money{}
	}
	return m
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
