package log

import "smartspend/internal/core"

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldRoute         = "route"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldDurationHuman = "duration_human"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldOperation     = "operation"
	FieldTransactionID = "transaction_id"
	FieldDescription   = "description"
	FieldAmountCents   = "amount_cents"
	FieldCategory      = "category"
	FieldDate          = "date"
	FieldTone          = "tone"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentLedger   = "ledger"
	ComponentAdvisor  = "advisor"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentCache    = "cache"
	ComponentSecurity = "security"
	ComponentTemplate = "template"
)

// Operations defines standard operation names
const (
	OpCreate     = "create"
	OpDelete     = "delete"
	OpSetBudget  = "set_budget"
	OpCategorize = "categorize"
	OpAdvice     = "advice"
	OpReconcile  = "reconcile"
	OpRender     = "render"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypePersistence   = "persistence_error"
)

// Fields provides a builder for structured log attributes.
type Fields map[string]any

func NewFields() Fields {
	return make(Fields)
}

func (f Fields) WithComponent(component string) Fields {
	f[FieldComponent] = component
	return f
}

func (f Fields) WithRequestID(requestID string) Fields {
	if requestID != "" {
		f[FieldRequestID] = requestID
	}
	return f
}

func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds the identifying fields of tx. The description is
// included because the ledger is single-user and local.
func (f Fields) WithTransaction(tx core.Transaction) Fields {
	f[FieldTransactionID] = tx.ID
	f[FieldDescription] = tx.Description
	f[FieldAmountCents] = tx.Amount.Cents
	f[FieldCategory] = string(tx.Category)
	f[FieldDate] = tx.Date.String()
	return f
}

func (f Fields) WithHTTPRequest(method, path, query, userAgent string) Fields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f Fields) WithHTTPResponse(statusCode int, durationMs int64) Fields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts Fields to alternating key/value pairs for slog.
func (f Fields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
