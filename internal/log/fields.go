package log

import (
	"time"

	"aruskas/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldErrorType  = "error_type"
	FieldSource     = "source"
	FieldRequestID  = "request_id"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldSeq        = "seq"
	FieldCategoryID = "category_id"
	FieldStartDate  = "start_date"
	FieldEndDate    = "end_date"
	FieldPage       = "page"
	FieldLimit      = "limit"
	FieldTotalPages = "total_pages"
	FieldTotalItems = "total_items"
	FieldKept       = "kept"
	FieldSkipped    = "skipped"
	FieldReason     = "reason"
	FieldTxID       = "tx_id"
	FieldIndex      = "index"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentCLI       = "cli"
	ComponentDashboard = "dashboard"
	ComponentReconcile = "reconcile"
	ComponentSource    = "source"
	ComponentHTTPAPI   = "httpapi"
	ComponentSQLite    = "sqlite"
	ComponentSheets    = "sheets"
	ComponentMemory    = "memory"
	ComponentCache     = "cache"
	ComponentAMQP      = "amqp"
	ComponentInsight   = "insight"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpFetch     = "fetch"
	OpReconcile = "reconcile"
	OpRefresh   = "refresh"
	OpMigrate   = "migrate"
	OpSeed      = "seed"
	OpConsume   = "consume"
	OpPublish   = "publish"
	OpGenerate  = "generate"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeAuth          = "auth_error"
	ErrorTypeTimeout       = "timeout_error"
	ErrorTypeStale         = "stale_response"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds the error and, when given, its category.
func (f LogFields) WithError(err error, errorType ...string) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
		if len(errorType) > 0 {
			f[FieldErrorType] = errorType[0]
		}
	}
	return f
}

// WithFilter adds the non-empty parts of a page filter.
func (f LogFields) WithFilter(filter core.Filter) LogFields {
	if filter.CategoryID != "" {
		f[FieldCategoryID] = filter.CategoryID
	}
	if filter.StartDate != "" {
		f[FieldStartDate] = filter.StartDate
	}
	if filter.EndDate != "" {
		f[FieldEndDate] = filter.EndDate
	}
	f[FieldPage] = filter.Page
	f[FieldLimit] = filter.Limit
	return f
}

func (f LogFields) WithPage(meta core.PageMetadata) LogFields {
	f[FieldPage] = meta.CurrentPage
	f[FieldTotalPages] = meta.TotalPages
	f[FieldTotalItems] = meta.TotalItems
	return f
}

func (f LogFields) WithDuration(d time.Duration) LogFields {
	f[FieldDuration] = d.Milliseconds()
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
