// Package apperror provides structured error handling for the back office.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes grouped by HTTP semantics
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Financial rule violations
	CodeMarginNotPositive = "MARGIN_NOT_POSITIVE"
	CodeInconsistentTaxes = "INCONSISTENT_TAXES"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// State conflicts (409)
	CodeConflict          = "CONFLICT"
	CodeLinkedEntry       = "LINKED_ENTRY"
	CodeGroupLocked       = "GROUP_LOCKED"
	CodePaymentNotPending = "PAYMENT_NOT_PENDING"
	CodeReceiptReferenced = "RECEIPT_REFERENCED"
	CodeQuotaExceeded     = "QUOTA_EXCEEDED"
)

// AppError is the standard error type for the platform.
// Every error carries a machine-readable code and a one-line actionable
// solution hint for the UI notification layer.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Solution is a short actionable hint shown to the user
	Solution string `json:"solution,omitempty"`

	// Details contains additional context (field errors, amounts, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithSolution sets the actionable hint
func (e *AppError) WithSolution(solution string) *AppError {
	e.Solution = solution
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		Solution:   "Revisá los datos ingresados y volvé a intentar.",
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		Solution:   "Verificá que el registro exista y que pertenezca a tu agencia.",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		Solution:   "Intentá nuevamente en unos minutos.",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewDatabase wraps a storage failure (500)
func NewDatabase(err error) *AppError {
	return &AppError{
		Code:       CodeDatabase,
		Message:    "Database operation failed",
		Solution:   "Intentá nuevamente en unos minutos.",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		Solution:   "Iniciá sesión nuevamente.",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		Solution:   "Tu rol no tiene permisos para esta operación.",
		HTTPStatus: http.StatusForbidden,
	}
}

// NewConflict creates a state-conflict error (409)
func NewConflict(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewLinkedEntry is returned when deleting a credit entry that carries a
// foreign link to another financial document.
func NewLinkedEntry(entryID any) *AppError {
	return &AppError{
		Code:       CodeLinkedEntry,
		Message:    "Credit entry is linked to another financial document",
		Solution:   "Eliminá o revertí primero el documento vinculado.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entry_id": entryID},
	}
}

// NewGroupLocked is returned for bulk operations against a locked group.
func NewGroupLocked(groupID any) *AppError {
	return &AppError{
		Code:       CodeGroupLocked,
		Message:    "Travel group is locked",
		Solution:   "Desbloqueá el grupal antes de operar sobre sus pagos.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"group_id": groupID},
	}
}

// NewPaymentNotPending is returned when a batch includes a payment that is
// no longer PENDIENTE.
func NewPaymentNotPending(paymentID any, status string) *AppError {
	return &AppError{
		Code:       CodePaymentNotPending,
		Message:    "Payment is not pending",
		Solution:   "Actualizá la lista de cuotas pendientes y repetí la cobranza.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"payment_id": paymentID, "status": status},
	}
}

// NewMarginNotPositive signals sale_price <= cost_price on a service.
func NewMarginNotPositive(sale, cost string) *AppError {
	return &AppError{
		Code:       CodeMarginNotPositive,
		Message:    "Sale price must be greater than cost price",
		Solution:   "Corregí el precio de venta o el costo del servicio.",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"sale_price": sale, "cost_price": cost},
	}
}

// NewInconsistentTaxes signals declared taxes that do not fit the cost.
func NewInconsistentTaxes(message string) *AppError {
	return &AppError{
		Code:       CodeInconsistentTaxes,
		Message:    message,
		Solution:   "Revisá los importes de IVA y exento declarados para el servicio.",
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewQuotaExceeded signals the agency storage quota was reached.
func NewQuotaExceeded(usedBytes, quotaBytes int64) *AppError {
	return &AppError{
		Code:       CodeQuotaExceeded,
		Message:    "Storage quota exceeded",
		Solution:   "Eliminá archivos que ya no uses o ampliá el plan de almacenamiento.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"used_bytes": usedBytes, "quota_bytes": quotaBytes},
	}
}

// --- Helper functions ---

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeNotFound
	}
	return false
}

// IsConflict checks if error maps to HTTP 409
func IsConflict(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus == http.StatusConflict
	}
	return false
}
