package shared

// DomainError represents a domain-level error.
// Code is machine readable; Message is the Portuguese text shown to staff.
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches on Code so that errors.Is works against the sentinel values below
// even when the message was customised.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns a copy of the error carrying an extra detail entry
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Code: e.Code, Message: e.Message, Details: details}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes shared across bounded contexts
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidState        = "INVALID_STATE"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeDuplicateRequest    = "DUPLICATE_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Registo não encontrado")
	ErrInvalidInput        = NewDomainError(CodeValidation, "Dados inválidos")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operação não permitida no estado atual")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "O registo foi alterado por outro utilizador, tente novamente")
	ErrDuplicateRequest    = NewDomainError(CodeDuplicateRequest, "Pedido duplicado")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Autenticação necessária")
	ErrForbidden           = NewDomainError(CodeForbidden, "Sem permissão para esta operação")
)
