package errors

import (
	"errors"
	"fmt"
)

const (
	InternalServerError = "internal server error"
	BadRequest          = "bad request"
	NotFound            = "not_found"
	Conflict            = "conflict"

	InvalidDataCode         = 402
	NotFoundErrorCode       = 404
	ConflictErrorCode       = 409
	InternalServerErrorCode = 500
)

// AppError представляет собой стандартизированную структуру ошибки для API.
type AppError struct {
	Code         int    `json:"code"`    // HTTP статус код
	Message      string `json:"message"` // Сообщение для клиента
	Err          error  `json:"-"`       // Внутренняя ошибка, не для клиента
	IsUserFacing bool   `json:"-"`       // Флаг, указывающий, можно ли показывать `Err`
}

func (a *AppError) Error() string {
	if a == nil {
		return ""
	}
	if a.Err != nil {
		return fmt.Sprintf("%s (code: %d): %v", a.Message, a.Code, a.Err)
	}
	return fmt.Sprintf("%s (code: %d)", a.Message, a.Code)
}

// NewAppError создает новый экземпляр AppError.
func NewAppError(httpCode int, message string, err error, isUserFacing bool) *AppError {
	return &AppError{
		Code:         httpCode,
		Message:      message,
		Err:          err,
		IsUserFacing: isUserFacing,
	}
}

// Ошибки инструментального слоя. Любая из них превращается в вердикт ERROR
// текущего шага и никогда не роняет сессию целиком.
var (
	ErrInstrumentNotFound   = errors.New("instrument not found")
	ErrInstrumentConnection = errors.New("instrument connection failed")
	ErrInstrumentCommand    = errors.New("instrument command failed")
	ErrInstrumentTimeout    = errors.New("instrument operation timed out")
)

// Ошибки протокольного слоя. После CRCMismatch соединение нельзя считать
// пригодным без сброса.
var (
	ErrCRCMismatch        = errors.New("frame CRC mismatch")
	ErrUnexpectedResponse = errors.New("unexpected response frame type")
)

var (
	ErrDependency      = errors.New("unresolved step dependency")
	ErrCollaborator    = errors.New("external collaborator unavailable")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionActive   = errors.New("session already active for this serial number")
)
