package models

// ErrorResponse представляет стандартный ответ с ошибкой.
type ErrorResponse struct {
	Status string `json:"status" example:"error"`
	Error  struct {
		Code    int    `json:"code" example:"404"`
		Message string `json:"message" example:"Сессия не найдена"`
	} `json:"error"`
}

// MessageResponse представляет стандартный успешный ответ с сообщением.
type MessageResponse struct {
	Status  string `json:"status" example:"ok"`
	Message string `json:"message" example:"Session aborted"`
}

// StartSessionResponse представляет ответ при успешном запуске сессии.
type StartSessionResponse struct {
	Status  string       `json:"status" example:"ok"`
	Session *SessionInfo `json:"session"`
}

// GetSessionsResponse представляет ответ со списком сессий.
type GetSessionsResponse struct {
	Status   string         `json:"status" example:"ok"`
	Sessions []*SessionInfo `json:"sessions"`
}

// SessionStatusResponse представляет ответ со статусом одной сессии.
type SessionStatusResponse struct {
	Status  string       `json:"status" example:"ok"`
	Session *SessionInfo `json:"session"`
}

// SessionResultsResponse представляет ответ с результатами шагов сессии.
type SessionResultsResponse struct {
	Status  string        `json:"status" example:"ok"`
	Results []*StepResult `json:"results"`
}

// InstrumentStatusResponse представляет ответ со статусом инструмента.
type InstrumentStatusResponse struct {
	Status     string            `json:"status" example:"ok"`
	Instrument *InstrumentStatus `json:"instrument"`
}
