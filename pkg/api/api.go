// Package api содержит DTO HTTP API сервера, общие для сервера и POS-клиента
package api

// Заголовки API
const (
	// SessionHeader заголовок с токеном сессии POS-терминала
	SessionHeader = "X-POS-Session"
)

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
