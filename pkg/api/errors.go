package api

// ErrorResponse представляет ошибку в формате API
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HeaderOpID имя заголовка с идентификатором операции клиента.
// Сервер использует его для дедупликации повторно проигранных операций.
const HeaderOpID = "X-Op-ID"
