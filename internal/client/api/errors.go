package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind категория ошибки API. Набор закрытый: каждая ошибка, которую
// видит вызывающий код, несёт ровно одну категорию.
type Kind string

// Категории ошибок
const (
	KindNetwork      Kind = "network"
	KindTimeout      Kind = "timeout"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation"
	KindRateLimit    Kind = "rate_limit"
	KindServer       Kind = "server"
	KindUnknown      Kind = "unknown"
)

// Error представляет классифицированную ошибку API-вызова
type Error struct {
	cause     error
	Kind      Kind
	Message   string
	Status    int  // HTTP статус, 0 если ответа не было
	Retryable bool // имеет ли смысл повторять вызов
}

// Error реализует error
func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("api: %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("api: %s: %s", e.Kind, e.Message)
}

// Unwrap возвращает исходную ошибку
func (e *Error) Unwrap() error {
	return e.cause
}

// FromStatus классифицирует HTTP статус в закрытую таксономию.
// 4xx не повторяются, кроме 408 и 429; 5xx повторяются.
func FromStatus(status int, message string) *Error {
	e := &Error{Status: status, Message: message}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindUnauthorized
	case status == http.StatusForbidden:
		e.Kind = KindForbidden
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusRequestTimeout:
		e.Kind = KindTimeout
		e.Retryable = true
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimit
		e.Retryable = true
	case status >= 400 && status < 500:
		e.Kind = KindValidation
	case status >= 500:
		e.Kind = KindServer
		e.Retryable = true
	default:
		e.Kind = KindUnknown
	}
	return e
}

// Classify приводит произвольную ошибку к *Error. Уже классифицированные
// ошибки возвращаются как есть; транспортные ошибки считаются сетевыми
// и повторяемыми, истечение дедлайна — таймаутом.
func Classify(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	e := &Error{cause: err, Message: err.Error()}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		e.Kind = KindTimeout
		e.Retryable = true
	case errors.Is(err, context.Canceled):
		e.Kind = KindNetwork
	case isNetError(err):
		e.Kind = KindNetwork
		e.Retryable = true
	default:
		e.Kind = KindUnknown
	}
	return e
}

// IsRetryable сообщает, можно ли повторить вызов после этой ошибки
func IsRetryable(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	return false
}

// KindOf возвращает категорию ошибки или KindUnknown
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// isNetError распознаёт транспортные ошибки net/http
func isNetError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
