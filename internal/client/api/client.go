package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/godivatech/contentsync/pkg/api"
)

//go:generate moq -out client_mock.go . ClientAPI

// ClientAPI определяет интерфейс REST-клиента контент-эндпоинта.
// opID может быть пустым; непустое значение уходит в заголовок X-Op-ID
// и позволяет серверу дедуплицировать повторно проигранные операции.
type ClientAPI interface {
	// List возвращает все записи коллекции
	List(ctx context.Context, collection string) ([]map[string]any, error)

	// Create создает запись и возвращает её серверную форму
	Create(ctx context.Context, collection, opID string, payload map[string]any) (map[string]any, error)

	// Update обновляет запись по каноническому id
	Update(ctx context.Context, collection, id, opID string, patch map[string]any) (map[string]any, error)

	// Delete удаляет запись по каноническому id
	Delete(ctx context.Context, collection, id, opID string) error

	// Ping выполняет лёгкий round-trip для замера латентности
	Ping(ctx context.Context) (time.Duration, error)
}

// Client представляет HTTP клиент контент-эндпоинта
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
	}
}

// List возвращает все записи коллекции
func (c *Client) List(ctx context.Context, collection string) ([]map[string]any, error) {
	var resp api.ListResponse
	path := fmt.Sprintf("/api/v1/content/%s", url.PathEscape(collection))
	if err := c.doRequest(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// Create создает новую запись в коллекции
func (c *Client) Create(ctx context.Context, collection, opID string, payload map[string]any) (map[string]any, error) {
	var resp map[string]any
	path := fmt.Sprintf("/api/v1/content/%s", url.PathEscape(collection))
	if err := c.doRequest(ctx, http.MethodPost, path, opID, payload, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Update обновляет существующую запись
func (c *Client) Update(ctx context.Context, collection, id, opID string, patch map[string]any) (map[string]any, error) {
	var resp map[string]any
	path := fmt.Sprintf("/api/v1/content/%s/%s", url.PathEscape(collection), url.PathEscape(id))
	if err := c.doRequest(ctx, http.MethodPut, path, opID, patch, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Delete удаляет запись
func (c *Client) Delete(ctx context.Context, collection, id, opID string) error {
	path := fmt.Sprintf("/api/v1/content/%s/%s", url.PathEscape(collection), url.PathEscape(id))
	return c.doRequest(ctx, http.MethodDelete, path, opID, nil, nil)
}

// Ping выполняет лёгкий запрос к health-эндпоинту и возвращает латентность
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", "", nil, nil); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// doRequest выполняет HTTP запрос и классифицирует ошибки
func (c *Client) doRequest(ctx context.Context, method, path, opID string, body, result any) error {
	reqURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opID != "" {
		req.Header.Set(api.HeaderOpID, opID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Транспортная ошибка: сеть или таймаут
		return Classify(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Classify(err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Message != "" {
			return FromStatus(resp.StatusCode, errResp.Message)
		}
		return FromStatus(resp.StatusCode, string(respBody))
	}

	// Декодируем успешный ответ
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
