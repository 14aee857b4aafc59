package placement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/noah-isme/step-lms-api/internal/dto"
	"github.com/noah-isme/step-lms-api/internal/models"
	"github.com/noah-isme/step-lms-api/pkg/config"
)

// maxResponseBytes caps how much of a reply is read.
const maxResponseBytes = 8 << 20

const (
	pathClassesWithStudents = "/classes/with-students"
	pathUnassigned          = "/students/unassigned"
	pathFinalize            = "/students/placement/finalize"
)

// APIError is a non-2xx reply from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
	Failure *models.PlacementFailure
}

func (e *APIError) Error() string {
	if e.Failure != nil {
		return fmt.Sprintf("%s (%d): %s [student %s -> %s: %s]", e.Code, e.Status, e.Message, e.Failure.StudentID, e.Failure.ClassName, e.Failure.Reason)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

// Client talks to the placement endpoints of the API. Every path is
// resolved against the one configured base URL.
type Client struct {
	baseURL string
	token   string
	mode    models.BulkOperationMode
	http    *http.Client
}

// NewClient builds a Client from cfg. httpClient may be nil.
func NewClient(cfg config.ClientConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		mode:    models.BulkModeAtomic,
		http:    httpClient,
	}
}

// WithMode returns a copy of c that submits finalize batches in mode.
func (c *Client) WithMode(mode models.BulkOperationMode) *Client {
	cp := *c
	cp.mode = mode
	return &cp
}

// ClassesWithStudents fetches every class bucket with its roster.
func (c *Client) ClassesWithStudents(ctx context.Context) ([]models.ClassBucket, error) {
	var out []models.ClassBucket
	if err := c.do(ctx, http.MethodGet, pathClassesWithStudents, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UnassignedStudents fetches the pool of students without a section.
func (c *Client) UnassignedStudents(ctx context.Context) ([]models.Student, error) {
	var out []models.Student
	if err := c.do(ctx, http.MethodGet, pathUnassigned, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Finalize submits placements as one batch.
func (c *Client) Finalize(ctx context.Context, placements []models.PlacementItem) (*models.PlacementResult, error) {
	body := dto.FinalizePlacementRequest{Placements: placements, Mode: string(c.mode)}
	result := &models.PlacementResult{}
	if err := c.do(ctx, http.MethodPost, pathFinalize, body, result); err != nil {
		return nil, err
	}
	if result.Mode == "" {
		result.Mode = c.mode
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var (
		env       envelope
		decodeErr error
	)
	if len(bytes.TrimSpace(raw)) > 0 {
		decodeErr = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode), Message: env.Message}
		if decodeErr != nil {
			apiErr.Message = snippet(raw)
			return apiErr
		}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			if len(env.Error.Details) > 0 {
				var failure models.PlacementFailure
				if json.Unmarshal(env.Error.Details, &failure) == nil && failure.StudentID != "" {
					apiErr.Failure = &failure
				}
			}
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("decode %s: %w", path, decodeErr)
	}

	if dest != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, dest); err != nil {
			return fmt.Errorf("decode %s data: %w", path, err)
		}
	}
	return nil
}

// snippet shortens a non-JSON error body, such as a proxy error page.
func snippet(raw []byte) string {
	text := strings.Join(strings.Fields(string(raw)), " ")
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}
