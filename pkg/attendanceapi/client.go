package attendanceapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"agro-attendance/internal/models"

	"github.com/gofiber/fiber/v2"
)

const HeaderRequestID = "X-Request-ID"

var ErrEmptyBaseURL = errors.New("attendance api base url is empty")

// BatchRequest is the single write the save endpoint receives.
type BatchRequest struct {
	Date    string                    `json:"date"`
	Records []models.AttendanceRecord `json:"records"`
}

type BatchResponse struct {
	Processed   int    `json:"processed"`
	TimeElapsed string `json:"timeElapsed"`
}

// APIError is a non-2xx answer. Message is empty when the payload carried
// no readable explanation.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("attendance api returned status %d", e.Status)
	}
	return fmt.Sprintf("attendance api returned status %d: %s", e.Status, e.Message)
}

type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details"`
}

type Client struct {
	baseURL string
	token   string
	timeout time.Duration
}

func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrEmptyBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid attendance api base url: %w", err)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		token:   token,
		timeout: timeout,
	}, nil
}

// GetAreas lists the work areas an operator can select.
func (c *Client) GetAreas(ctx context.Context) ([]models.Area, error) {
	var areas []models.Area
	if err := c.do(ctx, fiber.Get(c.url("/areas", nil)), &areas); err != nil {
		return nil, err
	}
	return areas, nil
}

// GetEmployeesByAreas loads the roster for exactly the given areas.
func (c *Client) GetEmployeesByAreas(ctx context.Context, areaIDs []uint) ([]models.AreaRoster, error) {
	ids := make([]string, 0, len(areaIDs))
	for _, id := range areaIDs {
		ids = append(ids, strconv.FormatUint(uint64(id), 10))
	}
	query := url.Values{}
	query.Set("areaIds", strings.Join(ids, ","))

	var rosters []models.AreaRoster
	if err := c.do(ctx, fiber.Get(c.url("/employees/by-areas", query)), &rosters); err != nil {
		return nil, err
	}
	return rosters, nil
}

// SaveBatch posts the whole day in one request.
func (c *Client) SaveBatch(ctx context.Context, requestID string, req BatchRequest) (*BatchResponse, error) {
	a := fiber.Post(c.url("/attendance/batch", nil))
	a.Set(HeaderRequestID, requestID)
	a.JSON(req)

	var resp BatchResponse
	if err := c.do(ctx, a, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, a *fiber.Agent, out any) error {
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(a)
		return err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if c.token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	a.Timeout(timeout)

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("attendance api request failed: %w", errors.Join(errs...))
	}

	if code < 200 || code >= 300 {
		return decodeError(code, body)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode attendance api response: %w", err)
	}
	return nil
}

func decodeError(code int, body []byte) error {
	apiErr := &APIError{Status: code}

	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			apiErr.Message = payload.Message
		case payload.Error != "":
			apiErr.Message = payload.Error
		}
		if apiErr.Message != "" && payload.Details != "" {
			apiErr.Message += ": " + payload.Details
		}
	}

	return apiErr
}
