package xpensify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultBaseURL is the production expense service API
const DefaultBaseURL = "https://api.sadhak.sahaj.ai/xpensify"

// APIError is returned for non-2xx responses from the expense service
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("xpensify API error: %s %s (status %d): %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Client talks to the expense service REST API
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a new Client. Every request carries the bearer token and role=User.
func NewClient(baseURL, token string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

// CurrencyTypes returns all currencies known to the service
func (c *Client) CurrencyTypes(ctx context.Context) ([]Currency, error) {
	var env dataEnvelope[Currency]
	if err := c.doJSON(ctx, http.MethodGet, "/currency_types", nil, nil, &env); err != nil {
		return nil, fmt.Errorf("fetching currency types: %w", err)
	}
	return env.Data, nil
}

// ExpenseTypes returns the active expense categories
func (c *Client) ExpenseTypes(ctx context.Context) ([]ExpenseType, error) {
	query := url.Values{"is_active": {"True"}}
	var env dataEnvelope[ExpenseType]
	if err := c.doJSON(ctx, http.MethodGet, "/expense_type/", query, nil, &env); err != nil {
		return nil, fmt.Errorf("fetching expense types: %w", err)
	}
	return env.Data, nil
}

// Projects returns the timesheets the member can bill against
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var env timesheetsEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/timesheets/", nil, nil, &env); err != nil {
		return nil, fmt.Errorf("fetching projects: %w", err)
	}
	return env.TimesheetNames, nil
}

// CreateClaim creates an empty draft claim and returns its claim_pk
func (c *Client) CreateClaim(ctx context.Context) (ID, error) {
	var resp claimResponse
	if err := c.doJSON(ctx, http.MethodPost, "/claim", nil, struct{}{}, &resp); err != nil {
		return ID{}, fmt.Errorf("creating claim: %w", err)
	}
	if resp.ClaimPK.IsZero() {
		return ID{}, fmt.Errorf("creating claim: response has no claim_pk")
	}
	return resp.ClaimPK, nil
}

// UpdateClaimTitle sets the title of a claim
func (c *Client) UpdateClaimTitle(ctx context.Context, claimID ID, title string) error {
	body := map[string]string{"title": title}
	if err := c.doJSON(ctx, http.MethodPut, "/claim/"+url.PathEscape(claimID.String()), nil, body, nil); err != nil {
		return fmt.Errorf("updating claim title: %w", err)
	}
	return nil
}

// DeleteClaim removes a claim together with its expenses
func (c *Client) DeleteClaim(ctx context.Context, claimID ID) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/claim/"+url.PathEscape(claimID.String()), nil, nil, nil); err != nil {
		return fmt.Errorf("deleting claim: %w", err)
	}
	return nil
}

// CreateExpense adds an expense to a claim and returns the expense id
func (c *Client) CreateExpense(ctx context.Context, claimID ID, payload ExpensePayload) (ID, error) {
	path := fmt.Sprintf("/claim/%s/expense", url.PathEscape(claimID.String()))
	var resp expenseResponse
	if err := c.doJSON(ctx, http.MethodPost, path, nil, payload, &resp); err != nil {
		return ID{}, fmt.Errorf("creating expense: %w", err)
	}
	if resp.ID.IsZero() {
		return ID{}, fmt.Errorf("creating expense: response has no id")
	}
	return resp.ID, nil
}

// UploadBill attaches the bill file to an expense as a multipart upload
func (c *Client) UploadBill(ctx context.Context, claimID, expenseID ID, bill Bill) error {
	path := fmt.Sprintf("/claim/%s/expense/%s/bill", url.PathEscape(claimID.String()), url.PathEscape(expenseID.String()))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, bill.Filename))
	header.Set("Content-Type", bill.MimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(bill.Data); err != nil {
		return fmt.Errorf("writing form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing multipart writer: %w", err)
	}

	if err := c.do(ctx, http.MethodPost, path, nil, body, writer.FormDataContentType(), nil); err != nil {
		return fmt.Errorf("uploading bill: %w", err)
	}
	return nil
}

// doJSON encodes body (when non-nil) as JSON and decodes the response into out (when non-nil)
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, query, reader, contentType, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("role", "User")
	endpoint := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	reqID := uuid.New().String()
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	slog.Debug("xpensify request", "req_id", reqID, "method", method, "path", path)

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Error("xpensify request failed", "req_id", reqID, "method", method, "path", path, "error", err)
		return fmt.Errorf("calling xpensify API: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	slog.Debug("xpensify response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
