package magister

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Client talks to a single school's Magister portal. All authenticated calls
// go through the session cookie negotiated by Login; the privilege snapshot
// taken at login gates every resource fetch before it touches the network.
type Client struct {
	school       string
	baseURL      string
	username     string
	password     string
	keepLoggedIn bool

	sessionID string
	cookie    string
	loggedIn  bool

	personID   int64
	personURL  string
	pupilURL   string
	privileges *privilegeSet

	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a client for the given school. Unless WithoutLogin is
// supplied it negotiates a session before returning, so a non-nil client is
// ready for authenticated calls.
func NewClient(ctx context.Context, school string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if school == "" {
		return nil, &ValidationError{Missing: []string{"school"}}
	}

	options := defaultClientOptions()
	for _, opt := range opts {
		opt(options)
	}

	if options.sessionID == "" && (options.username == "" || options.password == "") {
		return nil, &ValidationError{Missing: []string{"sessionID or username+password"}}
	}

	baseURL := options.baseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.magister.net", school)
	}

	client := &Client{
		school:       school,
		baseURL:      trimTrailingSlash(baseURL),
		username:     options.username,
		password:     options.password,
		keepLoggedIn: options.keepLoggedIn,
		sessionID:    options.sessionID,
		httpClient:   options.httpClient,
		logger:       logger,
	}

	if options.login {
		if _, err := client.Login(ctx, false); err != nil {
			return nil, fmt.Errorf("failed to log in to Magister: %w", err)
		}
	}

	return client, nil
}

// BaseURL returns the school's portal base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SessionID returns the current session id, if any.
func (c *Client) SessionID() string {
	return c.sessionID
}

// apiResponse is the raw result of a portal request: status, headers, and the
// undecoded body.
type apiResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// decode unmarshals the response body into v.
func (r *apiResponse) decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request carrying the current session cookie.
// Non-2xx responses are returned as *APIError with the portal's message
// extracted from the JSON body when present.
func (c *Client) doRequest(ctx context.Context, method, url string, payload any) (*apiResponse, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", url).
		Msg("Making Magister API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    portalMessage(data),
			Body:       string(data),
		}
	}

	return &apiResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// getJSON issues a GET request and decodes the JSON response into v.
func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	resp, err := c.doRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return resp.decode(v)
}

// portalMessage extracts the portal's error message from a JSON body.
func portalMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}

func trimTrailingSlash(url string) string {
	for len(url) > 0 && url[len(url)-1] == '/' {
		url = url[:len(url)-1]
	}
	return url
}

// itemsEnvelope is the uniform list wrapper the portal uses for collections.
type itemsEnvelope struct {
	Items []json.RawMessage `json:"Items"`
}

// dateFormat is the date-only format the portal expects in query parameters.
const dateFormat = "2006-01-02"

func formatDate(t time.Time) string {
	return t.Format(dateFormat)
}
