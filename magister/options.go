package magister

import (
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	username     string
	password     string
	sessionID    string
	keepLoggedIn bool
	login        bool
	baseURL      string
	httpClient   *http.Client
}

func defaultClientOptions() *clientOptions {
	return &clientOptions{
		keepLoggedIn: true,
		login:        true,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// WithCredentials sets the username and password used for session creation.
func WithCredentials(username, password string) Option {
	return func(o *clientOptions) {
		o.username = username
		o.password = password
	}
}

// WithSessionID supplies an existing session id. Login adopts it directly
// instead of negotiating a new session.
func WithSessionID(id string) Option {
	return func(o *clientOptions) {
		o.sessionID = id
	}
}

// WithKeepLoggedIn controls the IngelogdBlijven flag sent during session
// creation. Default is true.
func WithKeepLoggedIn(keep bool) Option {
	return func(o *clientOptions) {
		o.keepLoggedIn = keep
	}
}

// WithoutLogin skips the login performed by NewClient. The caller must invoke
// Login before any authenticated operation.
func WithoutLogin() Option {
	return func(o *clientOptions) {
		o.login = false
	}
}

// WithBaseURL overrides the base URL derived from the school name.
func WithBaseURL(url string) Option {
	return func(o *clientOptions) {
		o.baseURL = url
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		o.httpClient.Timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}
