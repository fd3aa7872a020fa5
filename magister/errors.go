package magister

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by the Magister client.
var (
	// ErrNotLoggedIn is returned when an authenticated call is made before login.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrNoSessionID is returned when no session id could be extracted from a
	// session negotiation response.
	ErrNoSessionID = errors.New("no session id in response")
)

// The portal rejects bad credentials with one of two localized messages.
// Matching is exact; any other login failure propagates unchanged.
var invalidCredentialMessages = []string{
	"Ongeldig account of verkeerde combinatie van gebruikersnaam en wachtwoord. Probeer het nog eens of neem contact op met de applicatiebeheerder van de school.",
	"Onjuiste combinatie van gebruikersnaam en wachtwoord. Controleer de gegevens en probeer het opnieuw.",
}

// AuthError indicates the portal rejected the supplied credentials.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// PermissionError indicates the current session lacks a required privilege.
// It is always returned before the corresponding network call is issued.
type PermissionError struct {
	Resource string
	Action   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("no '%s' permission on resource '%s'", e.Action, e.Resource)
}

// ValidationError indicates required fields or options are missing. It is
// returned synchronously, before any network call.
type ValidationError struct {
	Missing  []string
	Required []string
}

func (e *ValidationError) Error() string {
	if len(e.Required) > 0 {
		return fmt.Sprintf("missing required fields: %s (required: %s)",
			strings.Join(e.Missing, ", "), strings.Join(e.Required, ", "))
	}
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// DecodeError indicates the portal returned a record that is missing fields
// the model requires.
type DecodeError struct {
	Resource string
	Reason   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed %s record: %s", e.Resource, e.Reason)
}

// APIError represents a non-success response from the portal.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("portal API error: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("portal API error: status %d", e.StatusCode)
}

// IsUnauthorized checks if the error indicates an authentication failure.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// isInvalidCredentials reports whether err carries one of the portal's
// credential-rejection messages.
func isInvalidCredentials(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, msg := range invalidCredentialMessages {
		if apiErr.Message == msg {
			return true
		}
	}
	return false
}
