package magister

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// Session ids are lowercase letters, digits and hyphens.
var sessionIDPattern = regexp.MustCompile(`[a-z0-9-]+`)

type accountResponse struct {
	Persoon struct {
		ID int64 `json:"Id"`
	} `json:"Persoon"`
	Groep []struct {
		Privileges []privilegeEntry `json:"Privileges"`
	} `json:"Groep"`
}

// Login establishes an authenticated session. With forceNew false a
// pre-supplied session id is adopted without any negotiation traffic, and
// repeated calls after a successful login return immediately. With forceNew
// true the current portal session is invalidated and a new one is created
// from the configured credentials.
//
// On success the privilege snapshot and the person-scoped URLs are
// (re)populated from the account endpoint, and the session id is returned.
func (c *Client) Login(ctx context.Context, forceNew bool) (string, error) {
	if !forceNew && c.loggedIn && c.sessionID != "" {
		return c.sessionID, nil
	}

	if forceNew || c.sessionID == "" {
		if err := c.negotiateSession(ctx); err != nil {
			return "", err
		}
	}

	// The cookie must be in place before the account fetch.
	c.cookie = fmt.Sprintf("SESSION_ID=%s; M6UserName=%s", c.sessionID, c.username)

	if err := c.fetchAccount(ctx); err != nil {
		return "", err
	}

	c.loggedIn = true
	c.logger.Debug().Str("school", c.school).Int64("person_id", c.personID).Msg("Logged in to Magister")
	return c.sessionID, nil
}

// negotiateSession invalidates any existing portal session and creates a new
// one from the configured credentials.
func (c *Client) negotiateSession(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, c.baseURL+"/api/sessies/huidige", nil)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	id, err := extractSessionID(resp.Header)
	if err != nil {
		return err
	}
	c.sessionID = id
	// Set the cookie right away so the creation request runs against the
	// fresh anonymous session.
	c.cookie = fmt.Sprintf("SESSION_ID=%s; M6UserName=%s", c.sessionID, c.username)

	payload := map[string]any{
		"Gebruikersnaam":  c.username,
		"Wachtwoord":      c.password,
		"IngelogdBlijven": c.keepLoggedIn,
	}
	resp, err = c.doRequest(ctx, http.MethodPost, c.baseURL+"/api/sessies", payload)
	if err != nil {
		if isInvalidCredentials(err) {
			return &AuthError{Message: "invalid username or password"}
		}
		return err
	}

	id, err = extractSessionID(resp.Header)
	if err != nil {
		return err
	}
	c.sessionID = id

	return nil
}

// fetchAccount loads the account owner's person id, derives the
// person-scoped URLs and snapshots the privilege list from the first group
// entry. A re-login replaces the snapshot wholesale.
func (c *Client) fetchAccount(ctx context.Context) error {
	var account accountResponse
	if err := c.getJSON(ctx, c.baseURL+"/api/account", &account); err != nil {
		return fmt.Errorf("failed to fetch account: %w", err)
	}

	c.personID = account.Persoon.ID
	c.personURL = fmt.Sprintf("%s/api/personen/%d", c.baseURL, c.personID)
	c.pupilURL = fmt.Sprintf("%s/api/leerlingen/%d", c.baseURL, c.personID)

	var privileges []privilegeEntry
	if len(account.Groep) > 0 {
		privileges = account.Groep[0].Privileges
	}
	c.privileges = newPrivilegeSet(privileges)

	return nil
}

// extractSessionID recovers the session id from the Set-Cookie headers.
func extractSessionID(header http.Header) (string, error) {
	for _, cookie := range header.Values("Set-Cookie") {
		value, ok := strings.CutPrefix(cookie, "SESSION_ID=")
		if !ok {
			continue
		}
		if id := sessionIDPattern.FindString(value); id != "" {
			return id, nil
		}
	}
	return "", ErrNoSessionID
}
