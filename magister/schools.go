package magister

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// The school lookup is a public endpoint shared by all schools.
var schoolsBaseURL = "https://mijn.magister.net"

// School is an entry from the public school lookup.
type School struct {
	ID   int64  `json:"Id"`
	Name string `json:"Naam"`
	URL  string `json:"Url"`
}

// SearchSchools looks up schools by name against the public school endpoint.
// No session is required. Digits are stripped from the query and queries
// shorter than three characters after normalization resolve to an empty
// result without any network call.
func SearchSchools(ctx context.Context, query string) ([]School, error) {
	normalized := normalizeSchoolQuery(query)
	if len(normalized) < 3 {
		return nil, nil
	}

	requestURL := fmt.Sprintf("%s/api/schools?filter=%s", schoolsBaseURL, normalized)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    portalMessage(body),
			Body:       string(body),
		}
	}

	var schools []School
	if err := json.NewDecoder(resp.Body).Decode(&schools); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return schools, nil
}

// normalizeSchoolQuery strips digits, trims, and collapses space runs to a
// single "+".
func normalizeSchoolQuery(query string) string {
	var b strings.Builder
	for _, r := range query {
		if r < '0' || r > '9' {
			b.WriteRune(r)
		}
	}
	return spaceRuns.ReplaceAllString(strings.TrimSpace(b.String()), "+")
}
