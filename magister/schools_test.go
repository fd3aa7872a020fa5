package magister

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchSchools(t *testing.T) {
	var calls atomic.Int32
	var rawQuery string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/schools", r.URL.Path)
		rawQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]School{
			{ID: 1, Name: "Stedelijk Gymnasium", URL: "https://gymnasium.magister.net"},
		})
	}))
	defer server.Close()

	original := schoolsBaseURL
	schoolsBaseURL = server.URL
	defer func() { schoolsBaseURL = original }()

	t.Run("digits stripped and spaces collapsed", func(t *testing.T) {
		schools, err := SearchSchools(context.Background(), "  stedelijk   gymnasium 12 ")
		require.NoError(t, err)
		require.Len(t, schools, 1)
		assert.Equal(t, "Stedelijk Gymnasium", schools[0].Name)
		assert.Equal(t, "filter=stedelijk+gymnasium", rawQuery)
	})

	t.Run("short query resolves empty without network", func(t *testing.T) {
		before := calls.Load()
		for _, query := range []string{"", "ab", "a1234b", "  x  "} {
			schools, err := SearchSchools(context.Background(), query)
			require.NoError(t, err)
			assert.Empty(t, schools)
		}
		assert.Equal(t, before, calls.Load())
	})
}

func TestNormalizeSchoolQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"stedelijk gymnasium", "stedelijk+gymnasium"},
		{"  a  b  c  ", "a+b+c"},
		{"school2024", "school"},
		{"123", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeSchoolQuery(tt.in))
	}
}
