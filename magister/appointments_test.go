package magister

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fullAccess = map[string][]string{
	"Afspraken":       {"Read", "Create"},
	"Absenties":       {"Read"},
	"Aanmeldingen":    {"Read"},
	"Berichten":       {"Read"},
	"Contactpersonen": {"Read"},
}

func appointmentJSON(id int64, description, start, end string) map[string]any {
	return map[string]any{
		"Id":           id,
		"Start":        start,
		"Einde":        end,
		"Omschrijving": description,
		"Status":       1,
		"Type":         1,
	}
}

func writeItems(w http.ResponseWriter, items ...map[string]any) {
	json.NewEncoder(w).Encode(map[string]any{"Items": items})
}

func TestAppointmentsSortedAndLinked(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/personen/1/afspraken", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2026-03-02", r.URL.Query().Get("van"))
		assert.Equal(t, "2026-03-06", r.URL.Query().Get("tot"))
		// Deliberately out of order.
		writeItems(w,
			appointmentJSON(2, "Wiskunde", "2026-03-04T10:00:00.0000000Z", "2026-03-04T11:00:00.0000000Z"),
			appointmentJSON(1, "Nederlands", "2026-03-02T08:30:00.0000000Z", "2026-03-02T09:20:00.0000000Z"),
			appointmentJSON(3, "Biologie", "2026-03-06T13:00:00.0000000Z", "2026-03-06T14:00:00.0000000Z"),
		)
	})
	mux.HandleFunc("/api/personen/1/absenties", func(w http.ResponseWriter, r *http.Request) {
		writeItems(w, map[string]any{
			"Id":           77,
			"Omschrijving": "Ziek",
			"Geoorloofd":   true,
			"Afspraak":     map[string]any{"Id": 2},
		})
	})

	client, _ := newTestClient(t, mux, fullAccess)

	from := time.Date(2026, 3, 2, 15, 42, 0, 0, time.UTC) // time of day is ignored
	to := time.Date(2026, 3, 6, 1, 0, 0, 0, time.UTC)
	appointments, err := client.Appointments(context.Background(), from, to, AppointmentOptions{})
	require.NoError(t, err)
	require.Len(t, appointments, 3)

	// Sorted ascending by start time.
	assert.Equal(t, []int64{1, 2, 3}, []int64{appointments[0].ID, appointments[1].ID, appointments[2].ID})
	for i := 1; i < len(appointments); i++ {
		assert.False(t, appointments[i].Start.Before(appointments[i-1].Start))
	}

	// Only the matching appointment carries the absence.
	assert.Nil(t, appointments[0].Absence)
	require.NotNil(t, appointments[1].Absence)
	assert.Equal(t, int64(77), appointments[1].Absence.ID)
	assert.True(t, appointments[1].Absence.Permitted)
	assert.Nil(t, appointments[2].Absence)
}

func TestAppointmentsAbsenceDegradation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/personen/1/afspraken", func(w http.ResponseWriter, r *http.Request) {
		writeItems(w, appointmentJSON(1, "Nederlands", "2026-03-02T08:30:00Z", "2026-03-02T09:20:00Z"))
	})
	mux.HandleFunc("/api/personen/1/absenties", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": "storing"})
	})

	client, _ := newTestClient(t, mux, fullAccess)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	t.Run("default degrades to no absences", func(t *testing.T) {
		appointments, err := client.Appointments(context.Background(), day, day, AppointmentOptions{})
		require.NoError(t, err)
		require.Len(t, appointments, 1)
		assert.Nil(t, appointments[0].Absence)
	})

	t.Run("strict fails the whole call", func(t *testing.T) {
		_, err := client.Appointments(context.Background(), day, day, AppointmentOptions{StrictAbsences: true})
		require.Error(t, err)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	})
}

func TestAppointmentsSkipAbsences(t *testing.T) {
	var absenceCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/personen/1/afspraken", func(w http.ResponseWriter, r *http.Request) {
		writeItems(w, appointmentJSON(1, "Nederlands", "2026-03-02T08:30:00Z", "2026-03-02T09:20:00Z"))
	})
	mux.HandleFunc("/api/personen/1/absenties", func(w http.ResponseWriter, r *http.Request) {
		absenceCalls.Add(1)
		writeItems(w)
	})

	client, _ := newTestClient(t, mux, fullAccess)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	_, err := client.Appointments(context.Background(), day, day, AppointmentOptions{SkipAbsences: true})
	require.NoError(t, err)
	assert.Equal(t, int32(0), absenceCalls.Load())
}

func TestAppointmentsPermissionCheckedBeforeNetwork(t *testing.T) {
	var calls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/personen/1/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	client, _ := newTestClient(t, mux, map[string][]string{"Berichten": {"Read"}})
	day := time.Now()

	_, err := client.Appointments(context.Background(), day, day, AppointmentOptions{})
	var permErr *PermissionError
	require.ErrorAs(t, err, &permErr)
	assert.Equal(t, "afspraken", permErr.Resource)
	assert.Equal(t, ActionRead, permErr.Action)
	assert.Equal(t, int32(0), calls.Load(), "no request may be issued without the privilege")
}

func TestCreateAppointmentValidation(t *testing.T) {
	var calls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/personen/1/afspraken", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	client, _ := newTestClient(t, mux, fullAccess)

	tests := []struct {
		name        string
		opts        CreateAppointmentOptions
		wantMissing []string
	}{
		{
			name:        "only description",
			opts:        CreateAppointmentOptions{Description: "d"},
			wantMissing: []string{"start", "end"},
		},
		{
			name:        "nothing set",
			opts:        CreateAppointmentOptions{},
			wantMissing: []string{"description", "start", "end"},
		},
		{
			name: "missing description",
			opts: CreateAppointmentOptions{
				Start: time.Now(),
				End:   time.Now().Add(time.Hour),
			},
			wantMissing: []string{"description"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.CreateAppointment(context.Background(), tt.opts)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.wantMissing, validationErr.Missing)
			assert.Equal(t, []string{"description", "start", "end"}, validationErr.Required)
		})
	}

	assert.Equal(t, int32(0), calls.Load(), "validation failures must not reach the network")
}

func TestCreateAppointmentFullDay(t *testing.T) {
	var payload map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("/api/personen/1/afspraken", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Header().Set("Location", "/api/personen/1/afspraken/9001")
		w.WriteHeader(http.StatusCreated)
	})

	client, server := newTestClient(t, mux, fullAccess)

	start := time.Date(2026, 5, 14, 9, 30, 0, 0, time.UTC)
	suppliedEnd := time.Date(2026, 5, 14, 10, 0, 0, 0, time.UTC)
	appointment, err := client.CreateAppointment(context.Background(), CreateAppointmentOptions{
		Description: "Studiedag",
		Start:       start,
		End:         suppliedEnd,
		FullDay:     true,
	})
	require.NoError(t, err)

	// Start is normalized to date-only; end is exactly 24h later, the
	// supplied end is ignored.
	assert.Equal(t, "2026-05-14T00:00:00Z", payload["Start"])
	assert.Equal(t, "2026-05-15T00:00:00Z", payload["Einde"])
	assert.Equal(t, true, payload["DuurtHeleDag"])

	wantStart := time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC)
	assert.True(t, appointment.Start.Equal(wantStart))
	assert.True(t, appointment.End.Equal(wantStart.Add(24*time.Hour)))
	assert.Equal(t, server.URL+"/api/personen/1/afspraken/9001", appointment.URL)
}

func TestCreateAppointmentContent(t *testing.T) {
	var payload map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("/api/personen/1/afspraken", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		payload = body
		w.WriteHeader(http.StatusCreated)
	})

	client, _ := newTestClient(t, mux, fullAccess)

	opts := CreateAppointmentOptions{
		Description: "Huiswerk",
		Start:       time.Date(2026, 5, 14, 9, 0, 0, 0, time.UTC),
		End:         time.Date(2026, 5, 14, 10, 0, 0, 0, time.UTC),
	}

	t.Run("content is html-escaped", func(t *testing.T) {
		withContent := opts
		withContent.Content = `hoofdstuk <3 & "4"`
		_, err := client.CreateAppointment(context.Background(), withContent)
		require.NoError(t, err)

		assert.Equal(t, "hoofdstuk &lt;3 &amp; &#34;4&#34;", payload["Inhoud"])
		assert.Equal(t, float64(6), payload["InfoType"])
	})

	t.Run("empty content is omitted", func(t *testing.T) {
		_, err := client.CreateAppointment(context.Background(), opts)
		require.NoError(t, err)

		_, present := payload["Inhoud"]
		assert.False(t, present)
		assert.Equal(t, float64(0), payload["InfoType"])
	})
}

func TestCreateAppointmentPermission(t *testing.T) {
	var calls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/personen/1/afspraken", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	client, _ := newTestClient(t, mux, map[string][]string{"Afspraken": {"Read"}})

	_, err := client.CreateAppointment(context.Background(), CreateAppointmentOptions{
		Description: "d",
		Start:       time.Now(),
		End:         time.Now().Add(time.Hour),
	})

	var permErr *PermissionError
	require.ErrorAs(t, err, &permErr)
	assert.Equal(t, ActionCreate, permErr.Action)
	assert.Equal(t, int32(0), calls.Load())
}

func TestDecodeAppointmentMalformed(t *testing.T) {
	_, err := decodeAppointment(json.RawMessage(`{"Omschrijving":"zonder id"}`))

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "appointment", decodeErr.Resource)
}
