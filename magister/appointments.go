package magister

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// Appointment is a calendar entry on the account owner's schedule.
type Appointment struct {
	ID          int64
	Start       time.Time
	End         time.Time
	Description string
	Location    string
	Content     string
	FullDay     bool
	Type        int
	Status      int
	Subjects    []string
	Teachers    []Person
	Absence     *AbsenceInfo
	URL         string
}

// AbsenceInfo is an absence record tied to an appointment.
type AbsenceInfo struct {
	ID            int64
	AppointmentID int64
	Description   string
	Permitted     bool
	Code          string
}

type appointmentItem struct {
	ID          int64     `json:"Id"`
	Start       time.Time `json:"Start"`
	End         time.Time `json:"Einde"`
	Description string    `json:"Omschrijving"`
	Location    string    `json:"Lokatie"`
	Content     string    `json:"Inhoud"`
	FullDay     bool      `json:"DuurtHeleDag"`
	Type        int       `json:"Type"`
	Status      int       `json:"Status"`
	Subjects    []struct {
		Name string `json:"Naam"`
	} `json:"Vakken"`
	Teachers []personItem `json:"Docenten"`
}

type absenceItem struct {
	ID          int64  `json:"Id"`
	Description string `json:"Omschrijving"`
	Permitted   bool   `json:"Geoorloofd"`
	Code        string `json:"Verantwoordingtype"`
	Appointment struct {
		ID int64 `json:"Id"`
	} `json:"Afspraak"`
}

// decodeAppointment validates and converts a raw appointment record.
func decodeAppointment(raw json.RawMessage) (Appointment, error) {
	var item appointmentItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return Appointment{}, &DecodeError{Resource: "appointment", Reason: err.Error()}
	}
	if item.ID == 0 {
		return Appointment{}, &DecodeError{Resource: "appointment", Reason: "missing Id"}
	}
	if item.Start.IsZero() || item.End.IsZero() {
		return Appointment{}, &DecodeError{Resource: "appointment", Reason: "missing Start or Einde"}
	}

	appointment := Appointment{
		ID:          item.ID,
		Start:       item.Start,
		End:         item.End,
		Description: item.Description,
		Location:    item.Location,
		Content:     item.Content,
		FullDay:     item.FullDay,
		Type:        item.Type,
		Status:      item.Status,
	}
	for _, subject := range item.Subjects {
		appointment.Subjects = append(appointment.Subjects, subject.Name)
	}
	for _, teacher := range item.Teachers {
		appointment.Teachers = append(appointment.Teachers, teacher.toPerson(PersonTeacher, false))
	}
	return appointment, nil
}

// decodeAbsence validates and converts a raw absence record.
func decodeAbsence(raw json.RawMessage) (AbsenceInfo, error) {
	var item absenceItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return AbsenceInfo{}, &DecodeError{Resource: "absence", Reason: err.Error()}
	}
	if item.ID == 0 {
		return AbsenceInfo{}, &DecodeError{Resource: "absence", Reason: "missing Id"}
	}
	return AbsenceInfo{
		ID:            item.ID,
		AppointmentID: item.Appointment.ID,
		Description:   item.Description,
		Permitted:     item.Permitted,
		Code:          item.Code,
	}, nil
}

// AppointmentOptions controls an Appointments call. The zero value fetches
// absences, degrades silently when the absence fetch fails, and leaves
// teacher references unfilled.
type AppointmentOptions struct {
	// SkipAbsences suppresses the absence fetch entirely.
	SkipAbsences bool
	// StrictAbsences fails the whole call when the absence fetch fails
	// instead of returning appointments without absence links.
	StrictAbsences bool
	// FillPersons resolves every teacher reference to a fully populated
	// person record before returning.
	FillPersons bool
}

// Appointments fetches the appointments in the inclusive date range [from,
// to], with time-of-day ignored on both bounds. Unless suppressed, absence
// records over the same range are fetched concurrently and linked to their
// appointment. The result is sorted ascending by start time.
func (c *Client) Appointments(ctx context.Context, from, to time.Time, opts AppointmentOptions) ([]Appointment, error) {
	if err := c.needs("afspraken", ActionRead); err != nil {
		return nil, err
	}

	var (
		appointments []Appointment
		absences     []AbsenceInfo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		appointments, err = c.fetchAppointments(gctx, from, to)
		return err
	})
	if !opts.SkipAbsences {
		g.Go(func() error {
			fetched, err := c.Absences(gctx, from, to)
			if err != nil {
				if opts.StrictAbsences {
					return err
				}
				c.logger.Debug().Err(err).Msg("Ignoring absence fetch failure")
				return nil
			}
			absences = fetched
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	linkAbsences(appointments, absences)

	sort.Slice(appointments, func(i, j int) bool {
		return appointments[i].Start.Before(appointments[j].Start)
	})

	if opts.FillPersons {
		if err := c.fillTeachers(ctx, appointments); err != nil {
			return nil, err
		}
	}

	c.logger.Debug().Int("count", len(appointments)).Msg("Retrieved appointments from Magister")
	return appointments, nil
}

func (c *Client) fetchAppointments(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	url := fmt.Sprintf("%s/afspraken?status=1&van=%s&tot=%s", c.personURL, formatDate(from), formatDate(to))

	var envelope itemsEnvelope
	if err := c.getJSON(ctx, url, &envelope); err != nil {
		return nil, fmt.Errorf("failed to get appointments: %w", err)
	}

	appointments := make([]Appointment, 0, len(envelope.Items))
	for _, raw := range envelope.Items {
		appointment, err := decodeAppointment(raw)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}
	return appointments, nil
}

// Absences fetches the absence records in the inclusive date range [from, to].
func (c *Client) Absences(ctx context.Context, from, to time.Time) ([]AbsenceInfo, error) {
	if err := c.needs("absenties", ActionRead); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/absenties?van=%s&tot=%s", c.personURL, formatDate(from), formatDate(to))

	var envelope itemsEnvelope
	if err := c.getJSON(ctx, url, &envelope); err != nil {
		return nil, fmt.Errorf("failed to get absences: %w", err)
	}

	absences := make([]AbsenceInfo, 0, len(envelope.Items))
	for _, raw := range envelope.Items {
		absence, err := decodeAbsence(raw)
		if err != nil {
			return nil, err
		}
		absences = append(absences, absence)
	}
	return absences, nil
}

// linkAbsences attaches to each appointment at most one absence record
// sharing its appointment id.
func linkAbsences(appointments []Appointment, absences []AbsenceInfo) {
	if len(absences) == 0 {
		return
	}
	byAppointment := make(map[int64]AbsenceInfo, len(absences))
	for _, absence := range absences {
		if _, exists := byAppointment[absence.AppointmentID]; !exists {
			byAppointment[absence.AppointmentID] = absence
		}
	}
	for i := range appointments {
		if absence, ok := byAppointment[appointments[i].ID]; ok {
			linked := absence
			appointments[i].Absence = &linked
		}
	}
}

// fillTeachers resolves every teacher reference on every appointment in
// parallel and waits for all resolutions.
func (c *Client) fillTeachers(ctx context.Context, appointments []Appointment) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(10)

	for i := range appointments {
		for j := range appointments[i].Teachers {
			teacher := &appointments[i].Teachers[j]
			if teacher.Filled {
				continue
			}
			g.Go(func() error {
				filled, err := c.fillPerson(gctx, *teacher)
				if err != nil {
					return err
				}
				*teacher = filled
				return nil
			})
		}
	}

	return g.Wait()
}

// CreateAppointmentOptions describes a calendar appointment to create.
// Description, Start and End are required; with FullDay set, End is ignored
// and computed as the date-only Start plus 24 hours.
type CreateAppointmentOptions struct {
	Description string
	Start       time.Time
	End         time.Time
	FullDay     bool
	Location    string
	// Content is free-text appointment content; it is HTML-escaped before
	// submission and omitted when empty.
	Content string
}

var createAppointmentRequired = []string{"description", "start", "end"}

func (o *CreateAppointmentOptions) validate() error {
	var missing []string
	if o.Description == "" {
		missing = append(missing, "description")
	}
	if o.Start.IsZero() {
		missing = append(missing, "start")
	}
	if o.End.IsZero() {
		missing = append(missing, "end")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing, Required: createAppointmentRequired}
	}
	return nil
}

// CreateAppointment creates a personal calendar appointment and returns a
// locally constructed view of it. The canonical URL is derived from the
// response's relative location joined to the school's base URL.
func (c *Client) CreateAppointment(ctx context.Context, opts CreateAppointmentOptions) (*Appointment, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	start, end := opts.Start, opts.End
	if opts.FullDay {
		start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
		end = start.Add(24 * time.Hour)
	}

	if err := c.needs("afspraken", ActionCreate); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"Omschrijving": opts.Description,
		"Start":        start.Format(time.RFC3339),
		"Einde":        end.Format(time.RFC3339),
		"Lokatie":      opts.Location,
		"DuurtHeleDag": opts.FullDay,
		// Static fields the portal requires on personal appointments.
		"Type":         1,
		"Status":       2,
		"WeergaveType": 1,
		"InfoType":     0,
		"Vakken":       []any{},
		"Docenten":     []any{},
		"Lokalen":      []any{},
		"Groepen":      []any{},
	}
	if opts.Content != "" {
		payload["Inhoud"] = html.EscapeString(opts.Content)
		payload["InfoType"] = 6
	}

	resp, err := c.doRequest(ctx, http.MethodPost, c.personURL+"/afspraken", payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	appointment := &Appointment{
		Description: opts.Description,
		Start:       start,
		End:         end,
		Location:    opts.Location,
		Content:     opts.Content,
		FullDay:     opts.FullDay,
		Type:        1,
		Status:      2,
	}
	if location := resp.Header.Get("Location"); location != "" {
		appointment.URL = joinURL(c.baseURL, location)
	}

	c.logger.Info().Str("description", opts.Description).Time("start", start).
		Msg("Created appointment")
	return appointment, nil
}

func joinURL(base, relative string) string {
	if len(relative) > 0 && relative[0] != '/' {
		return base + "/" + relative
	}
	return base + relative
}
