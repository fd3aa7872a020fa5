package magister

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Course is a study enrollment (aanmelding) of the account owner.
type Course struct {
	ID    int64
	Start time.Time
	End   time.Time
	Study string
	Group string
	Year  string
}

type courseItem struct {
	ID    int64     `json:"Id"`
	Start time.Time `json:"Start"`
	End   time.Time `json:"Einde"`
	Study struct {
		Description string `json:"Omschrijving"`
	} `json:"Studie"`
	Group struct {
		Description string `json:"Omschrijving"`
	} `json:"Groep"`
	Year string `json:"Lesperiode"`
}

// decodeCourse validates and converts a raw enrollment record.
func decodeCourse(raw json.RawMessage) (Course, error) {
	var item courseItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return Course{}, &DecodeError{Resource: "course", Reason: err.Error()}
	}
	if item.ID == 0 {
		return Course{}, &DecodeError{Resource: "course", Reason: "missing Id"}
	}
	return Course{
		ID:    item.ID,
		Start: item.Start,
		End:   item.End,
		Study: item.Study.Description,
		Group: item.Group.Description,
		Year:  item.Year,
	}, nil
}

// Courses fetches the account owner's enrollments, sorted ascending by start
// date.
func (c *Client) Courses(ctx context.Context) ([]Course, error) {
	if err := c.needs("aanmeldingen", ActionRead); err != nil {
		return nil, err
	}

	var envelope itemsEnvelope
	if err := c.getJSON(ctx, c.personURL+"/aanmeldingen", &envelope); err != nil {
		return nil, fmt.Errorf("failed to get courses: %w", err)
	}

	courses := make([]Course, 0, len(envelope.Items))
	for _, raw := range envelope.Items {
		course, err := decodeCourse(raw)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}

	sort.Slice(courses, func(i, j int) bool {
		return courses[i].Start.Before(courses[j].Start)
	})

	c.logger.Debug().Int("count", len(courses)).Msg("Retrieved courses from Magister")
	return courses, nil
}
