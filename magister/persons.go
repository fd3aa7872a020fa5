package magister

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

// PersonType selects which category of contact persons to search.
type PersonType string

const (
	PersonTeacher PersonType = "teacher"
	PersonPupil   PersonType = "pupil"
	PersonProject PersonType = "project"
)

// contactPersonCode maps a person type to the portal's query code.
func contactPersonCode(personType PersonType) string {
	switch personType {
	case PersonTeacher:
		return "Personeel"
	case PersonPupil:
		return "Leerling"
	case PersonProject:
		return "Project"
	default:
		return "Overig"
	}
}

// Person is a contact person known to the portal.
type Person struct {
	ID        int64
	Type      PersonType
	FirstName string
	Infix     string
	LastName  string
	FullName  string
	Code      string
	// Filled reports whether the record carries full detail. Persons
	// returned by a search are always filled; teacher references on
	// appointments are stubs until resolved.
	Filled bool
}

type personItem struct {
	ID        int64  `json:"Id"`
	FirstName string `json:"Voornaam"`
	Infix     string `json:"Tussenvoegsel"`
	LastName  string `json:"Achternaam"`
	FullName  string `json:"Naam"`
	Code      string `json:"Docentcode"`
}

func (p personItem) toPerson(personType PersonType, filled bool) Person {
	person := Person{
		ID:        p.ID,
		Type:      personType,
		FirstName: p.FirstName,
		Infix:     p.Infix,
		LastName:  p.LastName,
		FullName:  p.FullName,
		Code:      p.Code,
		Filled:    filled,
	}
	if person.FullName == "" {
		person.FullName = strings.TrimSpace(strings.Join([]string{p.FirstName, p.Infix, p.LastName}, " "))
	}
	return person
}

var spaceRuns = regexp.MustCompile(`\s+`)

// Persons searches the portal's contact persons. Queries shorter than three
// characters after trimming resolve to an empty result without any network
// call. With an empty person type, the teacher and pupil variants are fetched
// concurrently and concatenated with teacher results first.
func (c *Client) Persons(ctx context.Context, query string, personType PersonType) ([]Person, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < 3 {
		return nil, nil
	}

	if personType == "" {
		var teachers, pupils []Person

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			teachers, err = c.Persons(gctx, query, PersonTeacher)
			return err
		})
		g.Go(func() error {
			var err error
			pupils, err = c.Persons(gctx, query, PersonPupil)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		return append(teachers, pupils...), nil
	}

	if err := c.needs("contactpersonen", ActionRead); err != nil {
		return nil, err
	}

	searchURL := fmt.Sprintf("%s/contactpersonen?contactPersoonType=%s&q=%s",
		c.personURL, contactPersonCode(personType), spaceRuns.ReplaceAllString(query, "+"))

	var envelope struct {
		Items []personItem `json:"Items"`
	}
	if err := c.getJSON(ctx, searchURL, &envelope); err != nil {
		return nil, fmt.Errorf("failed to search persons: %w", err)
	}

	persons := make([]Person, 0, len(envelope.Items))
	for _, item := range envelope.Items {
		// Search results carry full detail, so on-demand enrichment is
		// never needed for them.
		persons = append(persons, item.toPerson(personType, true))
	}

	c.logger.Debug().Str("query", query).Str("type", string(personType)).
		Int("count", len(persons)).Msg("Retrieved persons from Magister")
	return persons, nil
}

// fillPerson resolves a stub person reference to a fully populated record.
// When the search returns nothing usable the stub is returned unchanged.
func (c *Client) fillPerson(ctx context.Context, person Person) (Person, error) {
	query := person.FullName
	if query == "" {
		query = person.Code
	}

	matches, err := c.Persons(ctx, query, person.Type)
	if err != nil {
		return Person{}, err
	}
	for _, match := range matches {
		if match.ID == person.ID || person.ID == 0 {
			return match, nil
		}
	}
	return person, nil
}
