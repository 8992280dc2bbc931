package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Contact is the minimal view of a Google contact the gateway needs.
type Contact struct {
	DisplayName string
	Phone       string
}

// Resolver finds a contact's phone number from a free-text query ("Mom",
// "john smith"). Implementations return (nil, nil) when nothing matches —
// callers then fall back to using the query as a raw phone number.
type Resolver interface {
	Search(ctx context.Context, cred Credential, query string) (*Contact, error)
}

// peopleResolver resolves contacts through the Google People API.
type peopleResolver struct {
	client *Client
}

// NewPeopleResolver returns a Resolver backed by the People API.
func NewPeopleResolver(client *Client) Resolver {
	return &peopleResolver{client: client}
}

func (p *peopleResolver) Search(ctx context.Context, cred Credential, query string) (*Contact, error) {
	res, err := p.client.Get(ctx, cred, "/v1/people:searchContacts", url.Values{
		"query":    {query},
		"readMask": {"names,phoneNumbers"},
	})
	if err != nil {
		return nil, fmt.Errorf("contact search: %w", err)
	}

	person := res.Get("results.0.person")
	if !person.Exists() {
		return nil, nil
	}

	contact := &Contact{
		DisplayName: person.Get("names.0.displayName").String(),
		Phone:       person.Get("phoneNumbers.0.value").String(),
	}
	if contact.DisplayName == "" {
		contact.DisplayName = query
	}
	return contact, nil
}

// contacts lists the user's address book, filtered by any search terms in the
// message. Terms shorter than three characters are ignored so "my" and "of"
// do not filter everything out.
func (r *Registry) contacts(ctx context.Context, req Request) (Payload, error) {
	res, err := r.deps.Google.Get(ctx, req.Cred, "/v1/people/me/connections", url.Values{
		"resourceName": {"people/me"},
		"pageSize":     {"1000"},
		"personFields": {"names,emailAddresses,phoneNumbers"},
	})
	if err != nil {
		return nil, err
	}

	var searchTerms []string
	for _, term := range strings.Fields(strings.ToLower(req.Message)) {
		if len(term) > 2 {
			searchTerms = append(searchTerms, term)
		}
	}

	connections := res.Get("connections").Array()
	var matched []Payload
	for _, person := range connections {
		name := person.Get("names.0.displayName").String()
		if name == "" {
			name = "Unknown"
		}
		var phones, emails []string
		for _, p := range person.Get("phoneNumbers.#.value").Array() {
			phones = append(phones, p.String())
		}
		for _, e := range person.Get("emailAddresses.#.value").Array() {
			emails = append(emails, e.String())
		}

		haystack := strings.ToLower(name + " " + strings.Join(phones, " ") + " " + strings.Join(emails, " "))
		hit := len(searchTerms) == 0
		for _, term := range searchTerms {
			if strings.Contains(haystack, term) {
				hit = true
				break
			}
		}
		if hit {
			matched = append(matched, Payload{
				"name":   name,
				"phones": phones,
				"emails": emails,
			})
		}
	}

	return Payload{
		"contacts":     matched,
		"search_terms": searchTerms,
		"total_count":  len(connections),
	}, nil
}
