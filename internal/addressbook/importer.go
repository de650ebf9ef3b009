// ABOUTME: Address-book importer producing emergency contact candidates
// ABOUTME: Filters entries to valid name/phone pairs and imports them through the registry

package addressbook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/2389/guardian/internal/settings"
)

var (
	// ErrUnavailable is returned when no address book exists on this device
	ErrUnavailable = errors.New("address book not available")

	// ErrPermissionDenied is returned when the user refuses address-book access
	ErrPermissionDenied = errors.New("address book permission denied")

	// ErrNoCandidates is returned when no entry has a usable name and phone number
	ErrNoCandidates = errors.New("no contacts with a valid phone number")
)

// Entry is one address-book record as the device reports it.
type Entry struct {
	ID           string
	Name         string
	PhoneNumbers []string
}

// Source is the device address book.
type Source interface {
	RequestPermission(ctx context.Context) (bool, error)
	Entries(ctx context.Context) ([]Entry, error)
}

// Registry receives imported contacts. *settings.ContactRegistry satisfies it.
type Registry interface {
	Add(draft settings.ContactDraft) (settings.EmergencyContact, error)
}

// Candidate is an address-book entry that can become an emergency contact.
type Candidate struct {
	ID    string
	Name  string
	Phone string
}

// Importer loads candidates from a Source and imports them into a Registry.
type Importer struct {
	source   Source
	registry Registry
	logger   *slog.Logger
}

// NewImporter creates an importer. A nil source reports ErrUnavailable.
func NewImporter(source Source, registry Registry, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		source:   source,
		registry: registry,
		logger:   logger.With("component", "addressbook"),
	}
}

// Candidates requests permission and returns the usable entries sorted by name.
func (i *Importer) Candidates(ctx context.Context) ([]Candidate, error) {
	if i.source == nil {
		return nil, ErrUnavailable
	}

	granted, err := i.source.RequestPermission(ctx)
	if err != nil {
		return nil, fmt.Errorf("requesting address book permission: %w", err)
	}
	if !granted {
		return nil, ErrPermissionDenied
	}

	entries, err := i.source.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading address book: %w", err)
	}

	candidates := make([]Candidate, 0, len(entries))
	for _, e := range entries {
		c, ok := candidateFrom(e)
		if !ok {
			continue
		}
		candidates = append(candidates, c)
	}
	i.logger.Debug("address book loaded", "entries", len(entries), "candidates", len(candidates))

	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return candidates, nil
}

// candidateFrom only looks at the first phone number of an entry.
func candidateFrom(e Entry) (Candidate, bool) {
	name := strings.TrimSpace(e.Name)
	if name == "" || len(e.PhoneNumbers) == 0 {
		return Candidate{}, false
	}
	phone := settings.NormalizePhone(e.PhoneNumbers[0])
	if !settings.IsValidPhone(phone) {
		return Candidate{}, false
	}

	id := e.ID
	if id == "" {
		id = name + phone
	}
	return Candidate{ID: id, Name: name, Phone: phone}, true
}

// Search returns the candidates whose name contains query, ignoring case,
// or whose phone contains it. A blank query returns all candidates.
func Search(candidates []Candidate, query string) []Candidate {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return candidates
	}
	var out []Candidate
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(c.Phone, q) {
			out = append(out, c)
		}
	}
	return out
}

// Import adds c to the registry with the given relationship.
func (i *Importer) Import(c Candidate, relationship settings.Relationship) (settings.EmergencyContact, error) {
	contact, err := i.registry.Add(settings.ContactDraft{
		Name:         c.Name,
		Phone:        c.Phone,
		Relationship: relationship,
	})
	if err != nil {
		return settings.EmergencyContact{}, fmt.Errorf("importing %q: %w", c.Name, err)
	}
	i.logger.Info("contact imported", "id", contact.ID)
	return contact, nil
}
