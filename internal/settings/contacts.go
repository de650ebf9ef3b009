// ABOUTME: Emergency contact registry layered on the settings store
// ABOUTME: Validates edits at the boundary and applies pure add/update/remove reducers

package settings

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidName is returned when a contact name has fewer than 2 characters
	ErrInvalidName = errors.New("name must be at least 2 characters")

	// ErrInvalidPhone is returned when a phone number does not have 10-15 digits
	ErrInvalidPhone = errors.New("phone number must have 10-15 digits")

	// ErrInvalidRelationship is returned for an unknown relationship
	ErrInvalidRelationship = errors.New("unknown relationship")
)

const minNameLength = 2

// ContactDraft is a contact as entered in an editor, before it has an id.
type ContactDraft struct {
	Name          string
	Phone         string
	Relationship  Relationship
	CustomMessage string
}

// Validate trims and normalizes the draft and checks it can be persisted.
func (d ContactDraft) Validate() (ContactDraft, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Phone = NormalizePhone(d.Phone)
	d.CustomMessage = strings.TrimSpace(d.CustomMessage)

	if len([]rune(d.Name)) < minNameLength {
		return d, ErrInvalidName
	}
	if !IsValidPhone(d.Phone) {
		return d, ErrInvalidPhone
	}
	if d.Relationship != "" && !d.Relationship.Valid() {
		return d, ErrInvalidRelationship
	}
	return d, nil
}

// ContactRegistry edits the emergency contact list held in the settings.
type ContactRegistry struct {
	store *Store
}

// Contacts returns the contact registry of s.
func (s *Store) Contacts() *ContactRegistry {
	return &ContactRegistry{store: s}
}

// List returns the contacts in insertion order.
func (r *ContactRegistry) List() []EmergencyContact {
	return r.store.Settings().EmergencyContacts
}

// Get returns the contact with id.
func (r *ContactRegistry) Get(id string) (EmergencyContact, bool) {
	for _, c := range r.List() {
		if c.ID == id {
			return c, true
		}
	}
	return EmergencyContact{}, false
}

// Add validates draft, assigns it a new id, and appends it. When the list
// would exceed MaxContacts the oldest entries are dropped.
func (r *ContactRegistry) Add(draft ContactDraft) (EmergencyContact, error) {
	clean, err := draft.Validate()
	if err != nil {
		return EmergencyContact{}, err
	}

	contact := EmergencyContact{
		ID:            r.store.newID(),
		Name:          clean.Name,
		Phone:         clean.Phone,
		Relationship:  clean.Relationship,
		CustomMessage: clean.CustomMessage,
	}
	r.store.Update(func(prev AppSettings) AppSettings {
		return appendContact(prev, contact)
	})
	return contact, nil
}

// Update validates contact and replaces the entry with the same id. Nothing
// happens when no entry matches.
func (r *ContactRegistry) Update(contact EmergencyContact) error {
	clean, err := ContactDraft{
		Name:          contact.Name,
		Phone:         contact.Phone,
		Relationship:  contact.Relationship,
		CustomMessage: contact.CustomMessage,
	}.Validate()
	if err != nil {
		return err
	}

	contact.Name = clean.Name
	contact.Phone = clean.Phone
	contact.CustomMessage = clean.CustomMessage
	r.store.Update(func(prev AppSettings) AppSettings {
		return replaceContact(prev, contact)
	})
	return nil
}

// Remove deletes the contact with id. Nothing happens when it is absent.
func (r *ContactRegistry) Remove(id string) {
	r.store.Update(func(prev AppSettings) AppSettings {
		return removeContact(prev, id)
	})
}

// appendContact appends c and keeps the newest MaxContacts entries.
func appendContact(prev AppSettings, c EmergencyContact) AppSettings {
	list := make([]EmergencyContact, 0, len(prev.EmergencyContacts)+1)
	list = append(list, prev.EmergencyContacts...)
	list = append(list, c)
	if len(list) > MaxContacts {
		list = list[len(list)-MaxContacts:]
	}
	prev.EmergencyContacts = list
	return prev
}

func replaceContact(prev AppSettings, c EmergencyContact) AppSettings {
	list := make([]EmergencyContact, len(prev.EmergencyContacts))
	for i, existing := range prev.EmergencyContacts {
		if existing.ID == c.ID {
			list[i] = c
		} else {
			list[i] = existing
		}
	}
	prev.EmergencyContacts = list
	return prev
}

func removeContact(prev AppSettings, id string) AppSettings {
	list := make([]EmergencyContact, 0, len(prev.EmergencyContacts))
	for _, existing := range prev.EmergencyContacts {
		if existing.ID != id {
			list = append(list, existing)
		}
	}
	prev.EmergencyContacts = list
	return prev
}
