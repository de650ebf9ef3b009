// ABOUTME: TOML-file address book used as the contact import source
// ABOUTME: Parses [[contact]] tables with a name and a list of phone numbers

package platform

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/2389/guardian/internal/addressbook"
)

type addressBookFile struct {
	Contacts []addressBookContact `toml:"contact"`
}

type addressBookContact struct {
	ID           string   `toml:"id"`
	Name         string   `toml:"name"`
	PhoneNumbers []string `toml:"phone_numbers"`
}

// FileAddressBook implements addressbook.Source over a TOML file:
//
//	[[contact]]
//	name = "Maria Lopez"
//	phone_numbers = ["(919) 555-1234"]
type FileAddressBook struct {
	path string
}

// NewFileAddressBook creates a source reading path on every listing.
func NewFileAddressBook(path string) *FileAddressBook {
	return &FileAddressBook{path: path}
}

// RequestPermission grants access whenever a file is configured.
func (b *FileAddressBook) RequestPermission(context.Context) (bool, error) {
	return b.path != "", nil
}

// Entries parses the file.
func (b *FileAddressBook) Entries(context.Context) ([]addressbook.Entry, error) {
	var file addressBookFile
	md, err := toml.DecodeFile(b.path, &file)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", addressbook.ErrUnavailable, b.path)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing address book %s: %w", b.path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing address book %s: unknown keys %v", b.path, undecoded)
	}

	entries := make([]addressbook.Entry, 0, len(file.Contacts))
	for _, c := range file.Contacts {
		entries = append(entries, addressbook.Entry{
			ID:           c.ID,
			Name:         c.Name,
			PhoneNumbers: c.PhoneNumbers,
		})
	}
	return entries, nil
}
