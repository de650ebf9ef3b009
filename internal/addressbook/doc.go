// Package addressbook lets a user pick an emergency contact from the device
// address book instead of typing it.
//
// An Importer asks the Source for permission, lists its entries, and keeps
// only those with a non-blank name and a first phone number that normalizes
// to a valid number. Search narrows the candidates by a case-insensitive
// name substring or a phone substring. Import hands the chosen candidate to
// the contact registry, which validates and stores it like a typed entry.
package addressbook
