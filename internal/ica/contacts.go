package ica

import "context"

// ContactSource supplies the currently selected contacts.
type ContactSource interface {
	SelectedContacts(ctx context.Context) ([]string, error)
}

// StaticContacts is a fixed contact list.
type StaticContacts []string

// SelectedContacts returns a copy of the list.
func (s StaticContacts) SelectedContacts(context.Context) ([]string, error) {
	return append([]string(nil), s...), nil
}
