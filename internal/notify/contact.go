package notify

import "regexp"

// ContactKind classifies a raw contact string at use-time.
type ContactKind int

const (
	ContactInvalid ContactKind = iota
	ContactEmail
	ContactPhone
)

var (
	emailRe = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

// ClassifyContact reports whether a contact looks like an email address, a
// phone number, or neither. Unclassifiable contacts are skipped by callers.
func ClassifyContact(contact string) ContactKind {
	switch {
	case emailRe.MatchString(contact):
		return ContactEmail
	case phoneRe.MatchString(contact):
		return ContactPhone
	default:
		return ContactInvalid
	}
}

// IsNotifiable reports whether a contact can receive any notification at all.
func IsNotifiable(contact string) bool {
	return ClassifyContact(contact) != ContactInvalid
}
