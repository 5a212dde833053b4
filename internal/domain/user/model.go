package user

import "strings"

// Principal is the authenticated caller, as reported by the identity provider.
type Principal struct {
	UserID      string
	Email       string
	DisplayName string
	IsAdmin     bool
}

func (p Principal) IsAuthenticated() bool {
	return strings.TrimSpace(p.UserID) != ""
}

// AdminEmails is a case-insensitive allow list of administrator emails.
type AdminEmails map[string]struct{}

func NewAdminEmails(emails []string) AdminEmails {
	out := make(AdminEmails, len(emails))
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		out[email] = struct{}{}
	}
	return out
}

func (a AdminEmails) Contains(email string) bool {
	if len(a) == 0 {
		return false
	}
	_, ok := a[strings.ToLower(strings.TrimSpace(email))]
	return ok
}
