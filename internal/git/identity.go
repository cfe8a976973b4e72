package git

import (
	"time"

	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	DefaultAuthorName  = "SaveGame"
	DefaultAuthorEmail = "savegame@localhost"
)

// Identity is the author recorded on every checkpoint commit.
type Identity struct {
	Name  string
	Email string
}

// DefaultIdentity returns the identity used when none is configured.
func DefaultIdentity() Identity {
	return Identity{Name: DefaultAuthorName, Email: DefaultAuthorEmail}
}

// Signature stamps the identity with a commit time.
func (id Identity) Signature(when time.Time) *object.Signature {
	name, email := id.Name, id.Email
	if name == "" {
		name = DefaultAuthorName
	}
	if email == "" {
		email = DefaultAuthorEmail
	}
	return &object.Signature{
		Name:  name,
		Email: email,
		When:  when,
	}
}
