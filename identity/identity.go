// Package identity looks up user profiles at the external identity provider.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/user"
)

var ErrUnknownSubject = errors.New("identity: unknown subject")

// Profile is the provider's view of an account.
type Profile struct {
	Subject   string
	FirstName string
	LastName  string
	Email     string
	ImageURL  string
}

type Provider interface {
	Profile(ctx context.Context, subject string) (*Profile, error)
}

// Clerk fetches profiles through the Clerk backend API.
type Clerk struct {
	users *user.Client
}

func NewClerk(secretKey string) *Clerk {
	config := &clerk.ClientConfig{}
	config.Key = clerk.String(secretKey)
	return &Clerk{users: user.NewClient(config)}
}

func (c *Clerk) Profile(ctx context.Context, subject string) (*Profile, error) {
	u, err := c.users.Get(ctx, subject)
	if err != nil {
		var apiErr *clerk.APIErrorResponse
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusNotFound {
			return nil, ErrUnknownSubject
		}
		return nil, fmt.Errorf("fetch clerk user: %w", err)
	}
	return profileFromUser(u), nil
}

func profileFromUser(u *clerk.User) *Profile {
	p := &Profile{
		Subject:   u.ID,
		FirstName: deref(u.FirstName),
		LastName:  deref(u.LastName),
		ImageURL:  deref(u.ImageURL),
	}
	primary := deref(u.PrimaryEmailAddressID)
	for _, e := range u.EmailAddresses {
		if e == nil {
			continue
		}
		if p.Email == "" || e.ID == primary {
			p.Email = e.EmailAddress
		}
	}
	return p
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
