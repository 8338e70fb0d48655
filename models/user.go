package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superAdmin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsAdmin reports whether the role may use the admin dashboard.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthID      string             `bson:"authId" json:"authId"` // identity provider subject
	FirstName   string             `bson:"firstName" json:"firstName"`
	LastName    string             `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Email       string             `bson:"email,omitempty" json:"email,omitempty"`
	ImageURL    string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	PhoneMobile string             `bson:"phoneMobile,omitempty" json:"phoneMobile,omitempty"`
	Role        Role               `bson:"role" json:"role"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProfileUpdate carries the user-editable profile fields. Empty fields are left unchanged.
type ProfileUpdate struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneMobile string `json:"phoneMobile"`
}
