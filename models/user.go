package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Avatar points at an object in the R2 bucket. ObjectName is kept so
// the old object can be deleted when the avatar is replaced.
type Avatar struct {
	URL        string `bson:"url" json:"url"`
	ObjectName string `bson:"objectName" json:"-"`
}

type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string        `bson:"name" json:"name"`
	Email        string        `bson:"email" json:"email"`
	PasswordHash string        `bson:"passwordHash,omitempty" json:"-"` // never expose
	Role         Role          `bson:"role" json:"role"`
	Avatar       *Avatar       `bson:"avatar,omitempty" json:"avatar,omitempty"`
	CreatedAt    time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt" json:"updatedAt"`
}
