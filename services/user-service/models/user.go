package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"foodshare-connect/pkg/apperror"
)

type Role string

const (
	RoleHotel     Role = "hotel"
	RoleVolunteer Role = "volunteer"
)

type Badge string

const (
	BadgeDiamond  Badge = "Diamond"
	BadgePlatinum Badge = "Platinum"
	BadgeGold     Badge = "Gold"
	BadgeSilver   Badge = "Silver"
	BadgeBronze   Badge = "Bronze"
	BadgeSpark    Badge = "Spark"
)

// User is the single account record for both hotels and volunteers.
// Role selects which conditional rules apply: hotels must carry a
// valid address and pincode, volunteers may omit both. Badge is null
// for hotels. The password hash never serializes to clients.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Role      Role               `bson:"role" json:"role"`
	Name      string             `bson:"name" json:"name"`
	Mobile    string             `bson:"mobile" json:"mobile"`
	Email     string             `bson:"email" json:"email"`
	Age       *int               `bson:"age,omitempty" json:"age,omitempty"`
	Address   string             `bson:"address,omitempty" json:"address,omitempty"`
	Pincode   string             `bson:"pincode,omitempty" json:"pincode,omitempty"`
	City      string             `bson:"city" json:"city"`
	Password  string             `bson:"password" json:"-"`
	Badge     *Badge             `bson:"badge" json:"badge"`
	Point     int                `bson:"point" json:"point"`
	NDrive    int                `bson:"ndrive" json:"ndrive"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// UserRegisteredEvent is published after a successful registration and
// consumed by the mail service for the welcome email.
type UserRegisteredEvent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterPayload is the candidate identity before validation and hashing.
// Password here is still plaintext; it is bcrypt-hashed before the record
// is built.
type RegisterPayload struct {
	Role     string `json:"role"`
	Name     string `json:"name"`
	Mobile   string `json:"mobile"`
	Email    string `json:"email"`
	Age      *int   `json:"age,omitempty"`
	Address  string `json:"address,omitempty"`
	Pincode  string `json:"pincode,omitempty"`
	City     string `json:"city"`
	Password string `json:"password"`
}

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	mobileRegex  = regexp.MustCompile(`^\d{10}$`)
	pincodeRegex = regexp.MustCompile(`^[1-9]\d{5}$`)
)

// Validate applies the role-conditional schema and returns a
// *apperror.ValidationError carrying every failing field's message.
// Address and pincode are required only for hotels, but any non-empty
// value is format-checked regardless of role.
func (p *RegisterPayload) Validate() error {
	var messages []string

	switch Role(p.Role) {
	case RoleHotel, RoleVolunteer:
	case "":
		messages = append(messages, "Please Select one Role")
	default:
		messages = append(messages, "Role must be either hotel or volunteer")
	}

	switch {
	case p.Name == "":
		messages = append(messages, "Please Provide Your Name")
	case len(p.Name) < 3:
		messages = append(messages, "Name must contain at least 3 characters")
	case len(p.Name) > 30:
		messages = append(messages, "Name cannot exceed 30 characters")
	}

	switch {
	case p.Mobile == "":
		messages = append(messages, "Please Provide Mobile no.")
	case !mobileRegex.MatchString(p.Mobile):
		messages = append(messages, "Mobile number must be 10 digits")
	}

	switch {
	case p.Email == "":
		messages = append(messages, "Please Provide Your Email")
	case !emailRegex.MatchString(p.Email):
		messages = append(messages, "Please Provide a Valid Email")
	}

	if p.Age != nil && *p.Age < 0 {
		messages = append(messages, fmt.Sprintf("%d is not a valid age", *p.Age))
	}

	if p.Address == "" {
		if Role(p.Role) == RoleHotel {
			messages = append(messages, "Please Provide Your Address")
		}
	} else if len(p.Address) < 20 || len(p.Address) > 100 {
		messages = append(messages, "Address must be between 20-100 characters")
	}

	if p.Pincode == "" {
		if Role(p.Role) == RoleHotel {
			messages = append(messages, "Please Provide Your Pincode")
		}
	} else if !pincodeRegex.MatchString(p.Pincode) {
		messages = append(messages, "Pincode must be a valid 6-digit number")
	}

	if p.City == "" {
		messages = append(messages, "Please provide a city name")
	}

	switch {
	case p.Password == "":
		messages = append(messages, "Password is Required")
	case len(p.Password) < 8:
		messages = append(messages, "Password must be at least 8 characters")
	case len(p.Password) > 32:
		messages = append(messages, "Password cannot exceed 32 characters")
	}

	if len(messages) > 0 {
		return &apperror.ValidationError{Messages: messages}
	}
	return nil
}

// NewUser builds the persisted record from a validated payload and the
// already-hashed password. Badge and point defaults are a pure function
// of role, applied once here and never re-derived.
func NewUser(p *RegisterPayload, passwordHash string) *User {
	user := &User{
		Role:     Role(p.Role),
		Name:     p.Name,
		Mobile:   p.Mobile,
		Email:    p.Email,
		Age:      p.Age,
		Address:  p.Address,
		Pincode:  p.Pincode,
		City:     strings.ToLower(p.City),
		Password: passwordHash,
	}

	if user.Role == RoleVolunteer {
		badge := BadgeSpark
		user.Badge = &badge
		user.Point = 0
	} else {
		user.Badge = nil
		user.Point = 5
	}
	user.NDrive = 0

	return user
}
