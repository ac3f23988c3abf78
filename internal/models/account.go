// Package models contains data structures for the application's domain models.
package models

import (
	"fmt"
	"time"
)

// RoleName is a platform-wide user role.
type RoleName string

const (
	// RoleAdmin grants platform administration.
	RoleAdmin RoleName = "admin"
	// RoleUser is assigned to every account by default.
	RoleUser RoleName = "user"
)

// Valid reports whether r is a known role.
func (r RoleName) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// UserRole is a row of the platform role lookup table.
type UserRole struct {
	ID   uint     `gorm:"primaryKey" json:"id"`
	Name RoleName `gorm:"type:varchar(20);not null;uniqueIndex" json:"name"`
}

// TableName specifies the table name for GORM.
func (UserRole) TableName() string {
	return "UserRole"
}

// User is a platform account, identified by email.
type User struct {
	ID                       uint       `gorm:"primaryKey" json:"id"`
	Email                    string     `gorm:"size:254;not null;uniqueIndex" json:"email"`
	Username                 *string    `gorm:"size:150;uniqueIndex" json:"username,omitempty"`
	Password                 string     `gorm:"size:128;not null" json:"-"`
	RoleID                   *uint      `gorm:"index" json:"role_id,omitempty"`
	Role                     *UserRole  `gorm:"foreignKey:RoleID;constraint:OnDelete:SET NULL" json:"role,omitempty"`
	IsActive                 bool       `gorm:"not null" json:"is_active"`
	IsVerified               bool       `gorm:"not null;default:false" json:"is_verified"`
	DateJoined               time.Time  `gorm:"not null" json:"date_joined"`
	LastLogin                *time.Time `json:"last_login,omitempty"`
	VerificationToken        *string    `gorm:"size:64" json:"-"`
	ResetPasswordToken       *string    `gorm:"size:64" json:"-"`
	TokenExpiresAt           *time.Time `json:"-"`
	PendingEmail             *string    `gorm:"size:254" json:"pending_email,omitempty"`
	EmailChangeCode          *string    `gorm:"size:6" json:"-"`
	EmailChangeCodeExpiresAt *time.Time `json:"-"`
}

func (User) TableName() string {
	return "User"
}

// UsernameOrEmail returns the best human-readable handle for the user.
func (u *User) UsernameOrEmail() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	return u.Email
}

// Gender values accepted on profiles.
type Gender string

const (
	GenderMale           Gender = "male"
	GenderFemale         Gender = "female"
	GenderOther          Gender = "other"
	GenderPreferNotToSay Gender = "prefer_not_to_say"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderPreferNotToSay:
		return true
	}
	return false
}

// UserProfile holds personal details for a user (one per user).
type UserProfile struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	User           *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	FirstName      string     `gorm:"size:100;not null" json:"first_name"`
	LastName       string     `gorm:"size:100;not null" json:"last_name"`
	MiddleName     *string    `gorm:"size:100" json:"middle_name,omitempty"`
	Gender         *Gender    `gorm:"type:varchar(20)" json:"gender,omitempty"`
	PhoneNumber    *string    `gorm:"size:20" json:"phone_number,omitempty"`
	DateOfBirth    *time.Time `gorm:"type:date" json:"date_of_birth,omitempty"`
	Country        *string    `gorm:"size:100" json:"country,omitempty"`
	CountryFlagURL *string    `gorm:"size:200" json:"country_flag_url,omitempty"`
	ThumbnailURL   *string    `gorm:"size:200" json:"thumbnail_url,omitempty"`
	Bio            *string    `gorm:"type:text" json:"bio,omitempty"`
	About          *string    `gorm:"type:text" json:"about,omitempty"`
	Interests      []Tag      `gorm:"many2many:UserProfile_interest;constraint:OnDelete:CASCADE" json:"interests,omitempty"`
}

func (UserProfile) TableName() string {
	return "UserProfile"
}

// ProfilePicturePath is the object-storage key for a user's profile picture.
func ProfilePicturePath(userID uint, ext string) string {
	if ext == "" {
		return fmt.Sprintf("rockae_user_profile/%d", userID)
	}
	return fmt.Sprintf("rockae_user_profile/%d.%s", userID, ext)
}
