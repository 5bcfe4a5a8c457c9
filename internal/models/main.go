// Package models defines the core data structures for users and their documents.
package models

import (
	"fmt"
	"time"
)

// MaxUsernameLen is the longest username the identity store accepts.
const MaxUsernameLen = 12

// User represents a registered portal user.
type User struct {
	// Username is the login name and primary key.
	Username string
	// Name is the display name shown after login.
	Name string
	// Email is the contact address given at registration.
	Email string
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte
}

// Category is one of the four fixed document classes.
type Category string

const (
	// Education holds diplomas, transcripts and similar records.
	Education Category = "education"
	// Health holds medical records.
	Health Category = "health"
	// Service holds employment and service records.
	Service Category = "service"
	// Transport holds licences, registrations and tickets.
	Transport Category = "transport"
)

// Categories lists every category in directory layout order.
var Categories = []Category{Education, Health, Service, Transport}

// ParseCategory converts s into a Category, rejecting anything but the four
// lowercase category names.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// String implements fmt.Stringer.
func (c Category) String() string { return string(c) }

// Document is a stored file together with its raw bytes.
type Document struct {
	ID        int64
	UserID    string
	Category  Category
	Filename  string
	Data      []byte
	CreatedAt time.Time
}

// DocumentInfo is the listing view of a document; it never carries the bytes.
type DocumentInfo struct {
	ID        int64     `json:"id"`
	Category  Category  `json:"category"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"created_at"`
}

// Info strips the payload from d.
func (d *Document) Info() DocumentInfo {
	return DocumentInfo{ID: d.ID, Category: d.Category, Filename: d.Filename, CreatedAt: d.CreatedAt}
}
