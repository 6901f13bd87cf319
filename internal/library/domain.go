// internal/library/domain.go
package library

import "errors"

// Roles a reader record can carry.
const (
	RoleReader        = "Reader"
	RoleAdministrator = "Administrator"
)

// Domain failure kinds. Call sites wrap these with the offending
// identifier so handlers can report a precise message.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrBusy     = errors.New("collection is busy")
)

// Book is a catalog entry. The code uniquely identifies a book across the
// collection; books are never updated or deleted once added.
type Book struct {
	Code       string `json:"code"`
	Author     string `json:"author"`
	Title      string `json:"name"`
	Year       int    `json:"year_publication"`
	Annotation string `json:"sign_novelty_and_annotations"`
}

// Reader is a registered library user. The card number is assigned by the
// service at registration and never changes. Login and password are only
// set for readers that can sign in by credentials.
type Reader struct {
	CardNumber int    `json:"card_number"`
	Surname    string `json:"surname"`
	Name       string `json:"name"`
	Patronymic string `json:"patronymic"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
	Login      string `json:"login,omitempty"`
	Password   string `json:"password,omitempty"`
	Role       string `json:"role"`
}

// Ticket binds a reader to a set of book codes for a date range. Dates are
// opaque caller-supplied stamps; the service stores them verbatim. A book
// code appears in at most one ticket at any time.
type Ticket struct {
	ReaderCardNumber int      `json:"reader_card_number"`
	Books            []string `json:"books"`
	DateIssue        string   `json:"date_issue"`
	DateReturn       string   `json:"date_return"`
}

// Credentials identify a reader at login: either login+password, or a bare
// card number when both credential fields are empty.
type Credentials struct {
	Login      string
	Password   string
	CardNumber int
}

// Profile carries the registration fields. The card number and, when the
// role is empty, the Reader role are assigned by the service.
type Profile struct {
	Surname    string
	Name       string
	Patronymic string
	Address    string
	Phone      string
	Login      string
	Password   string
	Role       string
}
