// internal/library/service.go
package library

import "context"

// Service defines the interface for the library domain service.
type Service interface {
	Login(ctx context.Context, creds Credentials) (*Reader, error)
	Register(ctx context.Context, profile Profile) (*Reader, error)
	ListReaders(ctx context.Context) ([]Reader, error)
	ListBooks(ctx context.Context) ([]Book, error)
	AddBook(ctx context.Context, book Book) error
	ListAvailableBooks(ctx context.Context) ([]Book, error)
	IssueTicket(ctx context.Context, ticket Ticket) error
	ListIssuedBooks(ctx context.Context, cardNumber int) ([]Book, error)
}
