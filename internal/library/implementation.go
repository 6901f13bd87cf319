// internal/library/implementation.go
package library

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"bibliotek/internal/jsonstore"
)

// Collection names under the store's data directory.
const (
	booksCollection   = "books"
	readersCollection = "readers"
	ticketsCollection = "tickets"
)

// service implements the Service interface over a jsonstore.Store.
//
// Every mutation is a read-validate-write cycle over a whole collection, so
// writers to the same collection are serialized by a per-collection lock.
// Ticket issuance holds the ticket lock across the availability check and
// the append; otherwise two concurrent calls could both see a book as free.
// Pure reads take no lock: a loaded collection is a consistent snapshot.
type service struct {
	store       *jsonstore.Store
	bookLock    *semaphore.Weighted
	readerLock  *semaphore.Weighted
	ticketLock  *semaphore.Weighted
	lockTimeout time.Duration
	tracer      trace.Tracer
	log         zerolog.Logger
}

// NewService creates a new library service instance. lockTimeout bounds how
// long a mutation waits for its collection's write lock before failing with
// ErrBusy.
func NewService(store *jsonstore.Store, lockTimeout time.Duration, log zerolog.Logger) Service {
	return &service{
		store:       store,
		bookLock:    semaphore.NewWeighted(1),
		readerLock:  semaphore.NewWeighted(1),
		ticketLock:  semaphore.NewWeighted(1),
		lockTimeout: lockTimeout,
		tracer:      otel.Tracer("bibliotek/library"),
		log:         log,
	}
}

// acquire takes a collection write lock, waiting at most lockTimeout.
func (s *service) acquire(ctx context.Context, lock *semaphore.Weighted) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	if err := lock.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire write lock: %w", ErrBusy)
	}
	return func() { lock.Release(1) }, nil
}

func (s *service) loadBooks() ([]Book, error) {
	var books []Book
	if err := s.store.Load(booksCollection, &books); err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	return books, nil
}

func (s *service) loadReaders() ([]Reader, error) {
	var readers []Reader
	if err := s.store.Load(readersCollection, &readers); err != nil {
		return nil, fmt.Errorf("load readers: %w", err)
	}
	return readers, nil
}

func (s *service) loadTickets() ([]Ticket, error) {
	var tickets []Ticket
	if err := s.store.Load(ticketsCollection, &tickets); err != nil {
		return nil, fmt.Errorf("load tickets: %w", err)
	}
	return tickets, nil
}

// Login matches a reader by login+password when both are given, otherwise
// by card number. First match wins.
func (s *service) Login(ctx context.Context, creds Credentials) (*Reader, error) {
	_, span := s.tracer.Start(ctx, "library.login")
	defer span.End()

	readers, err := s.loadReaders()
	if err != nil {
		return nil, err
	}

	switch {
	case creds.Login != "" && creds.Password != "":
		for i := range readers {
			if readers[i].Login == creds.Login && readers[i].Password == creds.Password {
				return &readers[i], nil
			}
		}
	case creds.CardNumber != 0:
		for i := range readers {
			if readers[i].CardNumber == creds.CardNumber {
				return &readers[i], nil
			}
		}
	}

	return nil, fmt.Errorf("no reader matches the credentials: %w", ErrNotFound)
}

// Register appends a new reader with the next free card number. A phone
// number already held by any existing reader is a conflict.
func (s *service) Register(ctx context.Context, profile Profile) (*Reader, error) {
	ctx, span := s.tracer.Start(ctx, "library.register")
	defer span.End()

	release, err := s.acquire(ctx, s.readerLock)
	if err != nil {
		return nil, err
	}
	defer release()

	readers, err := s.loadReaders()
	if err != nil {
		return nil, err
	}

	for i := range readers {
		if readers[i].Phone == profile.Phone {
			return nil, fmt.Errorf("a reader with phone %s already exists: %w", profile.Phone, ErrConflict)
		}
	}

	role := profile.Role
	if role == "" {
		role = RoleReader
	}

	reader := Reader{
		CardNumber: nextCardNumber(readers),
		Surname:    profile.Surname,
		Name:       profile.Name,
		Patronymic: profile.Patronymic,
		Address:    profile.Address,
		Phone:      profile.Phone,
		Login:      profile.Login,
		Password:   profile.Password,
		Role:       role,
	}
	span.SetAttributes(attribute.Int("reader.card_number", reader.CardNumber))

	readers = append(readers, reader)
	if err := s.store.Save(readersCollection, readers); err != nil {
		return nil, fmt.Errorf("save readers: %w", err)
	}

	s.log.Info().Int("card_number", reader.CardNumber).Msg("reader registered")
	return &reader, nil
}

// nextCardNumber assigns max existing + 1, or 1 for an empty collection.
func nextCardNumber(readers []Reader) int {
	next := 1
	for i := range readers {
		if readers[i].CardNumber >= next {
			next = readers[i].CardNumber + 1
		}
	}
	return next
}

// ListReaders returns every reader whose role is Reader; administrators are
// excluded from this view.
func (s *service) ListReaders(ctx context.Context) ([]Reader, error) {
	_, span := s.tracer.Start(ctx, "library.list_readers")
	defer span.End()

	readers, err := s.loadReaders()
	if err != nil {
		return nil, err
	}

	filtered := make([]Reader, 0, len(readers))
	for i := range readers {
		if readers[i].Role == RoleReader {
			filtered = append(filtered, readers[i])
		}
	}
	return filtered, nil
}

// ListBooks returns the whole catalog in stored order.
func (s *service) ListBooks(ctx context.Context) ([]Book, error) {
	_, span := s.tracer.Start(ctx, "library.list_books")
	defer span.End()

	return s.loadBooks()
}

// AddBook appends a book to the catalog. A duplicate code is a conflict.
func (s *service) AddBook(ctx context.Context, book Book) error {
	ctx, span := s.tracer.Start(ctx, "library.add_book",
		trace.WithAttributes(attribute.String("book.code", book.Code)))
	defer span.End()

	release, err := s.acquire(ctx, s.bookLock)
	if err != nil {
		return err
	}
	defer release()

	books, err := s.loadBooks()
	if err != nil {
		return err
	}

	for i := range books {
		if books[i].Code == book.Code {
			return fmt.Errorf("a book with code %s already exists: %w", book.Code, ErrConflict)
		}
	}

	books = append(books, book)
	if err := s.store.Save(booksCollection, books); err != nil {
		return fmt.Errorf("save books: %w", err)
	}

	s.log.Info().Str("code", book.Code).Msg("book added to the catalog")
	return nil
}

// busySet collects every book code bound by any ticket.
func busySet(tickets []Ticket) map[string]struct{} {
	busy := make(map[string]struct{})
	for i := range tickets {
		for _, code := range tickets[i].Books {
			busy[code] = struct{}{}
		}
	}
	return busy
}

// ListAvailableBooks returns every book whose code is in no ticket. The
// busy set is recomputed from the ticket collection on every call.
func (s *service) ListAvailableBooks(ctx context.Context) ([]Book, error) {
	_, span := s.tracer.Start(ctx, "library.list_available_books")
	defer span.End()

	books, err := s.loadBooks()
	if err != nil {
		return nil, err
	}
	tickets, err := s.loadTickets()
	if err != nil {
		return nil, err
	}

	busy := busySet(tickets)
	available := make([]Book, 0, len(books))
	for i := range books {
		if _, taken := busy[books[i].Code]; !taken {
			available = append(available, books[i])
		}
	}
	return available, nil
}

// IssueTicket validates and appends a ticket. Gates run in order and
// short-circuit: the reader must exist, every book code must exist, and no
// code may already be bound by another ticket. The ticket record, dates
// included, is stored verbatim.
func (s *service) IssueTicket(ctx context.Context, ticket Ticket) error {
	ctx, span := s.tracer.Start(ctx, "library.issue_ticket",
		trace.WithAttributes(
			attribute.Int("ticket.reader_card_number", ticket.ReaderCardNumber),
			attribute.Int("ticket.book_count", len(ticket.Books)),
		))
	defer span.End()

	release, err := s.acquire(ctx, s.ticketLock)
	if err != nil {
		return err
	}
	defer release()

	readers, err := s.loadReaders()
	if err != nil {
		return err
	}
	readerExists := false
	for i := range readers {
		if readers[i].CardNumber == ticket.ReaderCardNumber {
			readerExists = true
			break
		}
	}
	if !readerExists {
		return fmt.Errorf("no reader holds card number %d: %w", ticket.ReaderCardNumber, ErrNotFound)
	}

	books, err := s.loadBooks()
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(books))
	for i := range books {
		known[books[i].Code] = struct{}{}
	}
	for _, code := range ticket.Books {
		if _, ok := known[code]; !ok {
			return fmt.Errorf("book with code %s does not exist in the library: %w", code, ErrNotFound)
		}
	}

	tickets, err := s.loadTickets()
	if err != nil {
		return err
	}
	busy := busySet(tickets)
	for _, code := range ticket.Books {
		if _, taken := busy[code]; taken {
			return fmt.Errorf("book with code %s is already issued to another reader: %w", code, ErrConflict)
		}
	}

	tickets = append(tickets, ticket)
	if err := s.store.Save(ticketsCollection, tickets); err != nil {
		return fmt.Errorf("save tickets: %w", err)
	}

	s.log.Info().
		Int("card_number", ticket.ReaderCardNumber).
		Strs("books", ticket.Books).
		Msg("ticket issued")
	return nil
}

// ListIssuedBooks returns the books bound to the reader's tickets, in
// catalog order.
func (s *service) ListIssuedBooks(ctx context.Context, cardNumber int) ([]Book, error) {
	_, span := s.tracer.Start(ctx, "library.list_issued_books",
		trace.WithAttributes(attribute.Int("reader.card_number", cardNumber)))
	defer span.End()

	tickets, err := s.loadTickets()
	if err != nil {
		return nil, err
	}
	books, err := s.loadBooks()
	if err != nil {
		return nil, err
	}

	issued := make(map[string]struct{})
	for i := range tickets {
		if tickets[i].ReaderCardNumber != cardNumber {
			continue
		}
		for _, code := range tickets[i].Books {
			issued[code] = struct{}{}
		}
	}

	result := make([]Book, 0, len(issued))
	for i := range books {
		if _, ok := issued[books[i].Code]; ok {
			result = append(result, books[i])
		}
	}
	return result, nil
}
