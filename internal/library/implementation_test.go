// internal/library/implementation_test.go
package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliotek/internal/jsonstore"
)

func newTestService(t *testing.T) (*service, *jsonstore.Store) {
	t.Helper()
	store, err := jsonstore.New(t.TempDir())
	require.NoError(t, err)
	svc := NewService(store, 100*time.Millisecond, zerolog.Nop()).(*service)
	return svc, store
}

func testProfile(phone string) Profile {
	return Profile{
		Surname:    "Petrova",
		Name:       "Anna",
		Patronymic: "Sergeevna",
		Address:    "1 Main st.",
		Phone:      phone,
	}
}

func testBook(code string) Book {
	return Book{Code: code, Author: "Author", Title: "Title " + code, Year: 2024}
}

func TestRegisterAssignsIncreasingCardNumbers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for want := 1; want <= 5; want++ {
		reader, err := svc.Register(ctx, testProfile(fmt.Sprintf("+7000000000%d", want)))
		require.NoError(t, err)
		assert.Equal(t, want, reader.CardNumber)
	}
}

func TestRegisterDefaultsRole(t *testing.T) {
	svc, _ := newTestService(t)

	reader, err := svc.Register(context.Background(), testProfile("+70000000001"))

	require.NoError(t, err)
	assert.Equal(t, RoleReader, reader.Role)
}

func TestRegisterKeepsExplicitRole(t *testing.T) {
	svc, _ := newTestService(t)
	profile := testProfile("+70000000001")
	profile.Role = RoleAdministrator

	reader, err := svc.Register(context.Background(), profile)

	require.NoError(t, err)
	assert.Equal(t, RoleAdministrator, reader.Role)
}

func TestRegisterDuplicatePhoneConflictLeavesCollectionUnchanged(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, testProfile("+70000000001"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, testProfile("+70000000001"))
	assert.ErrorIs(t, err, ErrConflict)

	readers, err := svc.loadReaders()
	require.NoError(t, err)
	assert.Len(t, readers, 1)
}

func TestCardNumbersContinueFromMaxExisting(t *testing.T) {
	svc, store := newTestService(t)
	require.NoError(t, store.Save(readersCollection, []Reader{
		{CardNumber: 7, Phone: "+70000000007", Role: RoleReader},
		{CardNumber: 3, Phone: "+70000000003", Role: RoleReader},
	}))

	reader, err := svc.Register(context.Background(), testProfile("+70000000001"))

	require.NoError(t, err)
	assert.Equal(t, 8, reader.CardNumber)
}

func TestLoginByCredentials(t *testing.T) {
	svc, store := newTestService(t)
	require.NoError(t, store.Save(readersCollection, []Reader{
		{CardNumber: 1, Name: "Ilnur", Patronymic: "Fadisovich", Login: "admin", Password: "secret", Role: RoleAdministrator},
	}))

	reader, err := svc.Login(context.Background(), Credentials{Login: "admin", Password: "secret"})

	require.NoError(t, err)
	assert.Equal(t, 1, reader.CardNumber)
}

func TestLoginByCardNumber(t *testing.T) {
	svc, store := newTestService(t)
	require.NoError(t, store.Save(readersCollection, []Reader{
		{CardNumber: 42, Name: "Anna", Role: RoleReader},
	}))

	reader, err := svc.Login(context.Background(), Credentials{CardNumber: 42})

	require.NoError(t, err)
	assert.Equal(t, "Anna", reader.Name)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, store := newTestService(t)
	require.NoError(t, store.Save(readersCollection, []Reader{
		{CardNumber: 1, Login: "admin", Password: "secret", Role: RoleAdministrator},
	}))

	_, err := svc.Login(context.Background(), Credentials{Login: "admin", Password: "wrong"})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoginUnknownCardNumber(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login(context.Background(), Credentials{CardNumber: 999})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoginEmptyCredentials(t *testing.T) {
	svc, store := newTestService(t)
	require.NoError(t, store.Save(readersCollection, []Reader{
		{CardNumber: 1, Role: RoleReader},
	}))

	_, err := svc.Login(context.Background(), Credentials{})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListReadersExcludesAdministrators(t *testing.T) {
	svc, store := newTestService(t)
	require.NoError(t, store.Save(readersCollection, []Reader{
		{CardNumber: 1, Role: RoleReader},
		{CardNumber: 2, Role: RoleAdministrator},
		{CardNumber: 3, Role: RoleReader},
	}))

	readers, err := svc.ListReaders(context.Background())

	require.NoError(t, err)
	require.Len(t, readers, 2)
	assert.Equal(t, 1, readers[0].CardNumber)
	assert.Equal(t, 3, readers[1].CardNumber)
}

func TestAddBookDuplicateCodeConflictLeavesCollectionUnchanged(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.AddBook(ctx, testBook("B1")))

	err := svc.AddBook(ctx, testBook("B1"))
	assert.ErrorIs(t, err, ErrConflict)

	books, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestListBooksIsIdempotentAndOrdered(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, code := range []string{"B3", "B1", "B2"} {
		require.NoError(t, svc.AddBook(ctx, testBook(code)))
	}

	first, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	second, err := svc.ListBooks(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "B3", first[0].Code)
	assert.Equal(t, "B1", first[1].Code)
	assert.Equal(t, "B2", first[2].Code)
}

func TestIssueTicketScenario(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.Save(booksCollection, []Book{testBook("B1")}))
	require.NoError(t, store.Save(readersCollection, []Reader{{CardNumber: 1, Role: RoleReader}}))

	ticket := Ticket{ReaderCardNumber: 1, Books: []string{"B1"}, DateIssue: "24.12.2025", DateReturn: "26.12.2025"}
	require.NoError(t, svc.IssueTicket(ctx, ticket))

	available, err := svc.ListAvailableBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, available)

	err = svc.IssueTicket(ctx, ticket)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestIssueTicketUnknownReader(t *testing.T) {
	svc, store := newTestService(t)
	require.NoError(t, store.Save(booksCollection, []Book{testBook("B1")}))

	err := svc.IssueTicket(context.Background(), Ticket{ReaderCardNumber: 99, Books: []string{"B1"}})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIssueTicketUnknownBookReportsCode(t *testing.T) {
	svc, store := newTestService(t)
	require.NoError(t, store.Save(booksCollection, []Book{testBook("B1")}))
	require.NoError(t, store.Save(readersCollection, []Reader{{CardNumber: 1, Role: RoleReader}}))

	err := svc.IssueTicket(context.Background(), Ticket{ReaderCardNumber: 1, Books: []string{"B1", "NOPE"}})

	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "NOPE")
}

func TestIssueTicketConflictReportsFirstBusyCode(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Save(booksCollection, []Book{testBook("B1"), testBook("B2"), testBook("B3")}))
	require.NoError(t, store.Save(readersCollection, []Reader{{CardNumber: 1, Role: RoleReader}, {CardNumber: 2, Role: RoleReader}}))

	require.NoError(t, svc.IssueTicket(ctx, Ticket{ReaderCardNumber: 1, Books: []string{"B2"}}))

	err := svc.IssueTicket(ctx, Ticket{ReaderCardNumber: 2, Books: []string{"B3", "B2"}})
	require.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "B2")

	tickets, loadErr := svc.loadTickets()
	require.NoError(t, loadErr)
	assert.Len(t, tickets, 1)
}

func TestIssueTicketStoresDatesVerbatim(t *testing.T) {
	svc, store := newTestService(t)
	require.NoError(t, store.Save(booksCollection, []Book{testBook("B1")}))
	require.NoError(t, store.Save(readersCollection, []Reader{{CardNumber: 1, Role: RoleReader}}))

	ticket := Ticket{ReaderCardNumber: 1, Books: []string{"B1"}, DateIssue: "whenever", DateReturn: "eventually"}
	require.NoError(t, svc.IssueTicket(context.Background(), ticket))

	tickets, err := svc.loadTickets()
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, ticket, tickets[0])
}

func TestConcurrentIssueOfSameBookAdmitsExactlyOne(t *testing.T) {
	svc, store := newTestService(t)
	require.NoError(t, store.Save(booksCollection, []Book{testBook("B1")}))
	require.NoError(t, store.Save(readersCollection, []Reader{{CardNumber: 1, Role: RoleReader}, {CardNumber: 2, Role: RoleReader}}))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.IssueTicket(context.Background(), Ticket{ReaderCardNumber: i + 1, Books: []string{"B1"}})
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case assert.ErrorIs(t, err, ErrConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)

	tickets, err := svc.loadTickets()
	require.NoError(t, err)
	assert.Len(t, tickets, 1)
}

func TestIssueTicketHeldLockTimesOut(t *testing.T) {
	svc, store := newTestService(t)
	require.NoError(t, store.Save(booksCollection, []Book{testBook("B1")}))
	require.NoError(t, store.Save(readersCollection, []Reader{{CardNumber: 1, Role: RoleReader}}))

	require.NoError(t, svc.ticketLock.Acquire(context.Background(), 1))
	defer svc.ticketLock.Release(1)

	err := svc.IssueTicket(context.Background(), Ticket{ReaderCardNumber: 1, Books: []string{"B1"}})

	assert.ErrorIs(t, err, ErrBusy)
}

func TestListIssuedBooksUnionsTickets(t *testing.T) {
	svc, store := newTestService(t)
	require.NoError(t, store.Save(booksCollection, []Book{testBook("B1"), testBook("B2"), testBook("B3")}))
	require.NoError(t, store.Save(ticketsCollection, []Ticket{
		{ReaderCardNumber: 1, Books: []string{"B2"}},
		{ReaderCardNumber: 2, Books: []string{"B3"}},
		{ReaderCardNumber: 1, Books: []string{"B1"}},
	}))

	books, err := svc.ListIssuedBooks(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "B1", books[0].Code)
	assert.Equal(t, "B2", books[1].Code)
}

func TestListIssuedBooksNoTickets(t *testing.T) {
	svc, store := newTestService(t)
	require.NoError(t, store.Save(booksCollection, []Book{testBook("B1")}))

	books, err := svc.ListIssuedBooks(context.Background(), 1)

	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestCorruptReaderFileSurfacesOnLogin(t *testing.T) {
	dir := t.TempDir()
	store, err := jsonstore.New(dir)
	require.NoError(t, err)
	svc := NewService(store, 100*time.Millisecond, zerolog.Nop())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readers.json"), []byte("garbage"), 0o644))

	_, err = svc.Login(context.Background(), Credentials{CardNumber: 1})

	assert.ErrorIs(t, err, jsonstore.ErrCorrupt)
}
