// internal/library/seed_test.go
package library

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliotek/internal/jsonstore"
)

func TestSeedDefaultsCreatesAbsentCollections(t *testing.T) {
	store, err := jsonstore.New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, SeedDefaults(store, zerolog.Nop()))

	var books []Book
	require.NoError(t, store.Load(booksCollection, &books))
	assert.Len(t, books, 3)

	var readers []Reader
	require.NoError(t, store.Load(readersCollection, &readers))
	require.Len(t, readers, 2)
	assert.Equal(t, RoleReader, readers[0].Role)
	assert.Equal(t, RoleAdministrator, readers[1].Role)

	var tickets []Ticket
	require.NoError(t, store.Load(ticketsCollection, &tickets))
	require.Len(t, tickets, 1)
	assert.Equal(t, 1, tickets[0].ReaderCardNumber)
}

func TestSeedDefaultsNeverOverwritesExistingFiles(t *testing.T) {
	store, err := jsonstore.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save(booksCollection, []Book{testBook("MINE")}))

	require.NoError(t, SeedDefaults(store, zerolog.Nop()))
	require.NoError(t, SeedDefaults(store, zerolog.Nop()))

	var books []Book
	require.NoError(t, store.Load(booksCollection, &books))
	require.Len(t, books, 1)
	assert.Equal(t, "MINE", books[0].Code)

	var readers []Reader
	require.NoError(t, store.Load(readersCollection, &readers))
	assert.Len(t, readers, 2)
}
