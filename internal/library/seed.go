// internal/library/seed.go
package library

import (
	"fmt"

	"github.com/rs/zerolog"

	"bibliotek/internal/jsonstore"
)

// SeedDefaults writes starter fixtures for every collection whose file is
// absent. Existing files are never touched, so seeding is safe to run on
// every start.
func SeedDefaults(store *jsonstore.Store, log zerolog.Logger) error {
	if !store.Exists(booksCollection) {
		if err := store.Save(booksCollection, defaultBooks()); err != nil {
			return fmt.Errorf("seed books: %w", err)
		}
		log.Info().Msg("default books added")
	}

	if !store.Exists(readersCollection) {
		if err := store.Save(readersCollection, defaultReaders()); err != nil {
			return fmt.Errorf("seed readers: %w", err)
		}
		log.Info().Msg("default readers added")
	}

	if !store.Exists(ticketsCollection) {
		if err := store.Save(ticketsCollection, defaultTickets()); err != nil {
			return fmt.Errorf("seed tickets: %w", err)
		}
		log.Info().Msg("default tickets added")
	}

	return nil
}

func defaultBooks() []Book {
	return []Book{
		{
			Code:       "LIB-0001",
			Author:     "Karimova O.",
			Title:      "Applied Module 01",
			Year:       2025,
			Annotation: "Nothing here yet.",
		},
		{
			Code:       "LIB-0002",
			Author:     "Nabieva L.",
			Title:      "Mobile Application Development",
			Year:       2025,
			Annotation: "Nothing here yet.",
		},
		{
			Code:       "LIB-0003",
			Author:     "Kuzovkina V.",
			Title:      "Interdisciplinary Course 01.04",
			Year:       2025,
			Annotation: "Nothing here yet.",
		},
	}
}

func defaultReaders() []Reader {
	return []Reader{
		{
			CardNumber: 1,
			Surname:    "Kuzovkina",
			Name:       "Viktoria",
			Patronymic: "Denisovna",
			Address:    "61/2 Kirova st.",
			Phone:      "+79172371470",
			Role:       RoleReader,
		},
		{
			CardNumber: 2,
			Surname:    "Fayzelgayanov",
			Name:       "Ilnur",
			Patronymic: "Fadisovich",
			Address:    "122/3 Kirova st.",
			Phone:      "+79272371470",
			Login:      "aorayden",
			Password:   "*<i51V7CEkgS",
			Role:       RoleAdministrator,
		},
	}
}

func defaultTickets() []Ticket {
	return []Ticket{
		{
			ReaderCardNumber: 1,
			Books:            []string{"LIB-0002", "LIB-0003"},
			DateIssue:        "24.12.2025",
			DateReturn:       "26.12.2025",
		},
	}
}
