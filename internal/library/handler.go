// internal/library/handler.go
package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"bibliotek/internal/jsonstore"
)

// Envelope is the uniform response shape of every mutating operation. A
// domain failure still answers HTTP 200 with success=false; clients key off
// the flag, not the status code.
type Envelope struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Reader  *Reader `json:"reader,omitempty"`
}

type Handler struct {
	service  Service
	validate *validator.Validate
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// Routes mounts every library endpoint on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/register", h.handleRegister)
	r.Get("/readers", h.handleListReaders)
	r.Get("/books", h.handleListBooks)
	r.Post("/books/add", h.handleAddBook)
	r.Get("/books/available", h.handleListAvailableBooks)
	r.Get("/tickets/{cardNumber}/books", h.handleListIssuedBooks)
	r.Post("/tickets/create", h.handleIssueTicket)
}

type loginRequest struct {
	Login      string `json:"login"`
	Password   string `json:"password"`
	CardNumber int    `json:"card_number"`
}

type registerRequest struct {
	Surname    string `json:"surname" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Patronymic string `json:"patronymic" validate:"required"`
	Address    string `json:"address" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Login      string `json:"login"`
	Password   string `json:"password"`
	Role       string `json:"role" validate:"omitempty,oneof=Reader Administrator"`
}

type addBookRequest struct {
	Code       string `json:"code" validate:"required"`
	Author     string `json:"author" validate:"required"`
	Title      string `json:"name" validate:"required"`
	Year       int    `json:"year_publication" validate:"required"`
	Annotation string `json:"sign_novelty_and_annotations"`
}

type issueTicketRequest struct {
	ReaderCardNumber int      `json:"reader_card_number" validate:"required"`
	Books            []string `json:"books"`
	DateIssue        string   `json:"date_issue" validate:"required"`
	DateReturn       string   `json:"date_return" validate:"required"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	reader, err := h.service.Login(r.Context(), Credentials{
		Login:      req.Login,
		Password:   req.Password,
		CardNumber: req.CardNumber,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: fmt.Sprintf("Welcome, %s %s!", reader.Name, reader.Patronymic),
		Reader:  reader,
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}

	reader, err := h.service.Register(r.Context(), Profile{
		Surname:    req.Surname,
		Name:       req.Name,
		Patronymic: req.Patronymic,
		Address:    req.Address,
		Phone:      req.Phone,
		Login:      req.Login,
		Password:   req.Password,
		Role:       req.Role,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: fmt.Sprintf("Reader registered. Library card number: %d", reader.CardNumber),
		Reader:  reader,
	})
}

func (h *Handler) handleListReaders(w http.ResponseWriter, r *http.Request) {
	readers, err := h.service.ListReaders(r.Context())
	if err != nil {
		h.writeReadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, readers)
}

func (h *Handler) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListBooks(r.Context())
	if err != nil {
		h.writeReadError(w, err)
		return
	}
	if books == nil {
		books = []Book{}
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *Handler) handleAddBook(w http.ResponseWriter, r *http.Request) {
	var req addBookRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.service.AddBook(r.Context(), Book{
		Code:       req.Code,
		Author:     req.Author,
		Title:      req.Title,
		Year:       req.Year,
		Annotation: req.Annotation,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: "The book has been added to the catalog.",
	})
}

func (h *Handler) handleListAvailableBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListAvailableBooks(r.Context())
	if err != nil {
		h.writeReadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *Handler) handleIssueTicket(w http.ResponseWriter, r *http.Request) {
	var req issueTicketRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.service.IssueTicket(r.Context(), Ticket{
		ReaderCardNumber: req.ReaderCardNumber,
		Books:            req.Books,
		DateIssue:        req.DateIssue,
		DateReturn:       req.DateReturn,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: "The reader ticket has been issued.",
	})
}

func (h *Handler) handleListIssuedBooks(w http.ResponseWriter, r *http.Request) {
	cardNumber, err := strconv.Atoi(chi.URLParam(r, "cardNumber"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Envelope{Success: false, Message: "invalid card number"})
		return
	}

	books, err := h.service.ListIssuedBooks(r.Context(), cardNumber)
	if err != nil {
		h.writeReadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

// decode unmarshals and validates a request body, answering 400 itself on
// failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, Envelope{Success: false, Message: "malformed request body"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, Envelope{Success: false, Message: err.Error()})
		return false
	}
	return true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		writeJSON(w, http.StatusOK, Envelope{Success: false, Message: err.Error()})
	case errors.Is(err, ErrBusy):
		writeJSON(w, http.StatusServiceUnavailable, Envelope{Success: false, Message: "the collection is busy, please retry"})
	default:
		h.writeReadError(w, err)
	}
}

func (h *Handler) writeReadError(w http.ResponseWriter, err error) {
	if errors.Is(err, jsonstore.ErrCorrupt) {
		writeJSON(w, http.StatusInternalServerError, Envelope{Success: false, Message: "stored data is unreadable, contact the administrator"})
		return
	}
	writeJSON(w, http.StatusInternalServerError, Envelope{Success: false, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
