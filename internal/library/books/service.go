package books

import (
	"context"
	"database/sql"
	"strings"
)

const maxCopies = 1000

type BookStore interface {
	Insert(ctx context.Context, b *Book) error
	GetByID(ctx context.Context, id int64) (*Book, error)
	List(ctx context.Context, search string, p Page) ([]Book, int64, error)
	Update(ctx context.Context, b *Book) (int64, error)
	// DeleteCascade removes the book and all of its loans in one transaction.
	DeleteCascade(ctx context.Context, id int64) (int64, error)
}

type Service struct {
	store BookStore
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db)}
}

func NewServiceWithStore(store BookStore) *Service {
	return &Service{store: store}
}

func (s *Service) CreateBook(ctx context.Context, in CreateBookRequest) (BookResponse, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Author) == "" || strings.TrimSpace(in.ISBN) == "" {
		return BookResponse{}, ErrInvalid("title, author and isbn are required")
	}
	total := in.TotalCopies
	if total == 0 {
		total = 1
	}
	if total < 1 || total > maxCopies {
		return BookResponse{}, ErrInvalid("total_copies must be between 1 and 1000")
	}

	available := total
	if in.AvailableCopies != nil {
		available = *in.AvailableCopies
	}
	if available < 0 {
		return BookResponse{}, ErrInvalid("available_copies must be >= 0")
	}
	if available > total {
		available = total
	}

	b := &Book{
		Title:           strings.TrimSpace(in.Title),
		Author:          strings.TrimSpace(in.Author),
		ISBN:            strings.TrimSpace(in.ISBN),
		TotalCopies:     total,
		AvailableCopies: available,
		IsAvailable:     available > 0,
	}
	if in.Description != nil && *in.Description != "" {
		b.Description.String = *in.Description
		b.Description.Valid = true
	}

	if err := s.store.Insert(ctx, b); err != nil {
		return BookResponse{}, err
	}
	return buildBookResponse(b), nil
}

func (s *Service) GetBook(ctx context.Context, id int64) (BookResponse, error) {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return BookResponse{}, err
	}
	if b == nil {
		return BookResponse{}, ErrNotFound("book not found")
	}
	return buildBookResponse(b), nil
}

func (s *Service) ListBooks(ctx context.Context, search string, p Page) ([]BookResponse, int64, error) {
	if p.Limit <= 0 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}

	items, total, err := s.store.List(ctx, strings.TrimSpace(search), p)
	if err != nil {
		return nil, 0, err
	}
	out := make([]BookResponse, 0, len(items))
	for i := range items {
		out = append(out, buildBookResponse(&items[i]))
	}
	return out, total, nil
}

func (s *Service) UpdateBook(ctx context.Context, id int64, in UpdateBookRequest) (BookResponse, error) {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return BookResponse{}, err
	}
	if b == nil {
		return BookResponse{}, ErrNotFound("book not found")
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return BookResponse{}, ErrInvalid("title must not be empty")
		}
		b.Title = strings.TrimSpace(*in.Title)
	}
	if in.Author != nil {
		if strings.TrimSpace(*in.Author) == "" {
			return BookResponse{}, ErrInvalid("author must not be empty")
		}
		b.Author = strings.TrimSpace(*in.Author)
	}
	if in.ISBN != nil {
		if strings.TrimSpace(*in.ISBN) == "" {
			return BookResponse{}, ErrInvalid("isbn must not be empty")
		}
		b.ISBN = strings.TrimSpace(*in.ISBN)
	}
	if in.Description != nil {
		b.Description.String = *in.Description
		b.Description.Valid = *in.Description != ""
	}
	if in.TotalCopies != nil {
		if *in.TotalCopies < 1 || *in.TotalCopies > maxCopies {
			return BookResponse{}, ErrInvalid("total_copies must be between 1 and 1000")
		}
		b.TotalCopies = *in.TotalCopies
	}
	if in.AvailableCopies != nil {
		if *in.AvailableCopies < 0 {
			return BookResponse{}, ErrInvalid("available_copies must be >= 0")
		}
		b.AvailableCopies = *in.AvailableCopies
	}

	// Shrinking total below the current hold-free count clamps available
	// down; available may never exceed total.
	if b.AvailableCopies > b.TotalCopies {
		b.AvailableCopies = b.TotalCopies
	}
	b.IsAvailable = b.AvailableCopies > 0

	n, err := s.store.Update(ctx, b)
	if err != nil {
		return BookResponse{}, err
	}
	if n == 0 {
		return BookResponse{}, ErrNotFound("book not found")
	}
	return buildBookResponse(b), nil
}

func (s *Service) DeleteBook(ctx context.Context, id int64) error {
	n, err := s.store.DeleteCascade(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound("book not found")
	}
	return nil
}
