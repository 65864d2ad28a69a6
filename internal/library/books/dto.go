package books

// ===== Requests =====

type CreateBookRequest struct {
	Title           string  `json:"title" binding:"required"`
	Author          string  `json:"author" binding:"required"`
	ISBN            string  `json:"isbn" binding:"required"`
	Description     *string `json:"description,omitempty"`
	TotalCopies     int     `json:"total_copies"`
	AvailableCopies *int    `json:"available_copies,omitempty"`
}

type UpdateBookRequest struct {
	Title           *string `json:"title,omitempty"`
	Author          *string `json:"author,omitempty"`
	ISBN            *string `json:"isbn,omitempty"`
	Description     *string `json:"description,omitempty"`
	TotalCopies     *int    `json:"total_copies,omitempty"`
	AvailableCopies *int    `json:"available_copies,omitempty"`
}

// ===== Responses =====

type BookResponse struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	ISBN            string  `json:"isbn"`
	Description     *string `json:"description,omitempty"`
	TotalCopies     int     `json:"total_copies"`
	AvailableCopies int     `json:"available_copies"`
	IsAvailable     bool    `json:"is_available"`
}

func buildBookResponse(b *Book) BookResponse {
	resp := BookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		IsAvailable:     b.IsAvailable,
	}
	if b.Description.Valid {
		val := b.Description.String
		resp.Description = &val
	}
	return resp
}
