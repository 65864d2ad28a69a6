package loans

import "time"

// ===== Requests =====

type ReserveRequest struct {
	BookID int64 `json:"book_id" binding:"required"`
}

type AssignRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
	BookID int64 `json:"book_id" binding:"required"`
}

// ===== Responses =====

type LoanResponse struct {
	ID              int64      `json:"id"`
	LoanULID        string     `json:"loan_ulid"`
	UserID          int64      `json:"user_id"`
	BookID          int64      `json:"book_id"`
	Status          Status     `json:"status"`
	ReservationDate time.Time  `json:"reservation_date"`
	PickupDeadline  *time.Time `json:"pickup_deadline,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	ReturnedAt      *time.Time `json:"returned_at,omitempty"`
	CanceledAt      *time.Time `json:"canceled_at,omitempty"`
	FineAmount      float64    `json:"fine_amount"`
}

func buildLoanResponse(l *Loan) LoanResponse {
	resp := LoanResponse{
		ID:              l.ID,
		LoanULID:        l.LoanULID,
		UserID:          l.UserID,
		BookID:          l.BookID,
		Status:          l.Status,
		ReservationDate: l.ReservationDate,
		FineAmount:      l.FineAmount,
	}
	if l.PickupDeadline.Valid {
		val := l.PickupDeadline.Time
		resp.PickupDeadline = &val
	}
	if l.StartDate.Valid {
		val := l.StartDate.Time
		resp.StartDate = &val
	}
	if l.DueDate.Valid {
		val := l.DueDate.Time
		resp.DueDate = &val
	}
	if l.ReturnedAt.Valid {
		val := l.ReturnedAt.Time
		resp.ReturnedAt = &val
	}
	if l.CanceledAt.Valid {
		val := l.CanceledAt.Time
		resp.CanceledAt = &val
	}
	return resp
}
