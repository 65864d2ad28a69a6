package books

import "database/sql"

// Book is one row of the books table. AvailableCopies is the single source
// of truth for availability; IsAvailable is derived and recomputed on every
// mutation.
type Book struct {
	ID              int64
	Title           string
	Author          string
	ISBN            string
	Description     sql.NullString
	TotalCopies     int
	AvailableCopies int
	IsAvailable     bool
}

// Page bounds list queries.
type Page struct {
	Limit  int
	Offset int
}
