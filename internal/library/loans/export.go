package loans

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ExportCSV renders every loan as CSV encoded UTF-16LE with BOM, the one
// encoding older spreadsheet tools import without mangling. The listing path
// is reused so the overdue sweep runs before the snapshot is taken.
func (s *Service) ExportCSV(ctx context.Context) ([]byte, error) {
	const exportBatch = 10000

	items, _, err := s.ListAllLoans(ctx, Page{Limit: exportBatch})
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	w := csv.NewWriter(transform.NewWriter(&b, enc))

	header := []string{
		"loan_ulid", "user_id", "book_id", "status", "reservation_date",
		"pickup_deadline", "start_date", "due_date", "returned_at", "canceled_at", "fine_amount",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, l := range items {
		record := []string{
			l.LoanULID,
			strconv.FormatInt(l.UserID, 10),
			strconv.FormatInt(l.BookID, 10),
			string(l.Status),
			l.ReservationDate.Format(time.RFC3339),
			fmtTime(l.PickupDeadline),
			fmtTime(l.StartDate),
			fmtTime(l.DueDate),
			fmtTime(l.ReturnedAt),
			fmtTime(l.CanceledAt),
			strconv.FormatFloat(l.FineAmount, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func fmtTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
