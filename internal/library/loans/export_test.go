package loans

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func TestExportCSV(t *testing.T) {
	f := newFakeStore()
	seedMember(f, 1)
	seedBook(f, 10, 2, 2)
	svc := newTestService(f, defaultPolicy(), testNow)

	if _, err := svc.Reserve(context.Background(), 1, 10); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	assigned, err := svc.Assign(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	data, err := svc.ExportCSV(context.Background())
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xFE {
		t.Fatalf("missing UTF-16LE BOM, first bytes: % x", data[:2])
	}

	dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	decoded, _, err := transform.Bytes(dec, data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(decoded)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d rows, want header + 2 loans", len(records))
	}
	if records[0][0] != "loan_ulid" || records[0][10] != "fine_amount" {
		t.Errorf("unexpected header: %v", records[0])
	}

	var found bool
	for _, rec := range records[1:] {
		if rec[0] == assigned.LoanULID {
			found = true
			if rec[3] != string(StatusActive) {
				t.Errorf("status column = %q, want %q", rec[3], StatusActive)
			}
			if !strings.HasPrefix(rec[7], "2025-04-09") {
				t.Errorf("due_date column = %q, want 30 days after assignment", rec[7])
			}
		}
	}
	if !found {
		t.Errorf("assigned loan %s not in export", assigned.LoanULID)
	}
}

func TestExportCSVSweepsBeforeSnapshot(t *testing.T) {
	pol := Policy{PickupWindowDays: 2, LoanPeriodDays: 30, DailyFineAmount: 0.5}
	f := newFakeStore()
	seedMember(f, 1)
	seedBook(f, 10, 1, 1)
	svc := newTestService(f, pol, testNow)

	if _, err := svc.Assign(context.Background(), 1, 10); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	later := newTestService(f, pol, testNow.AddDate(0, 0, 33))
	data, err := later.ExportCSV(context.Background())
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	decoded, _, err := transform.Bytes(dec, data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(decoded)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d rows, want header + 1 loan", len(records))
	}
	if records[1][3] != string(StatusOverdue) {
		t.Errorf("status column = %q, want %q", records[1][3], StatusOverdue)
	}
	if records[1][10] != "1.5" {
		t.Errorf("fine column = %q, want 1.5", records[1][10])
	}
}
