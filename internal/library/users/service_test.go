package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type fakeStore struct {
	rows map[int64]*User
	// loansDeleted records which user IDs had their loans cascaded.
	loansDeleted []int64
}

func newFakeStore() *fakeStore { return &fakeStore{rows: map[int64]*User{}} }

func (f *fakeStore) List(context.Context) ([]User, error) {
	var out []User
	for id := int64(1); id <= 100; id++ {
		if u, ok := f.rows[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*User, error) {
	u, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) SetBanned(_ context.Context, id int64, banned bool) (int64, error) {
	u, ok := f.rows[id]
	if !ok {
		return 0, nil
	}
	u.IsBanned = banned
	return 1, nil
}

func (f *fakeStore) SetRole(_ context.Context, id int64, role string) (int64, error) {
	u, ok := f.rows[id]
	if !ok {
		return 0, nil
	}
	u.Role = role
	return 1, nil
}

func (f *fakeStore) SetPassword(_ context.Context, id int64, hash string) (int64, error) {
	u, ok := f.rows[id]
	if !ok {
		return 0, nil
	}
	u.PasswordHash = hash
	return 1, nil
}

func (f *fakeStore) DeleteCascade(_ context.Context, id int64) (int64, error) {
	if _, ok := f.rows[id]; !ok {
		return 0, nil
	}
	f.loansDeleted = append(f.loansDeleted, id)
	delete(f.rows, id)
	return 1, nil
}

var _ UserStore = (*fakeStore)(nil)

func seed(f *fakeStore, id int64, role string) {
	f.rows[id] = &User{
		ID:        id,
		Email:     "u@example.com",
		Username:  "u",
		FullName:  "U",
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func wantCode(t *testing.T, err error, code Code) {
	t.Helper()
	var api *APIError
	if !errors.As(err, &api) {
		t.Fatalf("expected *APIError with code %s, got %v", code, err)
	}
	if api.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, api.Code, api.Message)
	}
}

func TestBanUser(t *testing.T) {
	f := newFakeStore()
	seed(f, 1, RoleMember)
	svc := &Service{store: f}

	res, err := svc.BanUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("BanUser: %v", err)
	}
	if !res.IsBanned {
		t.Error("is_banned = false after ban")
	}

	res, err = svc.UnbanUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("UnbanUser: %v", err)
	}
	if res.IsBanned {
		t.Error("is_banned = true after unban")
	}
}

func TestBanAdminRejected(t *testing.T) {
	f := newFakeStore()
	seed(f, 1, RoleAdmin)
	svc := &Service{store: f}

	_, err := svc.BanUser(context.Background(), 1)
	wantCode(t, err, CodeInvalidArgument)
	if f.rows[1].IsBanned {
		t.Error("admin was banned")
	}
}

func TestPromoteDemote(t *testing.T) {
	f := newFakeStore()
	seed(f, 1, RoleMember)
	svc := &Service{store: f}

	res, err := svc.PromoteUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("PromoteUser: %v", err)
	}
	if res.Role != RoleLibrarian {
		t.Errorf("role = %s, want %s", res.Role, RoleLibrarian)
	}

	// Promoting again is invalid.
	_, err = svc.PromoteUser(context.Background(), 1)
	wantCode(t, err, CodeInvalidArgument)

	res, err = svc.DemoteUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("DemoteUser: %v", err)
	}
	if res.Role != RoleMember {
		t.Errorf("role = %s, want %s", res.Role, RoleMember)
	}

	_, err = svc.DemoteUser(context.Background(), 1)
	wantCode(t, err, CodeInvalidArgument)
}

func TestPromoteAdminRejected(t *testing.T) {
	f := newFakeStore()
	seed(f, 1, RoleAdmin)
	svc := &Service{store: f}

	_, err := svc.PromoteUser(context.Background(), 1)
	wantCode(t, err, CodeInvalidArgument)
	_, err = svc.DemoteUser(context.Background(), 1)
	wantCode(t, err, CodeInvalidArgument)
}

func TestSetUserPassword(t *testing.T) {
	f := newFakeStore()
	seed(f, 1, RoleMember)
	svc := &Service{store: f}

	if err := svc.SetUserPassword(context.Background(), 1, "short"); err == nil {
		t.Fatal("5-char password accepted")
	}

	if err := svc.SetUserPassword(context.Background(), 1, "correct horse"); err != nil {
		t.Fatalf("SetUserPassword: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(f.rows[1].PasswordHash), []byte("correct horse")); err != nil {
		t.Errorf("stored hash does not match new password: %v", err)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	f := newFakeStore()
	seed(f, 1, RoleMember)
	svc := &Service{store: f}

	if err := svc.DeleteUser(context.Background(), 1); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if len(f.loansDeleted) != 1 || f.loansDeleted[0] != 1 {
		t.Errorf("loans not cascaded: %v", f.loansDeleted)
	}

	err := svc.DeleteUser(context.Background(), 1)
	wantCode(t, err, CodeNotFound)
}

func TestDeleteAdminRejected(t *testing.T) {
	f := newFakeStore()
	seed(f, 1, RoleAdmin)
	svc := &Service{store: f}

	err := svc.DeleteUser(context.Background(), 1)
	wantCode(t, err, CodeInvalidArgument)
	if _, ok := f.rows[1]; !ok {
		t.Error("admin row deleted")
	}
}
