package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type fakeAccounts struct {
	nextID int64
	byID   map[int64]*Account
	byName map[string]*Account
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byID: map[int64]*Account{}, byName: map[string]*Account{}}
}

func (f *fakeAccounts) GetByID(_ context.Context, id int64) (*Account, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) GetByUsername(_ context.Context, username string) (*Account, error) {
	a, ok := f.byName[username]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) Create(_ context.Context, a *Account) error {
	if _, dup := f.byName[a.Username]; dup {
		return ErrAlreadyExists
	}
	f.nextID++
	a.ID = f.nextID
	cp := *a
	f.byID[a.ID] = &cp
	f.byName[a.Username] = &cp
	return nil
}

func (f *fakeAccounts) UpdatePassword(_ context.Context, id int64, hash string) (int64, error) {
	a, ok := f.byID[id]
	if !ok {
		return 0, nil
	}
	a.PasswordHash = hash
	return 1, nil
}

var _ AccountStore = (*fakeAccounts)(nil)

var testSecret = []byte("test-secret")

func newTestService(store AccountStore) *Service {
	return &Service{store: store, secret: testSecret}
}

func TestRegisterForcesMemberRole(t *testing.T) {
	svc := newTestService(newFakeAccounts())

	acct, err := svc.Register(context.Background(), "a@example.com", "alice", "secret1", "Alice", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if acct.Role != RoleMember {
		t.Errorf("role = %s, want %s", acct.Role, RoleMember)
	}
	if !acct.IsActive {
		t.Error("new account not active")
	}
}

func TestRegisterRejectsStaffRole(t *testing.T) {
	svc := newTestService(newFakeAccounts())

	_, err := svc.Register(context.Background(), "a@example.com", "alice", "secret1", "Alice", RoleAdmin)
	if !errors.Is(err, ErrRoleNotAllowed) {
		t.Fatalf("expected ErrRoleNotAllowed, got %v", err)
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	svc := newTestService(newFakeAccounts())

	_, err := svc.Register(context.Background(), "a@example.com", "alice", "12345", "Alice", "")
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newTestService(newFakeAccounts())

	if _, err := svc.Register(context.Background(), "a@example.com", "alice", "secret1", "Alice", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Register(context.Background(), "b@example.com", "alice", "secret1", "Alice B", "")
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	f := newFakeAccounts()
	svc := newTestService(f)

	if _, err := svc.Register(context.Background(), "a@example.com", "alice", "secret1", "Alice", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, err := svc.Login(context.Background(), "alice", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	if _, err := svc.Login(context.Background(), "alice", "wrong"); !errors.Is(err, ErrAuthFailed) {
		t.Errorf("wrong password: expected ErrAuthFailed, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "nobody", "secret1"); !errors.Is(err, ErrAuthFailed) {
		t.Errorf("unknown user: expected ErrAuthFailed, got %v", err)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	f := newFakeAccounts()
	svc := newTestService(f)

	acct, err := svc.Register(context.Background(), "a@example.com", "alice", "secret1", "Alice", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	f.byID[acct.ID].IsActive = false
	f.byName["alice"].IsActive = false

	if _, err := svc.Login(context.Background(), "alice", "secret1"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	f := newFakeAccounts()
	svc := newTestService(f)

	acct, err := svc.Register(context.Background(), "a@example.com", "alice", "secret1", "Alice", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.ChangePassword(context.Background(), acct.ID, "wrong", "newsecret"); !errors.Is(err, ErrAuthFailed) {
		t.Errorf("wrong old password: expected ErrAuthFailed, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), acct.ID, "secret1", "newsecret"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(f.byID[acct.ID].PasswordHash), []byte("newsecret")); err != nil {
		t.Errorf("stored hash does not match new password: %v", err)
	}
}

func TestCan(t *testing.T) {
	cases := []struct {
		role string
		cap  Capability
		want bool
	}{
		{RoleMember, CapBorrow, true},
		{RoleMember, CapManageBooks, false},
		{RoleMember, CapAdminister, false},
		{RoleLibrarian, CapManageBooks, true},
		{RoleLibrarian, CapManageLoans, true},
		{RoleLibrarian, CapManageUsers, true},
		{RoleLibrarian, CapManageSettings, true},
		{RoleLibrarian, CapBorrow, false},
		{RoleLibrarian, CapAdminister, false},
		{RoleAdmin, CapManageBooks, true},
		{RoleAdmin, CapAdminister, true},
		{RoleAdmin, CapBorrow, false},
		{"", CapBorrow, false},
		{"ghost", CapManageBooks, false},
	}
	for _, tc := range cases {
		if got := Can(tc.role, tc.cap); got != tc.want {
			t.Errorf("Can(%q, %q) = %v, want %v", tc.role, tc.cap, got, tc.want)
		}
	}
}

func TestRequireAuthRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)

	f := newFakeAccounts()
	svc := newTestService(f)
	if _, err := svc.Register(context.Background(), "a@example.com", "alice", "secret1", "Alice", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := svc.Login(context.Background(), "alice", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	r := gin.New()
	r.GET("/whoami", RequireAuth(testSecret), func(c *gin.Context) {
		id, _ := CurrentUserID(c)
		role, _ := CurrentRole(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "role": role})
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	// No header, garbage token, wrong scheme.
	for _, hdr := range []string{"", "Bearer not.a.jwt", "Basic " + token} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if hdr != "" {
			req.Header.Set("Authorization", hdr)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", hdr, w.Code)
		}
	}
}

func TestRequireCapability(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/staff", func(c *gin.Context) {
		c.Set(CtxUserIDKey, int64(1))
		c.Set(CtxRoleKey, c.Query("role"))
	}, RequireCapability(CapManageBooks), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for role, want := range map[string]int{
		"librarian": http.StatusOK,
		"admin":     http.StatusOK,
		"member":    http.StatusForbidden,
		"":          http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/staff?role="+role, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Errorf("role %q: status = %d, want %d", role, w.Code, want)
		}
	}
}
