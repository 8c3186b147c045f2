package auth

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/tasknest/tasknest/internal/apperror"
)

// mockUserRepo lets each test plug in just the repository behavior it needs.
type mockUserRepo struct {
	createFn      func(ctx context.Context, user *User) error
	findByIDFn    func(ctx context.Context, id string) (*User, error)
	findByEmailFn func(ctx context.Context, email string) (*User, error)
	emailExistsFn func(ctx context.Context, email string) (bool, error)
	setRefreshFn  func(ctx context.Context, id string, token *string) error
	rotateFn      func(ctx context.Context, id, oldToken, newToken string) (bool, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *User) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, user)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*User, error) {
	if m.findByIDFn == nil {
		return nil, apperror.NewNotFound("user not found")
	}
	return m.findByIDFn(ctx, id)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if m.findByEmailFn == nil {
		return nil, apperror.NewNotFound("user not found")
	}
	return m.findByEmailFn(ctx, email)
}

func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.emailExistsFn == nil {
		return false, nil
	}
	return m.emailExistsFn(ctx, email)
}

func (m *mockUserRepo) SetRefreshToken(ctx context.Context, id string, token *string) error {
	if m.setRefreshFn == nil {
		return nil
	}
	return m.setRefreshFn(ctx, id, token)
}

func (m *mockUserRepo) RotateRefreshToken(ctx context.Context, id, oldToken, newToken string) (bool, error) {
	if m.rotateFn == nil {
		return true, nil
	}
	return m.rotateFn(ctx, id, oldToken, newToken)
}

// memoryUserRepo is a stateful single-user store for exercising whole flows
// (login, refresh, replay, logout) against real rotation semantics.
type memoryUserRepo struct {
	user *User
}

func (m *memoryUserRepo) Create(_ context.Context, user *User) error {
	clone := *user
	m.user = &clone
	return nil
}

func (m *memoryUserRepo) FindByID(_ context.Context, id string) (*User, error) {
	if m.user == nil || m.user.ID != id {
		return nil, apperror.NewNotFound("user not found")
	}
	clone := *m.user
	return &clone, nil
}

func (m *memoryUserRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	if m.user == nil || m.user.Email != email {
		return nil, apperror.NewNotFound("user not found")
	}
	clone := *m.user
	return &clone, nil
}

func (m *memoryUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	return m.user != nil && m.user.Email == email, nil
}

func (m *memoryUserRepo) SetRefreshToken(_ context.Context, id string, token *string) error {
	if m.user == nil || m.user.ID != id {
		return apperror.NewNotFound("user not found")
	}
	m.user.RefreshToken = token
	return nil
}

func (m *memoryUserRepo) RotateRefreshToken(_ context.Context, id, oldToken, newToken string) (bool, error) {
	if m.user == nil || m.user.ID != id {
		return false, nil
	}
	if m.user.RefreshToken == nil || *m.user.RefreshToken != oldToken {
		return false, nil
	}
	m.user.RefreshToken = &newToken
	return true, nil
}

func newTestService(repo UserRepository) AuthService {
	return NewAuthService(repo, NewPasswordHasher(bcrypt.MinCost), testTokenManager())
}

func wantAppError(t *testing.T, err error, status int) *apperror.AppError {
	t.Helper()
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error = %v, want *apperror.AppError", err)
	}
	if appErr.Status != status {
		t.Fatalf("status = %d, want %d (message: %s)", appErr.Status, status, appErr.Message)
	}
	return appErr
}

func registerAndLogin(t *testing.T, svc AuthService, repo *memoryUserRepo) (*TokenPair, *User) {
	t.Helper()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "hunter2hunter2",
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	pair, user, err := svc.Login(ctx, LoginInput{
		Email:    "alice@example.com",
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	return pair, user
}

func TestRegister_Success(t *testing.T) {
	repo := &memoryUserRepo{}
	svc := newTestService(repo)

	user, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Alice",
		Email:    "  Alice@Example.COM ",
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if user.ID == "" {
		t.Error("ID is empty, expected a generated UUID")
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q, want normalized %q", user.Email, "alice@example.com")
	}
	if user.PasswordHash == "hunter2hunter2" {
		t.Error("password stored in plaintext")
	}
	if user.RefreshToken != nil {
		t.Error("new user has a refresh token, registration must not log in")
	}
	if repo.user == nil {
		t.Fatal("user was not persisted")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := &memoryUserRepo{}
	svc := newTestService(repo)
	ctx := context.Background()

	input := RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "hunter2hunter2"}
	if _, err := svc.Register(ctx, input); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := svc.Register(ctx, input)
	wantAppError(t, err, 409)
}

func TestRegister_LostUniqueRace(t *testing.T) {
	// Two concurrent registrations can both pass the existence check; the
	// insert then trips the unique index and the repository reports a
	// conflict. The service must surface that 409, not a 500.
	repo := &mockUserRepo{
		createFn: func(_ context.Context, _ *User) error {
			return apperror.NewConflict("an account with this email already exists")
		},
	}
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "hunter2hunter2",
	})
	wantAppError(t, err, 409)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newTestService(&memoryUserRepo{})

	_, _, err := svc.Login(context.Background(), LoginInput{
		Email:    "nobody@example.com",
		Password: "whatever123",
	})
	wantAppError(t, err, 404)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := &memoryUserRepo{}
	svc := newTestService(repo)
	registerAndLogin(t, svc, repo)

	_, _, err := svc.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "not the password",
	})
	wantAppError(t, err, 401)
}

func TestLogin_StoresRefreshToken(t *testing.T) {
	repo := &memoryUserRepo{}
	svc := newTestService(repo)

	pair, user := registerAndLogin(t, svc, repo)

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("Login() returned an incomplete token pair")
	}
	if repo.user.RefreshToken == nil || *repo.user.RefreshToken != pair.RefreshToken {
		t.Error("stored refresh token does not match the issued one")
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "alice@example.com")
	}
}

func TestLogin_SecondLoginSupersedesFirst(t *testing.T) {
	repo := &memoryUserRepo{}
	svc := newTestService(repo)
	ctx := context.Background()

	first, _ := registerAndLogin(t, svc, repo)

	if _, _, err := svc.Login(ctx, LoginInput{
		Email:    "alice@example.com",
		Password: "hunter2hunter2",
	}); err != nil {
		t.Fatalf("second Login() error = %v", err)
	}

	// The first session's refresh token is no longer the stored one.
	_, err := svc.Refresh(ctx, first.RefreshToken)
	wantAppError(t, err, 401)
}

func TestRefresh_RotatesToken(t *testing.T) {
	repo := &memoryUserRepo{}
	svc := newTestService(repo)
	ctx := context.Background()

	pair, _ := registerAndLogin(t, svc, repo)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Error("refresh token was not rotated")
	}
	if repo.user.RefreshToken == nil || *repo.user.RefreshToken != next.RefreshToken {
		t.Error("stored token is not the newly issued one")
	}

	// Replaying the superseded token must fail.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	wantAppError(t, err, 401)

	// The new token keeps working.
	if _, err := svc.Refresh(ctx, next.RefreshToken); err != nil {
		t.Fatalf("Refresh(rotated token) error = %v", err)
	}
}

func TestRefresh_GarbageToken(t *testing.T) {
	svc := newTestService(&memoryUserRepo{})

	_, err := svc.Refresh(context.Background(), "not.a.token")
	wantAppError(t, err, 401)
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	repo := &memoryUserRepo{}
	svc := newTestService(repo)

	pair, _ := registerAndLogin(t, svc, repo)

	// An access token is signed with the other secret; it must not pass as
	// a refresh credential.
	_, err := svc.Refresh(context.Background(), pair.AccessToken)
	wantAppError(t, err, 401)
}

func TestRefresh_LostRotationRace(t *testing.T) {
	tm := testTokenManager()
	refresh, err := tm.IssueRefreshToken("user-1", "alice@example.com")
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}

	// The stored token matches on read but the conditional swap loses, as
	// happens when a concurrent refresh rotated it in between.
	repo := &mockUserRepo{
		findByIDFn: func(_ context.Context, id string) (*User, error) {
			return &User{ID: "user-1", Email: "alice@example.com", RefreshToken: &refresh}, nil
		},
		rotateFn: func(_ context.Context, _, _, _ string) (bool, error) {
			return false, nil
		},
	}
	svc := NewAuthService(repo, NewPasswordHasher(bcrypt.MinCost), tm)

	_, err = svc.Refresh(context.Background(), refresh)
	wantAppError(t, err, 401)
}

func TestRefresh_UserDeleted(t *testing.T) {
	tm := testTokenManager()
	refresh, err := tm.IssueRefreshToken("user-gone", "ghost@example.com")
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}

	svc := NewAuthService(&mockUserRepo{}, NewPasswordHasher(bcrypt.MinCost), tm)

	_, err = svc.Refresh(context.Background(), refresh)
	wantAppError(t, err, 401)
}

func TestLogout_ClearsStoredToken(t *testing.T) {
	repo := &memoryUserRepo{}
	svc := newTestService(repo)
	ctx := context.Background()

	pair, _ := registerAndLogin(t, svc, repo)

	if err := svc.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if repo.user.RefreshToken != nil {
		t.Error("stored refresh token survived logout")
	}

	// The revoked token cannot refresh anymore.
	_, err := svc.Refresh(ctx, pair.RefreshToken)
	wantAppError(t, err, 401)
}

func TestLogout_ToleratesBadInput(t *testing.T) {
	svc := newTestService(&memoryUserRepo{})
	ctx := context.Background()

	if err := svc.Logout(ctx, ""); err != nil {
		t.Errorf("Logout(empty) error = %v, want nil", err)
	}
	if err := svc.Logout(ctx, "garbage"); err != nil {
		t.Errorf("Logout(garbage) error = %v, want nil", err)
	}
}
