package sqlite

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sakif/recipe-mate/internal/apperror"
	"github.com/sakif/recipe-mate/internal/model"
	"github.com/sakif/recipe-mate/internal/repository"
)

// newTestDB returns a fresh in-memory database, closed when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser creates a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, first, email string, role int) *model.User {
	t.Helper()
	user := &model.User{
		FirstName: first,
		LastName:  "Tester",
		Email:     email,
		Password:  "digest",
		Role:      role,
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{FirstName: "Asha", LastName: "Rao", Email: "  Asha@Example.com ", Password: "d"}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if user.ID == "" {
		t.Error("CreateUser() did not set user.ID")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("CreateUser() did not set timestamps")
	}
	if user.Email != "asha@example.com" {
		t.Errorf("Email = %q, want normalised", user.Email)
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "First", "dup@example.com", model.RoleUser)

	err := db.CreateUser(context.Background(), &model.User{
		FirstName: "Second", LastName: "User", Email: "DUP@example.com",
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("CreateUser() error = %v, want ErrConflict", err)
	}
	if got := apperror.MessageOf(err); got == "" || !strings.Contains(got, "email") {
		t.Errorf("conflict message %q should mention email", got)
	}
}

// =========================================================================
// READ TESTS
// =========================================================================

func TestUserGetByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "Get", "get@example.com", model.RoleUser)

	got, err := db.GetUserByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Email != "get@example.com" || got.FirstName != "Get" {
		t.Errorf("GetUserByID() = %+v", got)
	}
	if got.ResetExpires != nil {
		t.Error("fresh user should have no reset expiry")
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), "nope")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByEmail_CaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "Mail", "mail@example.com", model.RoleUser)

	got, err := db.GetUserByEmail(context.Background(), "MAIL@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetUserByEmail() id = %s, want %s", got.ID, created.ID)
	}
}

// =========================================================================
// PASSWORD / RESET TESTS
// =========================================================================

func TestUserResetTokenLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "Reset", "reset@example.com", model.RoleUser)

	expires := time.Date(2030, 5, 6, 7, 8, 9, 0, time.UTC)
	if err := db.SetResetToken(ctx, user.ID, "token-digest", expires); err != nil {
		t.Fatalf("SetResetToken() error = %v", err)
	}

	got, _ := db.GetUserByID(ctx, user.ID)
	if got.ResetToken != "token-digest" {
		t.Errorf("ResetToken = %q", got.ResetToken)
	}
	if got.ResetExpires == nil || !got.ResetExpires.Equal(expires) {
		t.Errorf("ResetExpires = %v, want %v", got.ResetExpires, expires)
	}

	if err := db.SetPassword(ctx, user.ID, "new-digest"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}

	got, _ = db.GetUserByID(ctx, user.ID)
	if got.Password != "new-digest" {
		t.Errorf("Password = %q", got.Password)
	}
	if got.ResetToken != "" || got.ResetExpires != nil {
		t.Error("SetPassword() must clear the reset fields")
	}
}

// =========================================================================
// MEMBER (ADMIN-MANAGED) TESTS
// =========================================================================

func TestMembersExcludeAdmins(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	admin := createTestUser(t, db, "Admin", "admin@example.com", model.RoleAdmin)
	for _, e := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		createTestUser(t, db, "Member", e, model.RoleUser)
	}

	n, err := db.CountMembers(ctx)
	if err != nil || n != 3 {
		t.Fatalf("CountMembers() = %d, %v; want 3", n, err)
	}

	page, err := db.ListMembers(ctx, repository.ListOptions{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("ListMembers() error = %v", err)
	}
	if len(page) != 1 {
		t.Errorf("second page has %d members, want 1", len(page))
	}

	if _, err := db.GetMemberByID(ctx, admin.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetMemberByID(admin) error = %v, want ErrNotFound", err)
	}
}

func TestUserUpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestUser(t, db, "Taken", "taken@example.com", model.RoleUser)
	user := createTestUser(t, db, "Old", "old@example.com", model.RoleUser)

	user.FirstName = "New"
	if err := db.UpdateUser(ctx, user); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	user.Email = "taken@example.com"
	if err := db.UpdateUser(ctx, user); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("UpdateUser() to a taken email error = %v, want ErrConflict", err)
	}

	if err := db.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if err := db.DeleteUser(ctx, user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteUser() error = %v, want ErrNotFound", err)
	}
}
