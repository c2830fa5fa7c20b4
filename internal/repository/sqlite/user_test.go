package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/apexkudos/kudos/internal/apperror"
	"github.com/apexkudos/kudos/internal/model"
)

// newTestDB opens a fresh in-memory database that is closed when the test ends.
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
func createTestUser(t *testing.T, db *DB, email string, balance int) *model.User {
	t.Helper()
	user := &model.User{
		Email:         email,
		FirstName:     "Test",
		LastName:      email,
		PasswordHash:  "not-a-real-hash",
		PointsBalance: balance,
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Email:        "ada@example.com",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		PasswordHash: "hash",
	}

	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if user.ID == 0 {
		t.Error("CreateUser() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("CreateUser() did not set user.CreatedAt")
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "dup@example.com", 0)

	duplicate := &model.User{Email: "DUP@example.com", PasswordHash: "hash"}
	err := db.CreateUser(context.Background(), duplicate)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("CreateUser() error = %v, want ErrValidation", err)
	}
}

func TestCreateUser_DuplicateSlackID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := &model.User{Email: "a@example.com", PasswordHash: "h", SlackID: "U1"}
	if err := db.CreateUser(ctx, first); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	// Users without Slack never collide with each other.
	for _, email := range []string{"b@example.com", "c@example.com"} {
		if err := db.CreateUser(ctx, &model.User{Email: email, PasswordHash: "h"}); err != nil {
			t.Fatalf("CreateUser(%s) error = %v", email, err)
		}
	}

	err := db.CreateUser(ctx, &model.User{Email: "d@example.com", PasswordHash: "h", SlackID: "U1"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("CreateUser() error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// LOOKUP TESTS
// =========================================================================

func TestGetUserByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "find@example.com", 15)

	found, err := db.GetUserByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if found.Email != "find@example.com" {
		t.Errorf("Email = %q, want %q", found.Email, "find@example.com")
	}
	if found.PointsBalance != 15 {
		t.Errorf("PointsBalance = %d, want 15", found.PointsBalance)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), 404)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

func TestGetUserByEmail_CaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "Grace@Example.com", 0)

	found, err := db.GetUserByEmail(context.Background(), "grace@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}
}

func TestGetUserBySlackID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := &model.User{Email: "slack@example.com", PasswordHash: "h", SlackID: "U123"}
	if err := db.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	found, err := db.GetUserBySlackID(ctx, "U123")
	if err != nil {
		t.Fatalf("GetUserBySlackID() error = %v", err)
	}
	if found.SlackID != "U123" {
		t.Errorf("SlackID = %q, want U123", found.SlackID)
	}

	if _, err := db.GetUserBySlackID(ctx, "U999"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserBySlackID(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestListUsers(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "one@example.com", 0)
	createTestUser(t, db, "two@example.com", 0)

	users, err := db.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("len(users) = %d, want 2", len(users))
	}
	if users[0].Email != "one@example.com" {
		t.Errorf("users[0].Email = %q, want one@example.com", users[0].Email)
	}
}

func TestSetAdmin(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "boss@example.com", 0)

	ok, err := db.SetAdmin(ctx, "boss@example.com", true)
	if err != nil || !ok {
		t.Fatalf("SetAdmin() = %v, %v; want true, nil", ok, err)
	}
	found, _ := db.GetUserByID(ctx, user.ID)
	if !found.IsAdmin {
		t.Error("IsAdmin = false after SetAdmin(true)")
	}

	ok, err = db.SetAdmin(ctx, "nobody@example.com", true)
	if err != nil || ok {
		t.Errorf("SetAdmin(unknown) = %v, %v; want false, nil", ok, err)
	}
}
