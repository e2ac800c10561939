package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/storefront/integration/database/pg"
)

// User roles.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Role         string    `db:"role" json:"role"`
	Username     *string   `db:"username" json:"username,omitempty"`
	Email        *string   `db:"email" json:"email,omitempty"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Company      string    `db:"company" json:"company"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// DisplayName returns the name, falling back to the username or email.
func (u User) DisplayName() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Username != nil:
		return *u.Username
	case u.Email != nil:
		return *u.Email
	}
	return ""
}

type NewUser struct {
	Role         string
	Username     string
	Email        string
	PasswordHash string
	Name         string
	Company      string
}

const userColumns = "id, role, username, email, password_hash, name, company, created_at"

type UserRepo struct {
	db *pg.DB
}

// Create inserts a user. Empty username or email are stored as NULL.
// Duplicates return ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, in NewUser) (User, error) {
	u, err := pg.QueryOneWithRetry(ctx, r.db, "users.create", pgx.RowToStructByName[User],
		`INSERT INTO users (id, role, username, email, password_hash, name, company)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF(lower($4), ''), $5, $6, $7)
		RETURNING `+userColumns,
		uuid.New(), in.Role, in.Username, in.Email, in.PasswordHash, in.Name, in.Company)
	return u, translate(err)
}

func (r *UserRepo) Get(ctx context.Context, id uuid.UUID) (User, error) {
	u, err := pg.QueryOneWithRetry(ctx, r.db, "users.get", pgx.RowToStructByName[User],
		"SELECT "+userColumns+" FROM users WHERE id = $1", id)
	return u, translate(err)
}

// GetByUsername looks up an admin by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	u, err := pg.QueryOneWithRetry(ctx, r.db, "users.get_by_username", pgx.RowToStructByName[User],
		"SELECT "+userColumns+" FROM users WHERE username = $1", username)
	return u, translate(err)
}

// GetByEmail looks up a user by case-insensitive email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	u, err := pg.QueryOneWithRetry(ctx, r.db, "users.get_by_email", pgx.RowToStructByName[User],
		"SELECT "+userColumns+" FROM users WHERE email = lower($1)", email)
	return u, translate(err)
}

// CountAdmins returns how many admin accounts exist.
func (r *UserRepo) CountAdmins(ctx context.Context) (int, error) {
	n, err := pg.QueryOneWithRetry(ctx, r.db, "users.count_admins", pgx.RowTo[int],
		"SELECT count(*)::int FROM users WHERE role = 'admin'")
	return n, translate(err)
}
