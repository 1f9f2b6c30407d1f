package accounts

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/varnwear/storefront/internal/domain"
)

var ErrEmailTaken = errors.New("Email already registered")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, first_name, last_name, email, password_hash,
	COALESCE(profile_image, ''), COALESCE(phone, ''),
	COALESCE(address_street, ''), COALESCE(address_city, ''),
	COALESCE(address_state, ''), COALESCE(address_pincode, ''), created_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&u.ProfileImage, &u.Phone,
		&u.Address.Street, &u.Address.City, &u.Address.State, &u.Address.Pincode,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) CreateUser(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, email, password_hash, profile_image,
			phone, address_street, address_city, address_state, address_pincode, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.ProfileImage,
		u.Phone, u.Address.Street, u.Address.City, u.Address.State, u.Address.Pincode, u.CreatedAt)

	// unique_violation on users.email
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (r *Repository) UpdateUser(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET first_name = $2, last_name = $3, profile_image = $4, phone = $5,
		    address_street = $6, address_city = $7, address_state = $8, address_pincode = $9
		WHERE id = $1
	`, u.ID, u.FirstName, u.LastName, u.ProfileImage, u.Phone,
		u.Address.Street, u.Address.City, u.Address.State, u.Address.Pincode)
	return err
}

func (r *Repository) UpdatePassword(ctx context.Context, email, passwordHash string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2 WHERE email = $1
	`, email, passwordHash)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// DeleteAllUsers wipes every account together with the orders and reviews
// that reference it; order items go with their orders via the cascade.
func (r *Repository) DeleteAllUsers(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM reviews`,
		`DELETE FROM orders`,
		`DELETE FROM users`,
	} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) GetAdminByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	a := &domain.Admin{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, COALESCE(email, ''), created_at
		FROM admins
		WHERE username = $1
	`, username).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Email, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (r *Repository) CreateAdmin(ctx context.Context, a *domain.Admin) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admins (id, username, password_hash, email, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, a.ID, a.Username, a.PasswordHash, a.Email, a.CreatedAt)
	return err
}
