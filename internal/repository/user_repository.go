package repository

import (
	"context"
	"fmt"

	"fsanano/mini-shop/internal/model"

	"github.com/jackc/pgx/v5"
)

type userRepo struct {
	db *DB
}

func NewUserRepository(db *DB) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, email, password_hash, role, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	sql := `INSERT INTO users (email, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.executor(ctx).QueryRow(ctx, sql, u.Email, u.PasswordHash, string(u.Role)).Scan(&u.ID, &u.CreatedAt)
	return translate(err, "create user")
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(r.db.executor(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("user %d", id))
	}
	return u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.db.executor(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, translate(err, "user by email")
	}
	return u, nil
}

func (r *userRepo) List(ctx context.Context, offset, limit int) ([]model.User, error) {
	rows, err := r.db.executor(ctx).Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}
	return users, nil
}

func (r *userRepo) Update(ctx context.Context, u *model.User) error {
	tag, err := r.db.executor(ctx).Exec(ctx,
		`UPDATE users SET email = $1, password_hash = $2, role = $3 WHERE id = $4`,
		u.Email, u.PasswordHash, string(u.Role), u.ID)
	if err != nil {
		return translate(err, fmt.Sprintf("update user %d", u.ID))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %d", model.ErrNotFound, u.ID)
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.executor(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translate(err, fmt.Sprintf("delete user %d", id))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %d", model.ErrNotFound, id)
	}
	return nil
}
