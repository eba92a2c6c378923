package repository

import (
	"errors"
	"fmt"

	"fsanano/mini-shop/internal/model"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// translate maps driver errors onto the model error taxonomy.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", model.ErrNotFound, what)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %s", model.ErrConflict, what)
		case pgerrcode.ForeignKeyViolation, pgerrcode.CheckViolation, pgerrcode.NumericValueOutOfRange:
			return fmt.Errorf("%w: %s: %s", model.ErrInvalidInput, what, pgErr.Detail)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}
