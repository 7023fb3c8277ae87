package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound                = errors.New("order not found")
	ErrSuborderNotFound        = errors.New("suborder not found")
	ErrOfferNotFound           = errors.New("offer not found")
	ErrOfferUnavailable        = errors.New("offer stock unavailable")
	ErrCartNotFound            = errors.New("cart not found")
	ErrBuyerNotFound           = errors.New("buyer not found")
	ErrIdempotencyKeyNotFound  = errors.New("idempotency key not found")
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")
)

// isUniqueViolation reports a PostgreSQL unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
