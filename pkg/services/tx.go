package services

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TxRunner runs a function inside a database transaction. Satisfied by
// *database.DB; tests substitute a pass-through.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}
