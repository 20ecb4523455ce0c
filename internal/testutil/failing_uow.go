package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/alexanderramin/phasetrack/internal/db"
)

// WriteFailUoW runs real transactions but fails every write statement that
// mentions Table with Err, so callers can check that earlier writes in the
// same transaction roll back.
type WriteFailUoW struct {
	DB    *sql.DB
	Table string
	Err   error

	injected atomic.Int32
}

// Injected returns how many writes were failed so far.
func (u *WriteFailUoW) Injected() int {
	return int(u.injected.Load())
}

func (u *WriteFailUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(ctx, &tableWriteFailer{DBTX: tx, uow: u}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type tableWriteFailer struct {
	db.DBTX
	uow *WriteFailUoW
}

func (f *tableWriteFailer) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if strings.Contains(query, f.uow.Table) {
		f.uow.injected.Add(1)
		return nil, f.uow.Err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
