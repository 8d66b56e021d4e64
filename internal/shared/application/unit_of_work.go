package application

import "context"

// UnitOfWork scopes a set of repository operations to one transaction.
// Begin returns a derived context that repositories recognize; Commit and
// Rollback must be called with that derived context.
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWorkFunc runs inside an open unit of work.
type UnitOfWorkFunc func(ctx context.Context) error

// WithUnitOfWork runs fn transactionally: commit on nil, rollback on error.
// The rollback error is discarded because fn's error is the one the caller
// acts on.
func WithUnitOfWork(ctx context.Context, uow UnitOfWork, fn UnitOfWorkFunc) error {
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(txCtx); err != nil {
		_ = uow.Rollback(txCtx)
		return err
	}

	return uow.Commit(txCtx)
}
