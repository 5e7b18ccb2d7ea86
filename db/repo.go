package db

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	ErrStale     = errors.New("record changed concurrently")
	ErrReference = errors.New("referenced record does not exist")
)

type Repo struct{ DB *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

// Transaction runs fn against a Repo bound to one transaction. Returning an
// error from fn rolls everything back.
func (r *Repo) Transaction(ctx context.Context, fn func(tx *Repo) error, opts ...*sql.TxOptions) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repo{DB: tx})
	}, opts...)
}

// Snapshot runs fn inside a read-only transaction. On Postgres the
// transaction is REPEATABLE READ so every query sees the same snapshot;
// SQLite transactions are already serializable.
func (r *Repo) Snapshot(ctx context.Context, fn func(tx *Repo) error) error {
	if r.DB.Dialector.Name() == DriverPostgres {
		return r.Transaction(ctx, fn, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	}
	return r.Transaction(ctx, fn)
}

func (r *Repo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
