package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNoSession is returned when a mapper runs without a session in its context.
var ErrNoSession = errors.New("no database session in context")

// Querier is the statement surface shared by connections and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Conn is a single connection able to open transactions.
// Satisfied by *pgxpool.Conn, *pgx.Conn and pgxmock connections.
type Conn interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Session owns one connection for the duration of a unit of work.
// A session is not safe for concurrent use: pgx connections serialise statements.
type Session struct {
	ID      uuid.UUID
	Conn    Conn
	release func()
}

// NewSession wraps an already acquired connection. release may be nil.
func NewSession(conn Conn, release func()) *Session {
	return &Session{
		ID:      uuid.New(),
		Conn:    conn,
		release: release,
	}
}

// Close releases the connection back to its pool.
// This MUST be called once the session is no longer needed.
func (s *Session) Close() {
	if s == nil || s.release == nil {
		return
	}
	s.release()
	s.release = nil
}

// NewSession acquires a pooled connection for a unit of work.
// The returned Session MUST be closed with defer session.Close().
func (db *DB) NewSession(ctx context.Context) (*Session, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return NewSession(conn, conn.Release), nil
}

type contextKey string

const (
	// SessionKey is the context key for the active session.
	SessionKey contextKey = "session"
	// TxKey is the context key for the active transaction.
	TxKey contextKey = "tx"
)

// SetSession stores the session in context.
func SetSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

// GetSession retrieves the session from context.
// Returns nil and false if not present.
func GetSession(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(SessionKey).(*Session)
	return s, ok && s != nil
}

// QuerierFrom returns the transaction open in ctx, or the session connection when none is.
func QuerierFrom(ctx context.Context) (Querier, error) {
	if tx, ok := ctx.Value(TxKey).(pgx.Tx); ok {
		return tx, nil
	}
	s, ok := GetSession(ctx)
	if !ok {
		return nil, ErrNoSession
	}
	return s.Conn, nil
}

// InTx runs fn inside a transaction on the session connection.
// The transaction commits when fn returns nil and rolls back otherwise.
// Calls made while a transaction is already open in ctx join it.
func InTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(TxKey).(pgx.Tx); ok {
		return fn(ctx)
	}

	s, ok := GetSession(ctx)
	if !ok {
		return ErrNoSession
	}

	tx, err := s.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(context.WithValue(ctx, TxKey, tx)); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
