// Package pg implementa los repositorios de sesamo sobre PostgreSQL.
// Usa pgxpool directamente; cada repo recibe el pool compartido.
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/sesamo/internal/domain/repository"
)

// Store agrupa los repositorios PostgreSQL sobre un pool compartido.
type Store struct {
	pool *pgxpool.Pool
}

// Options configura la conexión al pool.
type Options struct {
	DSN      string
	MaxConns int32
}

// New abre el pool y verifica la conexión.
func New(ctx context.Context, opts Options) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}

	if opts.MaxConns > 0 {
		poolCfg.MaxConns = opts.MaxConns
	} else {
		poolCfg.MaxConns = 10
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Ping verifica que el pool siga vivo. Lo usa /readyz.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close cierra el pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Providers() repository.ProviderRepository     { return &providerRepo{pool: s.pool} }
func (s *Store) AuthClients() repository.AuthClientRepository { return &authClientRepo{pool: s.pool} }
func (s *Store) AuthTokens() repository.AuthTokenRepository   { return &authTokenRepo{pool: s.pool} }

// pgUniqueViolation es el SQLSTATE de unique_violation.
const pgUniqueViolation = "23505"

// classifyError traduce errores de pgx a los sentinelas del dominio.
// 23505 (unique_violation) se vuelve ErrConflict para que el caller
// pueda re-resolver el registro ganador.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrConflict, pgErr.ConstraintName)
	}
	return err
}
