package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	authkit "github.com/Unfeir/authkit"
	"github.com/Unfeir/authkit/store/postgres/migrations"
)

// Store is the PostgreSQL-backed [authkit.CredentialStore].
type Store struct {
	db *sql.DB
}

// Open dials PostgreSQL with the pgx stdlib driver and verifies the
// connection with a ping. The returned store owns the pool; Close it when
// done.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing pool. The caller keeps ownership of db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// RunMigrations applies the embedded goose migrations. Already-applied
// versions are skipped, so calling it on every startup is safe.
func (s *Store) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("postgres: set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// Close releases the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

const identityColumns = `id, email, username, password_hash, email_confirmed, refresh_token, password_reset_token, created_at`

// FindByEmail returns the identity registered under email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*authkit.Identity, error) {
	query := `
		SELECT ` + identityColumns + `
		FROM identities
		WHERE email = $1`

	identity, err := scanIdentity(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", authkit.ErrIdentityNotFound, email)
		}
		return nil, fmt.Errorf("postgres: find by email: %w", err)
	}
	return identity, nil
}

// FindByID returns the identity with the given id.
func (s *Store) FindByID(ctx context.Context, id string) (*authkit.Identity, error) {
	query := `
		SELECT ` + identityColumns + `
		FROM identities
		WHERE id = $1`

	identity, err := scanIdentity(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", authkit.ErrIdentityNotFound, id)
		}
		return nil, fmt.Errorf("postgres: find by id: %w", err)
	}
	return identity, nil
}

// Create inserts a new identity. The database assigns id and created_at;
// the input is returned with both filled in, the caller's value untouched.
func (s *Store) Create(ctx context.Context, identity *authkit.Identity) (*authkit.Identity, error) {
	query := `
		INSERT INTO identities (email, username, password_hash, email_confirmed, refresh_token, password_reset_token)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	stored := *identity
	err := s.db.QueryRowContext(ctx, query,
		identity.Email, identity.Username, identity.PasswordHash, identity.EmailConfirmed,
		nullString(identity.RefreshToken), nullString(identity.PasswordResetToken),
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", authkit.ErrEmailTaken, identity.Email)
		}
		return nil, fmt.Errorf("postgres: create identity: %w", err)
	}
	return &stored, nil
}

// Save replaces the stored row for identity.ID wholesale.
func (s *Store) Save(ctx context.Context, identity *authkit.Identity) error {
	query := `
		UPDATE identities
		SET email = $2, username = $3, password_hash = $4, email_confirmed = $5, refresh_token = $6, password_reset_token = $7
		WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query,
		identity.ID, identity.Email, identity.Username, identity.PasswordHash, identity.EmailConfirmed,
		nullString(identity.RefreshToken), nullString(identity.PasswordResetToken),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", authkit.ErrEmailTaken, identity.Email)
		}
		return fmt.Errorf("postgres: save identity: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: save identity: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", authkit.ErrIdentityNotFound, identity.ID)
	}
	return nil
}

// Ping reports point-in-time database availability.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

var _ authkit.CredentialStore = (*Store)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*authkit.Identity, error) {
	var (
		identity authkit.Identity
		refresh  sql.NullString
		reset    sql.NullString
	)
	err := row.Scan(
		&identity.ID, &identity.Email, &identity.Username, &identity.PasswordHash,
		&identity.EmailConfirmed, &refresh, &reset, &identity.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if refresh.Valid {
		identity.RefreshToken = &refresh.String
	}
	if reset.Valid {
		identity.PasswordResetToken = &reset.String
	}
	return &identity, nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
