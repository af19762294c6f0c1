package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/asotorev/voice-gateway-sub001/internal/core/domain"
	"github.com/asotorev/voice-gateway-sub001/internal/core/port"
	"github.com/asotorev/voice-gateway-sub001/internal/repository"
)

const pgUniqueViolation = "23505"

// UserRepository implements port.UserRepository using PostgreSQL.
// Embeddings live in voice.voice_embeddings keyed by user; loading a
// user always hydrates them in insertion order.
type UserRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository wires a PostgreSQL-backed user repository on the
// shared store.
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{
		exec:    store.Pool(),
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// NewUserRepositoryWithExecutor wires a repository on any executor,
// including pgxmock pools and transactions.
func NewUserRepositoryWithExecutor(exec pgExecutor) *UserRepository {
	return &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, user domain.UserCredential) error {
	stmt, args, err := r.builder.Insert("voice.users").
		Columns(
			"id",
			"email",
			"name",
			"passphrase_hash",
			"registration_complete",
			"registration_completed_at",
			"created_at",
		).
		Values(
			user.UserID,
			user.Email,
			user.Name,
			user.PassphraseHash,
			user.RegistrationComplete,
			user.RegistrationCompletedAt,
			user.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user and their embeddings by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.UserCredential, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a user and their embeddings by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.UserCredential, error) {
	return r.getBy(ctx, squirrel.Eq{"email": email})
}

func (r *UserRepository) getBy(ctx context.Context, where squirrel.Eq) (*domain.UserCredential, error) {
	stmt, args, err := r.builder.
		Select(
			"id",
			"email",
			"name",
			"passphrase_hash",
			"registration_complete",
			"registration_completed_at",
			"created_at",
		).
		From("voice.users").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	var user domain.UserCredential
	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(
		&user.UserID,
		&user.Email,
		&user.Name,
		&user.PassphraseHash,
		&user.RegistrationComplete,
		&user.RegistrationCompletedAt,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	embeddings, err := r.listEmbeddings(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	user.Embeddings = embeddings

	return &user, nil
}

func (r *UserRepository) listEmbeddings(ctx context.Context, userID string) ([]domain.VoiceEmbedding, error) {
	stmt, args, err := r.builder.
		Select("vector", "quality_score", "created_at", "metadata").
		From("voice.voice_embeddings").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select embeddings sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	embeddings := make([]domain.VoiceEmbedding, 0)
	for rows.Next() {
		var (
			embedding domain.VoiceEmbedding
			metadata  []byte
		)
		if err := rows.Scan(&embedding.Vector, &embedding.QualityScore, &embedding.CreatedAt, &metadata); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &embedding.Metadata); err != nil {
				return nil, fmt.Errorf("decode embedding metadata: %w", err)
			}
		}
		embeddings = append(embeddings, embedding)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embeddings: %w", err)
	}

	return embeddings, nil
}

// AppendEmbedding stores one voice sample's embedding for a user.
func (r *UserRepository) AppendEmbedding(ctx context.Context, userID string, embedding domain.VoiceEmbedding) error {
	var metadata []byte
	if embedding.Metadata != nil {
		encoded, err := json.Marshal(embedding.Metadata)
		if err != nil {
			return fmt.Errorf("encode embedding metadata: %w", err)
		}
		metadata = encoded
	}

	createdAt := embedding.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	stmt, args, err := r.builder.Insert("voice.voice_embeddings").
		Columns("id", "user_id", "vector", "quality_score", "created_at", "metadata").
		Values(uuid.NewString(), userID, embedding.Vector, embedding.QualityScore, createdAt, metadata).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert embedding sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert embedding: %w", err)
	}

	return nil
}

// UpdateCompletion flips the registration completion flag for a user.
func (r *UserRepository) UpdateCompletion(ctx context.Context, userID string, complete bool, completedAt time.Time) error {
	var completedValue any
	if complete {
		completedValue = completedAt.UTC()
	}

	stmt, args, err := r.builder.Update("voice.users").
		Set("registration_complete", complete).
		Set("registration_completed_at", completedValue).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update completion sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update completion: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.UserRepository = (*UserRepository)(nil)
