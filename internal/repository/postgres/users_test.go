package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/asotorev/voice-gateway-sub001/internal/core/domain"
	"github.com/asotorev/voice-gateway-sub001/internal/repository"
)

func TestUserRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepositoryWithExecutor(mock)

	createdAt := time.Now().UTC()
	user := domain.UserCredential{
		UserID:         "user-123",
		Email:          "ana@example.com",
		Name:           "Ana",
		PassphraseHash: "3a7bd3e2360a3d29eea436fcfb7e44c735d117c42d1c1835420b6b9942dd4f1b",
		CreatedAt:      createdAt,
	}

	mock.ExpectExec(`INSERT INTO voice\.users`).
		WithArgs(
			user.UserID,
			user.Email,
			user.Name,
			user.PassphraseHash,
			false,
			(*time.Time)(nil),
			createdAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepositoryWithExecutor(mock)

	mock.ExpectExec(`INSERT INTO voice\.users`).
		WithArgs(
			pgxmock.AnyArg(),
			pgxmock.AnyArg(),
			pgxmock.AnyArg(),
			pgxmock.AnyArg(),
			pgxmock.AnyArg(),
			pgxmock.AnyArg(),
			pgxmock.AnyArg(),
		).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err = repo.Create(context.Background(), domain.UserCredential{
		UserID: "user-123",
		Email:  "ana@example.com",
	})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUserRepository_GetByEmailHydratesEmbeddings(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepositoryWithExecutor(mock)

	createdAt := time.Now().UTC()
	completedAt := createdAt.Add(time.Hour)

	userRows := pgxmock.NewRows([]string{
		"id", "email", "name", "passphrase_hash", "registration_complete", "registration_completed_at", "created_at",
	}).AddRow(
		"user-1", "ana@example.com", "Ana", "deadbeef", true, &completedAt, createdAt,
	)

	embeddingRows := pgxmock.NewRows([]string{
		"vector", "quality_score", "created_at", "metadata",
	}).AddRow(
		[]float64{0.1, 0.2, 0.3}, 0.92, createdAt, []byte(`{"device":"mic-a"}`),
	).AddRow(
		[]float64{0.4, 0.5, 0.6}, 0.88, createdAt.Add(time.Minute), []byte(nil),
	)

	mock.ExpectQuery(`SELECT .*FROM voice\.users`).
		WithArgs("ana@example.com").
		WillReturnRows(userRows)
	mock.ExpectQuery(`SELECT .*FROM voice\.voice_embeddings`).
		WithArgs("user-1").
		WillReturnRows(embeddingRows)

	user, err := repo.GetByEmail(context.Background(), "ana@example.com")
	if err != nil {
		t.Fatalf("GetByEmail returned error: %v", err)
	}

	if user.UserID != "user-1" {
		t.Fatalf("unexpected user id: %s", user.UserID)
	}
	if !user.RegistrationComplete || user.RegistrationCompletedAt == nil {
		t.Fatal("expected completion flag and timestamp to be populated")
	}
	if len(user.Embeddings) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(user.Embeddings))
	}
	if user.Embeddings[0].QualityScore != 0.92 {
		t.Fatalf("unexpected quality score: %v", user.Embeddings[0].QualityScore)
	}
	if user.Embeddings[0].Metadata["device"] != "mic-a" {
		t.Fatalf("metadata did not round-trip: %v", user.Embeddings[0].Metadata)
	}
	if user.Embeddings[1].Metadata != nil {
		t.Fatalf("expected nil metadata, got %v", user.Embeddings[1].Metadata)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepositoryWithExecutor(mock)

	mock.ExpectQuery(`SELECT .*FROM voice\.users`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_AppendEmbedding(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepositoryWithExecutor(mock)

	createdAt := time.Now().UTC()
	embedding := domain.VoiceEmbedding{
		Vector:       []float64{0.1, 0.2},
		QualityScore: 0.9,
		CreatedAt:    createdAt,
		Metadata:     map[string]any{"sample_id": "sample-1"},
	}

	mock.ExpectExec(`INSERT INTO voice\.voice_embeddings`).
		WithArgs(
			pgxmock.AnyArg(),
			"user-1",
			embedding.Vector,
			embedding.QualityScore,
			createdAt,
			[]byte(`{"sample_id":"sample-1"}`),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.AppendEmbedding(context.Background(), "user-1", embedding); err != nil {
		t.Fatalf("AppendEmbedding returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_UpdateCompletion(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepositoryWithExecutor(mock)

	completedAt := time.Now().UTC()

	mock.ExpectExec(`UPDATE voice\.users`).
		WithArgs(true, completedAt, "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.UpdateCompletion(context.Background(), "user-1", true, completedAt); err != nil {
		t.Fatalf("UpdateCompletion returned error: %v", err)
	}

	mock.ExpectExec(`UPDATE voice\.users`).
		WithArgs(false, nil, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.UpdateCompletion(context.Background(), "missing", false, time.Time{}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
