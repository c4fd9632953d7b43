package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"keydesk/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var requestRowColumns = []string{"id", "channel", "message_ref", "idempotency_key", "created_at"}

func newBatch(createdAt time.Time) *domain.ProofreadingRequest {
	return &domain.ProofreadingRequest{
		ID:             "b1",
		CreatedAt:      createdAt,
		KeyIDs:         []string{"1", "2"},
		Keys:           []string{"KEY_ONE", "KEY_TWO"},
		Channel:        "#translations",
		MessageRef:     "42",
		IdempotencyKey: "idem-1",
		Completion:     domain.NewCompletionStatus(),
	}
}

func TestProofreadingRepo_CommitBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProofreadingRepo(db)
	createdAt := time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE key_requests SET status = 'sent' WHERE id = ANY\\(\\$1\\) AND status = 'in_progress'").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO proofreading_requests").
		WithArgs("b1", "#translations", "42", "idem-1", createdAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO proofreading_keys").
		WithArgs("b1", "1", 0, "KEY_ONE").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO proofreading_keys").
		WithArgs("b1", "2", 1, "KEY_TWO").
		WillReturnResult(sqlmock.NewResult(1, 1))
	for _, lang := range domain.ProofreadingLanguages {
		mock.ExpectExec("INSERT INTO proofreading_completion").
			WithArgs("b1", string(lang), false).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	err = repo.CommitBatch(context.Background(), newBatch(createdAt))

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProofreadingRepo_CommitBatch_KeyAlreadySent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProofreadingRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE key_requests SET status = 'sent'").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err = repo.CommitBatch(context.Background(), newBatch(time.Now()))

	assert.ErrorIs(t, err, domain.ErrNotInProgress)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProofreadingRepo_CommitBatch_InsertFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProofreadingRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE key_requests SET status = 'sent'").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO proofreading_requests").
		WillReturnError(fmt.Errorf("duplicate idempotency key"))
	mock.ExpectRollback()

	err = repo.CommitBatch(context.Background(), newBatch(time.Now()))

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProofreadingRepo_CommitBatch_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProofreadingRepo(db)

	err = repo.CommitBatch(context.Background(), &domain.ProofreadingRequest{ID: "b1"})

	assert.ErrorIs(t, err, domain.ErrEmptySelection)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func expectDetails(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT request_id, key_request_id, translation_key FROM proofreading_keys").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"request_id", "key_request_id", "translation_key"}).
			AddRow("b1", "1", "KEY_ONE").
			AddRow("b1", "2", "KEY_TWO"))
	mock.ExpectQuery("SELECT request_id, language, done FROM proofreading_completion").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"request_id", "language", "done"}).
			AddRow("b1", "de", true).
			AddRow("b1", "es", false).
			AddRow("b1", "pt", true).
			AddRow("b1", "nl", false).
			AddRow("b1", "fr", true).
			AddRow("b1", "it", false))
}

func TestProofreadingRepo_GetRequest(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProofreadingRepo(db)
	createdAt := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, channel, message_ref, idempotency_key, created_at FROM proofreading_requests WHERE id = \\$1").
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(requestRowColumns).AddRow("b1", "#translations", "42", nil, createdAt))
	expectDetails(mock)

	req, err := repo.GetRequest(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, req.KeyIDs)
	assert.Equal(t, []string{"KEY_ONE", "KEY_TWO"}, req.Keys)
	assert.Empty(t, req.IdempotencyKey)
	assert.Equal(t, 50, req.CompletionRate())
	assert.Equal(t, []domain.Language{domain.LangES, domain.LangNL, domain.LangIT}, req.PendingLanguages())

	mock.ExpectQuery("SELECT (.+) FROM proofreading_requests WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetRequest(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProofreadingRepo_FindByIdempotencyKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProofreadingRepo(db)

	req, err := repo.FindByIdempotencyKey(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, req)

	mock.ExpectQuery("SELECT (.+) FROM proofreading_requests WHERE idempotency_key = \\$1").
		WithArgs("idem-1").
		WillReturnRows(sqlmock.NewRows(requestRowColumns).AddRow("b1", "#translations", "42", "idem-1", time.Now()))
	expectDetails(mock)

	req, err = repo.FindByIdempotencyKey(context.Background(), "idem-1")
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, "idem-1", req.IdempotencyKey)

	mock.ExpectQuery("SELECT (.+) FROM proofreading_requests WHERE idempotency_key = \\$1").
		WithArgs("idem-2").
		WillReturnError(sql.ErrNoRows)

	req, err = repo.FindByIdempotencyKey(context.Background(), "idem-2")
	assert.NoError(t, err)
	assert.Nil(t, req)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProofreadingRepo_ListRequests(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProofreadingRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM proofreading_requests ORDER BY created_at, id").
		WillReturnRows(sqlmock.NewRows(requestRowColumns).
			AddRow("b1", "#translations", "42", nil, time.Now()).
			AddRow("b2", "#translations", "43", nil, time.Now()))
	expectDetails(mock)

	reqs, err := repo.ListRequests(context.Background())
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Len(t, reqs[0].Keys, 2)
	assert.Empty(t, reqs[1].Keys)
	assert.Len(t, reqs[1].Completion, len(domain.ProofreadingLanguages))
	assert.Equal(t, 0, reqs[1].CompletionRate())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProofreadingRepo_SetCompletion(t *testing.T) {
	tests := []struct {
		name        string
		lang        domain.Language
		affected    int64
		expectQuery bool
		expectedErr error
	}{
		{name: "updated", lang: domain.LangDE, affected: 1, expectQuery: true},
		{name: "missing request", lang: domain.LangDE, affected: 0, expectQuery: true, expectedErr: domain.ErrRequestNotFound},
		{name: "draft-only language", lang: domain.LangSV, expectedErr: domain.ErrUnknownLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := NewProofreadingRepo(db)

			if tt.expectQuery {
				mock.ExpectExec("UPDATE proofreading_completion SET done = \\$3 WHERE request_id = \\$1 AND language = \\$2").
					WithArgs("b1", string(tt.lang), true).
					WillReturnResult(sqlmock.NewResult(0, tt.affected))
			}

			err = repo.SetCompletion(context.Background(), "b1", tt.lang, true)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
