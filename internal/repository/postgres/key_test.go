package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"keydesk/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keyRowColumns = []string{"id", "translation_key", "english_text", "project", "requester", "status", "drafts", "created_at"}

func TestKeyRepo_CreateKey(t *testing.T) {
	createdAt := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		drafts        domain.Draft
		mockError     error
		expectedDup   bool
		expectedError bool
	}{
		{
			name: "inserted",
		},
		{
			name:   "inserted with drafts",
			drafts: domain.Draft{domain.LangDE: "[DE] Hello"},
		},
		{
			name:          "unique violation",
			mockError:     &pq.Error{Code: "23505"},
			expectedDup:   true,
			expectedError: true,
		},
		{
			name:          "database error",
			mockError:     fmt.Errorf("connection reset"),
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := NewKeyRepo(db)

			k := &domain.KeyRequest{
				ID:          "k1",
				Key:         "X",
				EnglishText: "Hello",
				Project:     domain.ProjectWeb,
				Requester:   "John Doe",
				Status:      domain.StatusInProgress,
				Drafts:      tt.drafts,
				CreatedAt:   createdAt,
			}

			exp := mock.ExpectExec("INSERT INTO key_requests").
				WithArgs("k1", "X", "Hello", "Holidu Web", "John Doe", "in_progress", sqlmock.AnyArg(), createdAt)
			if tt.mockError != nil {
				exp.WillReturnError(tt.mockError)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(1, 1))
			}

			err = repo.CreateKey(context.Background(), k)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedDup, errors.Is(err, domain.ErrDuplicateKey))
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestKeyRepo_FindKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewKeyRepo(db)
	query := "SELECT id, translation_key, english_text, project, requester, status, drafts, created_at FROM key_requests WHERE project = \\$1 AND LOWER\\(translation_key\\) = LOWER\\(\\$2\\)"

	mock.ExpectQuery(query).
		WithArgs("Backend", "list_smart_search_title").
		WillReturnRows(sqlmock.NewRows(keyRowColumns).
			AddRow("3", "LIST_SMART_SEARCH_TITLE", "Smart search results", "Backend", "Anna Schmidt", "in_progress", []byte(`{"de":"[DE] Smart search results"}`), time.Now()))

	k, err := repo.FindKey(context.Background(), domain.ProjectBackend, "list_smart_search_title")
	require.NoError(t, err)
	require.NotNil(t, k)
	assert.Equal(t, "LIST_SMART_SEARCH_TITLE", k.Key)
	assert.Equal(t, domain.StatusInProgress, k.Status)
	assert.Equal(t, "[DE] Smart search results", k.Drafts[domain.LangDE])

	mock.ExpectQuery(query).
		WithArgs("Mobile", "nothing").
		WillReturnRows(sqlmock.NewRows(keyRowColumns))

	k, err = repo.FindKey(context.Background(), domain.ProjectMobile, "nothing")
	assert.NoError(t, err)
	assert.Nil(t, k)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeyRepo_GetKeys(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewKeyRepo(db)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM key_requests WHERE id = ANY\\(\\$1\\)").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(keyRowColumns).
			AddRow("1", "A", "a", "Mobile", "Mike Chen", "in_progress", nil, now).
			AddRow("2", "B", "b", "Mobile", "Mike Chen", "sent", nil, now))

	keys, err := repo.GetKeys(context.Background(), []string{"2", "1"})
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, "1", keys[0].ID)
	assert.Equal(t, domain.StatusSent, keys[1].Status)

	mock.ExpectQuery("SELECT (.+) FROM key_requests WHERE id = ANY\\(\\$1\\)").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(keyRowColumns).
			AddRow("1", "A", "a", "Mobile", "Mike Chen", "in_progress", nil, now))

	keys, err = repo.GetKeys(context.Background(), []string{"1", "missing"})
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	assert.Nil(t, keys)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeyRepo_ListKeys(t *testing.T) {
	tests := []struct {
		name          string
		rows          *sqlmock.Rows
		mockError     error
		expectedCount int
		expectedError bool
	}{
		{
			name: "two keys",
			rows: sqlmock.NewRows(keyRowColumns).
				AddRow("2", "B", "b", "Mobile", "Mike Chen", "in_progress", nil, time.Now()).
				AddRow("1", "A", "a", "Holidu Web", "Sarah Johnson", "in_progress", nil, time.Now().AddDate(0, 0, -1)),
			expectedCount: 2,
		},
		{
			name:          "query error",
			mockError:     fmt.Errorf("query error"),
			expectedError: true,
		},
		{
			name: "unknown status in row",
			rows: sqlmock.NewRows(keyRowColumns).
				AddRow("1", "A", "a", "Mobile", "Mike Chen", "completed", nil, time.Now()),
			expectedError: true,
		},
		{
			name: "scan error",
			rows: sqlmock.NewRows(keyRowColumns).
				AddRow("1", "A", "a", "Mobile", "Mike Chen", "in_progress", nil, "invalid"),
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := NewKeyRepo(db)

			exp := mock.ExpectQuery("SELECT (.+) FROM key_requests WHERE \\(\\$1 = '' OR status = \\$1\\) ORDER BY created_at DESC, id DESC").
				WithArgs("in_progress")
			if tt.mockError != nil {
				exp.WillReturnError(tt.mockError)
			} else {
				exp.WillReturnRows(tt.rows)
			}

			keys, err := repo.ListKeys(context.Background(), domain.StatusInProgress)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, keys)
			} else {
				assert.NoError(t, err)
				assert.Len(t, keys, tt.expectedCount)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
