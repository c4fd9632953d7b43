package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"keydesk/internal/domain"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// KeyRepo implements repository.KeyRepository
type KeyRepo struct {
	db *sql.DB
}

// NewKeyRepo creates a new key request repository
func NewKeyRepo(db *sql.DB) *KeyRepo {
	return &KeyRepo{db: db}
}

const keyColumns = `id, translation_key, english_text, project, requester, status, drafts, created_at`

// CreateKey inserts a key request.
// The unique index on (project, LOWER(translation_key)) turns races into duplicates.
func (r *KeyRepo) CreateKey(ctx context.Context, k *domain.KeyRequest) error {
	drafts, err := encodeDrafts(k.Drafts)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO key_requests (id, translation_key, english_text, project, requester, status, drafts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.ExecContext(ctx, query,
		k.ID, k.Key, k.EnglishText, string(k.Project), k.Requester, string(k.Status), drafts, k.CreatedAt,
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return &domain.DuplicateKeyError{Project: k.Project, Key: k.Key}
	}
	return err
}

// FindKey returns the request occupying project/key, or nil
func (r *KeyRepo) FindKey(ctx context.Context, project domain.Project, key string) (*domain.KeyRequest, error) {
	query := `
		SELECT ` + keyColumns + `
		FROM key_requests
		WHERE project = $1 AND LOWER(translation_key) = LOWER($2)
	`
	k, err := scanKey(r.db.QueryRowContext(ctx, query, string(project), key))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return k, nil
}

// GetKeys returns the requests with the given ids in creation order
func (r *KeyRepo) GetKeys(ctx context.Context, ids []string) ([]domain.KeyRequest, error) {
	query := `
		SELECT ` + keyColumns + `
		FROM key_requests
		WHERE id = ANY($1)
		ORDER BY created_at, id
	`
	keys, err := r.queryKeys(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}

	found := make(map[string]bool, len(keys))
	for _, k := range keys {
		found[k.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, fmt.Errorf("%w: %s", domain.ErrKeyNotFound, id)
		}
	}

	return keys, nil
}

// ListKeys returns requests with the given status, newest first.
// An empty status lists every request.
func (r *KeyRepo) ListKeys(ctx context.Context, status domain.KeyStatus) ([]domain.KeyRequest, error) {
	query := `
		SELECT ` + keyColumns + `
		FROM key_requests
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id DESC
	`
	return r.queryKeys(ctx, query, string(status))
}

func (r *KeyRepo) queryKeys(ctx context.Context, query string, args ...interface{}) ([]domain.KeyRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []domain.KeyRequest
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, *k)
	}

	return keys, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanKey(row scanner) (*domain.KeyRequest, error) {
	var k domain.KeyRequest
	var project, status string
	var drafts []byte

	if err := row.Scan(&k.ID, &k.Key, &k.EnglishText, &project, &k.Requester, &status, &drafts, &k.CreatedAt); err != nil {
		return nil, err
	}

	s, err := domain.ParseKeyStatus(status)
	if err != nil {
		return nil, err
	}
	k.Status = s
	k.Project = domain.Project(project)

	if k.Drafts, err = decodeDrafts(drafts); err != nil {
		return nil, err
	}

	return &k, nil
}

func encodeDrafts(d domain.Draft) (interface{}, error) {
	if len(d) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode drafts: %w", err)
	}
	return b, nil
}

func decodeDrafts(b []byte) (domain.Draft, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var d domain.Draft
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("failed to decode drafts: %w", err)
	}
	return d, nil
}
