package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"keydesk/internal/domain"

	"github.com/lib/pq"
)

// ProofreadingRepo implements repository.ProofreadingRepository
type ProofreadingRepo struct {
	db *sql.DB
}

// NewProofreadingRepo creates a new proofreading batch repository
func NewProofreadingRepo(db *sql.DB) *ProofreadingRepo {
	return &ProofreadingRepo{db: db}
}

// CommitBatch marks the batch keys as sent and stores the batch in one transaction
func (r *ProofreadingRepo) CommitBatch(ctx context.Context, req *domain.ProofreadingRequest) error {
	if len(req.KeyIDs) == 0 {
		return domain.ErrEmptySelection
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE key_requests
		SET status = 'sent'
		WHERE id = ANY($1) AND status = 'in_progress'
	`, pq.Array(req.KeyIDs))
	if err != nil {
		return err
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if updated != int64(len(req.KeyIDs)) {
		return fmt.Errorf("%w: %d of %d keys still in progress", domain.ErrNotInProgress, updated, len(req.KeyIDs))
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO proofreading_requests (id, channel, message_ref, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, req.ID, req.Channel, req.MessageRef, nullString(req.IdempotencyKey), req.CreatedAt)
	if err != nil {
		return err
	}

	for i, keyID := range req.KeyIDs {
		name := ""
		if i < len(req.Keys) {
			name = req.Keys[i]
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO proofreading_keys (request_id, key_request_id, position, translation_key)
			VALUES ($1, $2, $3, $4)
		`, req.ID, keyID, i, name)
		if err != nil {
			return err
		}
	}

	for _, lang := range domain.ProofreadingLanguages {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO proofreading_completion (request_id, language, done)
			VALUES ($1, $2, $3)
		`, req.ID, string(lang), req.Completion[lang])
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

const requestColumns = `id, channel, message_ref, idempotency_key, created_at`

// GetRequest returns a batch by id
func (r *ProofreadingRepo) GetRequest(ctx context.Context, id string) (*domain.ProofreadingRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM proofreading_requests WHERE id = $1`
	req, err := scanRequest(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", domain.ErrRequestNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadDetails(ctx, []*domain.ProofreadingRequest{req}); err != nil {
		return nil, err
	}
	return req, nil
}

// FindByIdempotencyKey returns the batch sent under key, or nil
func (r *ProofreadingRepo) FindByIdempotencyKey(ctx context.Context, key string) (*domain.ProofreadingRequest, error) {
	if key == "" {
		return nil, nil
	}

	query := `SELECT ` + requestColumns + ` FROM proofreading_requests WHERE idempotency_key = $1`
	req, err := scanRequest(r.db.QueryRowContext(ctx, query, key))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadDetails(ctx, []*domain.ProofreadingRequest{req}); err != nil {
		return nil, err
	}
	return req, nil
}

// ListRequests returns every batch in send order
func (r *ProofreadingRepo) ListRequests(ctx context.Context) ([]domain.ProofreadingRequest, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+requestColumns+` FROM proofreading_requests ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ptrs []*domain.ProofreadingRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		ptrs = append(ptrs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadDetails(ctx, ptrs); err != nil {
		return nil, err
	}

	out := make([]domain.ProofreadingRequest, 0, len(ptrs))
	for _, req := range ptrs {
		out = append(out, *req)
	}
	return out, nil
}

// SetCompletion flips the completion flag of one language on a batch
func (r *ProofreadingRepo) SetCompletion(ctx context.Context, id string, lang domain.Language, done bool) error {
	if !lang.IsProofread() {
		return fmt.Errorf("%w: %s", domain.ErrUnknownLanguage, lang)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE proofreading_completion
		SET done = $3
		WHERE request_id = $1 AND language = $2
	`, id, string(lang), done)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrRequestNotFound, id)
	}
	return nil
}

// loadDetails fills keys and completion flags of the given batches
func (r *ProofreadingRepo) loadDetails(ctx context.Context, reqs []*domain.ProofreadingRequest) error {
	if len(reqs) == 0 {
		return nil
	}

	byID := make(map[string]*domain.ProofreadingRequest, len(reqs))
	ids := make([]string, 0, len(reqs))
	for _, req := range reqs {
		req.Completion = domain.NewCompletionStatus()
		byID[req.ID] = req
		ids = append(ids, req.ID)
	}

	keyRows, err := r.db.QueryContext(ctx, `
		SELECT request_id, key_request_id, translation_key
		FROM proofreading_keys
		WHERE request_id = ANY($1)
		ORDER BY request_id, position
	`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer keyRows.Close()

	for keyRows.Next() {
		var requestID, keyID, name string
		if err := keyRows.Scan(&requestID, &keyID, &name); err != nil {
			return err
		}
		if req, ok := byID[requestID]; ok {
			req.KeyIDs = append(req.KeyIDs, keyID)
			req.Keys = append(req.Keys, name)
		}
	}
	if err := keyRows.Err(); err != nil {
		return err
	}

	flagRows, err := r.db.QueryContext(ctx, `
		SELECT request_id, language, done
		FROM proofreading_completion
		WHERE request_id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer flagRows.Close()

	for flagRows.Next() {
		var requestID, code string
		var done bool
		if err := flagRows.Scan(&requestID, &code, &done); err != nil {
			return err
		}
		lang := domain.Language(code)
		if req, ok := byID[requestID]; ok && lang.IsProofread() {
			req.Completion[lang] = done
		}
	}

	return flagRows.Err()
}

func scanRequest(row scanner) (*domain.ProofreadingRequest, error) {
	var req domain.ProofreadingRequest
	var idempotencyKey sql.NullString

	if err := row.Scan(&req.ID, &req.Channel, &req.MessageRef, &idempotencyKey, &req.CreatedAt); err != nil {
		return nil, err
	}
	req.IdempotencyKey = idempotencyKey.String

	return &req, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
