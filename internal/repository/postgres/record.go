package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hushh-labs/hushhmcp-server/internal/model"
)

var _ model.VaultStore = (*VaultRecordRepository)(nil)

type VaultRecordRepository struct {
	db *Connection
}

func NewVaultRecordRepository(db *Connection) *VaultRecordRepository {
	return &VaultRecordRepository{
		db: db,
	}
}

const recordColumns = `id, user_id, agent_id, scope, name, description,
		ciphertext, iv, tag, encoding, algorithm, s3_key, created_at, updated_at, deleted_at`

func (r *VaultRecordRepository) Create(ctx context.Context, record model.VaultRecord) (model.VaultRecord, error) {
	// Insert with request_id for idempotency; on conflict (user_id,
	// request_id) return the existing row instead of duplicating it.
	query := `
		WITH ins AS (
			INSERT INTO vault_records (id, user_id, agent_id, scope, name, description, ciphertext, iv, tag, encoding, algorithm, s3_key, request_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13::uuid, '00000000-0000-0000-0000-000000000000'))
			ON CONFLICT (user_id, request_id) WHERE request_id IS NOT NULL DO NOTHING
			RETURNING ` + recordColumns + `
		)
		SELECT * FROM ins
		UNION ALL
		SELECT ` + prefixColumns("r") + `
		FROM vault_records r
		WHERE NOT EXISTS (SELECT 1 FROM ins) AND r.user_id = $2 AND r.request_id = NULLIF($13::uuid, '00000000-0000-0000-0000-000000000000')
		LIMIT 1`

	row := r.db.QueryRow(ctx, query,
		record.ID, record.UserID, record.AgentID, record.Scope, record.Name, record.Description,
		record.Ciphertext, record.IV, record.Tag, record.Encoding, record.Algorithm, record.S3Key,
		record.RequestID,
	)

	saved, err := scanRecord(row)
	if err != nil {
		return model.VaultRecord{}, err
	}
	saved.RequestID = record.RequestID

	return saved, nil
}

func (r *VaultRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (model.VaultRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM vault_records
		WHERE id = $1 AND deleted_at IS NULL`

	record, err := scanRecord(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.VaultRecord{}, model.ErrNotFound
		}
		return model.VaultRecord{}, err
	}

	return record, nil
}

func (r *VaultRecordRepository) ListByUser(ctx context.Context, userID string) ([]model.VaultRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM vault_records
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`

	return r.queryRecords(ctx, query, userID)
}

func (r *VaultRecordRepository) ListByUserAndScope(ctx context.Context, userID string, scope string) ([]model.VaultRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM vault_records
		WHERE user_id = $1 AND scope = $2 AND deleted_at IS NULL
		ORDER BY created_at DESC`

	return r.queryRecords(ctx, query, userID, scope)
}

func (r *VaultRecordRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE vault_records SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *VaultRecordRepository) queryRecords(ctx context.Context, query string, args ...any) ([]model.VaultRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.VaultRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func scanRecord(row pgx.Row) (model.VaultRecord, error) {
	var record model.VaultRecord
	err := row.Scan(
		&record.ID, &record.UserID, &record.AgentID, &record.Scope, &record.Name, &record.Description,
		&record.Ciphertext, &record.IV, &record.Tag, &record.Encoding, &record.Algorithm, &record.S3Key,
		&record.CreatedAt, &record.UpdatedAt, &record.DeletedAt,
	)
	return record, err
}

func prefixColumns(alias string) string {
	return alias + `.id, ` + alias + `.user_id, ` + alias + `.agent_id, ` + alias + `.scope, ` + alias + `.name, ` + alias + `.description,
		` + alias + `.ciphertext, ` + alias + `.iv, ` + alias + `.tag, ` + alias + `.encoding, ` + alias + `.algorithm, ` + alias + `.s3_key, ` + alias + `.created_at, ` + alias + `.updated_at, ` + alias + `.deleted_at`
}
