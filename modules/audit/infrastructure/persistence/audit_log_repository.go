package persistence

import (
	"fmt"
	"strings"
	"time"

	"context"

	gerrors "github.com/go-faster/errors"

	"github.com/iota-uz/staffledger/modules/audit/domain/entities/auditlog"
	"github.com/iota-uz/staffledger/pkg/composables"
	"github.com/iota-uz/staffledger/pkg/repo"
)

type AuditLogRepository struct{}

func NewAuditLogRepository() auditlog.Repository {
	return &AuditLogRepository{}
}

func (r *AuditLogRepository) List(ctx context.Context, params *auditlog.FindParams) ([]*auditlog.AuditLog, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where, args := buildAuditLogFilters(params)
	query := `
		SELECT id, table_name, record_id, action, old_values, new_values, changes, actor_id, request_id, created_at
		FROM audit_logs
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC, id DESC
	`
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*auditlog.AuditLog
	for rows.Next() {
		var entry auditlog.AuditLog
		if err := rows.Scan(
			&entry.ID,
			&entry.TableName,
			&entry.RecordID,
			&entry.Action,
			&entry.OldValues,
			&entry.NewValues,
			&entry.Changes,
			&entry.ActorID,
			&entry.RequestID,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *AuditLogRepository) Count(ctx context.Context, params *auditlog.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	where, args := buildAuditLogFilters(params)

	var count int64
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM audit_logs
		WHERE `+strings.Join(where, " AND "),
		args...,
	).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AuditLogRepository) Create(ctx context.Context, log *auditlog.AuditLog) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	if err := tx.QueryRow(
		ctx,
		`INSERT INTO audit_logs (table_name, record_id, action, old_values, new_values, changes, actor_id, request_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`,
		log.TableName,
		log.RecordID,
		log.Action,
		log.OldValues,
		log.NewValues,
		log.Changes,
		log.ActorID,
		log.RequestID,
		log.CreatedAt,
	).Scan(&log.ID, &log.CreatedAt); err != nil {
		return gerrors.Wrap(err, "failed to write audit log")
	}
	return nil
}

func buildAuditLogFilters(params *auditlog.FindParams) ([]string, []interface{}) {
	where := []string{"1 = 1"}
	args := []interface{}{}
	argPos := 1
	if params == nil {
		return where, args
	}

	if table := strings.TrimSpace(params.TableName); table != "" {
		where = append(where, fmt.Sprintf("table_name = $%d", argPos))
		args = append(args, table)
		argPos++
	}
	if params.RecordID != nil {
		where = append(where, fmt.Sprintf("record_id = $%d", argPos))
		args = append(args, *params.RecordID)
		argPos++
	}
	if params.ActorID != nil {
		where = append(where, fmt.Sprintf("actor_id = $%d", argPos))
		args = append(args, *params.ActorID)
		argPos++
	}
	if params.Action != "" {
		where = append(where, fmt.Sprintf("action = $%d", argPos))
		args = append(args, params.Action)
		argPos++
	}
	if params.From != nil && !params.From.IsZero() {
		where = append(where, fmt.Sprintf("created_at >= $%d", argPos))
		args = append(args, *params.From)
		argPos++
	}
	if params.To != nil && !params.To.IsZero() {
		where = append(where, fmt.Sprintf("created_at <= $%d", argPos))
		args = append(args, *params.To)
	}
	return where, args
}
