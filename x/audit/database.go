package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/offbit-ai/zeal-auth/core"
)

// databaseProvider writes audit_logs rows. When the table was created as a
// partitioned parent it lazily creates one partition per month; against a
// plain table it just inserts.
type databaseProvider struct {
	db *gorm.DB

	mutex       sync.Mutex
	ensured     map[string]bool
	partitioned *bool
}

func NewDatabaseProvider(db *gorm.DB) Provider {
	return &databaseProvider{db: db, ensured: make(map[string]bool)}
}

func (p *databaseProvider) Log(ctx context.Context, entry core.AuditEntry) error {
	return p.LogBatch(ctx, []core.AuditEntry{entry})
}

func (p *databaseProvider) LogBatch(ctx context.Context, entries []core.AuditEntry) error {
	rows := make([]core.AuditLog, 0, len(entries))
	for _, entry := range entries {
		p.ensurePartition(ctx, entry.Timestamp)
		row, err := rowFromEntry(entry)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}

	err := p.db.WithContext(ctx).Create(&rows).Error
	if err != nil {
		return errors.Wrap(err, "failed to insert audit rows")
	}
	return nil
}

func (p *databaseProvider) Query(ctx context.Context, query core.AuditQuery) ([]core.AuditEntry, error) {
	tx := p.db.WithContext(ctx).Model(&core.AuditLog{})
	if query.TenantID != "" {
		tx = tx.Where("tenant_id = ?", query.TenantID)
	}
	if query.SubjectID != "" {
		tx = tx.Where("subject_id = ?", query.SubjectID)
	}
	if query.ResourceType != "" {
		tx = tx.Where("resource_type = ?", query.ResourceType)
	}
	if query.ResourceID != "" {
		tx = tx.Where("resource_id = ?", query.ResourceID)
	}
	if query.Action != "" {
		tx = tx.Where("action = ?", query.Action)
	}
	if query.Allowed != nil {
		tx = tx.Where("allowed = ?", *query.Allowed)
	}
	if !query.Since.IsZero() {
		tx = tx.Where("timestamp >= ?", query.Since)
	}
	if !query.Until.IsZero() {
		tx = tx.Where("timestamp <= ?", query.Until)
	}
	tx = tx.Order("timestamp DESC")
	if query.Limit > 0 {
		tx = tx.Limit(query.Limit)
	}

	var rows []core.AuditLog
	err := tx.Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to query audit rows")
	}

	out := make([]core.AuditEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, entryFromRow(row))
	}
	return out, nil
}

func (p *databaseProvider) Close() error {
	return nil
}

// ensurePartition creates the monthly partition covering the timestamp.
// Failures only warn; the insert itself decides whether the write works.
func (p *databaseProvider) ensurePartition(ctx context.Context, at time.Time) {
	month := at.UTC().Format("2006_01")

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.ensured[month] {
		return
	}

	if p.partitioned == nil {
		var count int64
		err := p.db.WithContext(ctx).Raw(
			"SELECT count(*) FROM pg_partitioned_table pt JOIN pg_class c ON c.oid = pt.partrelid WHERE c.relname = 'audit_logs'",
		).Scan(&count).Error
		if err != nil {
			slog.Warn("failed to inspect audit_logs partitioning", slog.String("error", err.Error()))
			return
		}
		is := count > 0
		p.partitioned = &is
		if !is {
			slog.Warn("audit_logs is not range partitioned, monthly partitions disabled")
		}
	}
	if !*p.partitioned {
		p.ensured[month] = true
		return
	}

	start := time.Date(at.UTC().Year(), at.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	ddl := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS audit_logs_y%dm%02d PARTITION OF audit_logs FOR VALUES FROM ('%s') TO ('%s')",
		start.Year(), int(start.Month()), start.Format("2006-01-02"), end.Format("2006-01-02"),
	)
	err := p.db.WithContext(ctx).Exec(ddl).Error
	if err != nil {
		slog.Warn("failed to create audit partition",
			slog.String("month", month),
			slog.String("error", err.Error()),
		)
		return
	}

	p.ensured[month] = true
}

func rowFromEntry(entry core.AuditEntry) (core.AuditLog, error) {
	doc, err := json.Marshal(entry)
	if err != nil {
		return core.AuditLog{}, errors.Wrap(err, "failed to encode audit entry")
	}
	return core.AuditLog{
		ID:              entry.ID,
		Timestamp:       entry.Timestamp,
		TenantID:        entry.Subject.TenantID,
		SubjectID:       entry.Subject.ID,
		SubjectType:     entry.Subject.Type,
		ResourceType:    entry.Resource.Type,
		ResourceID:      entry.Resource.ID,
		Action:          entry.Action.Name,
		Allowed:         entry.Result.Allowed,
		Reason:          entry.Result.Reason,
		MatchedPolicies: entry.Result.MatchedPolicies,
		DurationUS:      entry.Duration.Microseconds(),
		FromCache:       entry.FromCache,
		Entry:           string(doc),
	}, nil
}

func entryFromRow(row core.AuditLog) core.AuditEntry {
	var entry core.AuditEntry
	err := json.Unmarshal([]byte(row.Entry), &entry)
	if err == nil {
		return entry
	}

	// fall back to the extracted columns when the document is unreadable
	return core.AuditEntry{
		ID:        row.ID,
		Timestamp: row.Timestamp,
		Subject:   core.Subject{ID: row.SubjectID, Type: row.SubjectType, TenantID: row.TenantID},
		Resource:  core.Resource{Type: row.ResourceType, ID: row.ResourceID},
		Action:    core.Action{Name: row.Action},
		Result: core.AuthorizationResult{
			Allowed:         row.Allowed,
			Reason:          row.Reason,
			MatchedPolicies: row.MatchedPolicies,
		},
		Duration:  time.Duration(row.DurationUS) * time.Microsecond,
		FromCache: row.FromCache,
	}
}
