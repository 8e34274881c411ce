// Package audit records authorization decisions into pluggable sinks.
// Writing an entry never fails the decision that produced it.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/offbit-ai/zeal-auth/core"
)

var tracer = otel.Tracer("audit")

// Provider is one audit sink
type Provider interface {
	Log(ctx context.Context, entry core.AuditEntry) error
	LogBatch(ctx context.Context, entries []core.AuditEntry) error
	Query(ctx context.Context, query core.AuditQuery) ([]core.AuditEntry, error)
	Close() error
}

// NewProviders builds the configured sink chain. Unusable entries are logged
// and skipped.
func NewProviders(config core.Config, db *gorm.DB) []Provider {
	var out []Provider
	for _, conf := range config.Audit.Sinks {
		switch conf.Type {
		case "file":
			out = append(out, NewFileProvider(conf.Path))
		case "database":
			if db == nil {
				slog.Warn("database audit sink configured without a database connection")
				continue
			}
			out = append(out, NewDatabaseProvider(db))
		case "syslog":
			provider, err := NewSyslogProvider(conf.Tag)
			if err != nil {
				slog.Warn("failed to open syslog audit sink", slog.String("error", err.Error()))
				continue
			}
			out = append(out, provider)
		case "search":
			out = append(out, NewSearchProvider(conf.URL, conf.Index))
		default:
			slog.Warn("unknown audit sink type", slog.String("type", conf.Type))
		}
	}
	return out
}

type service struct {
	config    core.Config
	providers []Provider

	entries chan core.AuditEntry
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewService(config core.Config, providers []Provider) core.AuditService {
	s := &service{
		config:    config,
		providers: providers,
	}
	if config.Audit.Enabled && config.Audit.Buffered {
		s.entries = make(chan core.AuditEntry, config.Audit.BufferSize*2)
		s.stop = make(chan struct{})
		s.done = make(chan struct{})
		go s.run()
	}
	return s
}

// Log records one decision. Entries carrying an audit obligation bypass
// sampling; everything else is dropped with probability 1-samplingRate.
func (s *service) Log(ctx context.Context, entry core.AuditEntry) {
	_, span := tracer.Start(ctx, "Audit.Service.Log")
	defer span.End()

	if !s.config.Audit.Enabled {
		return
	}

	if s.config.Audit.SamplingRate < 1.0 && !mandatory(entry) {
		if rand.Float64() >= s.config.Audit.SamplingRate {
			return
		}
	}

	if entry.ID == "" {
		entry.ID = xid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry = s.sanitize(entry)

	if s.entries != nil {
		select {
		case s.entries <- entry:
		default:
			slog.Warn("audit buffer full, dropping entry", slog.String("entry", entry.ID))
		}
		return
	}

	var wg sync.WaitGroup
	for _, provider := range s.providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			err := p.Log(ctx, entry)
			if err != nil {
				slog.Warn("audit sink write failed",
					slog.String("sink", fmt.Sprintf("%T", p)),
					slog.String("error", err.Error()),
				)
			}
		}(provider)
	}
	wg.Wait()
}

// run owns the buffer. It flushes when the buffer reaches the configured
// size, on every flush interval tick, and once more on shutdown.
func (s *service) run() {
	defer close(s.done)

	ticker := time.NewTicker(time.Duration(s.config.Audit.FlushInterval) * time.Second)
	defer ticker.Stop()

	var buffer []core.AuditEntry
	for {
		select {
		case entry := <-s.entries:
			buffer = append(buffer, entry)
			if len(buffer) >= s.config.Audit.BufferSize {
				s.flush(buffer)
				buffer = nil
			}
		case <-ticker.C:
			if len(buffer) > 0 {
				s.flush(buffer)
				buffer = nil
			}
		case <-s.stop:
			for {
				select {
				case entry := <-s.entries:
					buffer = append(buffer, entry)
				default:
					if len(buffer) > 0 {
						s.flush(buffer)
					}
					return
				}
			}
		}
	}
}

func (s *service) flush(entries []core.AuditEntry) {
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, provider := range s.providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			err := p.LogBatch(ctx, entries)
			if err != nil {
				slog.Warn("audit sink batch write failed",
					slog.String("sink", fmt.Sprintf("%T", p)),
					slog.String("error", err.Error()),
				)
			}
		}(provider)
	}
	wg.Wait()
}

// Query asks each sink in order and returns the first answer. Sinks that
// cannot be queried, like syslog, just pass.
func (s *service) Query(ctx context.Context, query core.AuditQuery) ([]core.AuditEntry, error) {
	ctx, span := tracer.Start(ctx, "Audit.Service.Query")
	defer span.End()

	var lastErr error
	for _, provider := range s.providers {
		entries, err := provider.Query(ctx, query)
		if err != nil {
			lastErr = err
			continue
		}
		return entries, nil
	}

	if lastErr != nil {
		span.RecordError(lastErr)
		return nil, lastErr
	}
	return nil, nil
}

func (s *service) GenerateReport(ctx context.Context, start, end time.Time, groupBy string) (core.AuditReport, error) {
	ctx, span := tracer.Start(ctx, "Audit.Service.GenerateReport")
	defer span.End()

	entries, err := s.Query(ctx, core.AuditQuery{Since: start, Until: end})
	if err != nil {
		span.RecordError(err)
		return core.AuditReport{}, err
	}

	report := core.AuditReport{Start: start, End: end}
	reasons := make(map[string]int64)
	var durationTotal time.Duration
	var cacheHits int64

	for _, entry := range entries {
		report.Total++
		if entry.Result.Allowed {
			report.Allowed++
		} else {
			report.Denied++
			if entry.Result.Reason != "" {
				reasons[entry.Result.Reason]++
			}
		}
		durationTotal += entry.Duration
		if entry.FromCache {
			cacheHits++
		}
	}

	if report.Total > 0 {
		report.AvgDuration = durationTotal / time.Duration(report.Total)
		report.CacheHitRate = float64(cacheHits) / float64(report.Total)
	}

	for reason, count := range reasons {
		report.TopDenialReasons = append(report.TopDenialReasons, core.ReasonCount{Reason: reason, Count: count})
	}
	sort.Slice(report.TopDenialReasons, func(i, j int) bool {
		if report.TopDenialReasons[i].Count != report.TopDenialReasons[j].Count {
			return report.TopDenialReasons[i].Count > report.TopDenialReasons[j].Count
		}
		return report.TopDenialReasons[i].Reason < report.TopDenialReasons[j].Reason
	})
	if len(report.TopDenialReasons) > 10 {
		report.TopDenialReasons = report.TopDenialReasons[:10]
	}

	if groupBy != "" {
		report.Groups = make(map[string]core.ReportBucket)
		for _, entry := range entries {
			key := groupKey(entry, groupBy)
			if key == "" {
				continue
			}
			bucket := report.Groups[key]
			bucket.Total++
			if entry.Result.Allowed {
				bucket.Allowed++
			} else {
				bucket.Denied++
			}
			report.Groups[key] = bucket
		}
	}

	return report, nil
}

// Close flushes the buffer and closes every sink
func (s *service) Close() error {
	var err error
	s.once.Do(func() {
		if s.stop != nil {
			close(s.stop)
			<-s.done
		}
		for _, provider := range s.providers {
			cerr := provider.Close()
			if cerr != nil && err == nil {
				err = cerr
			}
		}
	})
	return err
}

func mandatory(entry core.AuditEntry) bool {
	for _, obligation := range entry.Result.Obligations {
		if obligation.Type == core.ObligationAudit {
			return true
		}
	}
	return false
}

func groupKey(entry core.AuditEntry, groupBy string) string {
	switch groupBy {
	case "subject":
		return entry.Subject.ID
	case "resource":
		return entry.Resource.Type
	case "action":
		return entry.Action.Name
	case "tenant":
		return entry.Subject.TenantID
	}
	return ""
}

// sanitize redacts sensitive values from a copy of the entry; the caller's
// entry is never touched
func (s *service) sanitize(entry core.AuditEntry) core.AuditEntry {
	keys := s.config.Audit.SensitiveKeys

	out := entry
	out.Subject.Claims = core.Claims(sanitizeMap(entry.Subject.Claims, keys))
	out.Resource.Attributes = sanitizeMap(entry.Resource.Attributes, keys)
	if entry.Environment != nil {
		env := *entry.Environment
		env.Attributes = sanitizeMap(entry.Environment.Attributes, keys)
		out.Environment = &env
	}
	out.Metadata = sanitizeMap(entry.Metadata, keys)
	return out
}

func sanitizeMap(m map[string]any, keys []string) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sensitiveKey(k, keys) {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = sanitizeValue(v, keys)
	}
	return out
}

func sanitizeValue(v any, keys []string) any {
	switch typed := v.(type) {
	case map[string]any:
		return sanitizeMap(typed, keys)
	case core.Claims:
		return sanitizeMap(typed, keys)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = sanitizeValue(item, keys)
		}
		return out
	}
	return v
}

func sensitiveKey(key string, keys []string) bool {
	lower := strings.ToLower(key)
	for _, k := range keys {
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func matches(entry core.AuditEntry, query core.AuditQuery) bool {
	if query.TenantID != "" && entry.Subject.TenantID != query.TenantID {
		return false
	}
	if query.SubjectID != "" && entry.Subject.ID != query.SubjectID {
		return false
	}
	if query.ResourceType != "" && entry.Resource.Type != query.ResourceType {
		return false
	}
	if query.ResourceID != "" && entry.Resource.ID != query.ResourceID {
		return false
	}
	if query.Action != "" && entry.Action.Name != query.Action {
		return false
	}
	if query.Allowed != nil && entry.Result.Allowed != *query.Allowed {
		return false
	}
	if !query.Since.IsZero() && entry.Timestamp.Before(query.Since) {
		return false
	}
	if !query.Until.IsZero() && entry.Timestamp.After(query.Until) {
		return false
	}
	return true
}
