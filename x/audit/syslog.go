package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/syslog"

	"github.com/pkg/errors"

	"github.com/offbit-ai/zeal-auth/core"
)

// syslogProvider forwards entries to the local syslog daemon. It is a
// write-only sink.
type syslogProvider struct {
	writer *syslog.Writer
}

func NewSyslogProvider(tag string) (Provider, error) {
	if tag == "" {
		tag = "zeal-auth"
	}
	writer, err := syslog.New(syslog.LOG_INFO|syslog.LOG_AUTH, tag)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to syslog")
	}
	return &syslogProvider{writer: writer}, nil
}

func (p *syslogProvider) Log(ctx context.Context, entry core.AuditEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "failed to encode audit entry")
	}
	if entry.Result.Allowed {
		return p.writer.Info(string(line))
	}
	return p.writer.Warning(string(line))
}

func (p *syslogProvider) LogBatch(ctx context.Context, entries []core.AuditEntry) error {
	for _, entry := range entries {
		err := p.Log(ctx, entry)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *syslogProvider) Query(ctx context.Context, query core.AuditQuery) ([]core.AuditEntry, error) {
	return nil, fmt.Errorf("syslog sink does not support queries")
}

func (p *syslogProvider) Close() error {
	return p.writer.Close()
}
