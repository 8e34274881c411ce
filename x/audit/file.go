package audit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/offbit-ai/zeal-auth/core"
)

// fileProvider appends entries as JSON lines. Queries scan the whole file,
// which is fine for the sizes a single node produces between rotations.
type fileProvider struct {
	mutex sync.Mutex
	path  string
}

func NewFileProvider(path string) Provider {
	return &fileProvider{path: path}
}

func (p *fileProvider) Log(ctx context.Context, entry core.AuditEntry) error {
	return p.LogBatch(ctx, []core.AuditEntry{entry})
}

func (p *fileProvider) LogBatch(ctx context.Context, entries []core.AuditEntry) error {
	var buffer bytes.Buffer
	for _, entry := range entries {
		line, err := json.Marshal(entry)
		if err != nil {
			return errors.Wrap(err, "failed to encode audit entry")
		}
		buffer.Write(line)
		buffer.WriteByte('\n')
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	file, err := os.OpenFile(p.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return errors.Wrap(err, "failed to open audit file")
	}
	defer file.Close()

	_, err = file.Write(buffer.Bytes())
	if err != nil {
		return errors.Wrap(err, "failed to write audit file")
	}

	return nil
}

// Query returns matching entries newest first
func (p *fileProvider) Query(ctx context.Context, query core.AuditQuery) ([]core.AuditEntry, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	file, err := os.Open(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to open audit file")
	}
	defer file.Close()

	var out []core.AuditEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry core.AuditEntry
		err := json.Unmarshal(scanner.Bytes(), &entry)
		if err != nil {
			// a torn line from a crashed writer is skipped, not fatal
			continue
		}
		if matches(entry, query) {
			out = append(out, entry)
		}
	}
	err = scanner.Err()
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan audit file")
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}

	return out, nil
}

func (p *fileProvider) Close() error {
	return nil
}
