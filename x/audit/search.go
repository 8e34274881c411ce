package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/offbit-ai/zeal-auth/core"
)

// searchProvider ships entries to an elasticsearch-compatible endpoint over
// the bulk API and queries them back through _search
type searchProvider struct {
	client *http.Client
	url    string
	index  string
}

func NewSearchProvider(url, index string) Provider {
	if index == "" {
		index = "zeal-auth-audit"
	}
	return &searchProvider{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
		url:   strings.TrimSuffix(url, "/"),
		index: index,
	}
}

func (p *searchProvider) Log(ctx context.Context, entry core.AuditEntry) error {
	return p.LogBatch(ctx, []core.AuditEntry{entry})
}

func (p *searchProvider) LogBatch(ctx context.Context, entries []core.AuditEntry) error {
	var body bytes.Buffer
	for _, entry := range entries {
		meta, err := json.Marshal(map[string]any{
			"index": map[string]any{"_index": p.index, "_id": entry.ID},
		})
		if err != nil {
			return err
		}
		doc, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		body.Write(meta)
		body.WriteByte('\n')
		body.Write(doc)
		body.WriteByte('\n')
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.url+"/_bulk", &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-ndjson")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result struct {
		Errors bool `json:"errors"`
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	err = json.Unmarshal(raw, &result)
	if err != nil {
		return err
	}
	if result.Errors {
		return fmt.Errorf("bulk indexing reported item errors")
	}

	return nil
}

func (p *searchProvider) Query(ctx context.Context, query core.AuditQuery) ([]core.AuditEntry, error) {
	var filters []map[string]any
	term := func(field string, value any) {
		filters = append(filters, map[string]any{"term": map[string]any{field: value}})
	}
	if query.TenantID != "" {
		term("subject.tenantId", query.TenantID)
	}
	if query.SubjectID != "" {
		term("subject.id", query.SubjectID)
	}
	if query.ResourceType != "" {
		term("resource.type", query.ResourceType)
	}
	if query.ResourceID != "" {
		term("resource.id", query.ResourceID)
	}
	if query.Action != "" {
		term("action.name", query.Action)
	}
	if query.Allowed != nil {
		term("result.allowed", *query.Allowed)
	}

	timestamps := map[string]any{}
	if !query.Since.IsZero() {
		timestamps["gte"] = query.Since.Format(time.RFC3339Nano)
	}
	if !query.Until.IsZero() {
		timestamps["lte"] = query.Until.Format(time.RFC3339Nano)
	}
	if len(timestamps) > 0 {
		filters = append(filters, map[string]any{"range": map[string]any{"timestamp": timestamps}})
	}

	size := query.Limit
	if size <= 0 {
		size = 1000
	}

	body, err := json.Marshal(map[string]any{
		"query": map[string]any{"bool": map[string]any{"filter": filters}},
		"sort":  []map[string]any{{"timestamp": map[string]any{"order": "desc"}}},
		"size":  size,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.url+"/"+p.index+"/_search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source core.AuditEntry `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	err = json.NewDecoder(resp.Body).Decode(&result)
	if err != nil {
		return nil, err
	}

	out := make([]core.AuditEntry, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		out = append(out, hit.Source)
	}
	return out, nil
}

func (p *searchProvider) Close() error {
	return nil
}
