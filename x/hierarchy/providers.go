package hierarchy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/offbit-ai/zeal-auth/core"
)

// Provider yields hierarchy nodes from one backing source; the service
// merges all providers by node id
type Provider interface {
	Load(ctx context.Context) ([]core.HierarchyNode, error)
}

type nodeDocument struct {
	Nodes []core.HierarchyNode `json:"nodes" yaml:"nodes"`
}

// NewProviders builds the configured provider chain. Unusable entries are
// logged and skipped.
func NewProviders(config core.Config, repository Repository) []Provider {
	var out []Provider
	for _, conf := range config.Hierarchy.Providers {
		switch conf.Type {
		case "database":
			if repository == nil {
				slog.Warn("database hierarchy provider configured without a database connection")
				continue
			}
			out = append(out, &databaseProvider{repository: repository})
		case "api":
			out = append(out, NewAPIProvider(conf.URL))
		case "static":
			out = append(out, &staticProvider{nodes: conf.Nodes})
		default:
			slog.Warn("unknown hierarchy provider type", slog.String("type", conf.Type))
		}
	}
	return out
}

type databaseProvider struct {
	repository Repository
}

func NewDatabaseProvider(repository Repository) Provider {
	return &databaseProvider{repository: repository}
}

func (p *databaseProvider) Load(ctx context.Context) ([]core.HierarchyNode, error) {
	return p.repository.ListNodes(ctx)
}

type apiProvider struct {
	client *http.Client
	url    string
}

func NewAPIProvider(url string) Provider {
	return &apiProvider{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
		url: url,
	}
}

func (p *apiProvider) Load(ctx context.Context) ([]core.HierarchyNode, error) {
	ctx, span := tracer.Start(ctx, "Hierarchy.Provider.LoadAPI")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, "GET", p.url, nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		span.RecordError(err)
		return nil, err
	}

	jsonStr, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// accept either a node document or a bare array
	var doc nodeDocument
	err = json.Unmarshal(jsonStr, &doc)
	if err == nil && doc.Nodes != nil {
		return doc.Nodes, nil
	}

	var nodes []core.HierarchyNode
	err = json.Unmarshal(jsonStr, &nodes)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return nodes, nil
}

type staticProvider struct {
	nodes []core.HierarchyNode
}

func NewStaticProvider(nodes []core.HierarchyNode) Provider {
	return &staticProvider{nodes: nodes}
}

func (p *staticProvider) Load(ctx context.Context) ([]core.HierarchyNode, error) {
	out := make([]core.HierarchyNode, len(p.nodes))
	copy(out, p.nodes)
	return out, nil
}
