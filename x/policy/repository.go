package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"

	"github.com/offbit-ai/zeal-auth/core"
)

// Repository fetches remote policy documents with a short redis cache in
// front, so a fleet of instances does not hammer the source on every refresh.
type Repository interface {
	Fetch(ctx context.Context, url string) ([]core.Policy, error)
}

type repository struct {
	rdb    *redis.Client
	client *http.Client
}

func NewRepository(rdb *redis.Client) Repository {
	return &repository{
		rdb: rdb,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
	}
}

func (r *repository) Fetch(ctx context.Context, url string) ([]core.Policy, error) {
	ctx, span := tracer.Start(ctx, "Policy.Repository.Fetch")
	defer span.End()

	// check cache
	key := fmt.Sprintf("policies:%s", url)
	if r.rdb != nil {
		val, err := r.rdb.Get(ctx, key).Result()
		if err == nil {
			var doc policyDocument
			err = json.Unmarshal([]byte(val), &doc)
			if err == nil {
				return doc.Policies, nil
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	jsonStr, err := io.ReadAll(resp.Body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var doc policyDocument
	err = json.Unmarshal(jsonStr, &doc)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if r.rdb != nil {
		err = r.rdb.Set(ctx, key, jsonStr, 10*time.Minute).Err()
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
	}

	return doc.Policies, nil
}
