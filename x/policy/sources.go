package policy

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/offbit-ai/zeal-auth/core"
)

// Source yields policy documents; the engine merges all sources by id
type Source interface {
	Load(ctx context.Context) ([]core.Policy, error)
}

type policyDocument struct {
	Policies []core.Policy `json:"policies" yaml:"policies"`
}

// NewSources builds the configured source chain. Unusable entries are logged
// and skipped so one bad config line does not take the engine down.
func NewSources(config core.Config, db *gorm.DB, repository Repository) []Source {
	var out []Source
	for _, conf := range config.Sources {
		switch conf.Type {
		case "file":
			out = append(out, &fileSource{path: conf.Path})
		case "database":
			if db == nil {
				slog.Warn("database policy source configured without a database connection")
				continue
			}
			out = append(out, &databaseSource{db: db})
		case "api":
			out = append(out, &apiSource{repository: repository, url: conf.URL})
		default:
			slog.Warn("unknown policy source type", slog.String("type", conf.Type))
		}
	}
	return out
}

type fileSource struct {
	path string
}

func NewFileSource(path string) Source {
	return &fileSource{path: path}
}

func (s *fileSource) Load(ctx context.Context) ([]core.Policy, error) {
	_, span := tracer.Start(ctx, "Policy.Source.LoadFile")
	defer span.End()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to read policy file")
	}

	var doc policyDocument
	if strings.HasSuffix(s.path, ".yaml") || strings.HasSuffix(s.path, ".yml") {
		err = yaml.Unmarshal(raw, &doc)
	} else {
		err = json.Unmarshal(raw, &doc)
	}
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to parse policy file")
	}

	return doc.Policies, nil
}

type databaseSource struct {
	db *gorm.DB
}

func NewDatabaseSource(db *gorm.DB) Source {
	return &databaseSource{db: db}
}

func (s *databaseSource) Load(ctx context.Context) ([]core.Policy, error) {
	_, span := tracer.Start(ctx, "Policy.Source.LoadDatabase")
	defer span.End()

	var rows []core.PolicyRow
	err := s.db.WithContext(ctx).Find(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to load policies from database")
	}

	out := make([]core.Policy, 0, len(rows))
	for _, row := range rows {
		policy, err := rowToPolicy(row)
		if err != nil {
			slog.Error("skipping undecodable policy row",
				slog.String("policy", row.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		out = append(out, policy)
	}

	return out, nil
}

func rowToPolicy(row core.PolicyRow) (core.Policy, error) {
	policy := core.Policy{
		ID:          row.ID,
		Description: row.Description,
		Enabled:     row.Enabled,
		Priority:    row.Priority,
		Effect:      row.Effect,
	}

	if row.Conditions != "" {
		err := json.Unmarshal([]byte(row.Conditions), &policy.Conditions)
		if err != nil {
			return core.Policy{}, errors.Wrap(err, "failed to decode conditions")
		}
	}
	if row.Constraints != nil {
		err := json.Unmarshal([]byte(*row.Constraints), &policy.Constraints)
		if err != nil {
			return core.Policy{}, errors.Wrap(err, "failed to decode constraints")
		}
	}
	if row.Obligations != nil {
		err := json.Unmarshal([]byte(*row.Obligations), &policy.Obligations)
		if err != nil {
			return core.Policy{}, errors.Wrap(err, "failed to decode obligations")
		}
	}

	return policy, nil
}

type apiSource struct {
	repository Repository
	url        string
}

func NewAPISource(repository Repository, url string) Source {
	return &apiSource{repository: repository, url: url}
}

func (s *apiSource) Load(ctx context.Context) ([]core.Policy, error) {
	return s.repository.Fetch(ctx, s.url)
}

type staticSource struct {
	policies []core.Policy
}

// NewStaticSource serves a fixed in-memory policy set. Placing one ahead of
// the configured sources lets built-in policies survive reloads while still
// being overridable by id.
func NewStaticSource(policies []core.Policy) Source {
	return &staticSource{policies: policies}
}

func (s *staticSource) Load(ctx context.Context) ([]core.Policy, error) {
	out := make([]core.Policy, len(s.policies))
	copy(out, s.policies)
	return out, nil
}
