package zealauth

import (
	"gorm.io/gorm"

	"github.com/offbit-ai/zeal-auth/core"
	"github.com/offbit-ai/zeal-auth/x/authz"
	"github.com/offbit-ai/zeal-auth/x/policy"
)

// NewPolicySources puts the built-in tenant isolation and ownership policies
// ahead of the configured sources. Reloads keep serving the built-ins unless
// an operator overrides one by id.
func NewPolicySources(config core.Config, db *gorm.DB, repository policy.Repository) []policy.Source {
	sources := []policy.Source{policy.NewStaticSource(authz.BootstrapPolicies())}
	return append(sources, policy.NewSources(config, db, repository)...)
}
