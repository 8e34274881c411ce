// Package hierarchy resolves subjects against the organizational graph and
// aggregates the permissions the graph grants them.
package hierarchy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"golang.org/x/exp/maps"

	"github.com/offbit-ai/zeal-auth/core"
)

var tracer = otel.Tracer("hierarchy")

// failed refreshes are not retried more often than this, so a dead provider
// does not stall every resolve behind an http timeout
const refreshBackoff = 30 * time.Second

// index is an immutable snapshot of the merged node graph
type index struct {
	nodes    map[string]core.HierarchyNode
	children map[string][]string
	order    []string
	loadedAt time.Time
}

type service struct {
	config     core.Config
	providers  []Provider
	repository Repository // nil without a database; disables writes and memberships
	cache      core.CacheService

	mutex       sync.Mutex // serializes loads and node mutations
	lastAttempt time.Time
	index       atomic.Pointer[index]
}

func NewService(config core.Config, providers []Provider, repository Repository, cache core.CacheService) core.HierarchyService {
	s := &service{
		config:     config,
		providers:  providers,
		repository: repository,
		cache:      cache,
	}
	// zero loadedAt so the first access loads
	s.index.Store(&index{nodes: map[string]core.HierarchyNode{}, children: map[string][]string{}})
	return s
}

// Refresh reloads every provider and swaps in the merged index atomically.
// A failing provider aborts the whole refresh and leaves the previous index
// serving.
func (s *service) Refresh(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Hierarchy.Service.Refresh")
	defer span.End()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	err := s.load(ctx)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// load merges every provider into a fresh index. Callers hold s.mutex.
func (s *service) load(ctx context.Context) error {
	s.lastAttempt = time.Now()

	merged := make(map[string]core.HierarchyNode)
	var order []string
	for _, provider := range s.providers {
		nodes, err := provider.Load(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to load hierarchy provider")
		}
		for _, node := range nodes {
			if _, ok := merged[node.ID]; !ok {
				order = append(order, node.ID)
			}
			merged[node.ID] = node
		}
	}

	s.index.Store(buildIndex(merged, order))
	slog.Info("hierarchy loaded", slog.Int("nodes", len(merged)))

	return nil
}

func buildIndex(nodes map[string]core.HierarchyNode, order []string) *index {
	children := make(map[string][]string)
	for _, id := range order {
		node := nodes[id]
		if node.ParentID != "" {
			children[node.ParentID] = append(children[node.ParentID], id)
		}
	}
	return &index{nodes: nodes, children: children, order: order, loadedAt: time.Now()}
}

// ensureFresh reloads a stale index in-line and falls back to the previous
// one when the reload fails
func (s *service) ensureFresh(ctx context.Context) *index {
	idx := s.index.Load()
	if time.Since(idx.loadedAt) < s.config.RefreshInterval {
		return idx
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	idx = s.index.Load()
	if time.Since(idx.loadedAt) < s.config.RefreshInterval || time.Since(s.lastAttempt) < refreshBackoff {
		return idx
	}

	err := s.load(ctx)
	if err != nil {
		slog.Error("hierarchy refresh failed, serving previous index", slog.String("error", err.Error()))
	}

	return s.index.Load()
}

// Resolve returns every hierarchy path the subject belongs to, deepest
// first. Results are cached under a key derived from the subject's
// memberships so a claims change resolves freshly.
func (s *service) Resolve(ctx context.Context, subject core.Subject) ([]core.HierarchyPath, error) {
	ctx, span := tracer.Start(ctx, "Hierarchy.Service.Resolve")
	defer span.End()

	cacheKey := resolveCacheKey(subject)
	if s.cache != nil {
		var cached []core.HierarchyPath
		err := s.cache.Get(ctx, cacheKey, &cached)
		if err == nil {
			return cached, nil
		}
	}

	idx := s.ensureFresh(ctx)

	entities, membershipPerms := s.memberships(ctx, subject)

	best := make(map[string]core.HierarchyPath)
	for _, id := range entities {
		hops := buildPath(idx, id)
		if extra := membershipPerms[id]; len(extra) > 0 && len(hops) > 0 {
			leaf := &hops[len(hops)-1]
			leaf.Permissions = appendUnique(leaf.Permissions, extra)
		}
		for _, hop := range hops {
			prev, ok := best[hop.ID]
			if !ok || hop.Level > prev.Level {
				best[hop.ID] = hop
			}
		}
	}

	paths := make([]core.HierarchyPath, 0, len(best))
	for _, hop := range best {
		paths = append(paths, hop)
	}
	sort.Slice(paths, func(i, j int) bool {
		if paths[i].Level != paths[j].Level {
			return paths[i].Level > paths[j].Level
		}
		return paths[i].ID < paths[j].ID
	})

	if s.cache != nil {
		err := s.cache.Set(ctx, cacheKey, paths, s.config.RefreshInterval)
		if err != nil {
			slog.Warn("failed to cache resolved hierarchy", slog.String("error", err.Error()))
		}
	}

	return paths, nil
}

// memberships unions the subject's claim-side entities with its membership
// rows, first occurrence wins. The second return value carries the direct
// permissions granted by membership rows, keyed by entity.
func (s *service) memberships(ctx context.Context, subject core.Subject) ([]string, map[string][]string) {
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}

	add(subject.OrganizationID)
	for _, id := range subject.Teams {
		add(id)
	}
	for _, id := range subject.Groups {
		add(id)
	}
	for _, id := range subject.Roles {
		add(id)
	}

	perms := make(map[string][]string)
	if s.repository != nil && subject.ID != "" {
		rows, err := s.repository.ListMemberships(ctx, subject.ID)
		if err != nil {
			slog.Error("failed to load memberships",
				slog.String("subject", subject.ID),
				slog.String("error", err.Error()),
			)
		}
		for _, row := range rows {
			add(row.EntityID)
			if len(row.Permissions) > 0 {
				perms[row.EntityID] = append(perms[row.EntityID], row.Permissions...)
			}
		}
	}

	return ids, perms
}

// buildPath walks parent links up from leafID and returns the chain root
// first, levels numbered from zero. A parent cycle is cut at the repeated
// node.
func buildPath(idx *index, leafID string) []core.HierarchyPath {
	var chain []core.HierarchyNode
	visited := make(map[string]bool)
	for id := leafID; id != ""; {
		if visited[id] {
			slog.Warn("hierarchy cycle detected", slog.String("node", id))
			break
		}
		visited[id] = true
		node, ok := idx.nodes[id]
		if !ok {
			break
		}
		chain = append(chain, node)
		id = node.ParentID
	}

	paths := make([]core.HierarchyPath, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		node := chain[i]
		paths = append(paths, core.HierarchyPath{
			Type:        node.Type,
			ID:          node.ID,
			Name:        node.Name,
			Level:       len(paths),
			Permissions: append([]string(nil), node.Permissions...),
		})
	}
	return paths
}

// GetEffectivePermissions unions the permissions of every resolved path,
// deepest grants first
func (s *service) GetEffectivePermissions(ctx context.Context, subject core.Subject) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Hierarchy.Service.GetEffectivePermissions")
	defer span.End()

	paths, err := s.Resolve(ctx, subject)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var perms []string
	seen := make(map[string]bool)
	for _, hop := range paths {
		for _, perm := range hop.Permissions {
			if seen[perm] {
				continue
			}
			seen[perm] = true
			perms = append(perms, perm)
		}
	}

	return perms, nil
}

// BelongsTo reports whether the subject belongs to the entity directly or
// through any ancestor link
func (s *service) BelongsTo(ctx context.Context, subject core.Subject, entityID, entityType string) (bool, error) {
	ctx, span := tracer.Start(ctx, "Hierarchy.Service.BelongsTo")
	defer span.End()

	paths, err := s.Resolve(ctx, subject)
	if err != nil {
		span.RecordError(err)
		return false, err
	}

	for _, hop := range paths {
		if hop.ID != entityID {
			continue
		}
		if entityType == "" || hop.Type == entityType {
			return true, nil
		}
	}

	return false, nil
}

// GetAncestors returns the parent chain of a node, nearest first
func (s *service) GetAncestors(ctx context.Context, nodeID string) ([]core.HierarchyNode, error) {
	ctx, span := tracer.Start(ctx, "Hierarchy.Service.GetAncestors")
	defer span.End()

	idx := s.ensureFresh(ctx)

	node, ok := idx.nodes[nodeID]
	if !ok {
		return nil, core.NewErrorNotFound()
	}

	var out []core.HierarchyNode
	visited := map[string]bool{nodeID: true}
	for id := node.ParentID; id != ""; {
		if visited[id] {
			slog.Warn("hierarchy cycle detected", slog.String("node", id))
			break
		}
		visited[id] = true
		parent, ok := idx.nodes[id]
		if !ok {
			break
		}
		out = append(out, parent)
		id = parent.ParentID
	}

	return out, nil
}

// GetDescendants returns the subtree under a node in breadth-first order
func (s *service) GetDescendants(ctx context.Context, nodeID string) ([]core.HierarchyNode, error) {
	ctx, span := tracer.Start(ctx, "Hierarchy.Service.GetDescendants")
	defer span.End()

	idx := s.ensureFresh(ctx)

	if _, ok := idx.nodes[nodeID]; !ok {
		return nil, core.NewErrorNotFound()
	}

	var out []core.HierarchyNode
	visited := map[string]bool{nodeID: true}
	queue := append([]string{}, idx.children[nodeID]...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		node, ok := idx.nodes[id]
		if !ok {
			continue
		}
		out = append(out, node)
		queue = append(queue, idx.children[id]...)
	}

	return out, nil
}

// AddNode writes a node through to the repository when one is configured and
// applies it to the live index
func (s *service) AddNode(ctx context.Context, node core.HierarchyNode) error {
	ctx, span := tracer.Start(ctx, "Hierarchy.Service.AddNode")
	defer span.End()

	switch node.Type {
	case core.NodeTypeOrganization, core.NodeTypeTeam, core.NodeTypeGroup, core.NodeTypeRole:
	default:
		return fmt.Errorf("unknown node type: %s", node.Type)
	}
	if node.ID == "" {
		return fmt.Errorf("node id is required")
	}

	if s.repository != nil {
		err := s.repository.UpsertNode(ctx, node)
		if err != nil {
			span.RecordError(err)
			return err
		}
	}

	// mutate on top of a loaded index, not the empty boot one
	s.ensureFresh(ctx)

	s.mutex.Lock()
	idx := s.index.Load()
	nodes := maps.Clone(idx.nodes)
	order := idx.order
	if _, ok := nodes[node.ID]; !ok {
		order = append(append([]string(nil), idx.order...), node.ID)
	}
	nodes[node.ID] = node
	s.index.Store(buildIndex(nodes, order))
	s.mutex.Unlock()

	return s.invalidateResolved(ctx)
}

// RemoveNode deletes a node. Children keep their parent link and simply
// resolve shorter paths until they are repointed.
func (s *service) RemoveNode(ctx context.Context, nodeID string) error {
	ctx, span := tracer.Start(ctx, "Hierarchy.Service.RemoveNode")
	defer span.End()

	if s.repository != nil {
		err := s.repository.DeleteNode(ctx, nodeID)
		if err != nil && !errors.Is(err, core.ErrorNotFound{}) {
			span.RecordError(err)
			return err
		}
	}

	s.ensureFresh(ctx)

	s.mutex.Lock()
	idx := s.index.Load()
	if _, ok := idx.nodes[nodeID]; !ok {
		s.mutex.Unlock()
		return core.NewErrorNotFound()
	}
	nodes := maps.Clone(idx.nodes)
	delete(nodes, nodeID)
	order := make([]string, 0, len(idx.order))
	for _, id := range idx.order {
		if id != nodeID {
			order = append(order, id)
		}
	}
	s.index.Store(buildIndex(nodes, order))
	s.mutex.Unlock()

	return s.invalidateResolved(ctx)
}

func (s *service) invalidateResolved(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.InvalidatePrefix(ctx, "hierarchy:")
}

func resolveCacheKey(subject core.Subject) string {
	teams := append([]string(nil), subject.Teams...)
	sort.Strings(teams)
	groups := append([]string(nil), subject.Groups...)
	sort.Strings(groups)
	roles := append([]string(nil), subject.Roles...)
	sort.Strings(roles)

	composite := strings.Join([]string{
		subject.ID,
		subject.OrganizationID,
		strings.Join(teams, ","),
		strings.Join(groups, ","),
		strings.Join(roles, ","),
	}, "|")

	sum := sha256.Sum256([]byte(composite))
	return fmt.Sprintf("hierarchy:%s:%s", subject.ID, hex.EncodeToString(sum[:8]))
}

func appendUnique(base []string, extra []string) []string {
	seen := make(map[string]bool, len(base))
	for _, s := range base {
		seen[s] = true
	}
	for _, s := range extra {
		if seen[s] {
			continue
		}
		seen[s] = true
		base = append(base, s)
	}
	return base
}
