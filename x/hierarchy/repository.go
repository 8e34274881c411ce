package hierarchy

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/offbit-ai/zeal-auth/core"
)

// Repository persists hierarchy nodes across the four entity tables and
// reads user memberships.
type Repository interface {
	ListNodes(ctx context.Context) ([]core.HierarchyNode, error)
	ListMemberships(ctx context.Context, userID string) ([]core.UserMembership, error)
	UpsertNode(ctx context.Context, node core.HierarchyNode) error
	DeleteNode(ctx context.Context, nodeID string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// ListNodes returns every organization, team, group and role as a flat node
// list. Parent links are resolved later by the index builder.
func (r *repository) ListNodes(ctx context.Context) ([]core.HierarchyNode, error) {
	ctx, span := tracer.Start(ctx, "Hierarchy.Repository.ListNodes")
	defer span.End()

	var nodes []core.HierarchyNode

	var orgs []core.Organization
	err := r.db.WithContext(ctx).Find(&orgs).Error
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to load organizations")
	}
	for _, row := range orgs {
		nodes = append(nodes, core.HierarchyNode{
			ID:          row.ID,
			Type:        core.NodeTypeOrganization,
			Name:        row.Name,
			ParentID:    deref(row.ParentID),
			TenantID:    row.TenantID,
			Permissions: row.Permissions,
		})
	}

	var teams []core.Team
	err = r.db.WithContext(ctx).Find(&teams).Error
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to load teams")
	}
	for _, row := range teams {
		nodes = append(nodes, core.HierarchyNode{
			ID:          row.ID,
			Type:        core.NodeTypeTeam,
			Name:        row.Name,
			ParentID:    deref(row.ParentID),
			TenantID:    row.TenantID,
			Permissions: row.Permissions,
		})
	}

	var groups []core.Group
	err = r.db.WithContext(ctx).Find(&groups).Error
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to load groups")
	}
	for _, row := range groups {
		nodes = append(nodes, core.HierarchyNode{
			ID:          row.ID,
			Type:        core.NodeTypeGroup,
			Name:        row.Name,
			ParentID:    deref(row.ParentID),
			TenantID:    row.TenantID,
			Permissions: row.Permissions,
		})
	}

	var roles []core.Role
	err = r.db.WithContext(ctx).Find(&roles).Error
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to load roles")
	}
	for _, row := range roles {
		nodes = append(nodes, core.HierarchyNode{
			ID:          row.ID,
			Type:        core.NodeTypeRole,
			Name:        row.Name,
			ParentID:    deref(row.ParentID),
			TenantID:    row.TenantID,
			Permissions: row.Permissions,
		})
	}

	return nodes, nil
}

// ListMemberships returns the non-expired memberships of one user
func (r *repository) ListMemberships(ctx context.Context, userID string) ([]core.UserMembership, error) {
	ctx, span := tracer.Start(ctx, "Hierarchy.Repository.ListMemberships")
	defer span.End()

	var rows []core.UserMembership
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND (expires_at IS NULL OR expires_at > ?)", userID, time.Now()).
		Find(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to load memberships")
	}

	return rows, nil
}

func (r *repository) UpsertNode(ctx context.Context, node core.HierarchyNode) error {
	ctx, span := tracer.Start(ctx, "Hierarchy.Repository.UpsertNode")
	defer span.End()

	var parent *string
	if node.ParentID != "" {
		parent = &node.ParentID
	}
	perms := pq.StringArray(node.Permissions)

	var err error
	switch node.Type {
	case core.NodeTypeOrganization:
		err = r.db.WithContext(ctx).Save(&core.Organization{
			ID: node.ID, TenantID: node.TenantID, Name: node.Name, ParentID: parent, Permissions: perms,
		}).Error
	case core.NodeTypeTeam:
		err = r.db.WithContext(ctx).Save(&core.Team{
			ID: node.ID, TenantID: node.TenantID, Name: node.Name, ParentID: parent, Permissions: perms,
		}).Error
	case core.NodeTypeGroup:
		err = r.db.WithContext(ctx).Save(&core.Group{
			ID: node.ID, TenantID: node.TenantID, Name: node.Name, ParentID: parent, Permissions: perms,
		}).Error
	case core.NodeTypeRole:
		err = r.db.WithContext(ctx).Save(&core.Role{
			ID: node.ID, TenantID: node.TenantID, Name: node.Name, ParentID: parent, Permissions: perms,
		}).Error
	default:
		return fmt.Errorf("unknown node type: %s", node.Type)
	}

	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to upsert node")
	}

	return nil
}

// DeleteNode removes a node from whichever table holds it, together with the
// memberships pointing at it
func (r *repository) DeleteNode(ctx context.Context, nodeID string) error {
	ctx, span := tracer.Start(ctx, "Hierarchy.Repository.DeleteNode")
	defer span.End()

	var affected int64
	for _, model := range []any{&core.Organization{}, &core.Team{}, &core.Group{}, &core.Role{}} {
		result := r.db.WithContext(ctx).Where("id = ?", nodeID).Delete(model)
		if result.Error != nil {
			span.RecordError(result.Error)
			return errors.Wrap(result.Error, "failed to delete node")
		}
		affected += result.RowsAffected
	}

	if affected == 0 {
		return core.NewErrorNotFound()
	}

	err := r.db.WithContext(ctx).Where("entity_id = ?", nodeID).Delete(&core.UserMembership{}).Error
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to delete memberships")
	}

	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
