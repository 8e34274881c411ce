package hierarchy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/offbit-ai/zeal-auth/core"
	"github.com/offbit-ai/zeal-auth/internal/testutil"
)

func testGraph() []core.HierarchyNode {
	return []core.HierarchyNode{
		{ID: "org1", Type: core.NodeTypeOrganization, Name: "Acme", TenantID: "t1", Permissions: []string{"workflow.read"}},
		{ID: "team1", Type: core.NodeTypeTeam, Name: "Platform", ParentID: "org1", TenantID: "t1", Permissions: []string{"workflow.read", "workflow.write"}},
		{ID: "admin", Type: core.NodeTypeRole, Name: "Admin", TenantID: "t1", Permissions: []string{"*"}},
	}
}

func newGraphService(nodes []core.HierarchyNode) core.HierarchyService {
	config := core.SetupConfig(core.ConfigInput{})
	return NewService(config, []Provider{NewStaticProvider(nodes)}, nil, nil)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	s := newGraphService(testGraph())

	subject := core.Subject{
		ID:             "u1",
		OrganizationID: "org1",
		Teams:          []string{"team1"},
		Roles:          []string{"admin"},
	}

	paths, err := s.Resolve(ctx, subject)
	if assert.NoError(t, err) {
		assert.Len(t, paths, 3)

		// deepest first, ties ordered by id
		assert.Equal(t, "team1", paths[0].ID)
		assert.Equal(t, 1, paths[0].Level)
		assert.Equal(t, "admin", paths[1].ID)
		assert.Equal(t, 0, paths[1].Level)
		assert.Equal(t, "org1", paths[2].ID)
		assert.Equal(t, 0, paths[2].Level)

		assert.Equal(t, core.NodeTypeTeam, paths[0].Type)
		assert.Contains(t, paths[0].Permissions, "workflow.write")
	}

	// unknown entities resolve to nothing
	paths, err = s.Resolve(ctx, core.Subject{ID: "u2", Teams: []string{"ghost"}})
	if assert.NoError(t, err) {
		assert.Empty(t, paths)
	}
}

func TestResolveCutsCycles(t *testing.T) {
	ctx := context.Background()
	s := newGraphService([]core.HierarchyNode{
		{ID: "a", Type: core.NodeTypeTeam, Name: "A", ParentID: "b"},
		{ID: "b", Type: core.NodeTypeTeam, Name: "B", ParentID: "a"},
	})

	done := make(chan []core.HierarchyPath, 1)
	go func() {
		paths, err := s.Resolve(ctx, core.Subject{ID: "u1", Teams: []string{"a"}})
		assert.NoError(t, err)
		done <- paths
	}()

	select {
	case paths := <-done:
		// the walk stops at the repeated node instead of looping
		assert.Len(t, paths, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("cycle was not cut")
	}
}

func TestGetEffectivePermissions(t *testing.T) {
	ctx := context.Background()
	s := newGraphService(testGraph())

	perms, err := s.GetEffectivePermissions(ctx, core.Subject{ID: "u1", Teams: []string{"team1"}})
	if assert.NoError(t, err) {
		// team and inherited org permissions, deduplicated
		assert.ElementsMatch(t, []string{"workflow.read", "workflow.write"}, perms)
	}
}

func TestBelongsTo(t *testing.T) {
	ctx := context.Background()
	s := newGraphService(testGraph())

	subject := core.Subject{ID: "u1", Teams: []string{"team1"}}

	ok, err := s.BelongsTo(ctx, subject, "team1", core.NodeTypeTeam)
	assert.NoError(t, err)
	assert.True(t, ok)

	// membership through the parent link
	ok, err = s.BelongsTo(ctx, subject, "org1", "")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.BelongsTo(ctx, subject, "org1", core.NodeTypeTeam)
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.BelongsTo(ctx, subject, "ghost", "")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestAncestorsAndDescendants(t *testing.T) {
	ctx := context.Background()
	s := newGraphService(testGraph())

	ancestors, err := s.GetAncestors(ctx, "team1")
	if assert.NoError(t, err) {
		assert.Len(t, ancestors, 1)
		assert.Equal(t, "org1", ancestors[0].ID)
	}

	descendants, err := s.GetDescendants(ctx, "org1")
	if assert.NoError(t, err) {
		assert.Len(t, descendants, 1)
		assert.Equal(t, "team1", descendants[0].ID)
	}

	_, err = s.GetAncestors(ctx, "ghost")
	assert.Error(t, err)
	assert.IsType(t, core.ErrorNotFound{}, err)
}

func TestAddAndRemoveNode(t *testing.T) {
	ctx := context.Background()
	s := newGraphService(testGraph())

	err := s.AddNode(ctx, core.HierarchyNode{ID: "team2", Type: core.NodeTypeTeam, Name: "Data", ParentID: "org1"})
	assert.NoError(t, err)

	descendants, err := s.GetDescendants(ctx, "org1")
	if assert.NoError(t, err) {
		assert.Len(t, descendants, 2)
	}

	err = s.RemoveNode(ctx, "team2")
	assert.NoError(t, err)

	_, err = s.GetAncestors(ctx, "team2")
	assert.IsType(t, core.ErrorNotFound{}, err)

	err = s.RemoveNode(ctx, "team2")
	assert.IsType(t, core.ErrorNotFound{}, err)

	err = s.AddNode(ctx, core.HierarchyNode{ID: "x", Type: "galaxy"})
	assert.Error(t, err)
}

func TestRepository(t *testing.T) {
	ctx := context.Background()

	db, cleanup := testutil.CreateDB()
	defer cleanup()

	repo := NewRepository(db)

	err := repo.UpsertNode(ctx, core.HierarchyNode{ID: "org1", Type: core.NodeTypeOrganization, Name: "Acme", TenantID: "t1", Permissions: []string{"workflow.read"}})
	assert.NoError(t, err)
	err = repo.UpsertNode(ctx, core.HierarchyNode{ID: "team1", Type: core.NodeTypeTeam, Name: "Platform", ParentID: "org1", TenantID: "t1"})
	assert.NoError(t, err)

	nodes, err := repo.ListNodes(ctx)
	if assert.NoError(t, err) {
		assert.Len(t, nodes, 2)
		types := map[string]string{}
		for _, node := range nodes {
			types[node.ID] = node.Type
		}
		assert.Equal(t, core.NodeTypeOrganization, types["org1"])
		assert.Equal(t, core.NodeTypeTeam, types["team1"])
	}

	expired := time.Now().Add(-time.Hour)
	err = db.Create(&core.UserMembership{TenantID: "t1", UserID: "u1", EntityType: core.NodeTypeTeam, EntityID: "team1", Permissions: []string{"deploy"}}).Error
	assert.NoError(t, err)
	err = db.Create(&core.UserMembership{TenantID: "t1", UserID: "u1", EntityType: core.NodeTypeRole, EntityID: "old", ExpiresAt: &expired}).Error
	assert.NoError(t, err)

	memberships, err := repo.ListMemberships(ctx, "u1")
	if assert.NoError(t, err) {
		assert.Len(t, memberships, 1)
		assert.Equal(t, "team1", memberships[0].EntityID)
	}

	err = repo.DeleteNode(ctx, "team1")
	assert.NoError(t, err)
	err = repo.DeleteNode(ctx, "team1")
	assert.IsType(t, core.ErrorNotFound{}, err)

	memberships, err = repo.ListMemberships(ctx, "u1")
	if assert.NoError(t, err) {
		assert.Empty(t, memberships)
	}
}

func TestResolveMergesMembershipPermissions(t *testing.T) {
	ctx := context.Background()

	db, cleanup := testutil.CreateDB()
	defer cleanup()

	repo := NewRepository(db)
	err := repo.UpsertNode(ctx, core.HierarchyNode{ID: "team1", Type: core.NodeTypeTeam, Name: "Platform", TenantID: "t1", Permissions: []string{"workflow.read"}})
	assert.NoError(t, err)
	err = db.Create(&core.UserMembership{TenantID: "t1", UserID: "u1", EntityType: core.NodeTypeTeam, EntityID: "team1", Permissions: []string{"workflow.deploy"}}).Error
	assert.NoError(t, err)

	config := core.SetupConfig(core.ConfigInput{})
	s := NewService(config, []Provider{NewDatabaseProvider(repo)}, repo, nil)

	// the subject carries no claim-side memberships; the row brings team1 in
	paths, err := s.Resolve(ctx, core.Subject{ID: "u1"})
	if assert.NoError(t, err) {
		assert.Len(t, paths, 1)
		assert.Equal(t, "team1", paths[0].ID)
		assert.ElementsMatch(t, []string{"workflow.read", "workflow.deploy"}, paths[0].Permissions)
	}
}
