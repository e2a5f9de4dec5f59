package tree

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/entitytree/internal/access"
	"github.com/matthewbaird/entitytree/internal/storage"
)

func testStore(t *testing.T) *storage.MemoryStore {
	t.Helper()
	s := storage.NewMemoryStore()
	ctx := context.Background()
	for _, e := range []storage.Entity{
		{ID: 10, EntityType: "node", Bundle: "article", Label: "First article"},
		{ID: 11, EntityType: "node", Bundle: "article", Label: "Second article"},
		{ID: 12, EntityType: "node", Bundle: "blog", Label: "Blog post"},
		{ID: 30, EntityType: "taxonomy_term", Bundle: "tags", Label: "go"},
	} {
		_, err := s.Save(ctx, e)
		require.NoError(t, err)
	}
	return s
}

func editorCtx() context.Context {
	return access.WithUser(context.Background(), &access.Account{
		AccountName: "editor",
		Permissions: []string{access.PermissionAccessContent},
	})
}

func TestLoadTree_Wildcard(t *testing.T) {
	b := NewEntityBuilder(testStore(t))

	recs, err := b.LoadTree(editorCtx(), "node", Wildcard, LoadOptions{})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for _, r := range recs {
		assert.True(t, r.Parent.IsRoot(), "record %s parent = %s", r.ID, r.Parent)
		assert.False(t, r.ID.Equal(StringID(Wildcard)), "no synthetic root expected")
	}
	assert.Equal(t, IntID(10), recs[0].ID)
	assert.Equal(t, "Blog post", recs[2].Text)
}

func TestLoadTree_BundleWithEntities(t *testing.T) {
	b := NewEntityBuilder(testStore(t))

	recs, err := b.LoadTree(editorCtx(), "node", "article", LoadOptions{})
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, Record{ID: StringID("article"), Parent: RootParent, Text: "article"}, recs[0])
	assert.Equal(t, Record{ID: IntID(10), Parent: StringID("article"), Text: "First article"}, recs[1])
	assert.Equal(t, Record{ID: IntID(11), Parent: StringID("article"), Text: "Second article"}, recs[2])
}

func TestLoadTree_EmptyBundleReturnsRootOnly(t *testing.T) {
	b := NewEntityBuilder(testStore(t))

	recs, err := b.LoadTree(editorCtx(), "node", "page", LoadOptions{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, StringID("page"), recs[0].ID)
	assert.True(t, recs[0].Parent.IsRoot())
	assert.Equal(t, "page", recs[0].Text)
}

func TestLoadTree_EmptyBundleID(t *testing.T) {
	b := NewEntityBuilder(testStore(t))

	recs, err := b.LoadTree(editorCtx(), "node", "", LoadOptions{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, StringID(""), recs[0].ID)
}

func TestLoadTree_AccessDenied(t *testing.T) {
	b := NewEntityBuilder(testStore(t))

	for _, bundle := range []string{Wildcard, "article", "page"} {
		recs, err := b.LoadTree(context.Background(), "node", bundle, LoadOptions{})
		assert.True(t, errors.Is(err, ErrAccessDenied), "bundle %q: err = %v", bundle, err)
		assert.Nil(t, recs)
	}
}

func TestLoadTree_CustomPermission(t *testing.T) {
	b := NewEntityBuilder(testStore(t), WithPermission("access taxonomy overview"))
	assert.Equal(t, "access taxonomy overview", b.Permission())

	_, err := b.LoadTree(editorCtx(), "taxonomy_term", "tags", LoadOptions{})
	assert.ErrorIs(t, err, ErrAccessDenied)

	ctx := access.WithUser(context.Background(), &access.Account{
		AccountName: "tagger",
		Permissions: []string{"access taxonomy overview"},
	})
	recs, err := b.LoadTree(ctx, "taxonomy_term", "tags", LoadOptions{})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestLoadTree_MaxDepth(t *testing.T) {
	b := NewEntityBuilder(testStore(t))

	recs, err := b.LoadTree(editorCtx(), "node", "article", LoadOptions{MaxDepth: 1})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, StringID("article"), recs[0].ID)

	recs, err = b.LoadTree(editorCtx(), "node", Wildcard, LoadOptions{MaxDepth: 1})
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	recs, err = b.LoadTree(editorCtx(), "node", "article", LoadOptions{MaxDepth: 2})
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestLoadTree_Parent(t *testing.T) {
	b := NewEntityBuilder(testStore(t))

	children, err := b.LoadTree(editorCtx(), "node", "article", LoadOptions{Parent: StringID("article")})
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, IntID(10), children[0].ID)

	top, err := b.LoadTree(editorCtx(), "node", "article", LoadOptions{Parent: RootParent})
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, StringID("article"), top[0].ID)

	none, err := b.LoadTree(editorCtx(), "node", "article", LoadOptions{Parent: StringID("blog")})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreateTreeNode(t *testing.T) {
	b := NewEntityBuilder(storage.NewMemoryStore())
	rec := Record{ID: IntID(10), Parent: StringID("article"), Text: "First article"}

	node := b.CreateTreeNode(rec, nil)
	assert.Equal(t, Node{ID: IntID(10), Parent: StringID("article"), Text: "First article"}, node)
	assert.False(t, node.State.Selected)

	selected := []NodeID{IntID(3), StringID("10")}
	first := b.CreateTreeNode(rec, selected)
	second := b.CreateTreeNode(rec, selected)
	assert.True(t, first.State.Selected)
	assert.Equal(t, first, second)

	assert.False(t, b.CreateTreeNode(rec, []NodeID{IntID(11)}).State.Selected)
}

func TestNodeIDAccessor(t *testing.T) {
	b := NewEntityBuilder(storage.NewMemoryStore())
	assert.Equal(t, StringID("page"), b.NodeID(Record{ID: StringID("page"), Parent: RootParent}))
}

func TestHasAccess(t *testing.T) {
	b := NewEntityBuilder(storage.NewMemoryStore())
	assert.False(t, b.HasAccess(nil))
	assert.False(t, b.HasAccess(access.Anonymous()))
	assert.True(t, b.HasAccess(access.Anonymous(access.PermissionAccessContent)))
	assert.True(t, b.HasAccess(&access.Account{AccountName: "root", Admin: true}))
}

func TestCurrentUserHasAccess(t *testing.T) {
	b := NewEntityBuilder(storage.NewMemoryStore())
	assert.True(t, CurrentUserHasAccess(editorCtx(), b))
	assert.False(t, CurrentUserHasAccess(context.Background(), b))

	// nil checks the anonymous account even when the request has a user.
	assert.False(t, b.HasAccess(nil))
	assert.True(t, b.HasAccess(access.UserFromContext(editorCtx())))
}
