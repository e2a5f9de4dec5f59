package tree

import (
	"context"
	"database/sql"
	"testing"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/matthewbaird/entitytree/internal/storage"
)

// bundleSize exceeds SQLite's bound-variable limit of 32766.
const bundleSize = 40000

func TestLoadTree_LargeSQLBundle(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store := storage.NewSQLStore(entsql.OpenDB(dialect.SQLite, db))
	require.NoError(t, store.Migrate(ctx))
	_, err = db.ExecContext(ctx, `WITH RECURSIVE seq(i) AS (SELECT 1 UNION ALL SELECT i + 1 FROM seq WHERE i < ?)
INSERT INTO entities (entity_type, bundle, label) SELECT 'node', 'article', 'Article ' || i FROM seq`, bundleSize)
	require.NoError(t, err)

	b := NewEntityBuilder(store)
	recs, err := b.LoadTree(editorCtx(), "node", "article", LoadOptions{})
	require.NoError(t, err)
	require.Len(t, recs, bundleSize+1)
	assert.Equal(t, StringID("article"), recs[0].ID)
	assert.Equal(t, Record{ID: IntID(1), Parent: StringID("article"), Text: "Article 1"}, recs[1])
	assert.Equal(t, "Article 40000", recs[bundleSize].Text)

	res, err := Collect(editorCtx(), b, Request{EntityType: "node", Bundles: []string{"article", "page"}})
	require.NoError(t, err)
	assert.Len(t, res.Nodes, bundleSize+2)
}
