package tree

import (
	"context"
	"errors"
	"fmt"

	"github.com/matthewbaird/entitytree/internal/access"
	"github.com/matthewbaird/entitytree/internal/storage"
)

// Wildcard is the bundle id that loads every entity of a type, ungrouped.
const Wildcard = "*"

// ErrAccessDenied is returned by LoadTree when the context user lacks the
// builder's permission. No records accompany it.
var ErrAccessDenied = errors.New("tree: access denied")

// LoadOptions narrows a loaded tree. The zero value loads everything.
type LoadOptions struct {
	// Parent keeps only the children of this node. RootParent keeps only
	// top-level nodes. Zero keeps all nodes.
	Parent NodeID
	// MaxDepth keeps nodes at most this many levels deep, top level being
	// depth 1. Zero or less means unlimited.
	MaxDepth int
}

// Builder converts the entities of one entity type into tree records.
type Builder interface {
	// LoadTree returns the records for bundleID, or ErrAccessDenied.
	LoadTree(ctx context.Context, entityType, bundleID string, opts LoadOptions) ([]Record, error)
	// CreateTreeNode converts rec into a widget node, selected if its id
	// is in selected.
	CreateTreeNode(rec Record, selected []NodeID) Node
	// NodeID returns rec's id.
	NodeID(rec Record) NodeID
	// HasAccess reports whether u may read trees from this builder.
	// A nil user is checked as the anonymous account, never as the user
	// of the current request; use CurrentUserHasAccess for that.
	HasAccess(u access.User) bool
}

// CurrentUserHasAccess reports whether the user carried by ctx may read
// trees from b. A context without a user is anonymous.
func CurrentUserHasAccess(ctx context.Context, b Builder) bool {
	return b.HasAccess(access.UserFromContext(ctx))
}

// EntityBuilder is the generic Builder: one root node per bundle and one
// child per entity in it.
type EntityBuilder struct {
	store      storage.Store
	permission string
}

// EntityBuilderOption configures an EntityBuilder.
type EntityBuilderOption func(*EntityBuilder)

// WithPermission replaces the permission checked by HasAccess.
func WithPermission(p string) EntityBuilderOption {
	return func(b *EntityBuilder) {
		b.permission = p
	}
}

// NewEntityBuilder creates an EntityBuilder reading from store.
func NewEntityBuilder(store storage.Store, opts ...EntityBuilderOption) *EntityBuilder {
	b := &EntityBuilder{
		store:      store,
		permission: access.PermissionAccessContent,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Permission returns the permission this builder checks.
func (b *EntityBuilder) Permission() string { return b.permission }

func (b *EntityBuilder) LoadTree(ctx context.Context, entityType, bundleID string, opts LoadOptions) ([]Record, error) {
	if !CurrentUserHasAccess(ctx, b) {
		return nil, ErrAccessDenied
	}

	var (
		tree      []Record
		entities  []storage.Entity
		hasBundle = bundleID != Wildcard
		err       error
	)
	if !hasBundle {
		entities, err = b.store.LoadMultiple(ctx, entityType, nil)
		if err != nil {
			return nil, fmt.Errorf("loading %s entities: %w", entityType, err)
		}
	} else {
		tree = append(tree, Record{
			ID:     StringID(bundleID),
			Parent: RootParent,
			Text:   bundleID,
		})
		if opts.MaxDepth == 1 {
			return filter(tree, opts), nil
		}

		entities, err = b.store.LoadBundle(ctx, entityType, bundleID)
		if err != nil {
			return nil, fmt.Errorf("loading %s bundle %q: %w", entityType, bundleID, err)
		}
	}

	for _, e := range entities {
		parent := RootParent
		if hasBundle {
			parent = StringID(e.Bundle)
		}
		tree = append(tree, Record{
			ID:     IntID(e.ID),
			Parent: parent,
			Text:   e.Label,
		})
	}
	return filter(tree, opts), nil
}

// filter applies opts to a two-level record list whose top-level records
// have parent "#".
func filter(recs []Record, opts LoadOptions) []Record {
	if opts.Parent.IsZero() && opts.MaxDepth <= 0 {
		return recs
	}
	out := recs[:0:0]
	for _, r := range recs {
		depth := 2
		if r.Parent.IsRoot() {
			depth = 1
		}
		if opts.MaxDepth > 0 && depth > opts.MaxDepth {
			continue
		}
		if !opts.Parent.IsZero() && !r.Parent.Equal(opts.Parent) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (b *EntityBuilder) CreateTreeNode(rec Record, selected []NodeID) Node {
	node := Node{
		ID:     rec.ID,
		Parent: rec.Parent,
		Text:   rec.Text,
	}
	for _, id := range selected {
		if id.Equal(rec.ID) {
			node.State.Selected = true
			break
		}
	}
	return node
}

func (b *EntityBuilder) NodeID(rec Record) NodeID {
	return rec.ID
}

func (b *EntityBuilder) HasAccess(u access.User) bool {
	if u == nil {
		u = access.Anonymous()
	}
	return u.HasPermission(b.permission)
}
