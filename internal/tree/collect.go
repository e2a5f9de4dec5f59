package tree

import (
	"context"
	"errors"
	"strings"
)

// SplitBundles splits a comma-separated bundle list. Segments are not
// trimmed and empty segments are kept.
func SplitBundles(csv string) []string {
	return strings.Split(csv, ",")
}

// SplitIDs parses a comma-separated id list, dropping empty segments.
func SplitIDs(csv string) []NodeID {
	var ids []NodeID
	for _, s := range strings.Split(csv, ",") {
		if s == "" {
			continue
		}
		ids = append(ids, ParseID(s))
	}
	return ids
}

// Request describes one tree read across several bundles.
type Request struct {
	EntityType string
	Bundles    []string
	Options    LoadOptions
	Selected   []NodeID
}

// Result is the flattened node list for a Request.
type Result struct {
	// Nodes is never nil.
	Nodes []Node
	// Denied counts bundles skipped because access was denied.
	Denied int
}

// Collect loads every bundle in req.Bundles in order and flattens the
// records into widget nodes. Empty and access-denied bundles are skipped;
// any other error aborts.
func Collect(ctx context.Context, b Builder, req Request) (Result, error) {
	var trees [][]Record
	res := Result{Nodes: make([]Node, 0)}

	for _, bundleID := range req.Bundles {
		recs, err := b.LoadTree(ctx, req.EntityType, bundleID, req.Options)
		if errors.Is(err, ErrAccessDenied) {
			res.Denied++
			continue
		}
		if err != nil {
			return Result{}, err
		}
		if len(recs) == 0 {
			continue
		}
		trees = append(trees, recs)
	}

	for _, recs := range trees {
		for _, rec := range recs {
			res.Nodes = append(res.Nodes, b.CreateTreeNode(rec, req.Selected))
		}
	}
	return res, nil
}
