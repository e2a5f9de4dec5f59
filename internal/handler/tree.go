// Package handler implements the HTTP handlers of the entity tree picker.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/entitytree/internal/access"
	"github.com/matthewbaird/entitytree/internal/dialog"
	"github.com/matthewbaird/entitytree/internal/form"
	"github.com/matthewbaird/entitytree/internal/metrics"
	"github.com/matthewbaird/entitytree/internal/tree"
)

// TreeConfig holds the TreeHandler's settings.
type TreeConfig struct {
	// ForbidOnDenied answers 403 when the caller lacks the tree permission
	// instead of an empty list.
	ForbidOnDenied bool
	DialogTitle    string
	DialogWidth    int
}

// TreeHandler implements the tree-json and search-form endpoints.
type TreeHandler struct {
	registry *tree.Registry
	forms    *form.Builder
	metrics  *metrics.Metrics
	logger   *slog.Logger
	cfg      TreeConfig
}

// NewTreeHandler creates a new TreeHandler.
func NewTreeHandler(registry *tree.Registry, forms *form.Builder, m *metrics.Metrics, logger *slog.Logger, cfg TreeConfig) *TreeHandler {
	return &TreeHandler{
		registry: registry,
		forms:    forms,
		metrics:  m,
		logger:   logger,
		cfg:      cfg,
	}
}

// TreeJSON returns the widget nodes for a comma-separated bundle list.
// GET /tree-json/{entity_type}/{bundles}?selected=&parent=&max_depth=
func (h *TreeHandler) TreeJSON(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entity_type")
	bundles := chi.URLParam(r, "bundles")

	maxDepth, ok := parseDepth(w, r, h.logger, "max_depth")
	if !ok {
		return
	}
	req := tree.Request{
		EntityType: entityType,
		Bundles:    tree.SplitBundles(bundles),
		Selected:   tree.SplitIDs(r.URL.Query().Get("selected")),
		Options:    tree.LoadOptions{MaxDepth: maxDepth},
	}
	if p := r.URL.Query().Get("parent"); p != "" {
		req.Options.Parent = tree.ParseID(p)
	}

	builder := h.registry.Resolve(entityType)
	res, err := tree.Collect(r.Context(), builder, req)
	if err != nil {
		internalError(w, r, h.logger, err)
		return
	}

	label := h.metricLabel(entityType)
	if res.Denied > 0 {
		h.metrics.AccessDenied.WithLabelValues(label).Add(float64(res.Denied))
		user := access.UserFromContext(r.Context())
		h.logger.Debug("tree access denied",
			"builder", tree.ServiceKey(entityType),
			"user", user.Name(),
			"bundles", res.Denied,
		)
		if h.cfg.ForbidOnDenied {
			writeError(w, h.logger, http.StatusForbidden, "ACCESS_DENIED", "not allowed to view "+entityType+" trees")
			return
		}
	}

	h.metrics.TreeNodes.WithLabelValues(label).Add(float64(len(res.Nodes)))
	writeJSON(w, h.logger, http.StatusOK, res.Nodes)
}

// OtherEntityTypes is the metric label shared by every entity type served
// by the fallback builder.
const OtherEntityTypes = "other"

// metricLabel bounds label cardinality to the registered entity types.
func (h *TreeHandler) metricLabel(entityType string) string {
	if _, ok := h.registry.Lookup(entityType); ok {
		return entityType
	}
	return OtherEntityTypes
}

// OpenSearchForm returns the command list opening the search form dialog.
// GET /tree-search-form/{field_edit_id}/{bundle}/{entity_type}
func (h *TreeHandler) OpenSearchForm(w http.ResponseWriter, r *http.Request) {
	fieldEditID := chi.URLParam(r, "field_edit_id")
	bundle := chi.URLParam(r, "bundle")
	entityType := chi.URLParam(r, "entity_type")

	html, err := h.forms.Build(fieldEditID, bundle, entityType).HTML()
	if err != nil {
		internalError(w, r, h.logger, err)
		return
	}

	var resp dialog.Response
	resp.Add(dialog.OpenModal(h.cfg.DialogTitle, html, dialog.Options{
		Width: strconv.Itoa(h.cfg.DialogWidth),
	}))
	writeJSON(w, h.logger, http.StatusOK, resp)
}
