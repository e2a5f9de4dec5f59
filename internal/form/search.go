// Package form renders the entity tree search form shown in the picker
// dialog.
package form

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/google/uuid"
)

// SearchFormID identifies the search form in the rendered markup.
const SearchFormID = "entity-reference-tree-search-form"

// SearchForm is a built search form for one entity reference field.
type SearchForm struct {
	BuildID     string
	FieldEditID string
	Bundle      string
	EntityType  string
	// TreeURL is the tree-json endpoint the widget loads its nodes from.
	TreeURL string
}

// Builder builds search forms pointing at the tree-json endpoint below
// basePath.
type Builder struct {
	basePath string
}

// NewBuilder creates a Builder. basePath is the route prefix of the tree
// endpoints, e.g. "/entity-reference-tree".
func NewBuilder(basePath string) *Builder {
	return &Builder{basePath: basePath}
}

// Build returns the search form for the field identified by fieldEditID,
// listing entityType entities of bundle (a comma-separated list or "*").
func (b *Builder) Build(fieldEditID, bundle, entityType string) *SearchForm {
	return &SearchForm{
		BuildID:     "form-" + uuid.NewString(),
		FieldEditID: fieldEditID,
		Bundle:      bundle,
		EntityType:  entityType,
		TreeURL:     fmt.Sprintf("%s/tree-json/%s/%s", b.basePath, entityType, bundle),
	}
}

// Render writes the form's HTML to w.
func (f *SearchForm) Render(w io.Writer) error {
	return searchTemplate.Execute(w, f)
}

// HTML returns the rendered form.
func (f *SearchForm) HTML() (string, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return "", fmt.Errorf("rendering search form: %w", err)
	}
	return buf.String(), nil
}

var searchTemplate = template.Must(template.New("search").Parse(`<form id="` + SearchFormID + `" class="entity-reference-tree-search-form" method="post">
  <input type="hidden" name="form_build_id" value="{{.BuildID}}">
  <input type="hidden" name="entity_reference_tree_field_edit_id" value="{{.FieldEditID}}">
  <input type="hidden" name="entity_reference_tree_selected_node" value="">
  <div class="form-item">
    <label for="entity-reference-tree-search">Search</label>
    <input type="text" id="entity-reference-tree-search" name="tree_search" size="60" maxlength="128">
  </div>
  <div id="entity-reference-tree-wrapper" class="entity-reference-tree"
       data-entity-type="{{.EntityType}}"
       data-bundle="{{.Bundle}}"
       data-tree-url="{{.TreeURL}}"></div>
  <div class="form-actions">
    <button type="submit" name="op" value="save">Save</button>
  </div>
</form>
`))
