// Package storage provides the read-mostly entity store the tree builders
// query, with a sqlite-backed implementation and an in-memory one.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Entity is a labelled record of some entity type, tagged with a bundle.
type Entity struct {
	ID         int64  `json:"id" yaml:"id,omitempty"`
	EntityType string `json:"entity_type" yaml:"type"`
	Bundle     string `json:"bundle" yaml:"bundle"`
	Label      string `json:"label" yaml:"label"`
}

// Store is the interface for reading and writing entities.
type Store interface {
	// LoadMultiple returns entities of entityType in ascending id order.
	// A nil ids slice loads every entity of the type.
	LoadMultiple(ctx context.Context, entityType string, ids []int64) ([]Entity, error)

	// LoadBundle returns the entities of entityType whose bundle equals
	// bundle, in ascending id order.
	LoadBundle(ctx context.Context, entityType, bundle string) ([]Entity, error)

	// QueryBundle returns the ids of entityType whose bundle equals bundle.
	QueryBundle(ctx context.Context, entityType, bundle string) ([]int64, error)

	// Save inserts e and returns it with its assigned id.
	Save(ctx context.Context, e Entity) (Entity, error)

	// Count returns the number of stored entities across all types.
	Count(ctx context.Context) (int, error)
}

const entitiesTable = "entities"

// maxIDsPerQuery keeps IN lists below SQLite's bound-variable limit, which
// is 999 on builds older than 3.32.
const maxIDsPerQuery = 900

var (
	entitiesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "entity_type", Type: field.TypeString},
		{Name: "bundle", Type: field.TypeString},
		{Name: "label", Type: field.TypeString, Size: 2147483647},
	}
	entitiesSchema = &schema.Table{
		Name:       entitiesTable,
		Columns:    entitiesColumns,
		PrimaryKey: []*schema.Column{entitiesColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "entity_type_bundle",
				Unique:  false,
				Columns: []*schema.Column{entitiesColumns[1], entitiesColumns[2]},
			},
		},
	}
)

// SQLStore implements Store on an ent SQL driver.
type SQLStore struct {
	drv dialect.Driver
}

// NewSQLStore creates a SQLStore over drv.
func NewSQLStore(drv dialect.Driver) *SQLStore {
	return &SQLStore{drv: drv}
}

// Migrate creates or updates the entities table.
func (s *SQLStore) Migrate(ctx context.Context) error {
	m, err := schema.NewMigrate(s.drv)
	if err != nil {
		return fmt.Errorf("creating migrate: %w", err)
	}
	if err := m.Create(ctx, entitiesSchema); err != nil {
		return fmt.Errorf("migrating %s: %w", entitiesTable, err)
	}
	return nil
}

func (s *SQLStore) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.drv.Dialect())
}

func (s *SQLStore) LoadMultiple(ctx context.Context, entityType string, ids []int64) ([]Entity, error) {
	if ids == nil {
		return s.selectEntities(ctx, entsql.EQ("entity_type", entityType), entityType)
	}
	ids = slices.Clone(ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	var entities []Entity
	for chunk := range slices.Chunk(ids, maxIDsPerQuery) {
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		batch, err := s.selectEntities(ctx, entsql.And(
			entsql.EQ("entity_type", entityType),
			entsql.In("id", args...),
		), entityType)
		if err != nil {
			return nil, err
		}
		entities = append(entities, batch...)
	}
	return entities, nil
}

func (s *SQLStore) LoadBundle(ctx context.Context, entityType, bundle string) ([]Entity, error) {
	entities, err := s.selectEntities(ctx, entsql.And(
		entsql.EQ("entity_type", entityType),
		entsql.EQ("bundle", bundle),
	), entityType)
	if err != nil {
		return nil, fmt.Errorf("bundle %q: %w", bundle, err)
	}
	return entities, nil
}

// selectEntities runs one id-ordered select over the entities matching pred.
func (s *SQLStore) selectEntities(ctx context.Context, pred *entsql.Predicate, entityType string) ([]Entity, error) {
	query, args := s.builder().
		Select("id", "entity_type", "bundle", "label").
		From(entsql.Table(entitiesTable)).
		Where(pred).
		OrderBy("id").
		Query()

	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("loading %s entities: %w", entityType, err)
	}
	defer rows.Close()

	var entities []Entity
	for rows.Next() {
		var e Entity
		if err := rows.Scan(&e.ID, &e.EntityType, &e.Bundle, &e.Label); err != nil {
			return nil, fmt.Errorf("scanning %s entity: %w", entityType, err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s entities: %w", entityType, err)
	}
	return entities, nil
}

func (s *SQLStore) QueryBundle(ctx context.Context, entityType, bundle string) ([]int64, error) {
	query, args := s.builder().
		Select("id").
		From(entsql.Table(entitiesTable)).
		Where(entsql.And(
			entsql.EQ("entity_type", entityType),
			entsql.EQ("bundle", bundle),
		)).
		OrderBy("id").
		Query()

	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("querying %s bundle %q: %w", entityType, bundle, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning %s id: %w", entityType, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLStore) Save(ctx context.Context, e Entity) (Entity, error) {
	ins := s.builder().Insert(entitiesTable)
	if e.ID != 0 {
		ins.Columns("id", "entity_type", "bundle", "label").Values(e.ID, e.EntityType, e.Bundle, e.Label)
	} else {
		ins.Columns("entity_type", "bundle", "label").Values(e.EntityType, e.Bundle, e.Label)
	}
	query, args := ins.Query()

	var res sql.Result
	if err := s.drv.Exec(ctx, query, args, &res); err != nil {
		return Entity{}, fmt.Errorf("saving %s entity: %w", e.EntityType, err)
	}
	if e.ID == 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return Entity{}, fmt.Errorf("reading inserted id: %w", err)
		}
		e.ID = id
	}
	return e, nil
}

func (s *SQLStore) Count(ctx context.Context) (int, error) {
	query, args := s.builder().
		Select(entsql.Count("*")).
		From(entsql.Table(entitiesTable)).
		Query()

	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return 0, fmt.Errorf("counting entities: %w", err)
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("scanning count: %w", err)
		}
	}
	return n, rows.Err()
}
