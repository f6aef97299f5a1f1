package storage

import (
	"fmt"
	"reflect"

	"github.com/FashtimeDotCom/cow-blog/internal/storage/clause"
)

// PK names a model's primary key column together with its value.
type PK = clause.Eq

// Schema maps a model type to its table and back. Every entity in the
// blog's closed set (posts, comments, categories, tags, post_tags, users)
// carries a hand-written implementation; there is no reflection-based
// inference and the set never changes at runtime.
type Schema[T any] interface {
	TableName() string

	// SelectColumns lists every readable column, in scan order.
	SelectColumns() []string

	// InsertRow extracts the column/value pairs for a new row.
	InsertRow(*T) ([]string, []any)

	// UpdateMap extracts the full SET map for an overwrite of the row.
	UpdateMap(*T) map[string]any

	PK(*T) PK
	SetPK(m *T, val int64)
	AutoIncrement() bool
}

// The registry is populated once, from package init of the models, and
// read-only afterwards.
var schemas = make(map[reflect.Type]any)

// RegisterSchema records the schema for model type T.
func RegisterSchema[T any](schema Schema[T]) {
	var t T
	schemas[reflect.TypeOf(t)] = schema
}

// LoadSchema returns the registered schema for T, panicking on an
// unregistered type: that is a wiring bug, not a runtime condition.
func LoadSchema[T any]() Schema[T] {
	var t T
	typ := reflect.TypeOf(t)
	if s, ok := schemas[typ]; ok {
		return s.(Schema[T])
	}
	panic(fmt.Sprintf("storage: schema not registered for type %v", typ))
}
