package storage

import (
	"context"

	"github.com/FashtimeDotCom/cow-blog/internal/storage/clause"
)

// Relations are declared statically, one value per edge in the entity
// graph, and consumed by preload executors. Each executor resolves a
// whole related collection for a result set with a fixed number of
// batched queries: one for has-many and belongs-to, two for
// many-to-many (join rows first, then the far side). Never one per row.
//
// Key access goes through explicit getter functions rather than
// reflection; every key in this schema is an int64.

// HasManyRelation links parent P to the children C that carry its key.
type HasManyRelation[P, C any] struct {
	// ForeignKey is the column on C pointing back at P.
	ForeignKey clause.Column

	// LocalKey extracts the parent's key, ForeignKeyValue the child's
	// back-reference.
	LocalKey        func(*P) int64
	ForeignKeyValue func(*C) int64

	// Assign sets the loaded children on the parent.
	Assign func(*P, []*C)

	// Scope, when set, restricts the loaded children. Visibility rules
	// ride in here: a non-admin read preloads only public comments.
	Scope clause.Expression
}

// BelongsToRelation links P to the single C its foreign key names. The
// getter's bool reports whether the reference is set at all, so
// nullable columns (a post's optional parent) skip the fetch.
type BelongsToRelation[P, C any] struct {
	// TargetKey is the column on C the foreign key refers to.
	TargetKey clause.Column

	ForeignKeyValue func(*P) (int64, bool)
	TargetKeyValue  func(*C) int64

	Assign func(*P, *C)
}

// ManyToManyRelation links P and C through join rows of type J.
type ManyToManyRelation[P, C, J any] struct {
	// JoinParentKey is the column on J naming the parent, TargetKey the
	// column on C that J's child reference points at.
	JoinParentKey clause.Column
	TargetKey     clause.Column

	LocalKey       func(*P) int64
	JoinParentID   func(*J) int64
	JoinChildID    func(*J) int64
	TargetKeyValue func(*C) int64

	Assign func(*P, []*C)
}

// Preload resolves a has-many edge for every parent in one batched
// query over the collected parent keys.
func Preload[P, C any](rel HasManyRelation[P, C]) preloadExecutor[P] {
	return func(ctx context.Context, session *Session, parents []*P) error {
		if len(parents) == 0 {
			return nil
		}

		parentIDs := make([]any, 0, len(parents))
		for _, p := range parents {
			parentIDs = append(parentIDs, rel.LocalKey(p))
		}

		query := Query[C](session).
			Where(clause.IN{Column: rel.ForeignKey, Values: parentIDs})
		if rel.Scope != nil {
			query = query.Where(rel.Scope)
		}
		children, err := query.Find(ctx)
		if err != nil {
			return err
		}

		childMap := make(map[int64][]*C, len(parents))
		for _, child := range children {
			fk := rel.ForeignKeyValue(child)
			childMap[fk] = append(childMap[fk], child)
		}

		for _, p := range parents {
			loaded := childMap[rel.LocalKey(p)]
			if loaded == nil {
				loaded = []*C{}
			}
			rel.Assign(p, loaded)
		}
		return nil
	}
}

// PreloadBelongsTo resolves a belongs-to edge, deduplicating foreign
// keys before the batched fetch. Parents with an unset reference are
// left alone.
func PreloadBelongsTo[P, C any](rel BelongsToRelation[P, C]) preloadExecutor[P] {
	return func(ctx context.Context, session *Session, parents []*P) error {
		if len(parents) == 0 {
			return nil
		}

		seen := make(map[int64]struct{})
		targetIDs := make([]any, 0, len(parents))
		for _, p := range parents {
			id, ok := rel.ForeignKeyValue(p)
			if !ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			targetIDs = append(targetIDs, id)
		}
		if len(targetIDs) == 0 {
			return nil
		}

		targets, err := Query[C](session).
			Where(clause.IN{Column: rel.TargetKey, Values: targetIDs}).
			Find(ctx)
		if err != nil {
			return err
		}

		targetMap := make(map[int64]*C, len(targets))
		for _, target := range targets {
			targetMap[rel.TargetKeyValue(target)] = target
		}

		for _, p := range parents {
			if id, ok := rel.ForeignKeyValue(p); ok {
				if target, found := targetMap[id]; found {
					rel.Assign(p, target)
				}
			}
		}
		return nil
	}
}

// PreloadManyToMany resolves a many-to-many edge in two batched
// queries: the join rows for all parents, then the far-side rows for
// every child key those named.
func PreloadManyToMany[P, C, J any](rel ManyToManyRelation[P, C, J]) preloadExecutor[P] {
	return func(ctx context.Context, session *Session, parents []*P) error {
		if len(parents) == 0 {
			return nil
		}

		parentIDs := make([]any, 0, len(parents))
		for _, p := range parents {
			parentIDs = append(parentIDs, rel.LocalKey(p))
		}

		joins, err := Query[J](session).
			Where(clause.IN{Column: rel.JoinParentKey, Values: parentIDs}).
			Find(ctx)
		if err != nil {
			return err
		}

		childIDSet := make(map[int64]struct{}, len(joins))
		childIDs := make([]any, 0, len(joins))
		for _, j := range joins {
			id := rel.JoinChildID(j)
			if _, dup := childIDSet[id]; dup {
				continue
			}
			childIDSet[id] = struct{}{}
			childIDs = append(childIDs, id)
		}

		childMap := make(map[int64]*C, len(childIDs))
		if len(childIDs) > 0 {
			children, err := Query[C](session).
				Where(clause.IN{Column: rel.TargetKey, Values: childIDs}).
				Find(ctx)
			if err != nil {
				return err
			}
			for _, child := range children {
				childMap[rel.TargetKeyValue(child)] = child
			}
		}

		grouped := make(map[int64][]*C, len(parents))
		for _, j := range joins {
			if child, ok := childMap[rel.JoinChildID(j)]; ok {
				pid := rel.JoinParentID(j)
				grouped[pid] = append(grouped[pid], child)
			}
		}

		for _, p := range parents {
			loaded := grouped[rel.LocalKey(p)]
			if loaded == nil {
				loaded = []*C{}
			}
			rel.Assign(p, loaded)
		}
		return nil
	}
}
