package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// conn returns tx when the caller runs inside a transaction and the
// repository's own handle otherwise.
func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// forUpdate adds SELECT ... FOR UPDATE when running inside a transaction.
func forUpdate(q *gorm.DB, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return q
	}
	return q.Clauses(clause.Locking{Strength: "UPDATE"})
}
