package infrastructure

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const SearchLimit = 20

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern builds a case-folded LIKE pattern matching q anywhere.
// Use it with ESCAPE '\'.
func ContainsPattern(q string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
}

// ForUpdate locks the selected rows until the transaction ends on stores that
// support row locks. SQLite serializes writers already and is left alone.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
