package database

import (
	"fmt"
	"strings"
)

func Excluded(column string) string {
	return fmt.Sprintf("EXCLUDED.%s", column)
}

// OnConflictUpdate renders an upsert tail understood by both PostgreSQL and SQLite.
func OnConflictUpdate(conflict []string, columns ...string) string {
	assignments := make([]string, len(columns))
	for i, column := range columns {
		assignments[i] = fmt.Sprintf("%s = %s", column, Excluded(column))
	}
	return fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", strings.Join(conflict, ", "), strings.Join(assignments, ", "))
}

func OnConflictDoNothing(conflict ...string) string {
	return fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", strings.Join(conflict, ", "))
}
