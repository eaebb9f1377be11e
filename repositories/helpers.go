package repositories

import (
	"fmt"

	"gorm.io/gorm/clause"
)

func forUpdateClause() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

func sprintfQuery(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}
