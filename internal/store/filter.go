// internal/store/filter.go
package store

import (
	"fmt"
	"strings"

	"mortgage-api/internal/models"
)

// buildFilterClause composes one WHERE clause from whatever subset of filter
// dimensions is present. Every combination goes through this single path;
// absent filters contribute nothing, date bounds are inclusive.
func buildFilterClause(f models.ApplicationFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)

	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.NationalID != "" {
		args = append(args, f.NationalID)
		conds = append(conds, fmt.Sprintf("national_id = $%d", len(args)))
	}
	if f.CreatedFrom != nil {
		args = append(args, *f.CreatedFrom)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if f.CreatedTo != nil {
		args = append(args, *f.CreatedTo)
		conds = append(conds, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
