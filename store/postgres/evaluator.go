package postgres

import (
	"fmt"
	"strings"

	apperrors "github.com/stocker/stocker/data/pkg/errors"
	"github.com/stocker/stocker/data/store"
)

// columnChecker is the slice of the mapper the evaluator needs: column-name
// validation keeps caller-supplied names out of the generated SQL.
type columnChecker interface {
	HasColumn(name string) bool
}

// pageBounds overrides a specification's own paging (GetPaged and the
// single-row guard use it).
type pageBounds struct {
	skip int
	take int
}

// buildWhere renders a condition conjunction. Placeholders continue from
// len(args)+1 so callers can seed args with the tenant value.
func buildWhere(m columnChecker, conditions []store.Condition, args []any) ([]string, []any, error) {
	clauses := make([]string, 0, len(conditions))
	for _, c := range conditions {
		if !m.HasColumn(c.Column) {
			return nil, nil, apperrors.InvalidArgument(fmt.Sprintf("unknown column %q", c.Column))
		}
		switch c.Op {
		case store.OpEqual:
			args = append(args, c.Value)
			clauses = append(clauses, fmt.Sprintf("%s = $%d", c.Column, len(args)))
		case store.OpNotEqual:
			args = append(args, c.Value)
			clauses = append(clauses, fmt.Sprintf("%s <> $%d", c.Column, len(args)))
		case store.OpGreater:
			args = append(args, c.Value)
			clauses = append(clauses, fmt.Sprintf("%s > $%d", c.Column, len(args)))
		case store.OpGreaterOrEqual:
			args = append(args, c.Value)
			clauses = append(clauses, fmt.Sprintf("%s >= $%d", c.Column, len(args)))
		case store.OpLess:
			args = append(args, c.Value)
			clauses = append(clauses, fmt.Sprintf("%s < $%d", c.Column, len(args)))
		case store.OpLessOrEqual:
			args = append(args, c.Value)
			clauses = append(clauses, fmt.Sprintf("%s <= $%d", c.Column, len(args)))
		case store.OpLike:
			args = append(args, c.Value)
			clauses = append(clauses, fmt.Sprintf("%s LIKE $%d", c.Column, len(args)))
		case store.OpIn:
			values, ok := c.Value.([]any)
			if !ok {
				return nil, nil, apperrors.InvalidArgument(fmt.Sprintf("in condition on %q needs a value list", c.Column))
			}
			if len(values) == 0 {
				// Empty membership matches nothing.
				clauses = append(clauses, "FALSE")
				continue
			}
			placeholders := make([]string, len(values))
			for i, v := range values {
				args = append(args, v)
				placeholders[i] = fmt.Sprintf("$%d", len(args))
			}
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", c.Column, strings.Join(placeholders, ", ")))
		default:
			return nil, nil, apperrors.InvalidArgument(fmt.Sprintf("unsupported operator %q", c.Op))
		}
	}
	return clauses, args, nil
}

// applySpecification refines a base SELECT with a specification, in the
// fixed order the layer guarantees: filter, orderings, then skip and take.
// The where slice may already carry the tenant clause. Includes are not
// rendered here; they run as relation queries after the rows materialize.
func applySpecification(base string, where []string, args []any, m columnChecker, spec *store.Specification, override *pageBounds) (string, []any, error) {
	if err := spec.Validate(); err != nil {
		return "", nil, err
	}

	clauses, args, err := buildWhere(m, spec.Conditions(), args)
	if err != nil {
		return "", nil, err
	}
	where = append(where, clauses...)

	var sb strings.Builder
	sb.WriteString(base)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}

	if orderings := spec.Orderings(); len(orderings) > 0 {
		keys := make([]string, len(orderings))
		for i, o := range orderings {
			if !m.HasColumn(o.Column) {
				return "", nil, apperrors.InvalidArgument(fmt.Sprintf("unknown column %q", o.Column))
			}
			dir := "ASC"
			if o.Descending {
				dir = "DESC"
			}
			keys[i] = fmt.Sprintf("%s %s", o.Column, dir)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(keys, ", "))
	}

	skip, take, paged := spec.Paging()
	if override != nil {
		skip, take, paged = override.skip, override.take, true
	}
	if paged {
		if skip < 0 {
			return "", nil, apperrors.InvalidArgument("skip must not be negative")
		}
		if take < 0 {
			return "", nil, apperrors.InvalidArgument("take must not be negative")
		}
		fmt.Fprintf(&sb, " OFFSET %d LIMIT %d", skip, take)
	}

	return sb.String(), args, nil
}
