package memory

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/stocker/stocker/data/pkg/errors"
	"github.com/stocker/stocker/data/store"
)

// normalize collapses numeric kinds so that, say, an int condition value can
// match an int64 column.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

func valuesEqual(a, b any) bool {
	na, nb := normalize(a), normalize(b)
	if ta, ok := na.(time.Time); ok {
		if tb, ok := nb.(time.Time); ok {
			return ta.Equal(tb)
		}
		return false
	}
	return na == nb
}

// compareValues orders two column values. Mixed incomparable types fall
// back to their string forms so sorting stays total.
func compareValues(a, b any) int {
	na, nb := normalize(a), normalize(b)
	switch x := na.(type) {
	case int64:
		if y, ok := nb.(int64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case float64:
		if y, ok := nb.(float64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case string:
		if y, ok := nb.(string); ok {
			return strings.Compare(x, y)
		}
	case bool:
		if y, ok := nb.(bool); ok {
			switch {
			case !x && y:
				return -1
			case x && !y:
				return 1
			}
			return 0
		}
	case time.Time:
		if y, ok := nb.(time.Time); ok {
			switch {
			case x.Before(y):
				return -1
			case x.After(y):
				return 1
			}
			return 0
		}
	case uuid.UUID:
		if y, ok := nb.(uuid.UUID); ok {
			return strings.Compare(x.String(), y.String())
		}
	}
	return strings.Compare(fmt.Sprint(na), fmt.Sprint(nb))
}

// likePattern compiles a SQL LIKE pattern: % matches any run, _ one rune.
func likePattern(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	return regexp.Compile(sb.String())
}

// matches evaluates one condition against a column value.
func matches(c store.Condition, value any) (bool, error) {
	switch c.Op {
	case store.OpEqual:
		return valuesEqual(value, c.Value), nil
	case store.OpNotEqual:
		return !valuesEqual(value, c.Value), nil
	case store.OpGreater:
		return compareValues(value, c.Value) > 0, nil
	case store.OpGreaterOrEqual:
		return compareValues(value, c.Value) >= 0, nil
	case store.OpLess:
		return compareValues(value, c.Value) < 0, nil
	case store.OpLessOrEqual:
		return compareValues(value, c.Value) <= 0, nil
	case store.OpLike:
		pattern, ok := c.Value.(string)
		if !ok {
			return false, apperrors.InvalidArgument(fmt.Sprintf("like condition on %q needs a string pattern", c.Column))
		}
		re, err := likePattern(pattern)
		if err != nil {
			return false, apperrors.InvalidArgument(fmt.Sprintf("invalid like pattern %q", pattern))
		}
		s, ok := value.(string)
		if !ok {
			return false, nil
		}
		return re.MatchString(s), nil
	case store.OpIn:
		values, ok := c.Value.([]any)
		if !ok {
			return false, apperrors.InvalidArgument(fmt.Sprintf("in condition on %q needs a value list", c.Column))
		}
		for _, v := range values {
			if valuesEqual(value, v) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, apperrors.InvalidArgument(fmt.Sprintf("unsupported operator %q", c.Op))
	}
}
