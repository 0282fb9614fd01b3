package mysql

import (
	"fmt"

	"github.com/afterten/orderbox"
)

// tables holds the fully-qualified table names for one store instance.
type tables struct {
	products   string
	variations string
	cart       string
	pending    string
	version    string
}

func tablesWithPrefix(prefix string) (tables, error) {
	if err := validatePrefix(prefix); err != nil {
		return tables{}, err
	}

	return tables{
		products:   prefix + orderbox.TableProducts,
		variations: prefix + orderbox.TableVariations,
		cart:       prefix + orderbox.TableCart,
		pending:    prefix + orderbox.TablePendingOrders,
		version:    prefix + "schema_version",
	}, nil
}

// validatePrefix permits empty prefixes and identifier characters with an
// optional trailing schema qualifier, e.g. "pos_" or "appdb.pos_".
func validatePrefix(prefix string) error {
	if prefix == "" {
		return nil
	}

	dots := 0
	for _, r := range prefix {
		switch {
		case r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case r == '.':
			dots++
			if dots > 1 {
				return fmt.Errorf("%w: %s", ErrInvalidTablePrefix, prefix)
			}
		default:
			return fmt.Errorf("%w: %s", ErrInvalidTablePrefix, prefix)
		}
	}
	if prefix[0] == '.' {
		return fmt.Errorf("%w: %s", ErrInvalidTablePrefix, prefix)
	}

	return nil
}
