package cursor

import (
	"cmp"
	"fmt"
)

// ColumnDescription identifies one result column. [Table] is optional; when empty the column is
// unqualified and matches lookups against any table name.
type ColumnDescription struct {
	Table string
	Name  string
}

func (c ColumnDescription) String() string {
	return c.QualifiedName()
}

// QualifiedName returns "table.name", or just the column name when no table is set.
func (c ColumnDescription) QualifiedName() string {
	if c.Table == "" {
		return c.Name
	}
	return fmt.Sprintf("%s.%s", c.Table, c.Name)
}

// Compare orders column descriptions by table, then by name.
func (c ColumnDescription) Compare(other ColumnDescription) int {
	if result := cmp.Compare(c.Table, other.Table); result != 0 {
		return result
	}
	return cmp.Compare(c.Name, other.Name)
}

// matches reports whether a lookup for (name, table) resolves to this column. An empty table on
// either side acts as a wildcard.
func (c ColumnDescription) matches(name string, table string) bool {
	if c.Name != name {
		return false
	}
	return table == "" || c.Table == "" || c.Table == table
}
