package cursor

import "slices"

// FromMaps builds a cursor from a collection of key-value rows. When columns is nil the column set
// is inferred: the union of all keys across all rows, one unqualified column per key, sorted into
// a deterministic order. Each source row is then projected onto the fixed column order, yielding a
// rectangular matrix even when the inputs have inconsistent key sets.
func FromMaps(columns []ColumnDescription, rows []map[string]any) (*Cursor, error) {
	if columns == nil {
		columns = InferColumns(rows)
	}

	matrix := make([]Row, len(rows))
	for i, row := range rows {
		matrix[i] = ProjectRow(columns, row)
	}
	return FromRows(columns, matrix)
}

// InferColumns derives a deterministic column set from heterogeneous key-value rows: the union of
// all keys, deduplicated by (table, name) identity, in sorted order.
func InferColumns(rows []map[string]any) []ColumnDescription {
	seen := make(map[ColumnDescription]bool)
	var columns []ColumnDescription
	for _, row := range rows {
		for key := range row {
			col := ColumnDescription{Name: key}
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}

	slices.SortFunc(columns, ColumnDescription.Compare)
	return columns
}

// ProjectRow aligns one key-value row with a fixed column order. Each column is looked up by bare
// name first, then by its qualified "table.name" key; a column present under neither key gets nil.
func ProjectRow(columns []ColumnDescription, row map[string]any) Row {
	result := make(Row, len(columns))
	for i, col := range columns {
		value, found := row[col.Name]
		if !found {
			value = row[col.QualifiedName()]
		}
		result[i] = value
	}
	return result
}
