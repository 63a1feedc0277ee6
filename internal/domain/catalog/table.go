package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// BuildTable aligns products into columns. Columns follow first appearance across records,
// with each record's own keys taken in sorted order. Missing cells are empty.
func BuildTable(products []Product) Table {
	var (
		columns []string
		index   = make(map[string]int)
	)
	for _, p := range products {
		keys := make([]string, 0, len(p))
		for k := range p {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, ok := index[k]; !ok {
				index[k] = len(columns)
				columns = append(columns, k)
			}
		}
	}

	rows := make([][]string, 0, len(products))
	for _, p := range products {
		row := make([]string, len(columns))
		for k, v := range p {
			row[index[k]] = Cell(v)
		}
		rows = append(rows, row)
	}
	return Table{Columns: columns, Rows: rows}
}

// Cell renders one JSON value. Objects and arrays become compact JSON.
func Cell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	default:
		return fmt.Sprint(val)
	}
}
