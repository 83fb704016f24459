package google

import (
	"encoding/json"
	"fmt"
	"strings"

	"anjo/internal/docs"
)

// parseRows turns a values matrix into the documents of owner. Blank rows,
// a header row and rows whose payload is not valid JSON are skipped.
func parseRows(values [][]any, owner string) []docs.Document {
	out := make([]docs.Document, 0, len(values))
	for _, row := range values {
		cols := toStrings(row)
		if safeGet(cols, 0) != owner {
			continue
		}
		id := safeGet(cols, 1)
		data := safeGet(cols, 2)
		if id == "" || !json.Valid([]byte(data)) {
			continue
		}
		out = append(out, docs.Document{ID: id, Data: json.RawMessage(data)})
	}
	return out
}

// findRow returns the 1-based sheet row holding (owner, id), or -1.
func findRow(values [][]any, owner, id string) int {
	for i, row := range values {
		cols := toStrings(row)
		if safeGet(cols, 0) == owner && safeGet(cols, 1) == id {
			return i + 1
		}
	}
	return -1
}

func rowRange(collection string, row int) string {
	return fmt.Sprintf("%s!A%d:C%d", collection, row, row)
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
