package sheets

import (
	"fmt"
	"strconv"
	"strings"

	"aruskas/internal/source"
)

// parseCategories reads an ID, Name, Type matrix. An empty matrix is not an error.
func parseCategories(values [][]any) ([]source.RawCategory, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	colID, colName, colType := indexOf(headers, "ID"), indexOf(headers, "Name"), indexOf(headers, "Type")
	if colName == -1 {
		return nil, fmt.Errorf("unexpected categories header: missing Name; got headers=%v", headers)
	}
	var out []source.RawCategory
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		name := safeGet(row, colName)
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		id := safeGet(row, colID)
		if id == "" {
			id = strconv.Itoa(i)
		}
		out = append(out, source.RawCategory{
			ID:   source.Scalar(id),
			Name: name,
			Type: strings.ToLower(safeGet(row, colType)),
		})
	}
	return out, nil
}

// parseTransactions converts the transactions matrix into raw records. The
// Category column holds a category name or id. Names not in cats become new
// categories typed by the row's Type column. Malformed rows are kept so that
// reconcile can report them. Blank rows and rows whose first non-empty cell
// starts with "#" are skipped.
func parseTransactions(values [][]any, cats []source.RawCategory) ([]source.RawTransaction, []source.RawCategory, error) {
	known := append([]source.RawCategory(nil), cats...)
	if len(values) == 0 {
		return nil, known, nil
	}
	headers := toStrings(values[0])
	colID := indexOf(headers, "ID")
	colDate := indexOf(headers, "Date")
	colDesc := indexOf(headers, "Description")
	colAmount := indexOf(headers, "Amount")
	colCat := indexOf(headers, "Category")
	colType := indexOf(headers, "Type")
	if colDate == -1 || colAmount == -1 || colCat == -1 {
		missing := make([]string, 0, 3)
		if colDate == -1 {
			missing = append(missing, "Date")
		}
		if colAmount == -1 {
			missing = append(missing, "Amount")
		}
		if colCat == -1 {
			missing = append(missing, "Category")
		}
		return nil, nil, fmt.Errorf("unexpected transactions header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	byName := make(map[string]string, len(known))
	byID := make(map[string]bool, len(known))
	for _, c := range known {
		byName[strings.ToLower(c.Name)] = c.ID.String()
		byID[c.ID.String()] = true
	}
	nextID := len(known)

	var out []source.RawTransaction
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if isBlank(row) || isComment(row) {
			continue
		}
		id := safeGet(row, colID)
		if id == "" {
			id = strconv.Itoa(i + 1) // sheet row number
		}

		catRef := safeGet(row, colCat)
		catID := ""
		switch {
		case catRef == "":
		case byID[catRef]:
			catID = catRef
		case byName[strings.ToLower(catRef)] != "":
			catID = byName[strings.ToLower(catRef)]
		default:
			nextID++
			for byID[strconv.Itoa(nextID)] {
				nextID++
			}
			catID = strconv.Itoa(nextID)
			known = append(known, source.RawCategory{
				ID:   source.Scalar(catID),
				Name: catRef,
				Type: strings.ToLower(safeGet(row, colType)),
			})
			byName[strings.ToLower(catRef)] = catID
			byID[catID] = true
		}

		out = append(out, source.RawTransaction{
			ID:          source.Scalar(id),
			CategoryID:  source.Scalar(catID),
			Amount:      source.Scalar(safeGet(row, colAmount)),
			Date:        source.Scalar(safeGet(row, colDate)),
			Description: safeGet(row, colDesc),
		})
	}
	return out, known, nil
}

// cellString renders a cell as text. Numbers are written in plain decimal
// notation so that large amounts never appear in exponent form.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return strings.TrimSpace(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = cellString(v)
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

// isComment reports whether the first non-empty cell starts with "#".
func isComment(row []string) bool {
	for _, v := range row {
		if v != "" {
			return strings.HasPrefix(v, "#")
		}
	}
	return false
}
