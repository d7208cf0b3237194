// Package dataset parses uploaded tabular files. Files follow the
// MATLAB-style layout where a literal DATA marker splits sample
// metadata (left) from measurement variables (right); files without the
// marker fall back to class-column detection by name and cardinality.
package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// triggerWord is the cell content that marks the metadata/variable
// boundary. Matched case-insensitively after trimming.
const triggerWord = "DATA"

// triggerSearchRows bounds the header search: the marker must appear in
// one of the first rows of the file.
const triggerSearchRows = 5

// maxPreviewRows caps the raw rows included in a preview payload.
const maxPreviewRows = 1000

// maxMetadataUnique is the cardinality above which a metadata column is
// treated as an id column and skipped.
const maxMetadataUnique = 50

// MetadataColumn describes one candidate class column.
type MetadataColumn struct {
	Name         string   `json:"name"`
	UniqueCount  int      `json:"unique_count"`
	SampleValues []string `json:"sample_values"`
}

// Preview is the structural summary of an uploaded file, produced
// before any analysis runs.
type Preview struct {
	TriggerFound    bool              `json:"trigger_found"`
	TriggerColumn   string            `json:"trigger_column,omitempty"`
	MetadataColumns []MetadataColumn  `json:"metadata_columns"`
	VariableNames   []string          `json:"variable_names"`
	NumSamples      int               `json:"num_samples"`
	NumVariables    int               `json:"num_variables"`
	PreviewRows     []map[string]string `json:"preview_rows,omitempty"`
	AllColumns      []string          `json:"all_columns"`
}

var classKeywords = []string{"group", "class", "treatment", "label", "category", "type", "condition"}
var idKeywords = []string{"id", "sample", "patient", "subject", "name"}

// PreviewFile inspects the file structure without running analysis.
func PreviewFile(contents []byte, filename string) (*Preview, error) {
	grid, err := readGrid(contents, filename)
	if err != nil {
		return nil, err
	}

	headerRow, triggerCol, found := findTrigger(grid)
	if !found {
		return previewFallback(grid)
	}

	columns := headerColumns(grid, headerRow, triggerCol)
	rows := dataRows(grid, headerRow+1)
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	varNames := columns[triggerCol+1:]
	return &Preview{
		TriggerFound:    true,
		TriggerColumn:   columns[triggerCol],
		MetadataColumns: metadataColumns(columns, rows, triggerCol),
		VariableNames:   append([]string(nil), varNames...),
		NumSamples:      len(rows),
		NumVariables:    len(varNames),
		PreviewRows:     previewRows(columns, rows),
		AllColumns:      append([]string(nil), columns...),
	}, nil
}

func previewFallback(grid [][]string) (*Preview, error) {
	if len(grid) < 2 {
		return nil, ErrEmptyFile
	}
	columns := headerColumns(grid, 0, -1)
	rows := dataRows(grid, 1)
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	classIdx := findClassColumnFallback(columns, rows)
	if classIdx < 0 {
		// No clear class column: treat the first column as the class.
		classIdx = 0
	}

	uniques := uniqueValues(rows, classIdx)
	varNames := make([]string, 0, len(columns)-1)
	for i, col := range columns {
		if i != classIdx {
			varNames = append(varNames, col)
		}
	}

	return &Preview{
		TriggerFound: false,
		MetadataColumns: []MetadataColumn{{
			Name:         columns[classIdx],
			UniqueCount:  len(uniques),
			SampleValues: sampleValues(uniques),
		}},
		VariableNames: varNames,
		NumSamples:    len(rows),
		NumVariables:  len(varNames),
		PreviewRows:   previewRows(columns, rows),
		AllColumns:    append([]string(nil), columns...),
	}, nil
}

// Parse extracts the numeric matrix, integer class labels, and variable
// names for analysis. Values using a comma decimal separator are
// accepted; unparseable cells become NaN. Rows whose data cells are all
// NaN, or whose class cell is blank, are dropped.
func Parse(contents []byte, filename, classColumn string) (data [][]float64, classes []int, varNames []string, err error) {
	grid, err := readGrid(contents, filename)
	if err != nil {
		return nil, nil, nil, err
	}

	headerRow, triggerCol, found := findTrigger(grid)
	if !found {
		headerRow, triggerCol = 0, -1
	}
	columns := headerColumns(grid, headerRow, triggerCol)
	rows := dataRows(grid, headerRow+1)
	if len(rows) == 0 {
		return nil, nil, nil, ErrEmptyFile
	}

	classIdx := -1
	if classColumn != "" {
		for i, col := range columns {
			if col == classColumn {
				classIdx = i
				break
			}
		}
		if classIdx < 0 {
			return nil, nil, nil, fmt.Errorf("%w: %q (available: %s)", ErrClassColumnNotFound, classColumn, strings.Join(columns, ", "))
		}
	} else if triggerCol > 0 {
		// The class column lives in the metadata block left of the
		// trigger.
		metaCols := columns[:triggerCol]
		classIdx = findClassColumnFallback(metaCols, rows)
		if classIdx < 0 {
			classIdx = 0
		}
	} else {
		classIdx = findClassColumnFallback(columns, rows)
		if classIdx < 0 {
			classIdx = 0
		}
	}

	var dataCols []int
	if triggerCol >= 0 {
		for i := triggerCol + 1; i < len(columns); i++ {
			dataCols = append(dataCols, i)
		}
	} else {
		for i, col := range columns {
			if i == classIdx || matchesKeyword(col, idKeywords) {
				continue
			}
			dataCols = append(dataCols, i)
		}
	}
	if len(dataCols) < 2 {
		return nil, nil, nil, ErrInsufficientVariables
	}

	varNames = make([]string, len(dataCols))
	for i, col := range dataCols {
		varNames[i] = columns[col]
	}

	rawClasses := make([]string, len(rows))
	for i, row := range rows {
		rawClasses[i] = cell(row, classIdx)
	}
	labels := classLabels(rawClasses)

	for i, row := range rows {
		if strings.TrimSpace(rawClasses[i]) == "" {
			continue
		}
		values := make([]float64, len(dataCols))
		allNaN := true
		for j, col := range dataCols {
			values[j] = parseNumeric(cell(row, col))
			if !math.IsNaN(values[j]) {
				allNaN = false
			}
		}
		if allNaN {
			continue
		}
		data = append(data, values)
		classes = append(classes, labels[i])
	}

	if len(data) < 3 {
		return nil, nil, nil, ErrInsufficientSamples
	}
	if len(distinct(classes)) < 2 {
		return nil, nil, nil, ErrInsufficientGroups
	}
	return data, classes, varNames, nil
}

func readGrid(contents []byte, filename string) ([][]string, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
	contents = bytes.TrimPrefix(contents, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(contents))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	grid, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(grid) == 0 {
		return nil, ErrEmptyFile
	}
	return grid, nil
}

// findTrigger searches the first rows for the DATA marker. The row it
// appears in is the header row; the column is the metadata/variable
// boundary.
func findTrigger(grid [][]string) (row, col int, found bool) {
	limit := min(triggerSearchRows, len(grid))
	for r := 0; r < limit; r++ {
		for c, value := range grid[r] {
			if strings.EqualFold(strings.TrimSpace(value), triggerWord) {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

// headerColumns derives the column names from the header row. Unnamed
// variable columns right of the trigger borrow the cell from the row
// above the header (wide-format files put variable names there), else a
// Variable_N placeholder.
func headerColumns(grid [][]string, headerRow, triggerCol int) []string {
	width := 0
	for _, row := range grid {
		if len(row) > width {
			width = len(row)
		}
	}

	columns := make([]string, width)
	for i := 0; i < width; i++ {
		name := strings.TrimSpace(cell(grid[headerRow], i))
		if name == "" && triggerCol >= 0 && i > triggerCol {
			if headerRow > 0 {
				name = strings.TrimSpace(cell(grid[headerRow-1], i))
			}
			if name == "" {
				name = fmt.Sprintf("Variable_%d", i-triggerCol)
			}
		}
		if name == "" {
			name = fmt.Sprintf("Column_%d", i+1)
		}
		columns[i] = name
	}
	return columns
}

func dataRows(grid [][]string, start int) [][]string {
	var rows [][]string
	for _, row := range grid[min(start, len(grid)):] {
		empty := true
		for _, v := range row {
			if strings.TrimSpace(v) != "" {
				empty = false
				break
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows
}

// metadataColumns collects the candidate class columns left of the
// trigger, skipping high-cardinality id-like columns.
func metadataColumns(columns []string, rows [][]string, triggerCol int) []MetadataColumn {
	var out []MetadataColumn
	for i := 0; i < triggerCol; i++ {
		uniques := uniqueValues(rows, i)
		if len(uniques) > maxMetadataUnique {
			continue
		}
		out = append(out, MetadataColumn{
			Name:         columns[i],
			UniqueCount:  len(uniques),
			SampleValues: sampleValues(uniques),
		})
	}
	if out == nil {
		out = []MetadataColumn{}
	}
	return out
}

func previewRows(columns []string, rows [][]string) []map[string]string {
	limit := min(maxPreviewRows, len(rows))
	out := make([]map[string]string, limit)
	for i := 0; i < limit; i++ {
		entry := make(map[string]string, len(columns))
		for j, col := range columns {
			entry[col] = cell(rows[i], j)
		}
		out[i] = entry
	}
	return out
}

// findClassColumnFallback locates a class column in files without the
// DATA marker: first by name keywords, then by cardinality (2-10 unique
// values covering less than half the rows). Returns -1 when nothing
// qualifies.
func findClassColumnFallback(columns []string, rows [][]string) int {
	for i, col := range columns {
		if matchesKeyword(col, idKeywords) {
			continue
		}
		if matchesKeyword(col, classKeywords) && isClassColumn(rows, i) {
			return i
		}
	}
	for i, col := range columns {
		if matchesKeyword(col, idKeywords) {
			continue
		}
		if isClassColumn(rows, i) {
			return i
		}
	}
	return -1
}

func isClassColumn(rows [][]string, col int) bool {
	uniques := uniqueValues(rows, col)
	n := len(uniques)
	return n >= 2 && n <= 10 && n < len(rows)/2
}

func matchesKeyword(column string, keywords []string) bool {
	lower := strings.ToLower(column)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func uniqueValues(rows [][]string, col int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range rows {
		v := strings.TrimSpace(cell(row, col))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// sampleValues returns up to ten values, sorted numerically when every
// value parses as a number, else lexically.
func sampleValues(uniques []string) []string {
	out := append([]string(nil), uniques...)
	if len(out) > 10 {
		out = out[:10]
	}
	numeric := len(out) > 0
	for _, v := range out {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			numeric = false
			break
		}
	}
	if numeric {
		sort.Slice(out, func(i, j int) bool {
			a, _ := strconv.ParseFloat(out[i], 64)
			b, _ := strconv.ParseFloat(out[j], 64)
			return a < b
		})
	} else {
		sort.Strings(out)
	}
	return out
}

// classLabels converts raw class values to integer labels. Integer
// values pass through; anything else maps sorted unique values to 1..k.
func classLabels(raw []string) []int {
	labels := make([]int, len(raw))
	allInt := true
	for _, v := range raw {
		if _, err := strconv.Atoi(strings.TrimSpace(v)); err != nil {
			allInt = false
			break
		}
	}
	if allInt {
		for i, v := range raw {
			labels[i], _ = strconv.Atoi(strings.TrimSpace(v))
		}
		return labels
	}

	uniques := uniqueValues(rowsOf(raw), 0)
	sort.Strings(uniques)
	mapping := make(map[string]int, len(uniques))
	for i, v := range uniques {
		mapping[v] = i + 1
	}
	for i, v := range raw {
		labels[i] = mapping[strings.TrimSpace(v)]
	}
	return labels
}

func distinct(classes []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, c := range classes {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func rowsOf(values []string) [][]string {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{v}
	}
	return rows
}

// parseNumeric accepts both period and comma decimal separators.
// Unparseable cells become NaN.
func parseNumeric(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return math.NaN()
	}
	value = strings.ReplaceAll(value, ",", ".")
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
