// Package importer reads material class rule tables from CSV and Excel files.
// It supports automatic delimiter detection, flexible column mapping, and
// case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/atlaspack/internal/model"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Rules    []model.ClassRule
	Errors   []string
	Warnings []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	Pattern int
	Class   int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"pattern": {"pattern", "texture", "name", "match", "glob"},
	"class":   {"class", "material", "template", "group", "key"},
}

// delimiterCandidates are tried in order; earlier ones win ties.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

// DetectCSVDelimiter picks the delimiter of a class table. Comment lines are
// ignored. A candidate qualifies when it splits the first row into at least
// two cells; among those, the one that keeps the most rows at the first row's
// width wins, and a two-column split (pattern, class) breaks ties.
func DetectCSVDelimiter(data []byte) rune {
	best, bestScore := ',', 0
	for _, delim := range delimiterCandidates {
		if score := delimiterScore(data, delim); score > bestScore {
			best, bestScore = delim, score
		}
	}
	return best
}

func delimiterScore(data []byte, delim rune) int {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delim
	reader.Comment = '#'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil || len(records) == 0 || len(records[0]) < 2 {
		return 0
	}
	width := len(records[0])
	consistent := 0
	for _, row := range records {
		if len(row) == width {
			consistent++
		}
	}
	score := consistent * 4
	if width == 2 {
		score++
	}
	return score
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Returns the mapping and true if a header was detected, or the positional
// mapping (pattern, class) and false if no header was found.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Pattern: -1, Class: -1}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				switch role {
				case "pattern":
					if mapping.Pattern == -1 {
						mapping.Pattern = i
					}
				case "class":
					if mapping.Class == -1 {
						mapping.Class = i
					}
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{Pattern: 0, Class: 1}, false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// isComment reports whether a row is a "#" comment line.
func isComment(row []string) bool {
	return len(row) > 0 && strings.HasPrefix(strings.TrimSpace(row[0]), "#")
}

// validPattern reports whether a pattern can be matched against names.
func validPattern(p string) bool {
	p = strings.TrimSuffix(p, "/**")
	if p == "" {
		return false
	}
	_, err := path.Match(p, p)
	return err == nil
}

// ImportClassTable imports rules from a CSV or Excel file, chosen by extension.
func ImportClassTable(file string) ImportResult {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".xlsx", ".xlsm", ".xls":
		return ImportExcel(file)
	case ".csv", ".tsv", ".txt":
		return ImportCSV(file)
	default:
		return ImportResult{Errors: []string{fmt.Sprintf("Unsupported class table format '%s'", filepath.Ext(file))}}
	}
}

// ImportCSV imports rules from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
func ImportCSV(file string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(file)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	res := ImportCSVFromReader(bytes.NewReader(data), delimiter)
	res.Warnings = append(result.Warnings, res.Warnings...)
	return res
}

// ImportCSVFromReader imports rules from a CSV reader with a specific
// delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}}
	}
	return importFromRows(records, "Line", nil)
}

// ImportExcel imports rules from the first sheet of an Excel workbook.
func ImportExcel(file string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(file)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{Warnings: initialWarnings}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		missing := []string{}
		if mapping.Pattern == -1 {
			missing = append(missing, "Pattern")
		}
		if mapping.Class == -1 {
			missing = append(missing, "Class")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	}

	seen := make(map[string]bool)
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) || isComment(row) {
			continue
		}
		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)

		pattern := getCell(row, mapping.Pattern)
		class := getCell(row, mapping.Class)
		switch {
		case pattern == "":
			result.Errors = append(result.Errors, fmt.Sprintf("%s: Missing pattern", rowLabel))
			continue
		case class == "":
			result.Errors = append(result.Errors, fmt.Sprintf("%s: Missing class for '%s'", rowLabel, pattern))
			continue
		case !validPattern(pattern):
			result.Errors = append(result.Errors, fmt.Sprintf("%s: Invalid pattern '%s'", rowLabel, pattern))
			continue
		}

		key := strings.ToLower(pattern)
		if seen[key] {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: Pattern '%s' already defined on an earlier row and will never match", rowLabel, pattern))
			continue
		}
		seen[key] = true

		result.Rules = append(result.Rules, model.ClassRule{Pattern: pattern, Class: class})
	}

	if len(result.Rules) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No rules found")
	}
	return result
}
