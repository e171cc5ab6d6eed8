package verify

import "strings"

const (
	tableRowDelimiterConstant        = "|"
	sectionHeadingMarkerConstant     = "##"
	lineSeparatorConstant            = "\n"
	featureRecordColumnCountConstant = 7
)

// tableScanState tracks the parser position within the document. The scan is
// an explicit two-state machine: it seeks the configured header marker, then
// consumes table rows until the terminal condition (a non-row line carrying a
// section heading marker) stops processing entirely.
type tableScanState int

const (
	scanStateSeekingHeader tableScanState = iota
	scanStateInsideTable
)

// ParseFeatureTable extracts feature records from raw document text. A line
// containing tableHeader as a substring opens the table; separator rows made
// solely of '-' and '|' are skipped; rows are split on '|' with empty cells
// dropped, and the first seven non-empty cells map positionally to name, sha,
// author, branch, date, files changed, and message. Rows with fewer than
// seven non-empty cells are silently skipped. Document row order is
// preserved and duplicates are not collapsed.
func ParseFeatureTable(documentContent string, tableHeader string) []FeatureRecord {
	parsedRecords := []FeatureRecord{}
	scanState := scanStateSeekingHeader

	for _, rawLine := range strings.Split(documentContent, lineSeparatorConstant) {
		trimmedLine := strings.TrimSpace(rawLine)

		switch scanState {
		case scanStateSeekingHeader:
			if strings.Contains(trimmedLine, tableHeader) {
				scanState = scanStateInsideTable
			}

		case scanStateInsideTable:
			// Repeated header lines are skipped, never parsed as data.
			if strings.Contains(trimmedLine, tableHeader) {
				continue
			}

			if isSeparatorRow(trimmedLine) {
				continue
			}

			if isTableTerminator(trimmedLine) {
				return parsedRecords
			}

			if strings.HasPrefix(trimmedLine, tableRowDelimiterConstant) {
				if parsedRecord, rowComplete := parseTableRow(trimmedLine); rowComplete {
					parsedRecords = append(parsedRecords, parsedRecord)
				}
			}
		}
	}

	return parsedRecords
}

// isSeparatorRow reports whether the line is a table separator: it starts
// with the row delimiter and contains only '-' and '|' characters. A
// malformed separator carrying any other character is treated as a data row
// and falls through to the seven-cell check.
func isSeparatorRow(line string) bool {
	if !strings.HasPrefix(line, tableRowDelimiterConstant) {
		return false
	}
	for _, lineCharacter := range line {
		if lineCharacter != '-' && lineCharacter != '|' {
			return false
		}
	}
	return true
}

// isTableTerminator reports whether the line ends the table section: a
// non-empty line that is not a table row yet carries a section heading
// marker.
func isTableTerminator(line string) bool {
	if len(line) == 0 {
		return false
	}
	if strings.HasPrefix(line, tableRowDelimiterConstant) {
		return false
	}
	return strings.Contains(line, sectionHeadingMarkerConstant)
}

func parseTableRow(line string) (FeatureRecord, bool) {
	rawCells := strings.Split(line, tableRowDelimiterConstant)

	trimmedCells := make([]string, 0, len(rawCells))
	for _, rawCell := range rawCells {
		trimmedCell := strings.TrimSpace(rawCell)
		if len(trimmedCell) == 0 {
			continue
		}
		trimmedCells = append(trimmedCells, trimmedCell)
	}

	if len(trimmedCells) < featureRecordColumnCountConstant {
		return FeatureRecord{}, false
	}

	parsedRecord := FeatureRecord{
		Name:         trimmedCells[0],
		SHA:          trimmedCells[1],
		Author:       trimmedCells[2],
		Branch:       trimmedCells[3],
		Date:         trimmedCells[4],
		FilesChanged: trimmedCells[5],
		Message:      trimmedCells[6],
	}

	return parsedRecord, true
}
