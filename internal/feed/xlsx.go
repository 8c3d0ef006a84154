package feed

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/groblegark/hrmart/internal/model"
)

// ReadXLSX reads the first sheet of a spreadsheet feed, treating the first
// row as the header.
func ReadXLSX(r io.Reader, feed model.FeedID) ([]model.RawRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open %s workbook: %w", feed, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("feed %s: workbook has no sheets", feed)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read %s sheet %q: %w", feed, sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []model.RawRecord
	for i, row := range rows[1:] {
		fields := make(map[string]string, len(header))
		empty := true
		for j, name := range header {
			if name == "" {
				continue
			}
			if j < len(row) {
				fields[name] = row[j]
				if strings.TrimSpace(row[j]) != "" {
					empty = false
				}
			}
		}
		// Trailing blank rows are common in exported workbooks.
		if empty {
			continue
		}
		records = append(records, model.RawRecord{Feed: feed, Line: i + 2, Fields: fields})
	}
	return records, nil
}
