package importer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/warp/hours-engine/clock"
	"github.com/xuri/excelize/v2"
)

// ImportSpreadsheet reads the first sheet of an Excel workbook and feeds
// its rows through the row pipeline. Row 1 is the column header; data rows
// are numbered from 2 in error reports.
func (im *Importer) ImportSpreadsheet(ctx context.Context, filename string, data []byte) (*Summary, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", clock.ErrEmptyFile, err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, clock.ErrEmptyFile
	}
	raw, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", clock.ErrEmptyFile, err)
	}
	if len(raw) < 2 {
		return nil, clock.ErrEmptyFile
	}

	header := raw[0]
	rows := make([]map[string]string, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		row := make(map[string]string, len(header))
		for c, name := range header {
			if name == "" {
				continue
			}
			if c < len(cells) {
				row[name] = cells[c]
			}
		}
		rows = append(rows, row)
	}
	return im.ImportRows(ctx, filename, rows)
}
