package ingest

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	internal "github.com/wytlabs/cardops/internal"
	"github.com/xuri/excelize/v2"
)

// FileKind declares how an uploaded file should be parsed. There is no
// content sniffing: anything not explicitly delimited text is read as a
// spreadsheet binary.
type FileKind string

const (
	KindDelimited   FileKind = "delimited"
	KindSpreadsheet FileKind = "spreadsheet"
)

// KindFromFilename maps a file name to its declared kind.
func KindFromFilename(name string) FileKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		return KindDelimited
	default:
		return KindSpreadsheet
	}
}

// Row is one non-empty data row: the header order of row 1 plus the raw
// cell value under each header.
type Row struct {
	Headers []string
	Cells   map[string]string
}

// ExtractRows turns raw file content into an ordered sequence of rows.
// Rows whose cells are all blank are dropped. A file without a header row
// produces no rows.
func ExtractRows(content []byte, kind FileKind) ([]Row, error) {
	var records [][]string
	var err error

	switch kind {
	case KindDelimited:
		records, err = readDelimited(content)
	default:
		records, err = readSpreadsheet(content)
	}
	if err != nil {
		return nil, err
	}

	return assembleRows(records), nil
}

func readDelimited(content []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, internal.NewValidationError("file is not parseable as delimited text", internal.ErrCodeUnsupportedFormat).WithCause(err)
		}
		records = append(records, record)
	}
	return records, nil
}

func readSpreadsheet(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, internal.NewValidationError("file is not parseable as a spreadsheet", internal.ErrCodeUnsupportedFormat).WithCause(err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, nil
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, internal.NewValidationError("failed to read spreadsheet rows", internal.ErrCodeUnsupportedFormat).WithCause(err)
	}
	return records, nil
}

func assembleRows(records [][]string) []Row {
	if len(records) == 0 {
		return nil
	}

	headers := make([]string, 0, len(records[0]))
	for _, h := range records[0] {
		headers = append(headers, strings.TrimSpace(h))
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		cells := make(map[string]string, len(headers))
		empty := true
		for i, header := range headers {
			if header == "" {
				continue
			}
			var value string
			if i < len(record) {
				value = record[i]
			}
			if strings.TrimSpace(value) != "" {
				empty = false
			}
			cells[header] = value
		}
		if empty {
			continue
		}
		rows = append(rows, Row{Headers: headers, Cells: cells})
	}
	return rows
}
