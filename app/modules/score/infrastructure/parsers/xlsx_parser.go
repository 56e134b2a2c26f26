package scoreparsers

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	scoredomain "github.com/sjlangley/social-golf-spa/app/modules/score/domain"
	"github.com/xuri/excelize/v2"
)

// Column headers recognised in the first row, matched case-insensitively.
const (
	ColumnMemberID     = "member_id"
	ColumnDifferential = "differential"
	ColumnRecordedAt   = "recorded_at"
	ColumnGrossScore   = "gross_score"
	ColumnCourseName   = "course_name"
)

// MaxRows bounds a single import.
const MaxRows = 1000

var (
	// ErrInvalidFile is returned when the upload is not a readable workbook.
	ErrInvalidFile = errors.New("invalid score import file")
	// ErrMissingColumn is returned when a required header is absent.
	ErrMissingColumn = errors.New("missing required column")
	// ErrTooManyRows is returned when the sheet exceeds MaxRows data rows.
	ErrTooManyRows = errors.New("too many rows")
)

var recordedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"1/2/2006",
}

// ParsedRow is one data row. Row is the 1-based sheet row number. Err is set
// when the row could not be turned into a request.
type ParsedRow struct {
	Row     int
	Request scoredomain.RecordScoreRequest
	Err     error
}

// XLSXParser parses score spreadsheets.
type XLSXParser struct{}

// NewXLSXParser creates a new XLSX parser
func NewXLSXParser() *XLSXParser {
	return &XLSXParser{}
}

// Parse reads the first sheet. File-level problems are returned as an error;
// row-level problems are reported on the row.
func (p *XLSXParser) Parse(data []byte) ([]ParsedRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidFile)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %q: %w", ErrInvalidFile, sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", ErrInvalidFile, sheets[0])
	}

	columns, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	var parsed []ParsedRow
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		if len(parsed) == MaxRows {
			return nil, fmt.Errorf("%w: at most %d rows per import", ErrTooManyRows, MaxRows)
		}
		req, err := parseRow(row, columns)
		parsed = append(parsed, ParsedRow{Row: i + 2, Request: req, Err: err})
	}
	return parsed, nil
}

func headerIndex(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		if name == "" {
			continue
		}
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}
	for _, required := range []string{ColumnMemberID, ColumnDifferential, ColumnRecordedAt} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}
	return columns, nil
}

func parseRow(row []string, columns map[string]int) (scoredomain.RecordScoreRequest, error) {
	var req scoredomain.RecordScoreRequest

	memberID, err := uuid.Parse(cell(row, columns, ColumnMemberID))
	if err != nil {
		return req, fmt.Errorf("member_id is not a valid UUID")
	}
	req.MemberID = memberID

	diff, err := strconv.ParseFloat(cell(row, columns, ColumnDifferential), 64)
	if err != nil {
		return req, fmt.Errorf("differential is not a number")
	}
	req.Differential = &diff

	recordedAt, err := parseRecordedAt(cell(row, columns, ColumnRecordedAt))
	if err != nil {
		return req, err
	}
	req.RecordedAt = recordedAt

	if raw := cell(row, columns, ColumnGrossScore); raw != "" {
		gross, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("gross_score is not an integer")
		}
		req.GrossScore = &gross
	}
	if raw := cell(row, columns, ColumnCourseName); raw != "" {
		req.CourseName = &raw
	}
	return req, nil
}

func parseRecordedAt(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("recorded_at is required")
	}
	for _, layout := range recordedAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("recorded_at %q is not a recognised date", raw)
}

func cell(row []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
