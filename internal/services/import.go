package services

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/abrezinsky/evote/internal/errors"
)

// Column sets for bulk import sheets
var (
	UserColumns      = []string{"username", "fname", "lname", "email", "mobile", "voterID", "fatherName", "dob", "location"}
	CandidateColumns = []string{"username", "firstName", "lastName", "dob", "qualification", "join", "location", "partyName"}
)

// DateLayout is the DD-MM-YYYY format used by import sheets
const DateLayout = "2-1-2006"

const maxZipEntry = 16 << 20

// ImportReport lists the rows accepted and rejected by a bulk import.
// Row numbers count the header as row 1.
type ImportReport struct {
	Success []string      `json:"success"`
	Errors  []ImportError `json:"errors"`
}

// ImportError describes one rejected row
type ImportError struct {
	Row   int               `json:"row"`
	Error string            `json:"error"`
	Data  map[string]string `json:"data"`
}

func newImportReport() *ImportReport {
	return &ImportReport{Success: []string{}, Errors: []ImportError{}}
}

func (r *ImportReport) fail(row int, data map[string]string, format string, args ...interface{}) {
	r.Errors = append(r.Errors, ImportError{Row: row, Error: fmt.Sprintf(format, args...), Data: data})
}

// sheetRow is one parsed CSV record keyed by header name
type sheetRow struct {
	Row    int
	Fields map[string]string
}

// readSheet parses a CSV sheet with a header line. Values are trimmed and
// blank lines skipped.
func readSheet(data []byte) ([]sheetRow, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.InvalidInput("CSV file is empty")
	}
	if err != nil {
		return nil, errors.InvalidInputf("Invalid CSV file: %v", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []sheetRow
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.InvalidInputf("Invalid CSV file: %v", err)
		}
		fields := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				fields[name] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, sheetRow{Row: line, Fields: fields})
	}
	return rows, nil
}

// missing returns the required columns that are empty in fields
func missing(fields map[string]string, required []string) []string {
	var out []string
	for _, name := range required {
		if fields[name] == "" {
			out = append(out, name)
		}
	}
	return out
}

// CalendarDate keeps the year, month and day t shows in its own zone, at
// midnight UTC
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseSheetDate parses a DD-MM-YYYY date as midnight UTC
func ParseSheetDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// userBundle is the content of a user import upload
type userBundle struct {
	sheet  []byte
	images map[string]zipImage
}

type zipImage struct {
	ext  string
	data []byte
}

// isZip reports whether data should be read as a ZIP archive
func isZip(filename string, data []byte) bool {
	if strings.EqualFold(path.Ext(filename), ".zip") {
		return true
	}
	return bytes.HasPrefix(data, []byte("PK\x03\x04"))
}

// readUserBundle unpacks a user import. A ZIP holds one CSV sheet (the first
// .csv entry) plus avatar images named after the lower-cased username.
func readUserBundle(filename string, data []byte) (*userBundle, error) {
	if !isZip(filename, data) {
		return &userBundle{sheet: data, images: map[string]zipImage{}}, nil
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.InvalidInputf("Invalid ZIP file: %v", err)
	}

	b := &userBundle{images: make(map[string]zipImage)}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := path.Base(f.Name)
		ext := strings.ToLower(path.Ext(name))
		switch ext {
		case ".csv":
			if b.sheet != nil {
				continue
			}
			content, err := readZipEntry(f)
			if err != nil {
				return nil, err
			}
			b.sheet = content
		case ".jpg", ".jpeg", ".png":
			content, err := readZipEntry(f)
			if err != nil {
				return nil, err
			}
			key := strings.ToLower(strings.SplitN(name, ".", 2)[0])
			b.images[key] = zipImage{ext: ext, data: content}
		}
	}
	if b.sheet == nil {
		return nil, errors.Validation("No CSV file found in ZIP")
	}
	return b, nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, errors.InvalidInputf("Invalid ZIP entry %s: %v", f.Name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(io.LimitReader(rc, maxZipEntry+1))
	if err != nil {
		return nil, errors.InvalidInputf("Invalid ZIP entry %s: %v", f.Name, err)
	}
	if len(content) > maxZipEntry {
		return nil, errors.Validationf("ZIP entry %s is too large", f.Name)
	}
	return content, nil
}

// UserTemplateCSV returns the header and an example row for user imports
func UserTemplateCSV() []byte {
	return templateCSV(UserColumns, []string{
		"jdoe", "John", "Doe", "john.doe@example.com", "9876543210", "ABCDE12345", "Richard Doe", "15-08-1990", "Mumbai",
	})
}

// CandidateTemplateCSV returns the header and an example row for candidate imports
func CandidateTemplateCSV() []byte {
	header := append(append([]string{}, CandidateColumns...), "description")
	return templateCSV(header, []string{
		"asharma", "Asha", "Sharma", "04-03-1970", "MA Economics", "2001", "Delhi", "Progress Party", "Two-term municipal councillor",
	})
}

func templateCSV(header, example []string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(header)
	_ = w.Write(example)
	w.Flush()
	return buf.Bytes()
}
