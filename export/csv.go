package export

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/TRSiddique/university-association-sub000/model"
)

// byteOrderMark makes spreadsheet tools read the file as UTF-8.
const byteOrderMark = "\ufeff"

// Result is a rendered export ready to be served or saved.
type Result struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CSV renders the table with every field quoted and embedded quotes doubled,
// prefixed with a UTF-8 byte-order mark. encoding/csv only quotes fields
// that need it, so the writer is done by hand.
func CSV(t Table) (*Result, error) {
	if len(t.Rows) == 0 {
		return nil, model.ErrNothingToExport
	}

	var buf bytes.Buffer
	buf.WriteString(byteOrderMark)
	writeRecord(&buf, t.Header)
	for _, row := range t.Rows {
		writeRecord(&buf, row)
	}

	return &Result{
		Filename:    Filename(t, "csv"),
		ContentType: "text/csv; charset=utf-8",
		Data:        buf.Bytes(),
	}, nil
}

func writeRecord(buf *bytes.Buffer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteString("\r\n")
}

// Filename follows <form-title>-responses-<YYYY-MM-DD>.<ext>, using the
// table's generation date.
func Filename(t Table, ext string) string {
	title := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(t.Title))
	if title == "" {
		title = "form"
	}
	return title + "-responses-" + t.GeneratedAt.Format("2006-01-02") + "." + ext
}
