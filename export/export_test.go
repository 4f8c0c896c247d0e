package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/TRSiddique/university-association-sub000/model"
)

var base = time.Date(2024, 6, 10, 8, 30, 0, 0, time.UTC)

func fixedOptions() Options {
	return Options{Now: func() time.Time { return base.Add(24 * time.Hour) }}
}

func feedback() *model.Form {
	return &model.Form{
		ID:    "f1",
		Title: "Feedback",
		Questions: []model.Question{
			{ID: "q2", Text: "Rating", Type: model.SingleChoice, Options: []string{"Good", "Bad"}, Order: 1},
			{ID: "q1", Text: "Name", Type: model.ShortText, Order: 0},
			{ID: "q3", Text: `Say "hi"`, Type: model.MultiChoice, Options: []string{"a", "b"}, Order: 2},
		},
	}
}

// three responses given in submission order; the middle one skips q2.
func responses() []model.Response {
	return []model.Response{
		{ID: "r1", SubmittedAt: base, Answers: []model.Answer{
			{QuestionID: "q1", Value: model.Text("Rahim")},
			{QuestionID: "q2", Value: model.Text("Good")},
			{QuestionID: "q3", Value: model.Set("a", "b")},
		}},
		{ID: "r2", SubmittedAt: base.Add(time.Hour), Answers: []model.Answer{
			{QuestionID: "q1", Value: model.Text(`He said "ok"`)},
			{QuestionID: "gone", Value: model.Text("orphan")},
		}},
		{ID: "r3", SubmittedAt: base.Add(2 * time.Hour), Answers: []model.Answer{
			{QuestionID: "q1", Value: model.Text("রহিম")},
			{QuestionID: "q2", Value: model.Text("")},
			{QuestionID: "q3", Value: model.Set()},
		}},
	}
}

func TestBuildTableJoin(t *testing.T) {
	tbl := BuildTable(feedback(), responses(), fixedOptions())

	wantHeader := []string{"#", "Submitted At", "Name", "Rating", `Say "hi"`}
	if strings.Join(tbl.Header, "|") != strings.Join(wantHeader, "|") {
		t.Fatalf("header = %v", tbl.Header)
	}

	want := [][]string{
		{"3", "2024-06-10 10:30:00", "রহিম", NoAnswer, NoAnswer},
		{"2", "2024-06-10 09:30:00", `He said "ok"`, NoAnswer, NoAnswer},
		{"1", "2024-06-10 08:30:00", "Rahim", "Good", "a, b"},
	}
	if len(tbl.Rows) != len(want) {
		t.Fatalf("rows = %d", len(tbl.Rows))
	}
	for i := range want {
		if strings.Join(tbl.Rows[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("row %d = %v, want %v", i, tbl.Rows[i], want[i])
		}
	}
}

func TestBuildTableLocation(t *testing.T) {
	dhaka := time.FixedZone("BST", 6*60*60)
	tbl := BuildTable(feedback(), responses()[:1], Options{Location: dhaka})
	if tbl.Rows[0][1] != "2024-06-10 14:30:00" {
		t.Fatalf("submitted at = %q", tbl.Rows[0][1])
	}
}

func TestCSV(t *testing.T) {
	tbl := BuildTable(feedback(), responses(), fixedOptions())
	res, err := CSV(tbl)
	if err != nil {
		t.Fatal(err)
	}
	if res.Filename != "Feedback-responses-2024-06-11.csv" {
		t.Errorf("filename = %q", res.Filename)
	}
	if !bytes.HasPrefix(res.Data, []byte("\xef\xbb\xbf")) {
		t.Fatal("missing byte-order mark")
	}

	body := string(res.Data[3:])
	lines := strings.Split(strings.TrimSuffix(body, "\r\n"), "\r\n")
	if lines[0] != `"#","Submitted At","Name","Rating","Say ""hi"""` {
		t.Errorf("header line = %s", lines[0])
	}
	if lines[2] != `"2","2024-06-10 09:30:00","He said ""ok""","No answer","No answer"` {
		t.Errorf("row 2 = %s", lines[2])
	}

	records, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	if err != nil {
		t.Fatalf("csv does not parse: %v", err)
	}
	if len(records) != len(responses())+1 {
		t.Fatalf("records = %d", len(records))
	}
	for i, rec := range records {
		if len(rec) != 2+len(feedback().Questions) {
			t.Errorf("record %d has %d columns", i, len(rec))
		}
	}
	if got := []string{records[1][0], records[2][0], records[3][0]}; strings.Join(got, ",") != "3,2,1" {
		t.Errorf("numbering = %v", got)
	}
}

func TestExportsRequireRows(t *testing.T) {
	tbl := BuildTable(feedback(), nil, fixedOptions())
	if _, err := CSV(tbl); !errors.Is(err, model.ErrNothingToExport) {
		t.Errorf("csv: %v", err)
	}
	if _, err := Printable(tbl); !errors.Is(err, model.ErrNothingToExport) {
		t.Errorf("printable: %v", err)
	}
}

func TestFilenameSanitises(t *testing.T) {
	tbl := Table{Title: `Q1/Q2: "Plans"`, GeneratedAt: base}
	if got := Filename(tbl, "csv"); got != "Q1_Q2_ _Plans_-responses-2024-06-10.csv" {
		t.Fatalf("filename = %q", got)
	}
	if got := Filename(Table{GeneratedAt: base}, "csv"); got != "form-responses-2024-06-10.csv" {
		t.Fatalf("filename = %q", got)
	}
}

func TestPrintableMatchesCSV(t *testing.T) {
	tbl := BuildTable(feedback(), responses(), fixedOptions())
	page, err := Printable(tbl)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := html.Parse(bytes.NewReader(page.Data))
	if err != nil {
		t.Fatalf("bad html: %v", err)
	}

	var (
		header  []string
		rows    [][]string
		buttons int
	)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "th":
				header = append(header, text(n))
			case "tr":
				if n.Parent != nil && n.Parent.Data == "tbody" {
					rows = append(rows, nil)
				}
			case "td":
				rows[len(rows)-1] = append(rows[len(rows)-1], text(n))
			case "button":
				buttons++
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	csvRes, err := CSV(tbl)
	if err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(bytes.NewReader(csvRes.Data[3:])).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	if strings.Join(header, "|") != strings.Join(records[0], "|") {
		t.Errorf("header %v != %v", header, records[0])
	}
	if len(rows) != len(records)-1 {
		t.Fatalf("html rows = %d, csv rows = %d", len(rows), len(records)-1)
	}
	for i := range rows {
		if strings.Join(rows[i], "|") != strings.Join(records[i+1], "|") {
			t.Errorf("row %d: html %v != csv %v", i, rows[i], records[i+1])
		}
	}
	if buttons != 2 {
		t.Errorf("buttons = %d, want print and close", buttons)
	}
	if !bytes.Contains(page.Data, []byte("Total responses: 3")) {
		t.Error("missing response count")
	}
}

func text(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return sb.String()
}
