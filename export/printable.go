package export

import (
	"bytes"
	"html/template"

	"github.com/TRSiddique/university-association-sub000/model"
)

const printableHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}} - Responses</title>
<style>
	body { font-family: "Noto Sans Bengali", "Segoe UI", Arial, sans-serif; margin: 24px; color: #222; }
	h1 { font-size: 20px; margin-bottom: 4px; }
	.summary { color: #555; margin-bottom: 16px; }
	.actions { margin-bottom: 16px; }
	.actions button { padding: 6px 14px; margin-right: 8px; cursor: pointer; }
	table { border-collapse: collapse; width: 100%; font-size: 12px; }
	th, td { border: 1px solid #999; padding: 4px 6px; text-align: left; vertical-align: top; white-space: pre-wrap; }
	th { background: #eee; }
	tr:nth-child(even) td { background: #fafafa; }
	@media print { .actions { display: none; } }
</style>
</head>
<body>
	<h1>{{.Title}}</h1>
	<div class="summary">
		<span class="count">Total responses: {{len .Rows}}</span> |
		<span class="generated">Generated: {{.Generated}}</span>
	</div>
	<div class="actions">
		<button type="button" onclick="window.print()">Print / Save as PDF</button>
		<button type="button" onclick="window.close()">Close</button>
	</div>
	<table>
		<thead>
			<tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
		</thead>
		<tbody>
			{{- range .Rows}}
			<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
			{{- end}}
		</tbody>
	</table>
</body>
</html>
`

var printableTmpl = template.Must(template.New("printable").Parse(printableHTML))

// Printable renders the table as a standalone HTML document meant for the
// browser's print-to-PDF. Cells are the same strings CSV writes.
func Printable(t Table) (*Result, error) {
	if len(t.Rows) == 0 {
		return nil, model.ErrNothingToExport
	}

	var buf bytes.Buffer
	err := printableTmpl.Execute(&buf, struct {
		Table
		Generated string
	}{t, t.GeneratedAt.Format(TimestampLayout)})
	if err != nil {
		return nil, err
	}

	return &Result{
		Filename:    Filename(t, "html"),
		ContentType: "text/html; charset=utf-8",
		Data:        buf.Bytes(),
	}, nil
}
