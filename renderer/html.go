package renderer

import (
	"errors"
	"fmt"
	"html/template"
	"io"

	"github.com/TRSiddique/university-association-sub000/model"
)

const pageHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{with .Form}}{{.Title}}{{else}}Form{{end}}</title>
<style>
	body { font-family: "Noto Sans Bengali", "Segoe UI", Arial, sans-serif; max-width: 720px; margin: 24px auto; padding: 0 16px; }
	.question { margin-bottom: 18px; }
	.question label.text { display: block; font-weight: 600; margin-bottom: 6px; }
	.required::after { content: " *"; color: #c00; }
	.question.invalid input, .question.invalid textarea, .question.invalid select { border: 1px solid #c00; }
	.field-error { color: #c00; font-size: 13px; }
	.alert { border: 1px solid #c00; background: #fee; padding: 10px; margin-bottom: 16px; }
</style>
</head>
<body>
{{- if eq .State "submitted"}}
	<div class="thanks">
		<h1>Thank you!</h1>
		<p>Your response to “{{.Form.Title}}” has been recorded.</p>
	</div>
{{- else if eq .State "error"}}
	<div class="alert">
		<p>{{if .NotFound}}This form does not exist.{{else}}The form could not be loaded.{{end}}</p>
		{{if not .NotFound}}<a href="">Try again</a>{{end}}
	</div>
{{- else}}
	<h1>{{.Form.Title}}</h1>
	{{with .Form.Description}}<p class="description">{{.}}</p>{{end}}
	{{with .Alert}}<div class="alert">{{.}}</div>{{end}}
	<form method="post" action="{{.Action}}">
	{{- range .Fields}}
		<div class="question{{if .Error}} invalid{{end}}" data-question-id="{{.ID}}">
			<label class="text{{if .Required}} required{{end}}" for="{{.ID}}">{{.Text}}</label>
			{{- if .Widget.IsTextInput}}
			<input id="{{.ID}}" name="{{.ID}}" type="{{.Widget.InputType}}" value="{{.Value.String}}"{{if .Required}} required{{end}}>
			{{- else if .Widget.IsTextArea}}
			<textarea id="{{.ID}}" name="{{.ID}}" rows="4"{{if .Required}} required{{end}}>{{.Value.String}}</textarea>
			{{- else if .Widget.IsRadioGroup}}
			{{- $f := .}}
			{{- range .Options}}
			<label><input type="radio" name="{{$f.ID}}" value="{{.}}"{{if eq . $f.Value.String}} checked{{end}}> {{.}}</label>
			{{- end}}
			{{- else if .Widget.IsCheckboxGroup}}
			{{- $f := .}}
			{{- range .Options}}
			<label><input type="checkbox" name="{{$f.ID}}" value="{{.}}"{{if $f.Value.Contains .}} checked{{end}}> {{.}}</label>
			{{- end}}
			{{- else if .Widget.IsSelectList}}
			{{- $f := .}}
			<select id="{{.ID}}" name="{{.ID}}"{{if .Required}} required{{end}}>
				<option value="">Select an option</option>
				{{- range .Options}}
				<option value="{{.}}"{{if eq . $f.Value.String}} selected{{end}}>{{.}}</option>
				{{- end}}
			</select>
			{{- else}}
			{{- unsupportedWidget .Widget.Kind}}
			{{- end}}
			{{with .Error}}<div class="field-error">{{.}}</div>{{end}}
		</div>
	{{- end}}
		<button type="submit">Submit</button>
	</form>
{{- end}}
</body>
</html>
`

var pageTmpl = template.Must(template.New("form").Funcs(template.FuncMap{
	"unsupportedWidget": func(k WidgetKind) (string, error) {
		return "", fmt.Errorf("renderer: no markup for widget kind %d", k)
	},
}).Parse(pageHTML))

// Page is everything needed to render a session as an HTML page.
type Page struct {
	State    string
	Form     *model.Form
	Fields   []Field
	Action   string
	Alert    string
	NotFound bool
}

// NewPage snapshots the session for rendering. action is the URL the form
// posts to.
func NewPage(s *Session, action string) Page {
	p := Page{
		State:  s.State().String(),
		Form:   s.Form(),
		Fields: s.Fields(),
		Action: action,
	}
	if err := s.Err(); err != nil {
		if p.State == Failed.String() {
			p.NotFound = isNotFound(err)
		} else {
			p.Alert = "Your response could not be submitted. Please try again."
		}
	}
	if len(s.FieldErrors()) > 0 {
		p.Alert = "Please answer all required questions."
	}
	return p
}

func RenderPage(w io.Writer, p Page) error {
	return pageTmpl.Execute(w, p)
}

func isNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}
