package mailer

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"minutes/internal/api"
)

var emailTemplate = template.Must(template.New("email").Funcs(template.FuncMap{
	"paragraphs": paragraphs,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; padding: 20px;">
<div style="background-color: #f8f9fa; padding: 20px; border-radius: 8px; margin-bottom: 20px;">
<h1 style="color: #2c3e50; margin: 0 0 10px 0;">{{.Title}}</h1>
<p style="color: #7f8c8d; margin: 0;">Generated on {{.Generated}}</p>
</div>
{{- if .Prompt}}
<div style="background-color: #e8f4f8; padding: 15px; border-radius: 6px; margin-bottom: 20px;">
<h3 style="color: #2980b9; margin: 0 0 10px 0;">Summary Instructions:</h3>
<p style="margin: 0; font-style: italic;">{{.Prompt}}</p>
</div>
{{- end}}
<div style="background-color: #fff; padding: 20px; border: 1px solid #e1e8ed; border-radius: 6px;">
<h3 style="color: #2c3e50; margin: 0 0 15px 0;">Summary:</h3>
<div>{{paragraphs .Summary}}</div>
</div>
<div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #e1e8ed; color: #7f8c8d; font-size: 14px;">
<p>This summary was generated automatically from a meeting transcript.</p>
</div>
</body>
</html>
`))

type emailView struct {
	Title     string
	Generated string
	Prompt    string
	Summary   string
}

// Render produces the HTML body for req. User-supplied text is escaped and
// newlines in the summary become <br> tags. The transcript is never included.
func Render(req api.EmailRequest, now time.Time) (string, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultTitle
	}
	view := emailView{
		Title:     title,
		Generated: now.Format(dateLayout + " at 3:04 PM"),
		Prompt:    strings.TrimSpace(req.OriginalPrompt),
		Summary:   req.Summary,
	}
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// paragraphs escapes text and joins its lines with <br>.
func paragraphs(text string) template.HTML {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = template.HTMLEscapeString(line)
	}
	return template.HTML(strings.Join(lines, "<br>"))
}
