package email

import (
	"html/template"
	"strings"
	"unicode/utf8"
)

// defaultSubject is used when the first content line is unsuitable as a
// subject.
const defaultSubject = "Transit Service Alert"

// maxSubjectLength bounds how long an extracted subject line may be.
const maxSubjectLength = 100

// htmlTemplate wraps the escaped alert body in the branded email shell.
var htmlTemplate = template.Must(template.New("alert").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: Helvetica, Arial, sans-serif; margin: 0; padding: 0; background-color: #f4f4f4;">
  <div style="max-width: 600px; margin: 0 auto; background-color: #ffffff;">
    <div style="background-color: #00275d; color: #ffffff; padding: 16px 24px;">
      <h2 style="margin: 0;">{{.Subject}}</h2>
    </div>
    <div style="padding: 24px; color: #333333; line-height: 1.5;">
      {{range .Paragraphs}}<p>{{.}}</p>
      {{end}}
    </div>
    <div style="padding: 16px 24px; font-size: 12px; color: #888888; border-top: 1px solid #eeeeee;">
      You are receiving this message because you subscribed to transit service alerts.
    </div>
  </div>
</body>
</html>`))

// ExtractSubject derives the email subject from the content's first line:
// the line is used when it is at most maxSubjectLength characters and does
// not end in a period, otherwise the default subject applies.
func ExtractSubject(content string) string {
	firstLine, _, _ := strings.Cut(strings.TrimSpace(content), "\n")
	firstLine = strings.TrimSpace(firstLine)

	if firstLine == "" {
		return defaultSubject
	}
	if utf8.RuneCountInString(firstLine) > maxSubjectLength {
		return defaultSubject
	}
	if strings.HasSuffix(firstLine, ".") {
		return defaultSubject
	}
	return firstLine
}

// RenderHTML escapes the content and wraps it in the branded HTML shell.
// Blank-line separated blocks become paragraphs.
func RenderHTML(subject, content string) (string, error) {
	blocks := strings.Split(strings.TrimSpace(content), "\n\n")
	paragraphs := make([]string, 0, len(blocks))
	for _, block := range blocks {
		trimmed := strings.TrimSpace(block)
		if trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}

	var out strings.Builder
	err := htmlTemplate.Execute(&out, struct {
		Subject    string
		Paragraphs []string
	}{Subject: subject, Paragraphs: paragraphs})
	if err != nil {
		return "", err
	}
	return out.String(), nil
}
