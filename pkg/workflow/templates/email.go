package templates

// RenderEmail produces the subject and the HTML content of one send.
// When useHTML is set the HTML template is the delivered body,
// otherwise the plain-text template is rendered and converted.
func RenderEmail(subjectTemplate string, bodyTemplate string, bodyHTMLTemplate string, useHTML bool, ctx TemplateContext) (subject string, content string) {
	subject = Render(subjectTemplate, ctx)
	if useHTML {
		content = Render(bodyHTMLTemplate, ctx)
	} else {
		content = PlainTextToHTML(Render(bodyTemplate, ctx))
	}
	return subject, content
}
