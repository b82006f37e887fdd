package mail

import (
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

const resetSubject = "Forgot password"

var (
	resetText = texttemplate.Must(texttemplate.New("reset.txt").Parse(
		`Please visit- {{.Link}}
If you didn't request this email, please ignore it.
`))

	resetHTML = htmltemplate.Must(htmltemplate.New("reset.html").Parse(`<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>{{.Subject}}</title>
  </head>
  <body>
    <div class="container" style="width: 75vw; text-align: center">
      <a href="{{.Link}}" class="btn">Reset Password</a>
      <p>If you can't click the above button please visit {{.Link}}</p>
      <p>If you didn't request this email, please ignore it.</p>
    </div>
  </body>
</html>
`))
)

// ResetPasswordMessage renders the reset-link email for to.
func ResetPasswordMessage(to, link string) (Message, error) {
	data := struct{ Subject, Link string }{resetSubject, link}

	var text, html strings.Builder
	if err := resetText.Execute(&text, data); err != nil {
		return Message{}, err
	}
	if err := resetHTML.Execute(&html, data); err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: resetSubject, Text: text.String(), HTML: html.String()}, nil
}
