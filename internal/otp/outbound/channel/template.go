package channel

import (
	"bytes"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"
)

const subject = "Your Verification Code"

var (
	textTpl = texttemplate.Must(texttemplate.New("otp.txt").Parse(
		"Your verification code is: {{.Code}}. It will expire in {{.Minutes}} minutes.\n"))

	htmlTpl = htmltemplate.Must(htmltemplate.New("otp.html").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Verification Code</h2>
  <p>Your verification code is:</p>
  <h1 style="font-size: 36px; letter-spacing: 5px; font-weight: bold;">{{.Code}}</h1>
  <p>This code will expire in {{.Minutes}} minutes.</p>
  <p>If you didn't request this code, you can ignore this message.</p>
</div>
`))
)

type templateData struct {
	Code    string
	Minutes int
}

func render(code string, ttl time.Duration) (text, html string, err error) {
	data := templateData{Code: code, Minutes: int(ttl.Round(time.Minute) / time.Minute)}
	if data.Minutes < 1 {
		data.Minutes = 1
	}

	var tb, hb bytes.Buffer
	if err := textTpl.Execute(&tb, data); err != nil {
		return "", "", err
	}
	if err := htmlTpl.Execute(&hb, data); err != nil {
		return "", "", err
	}

	return tb.String(), hb.String(), nil
}
