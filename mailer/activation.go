package mailer

import (
	"html/template"
	"strconv"
	"strings"
	"time"
)

// ActivationSubject is the subject line of every activation mail.
const ActivationSubject = "Confirm your email"

// ActivationData feeds the activation body template. Link is preferred; when
// it is empty the raw Token is rendered instead so mail-only deployments
// without a web frontend still work.
type ActivationData struct {
	FirstName string
	Link      string
	Token     string
	ValidFor  time.Duration
}

var activationTmpl = template.Must(template.New("activation").Parse(`<div style="font-family:Helvetica,Arial,sans-serif;font-size:16px;color:#0b0c0c">
  <p style="margin:0 0 20px 0;font-size:19px;line-height:25px">Hi {{if .FirstName}}{{.FirstName}}{{else}}there{{end}},</p>
  <p style="margin:0 0 20px 0;font-size:19px;line-height:25px">Thank you for registering. Please click on the below link to activate your account:</p>
  <blockquote style="margin:0 0 20px 0;border-left:10px solid #b1b4b6;padding:15px 0 0.1px 15px;font-size:19px;line-height:25px">
    {{if .Link}}<p style="margin:0 0 20px 0"><a href="{{.Link}}">Activate Now</a></p>{{else}}<p style="margin:0 0 20px 0">Your activation code: <strong>{{.Token}}</strong></p>{{end}}
  </blockquote>
  <p>Link will expire in {{.ValidForText}}.</p>
  <p>See you soon</p>
</div>
`))

type activationView struct {
	ActivationData
	ValidForText string
}

// ActivationBody renders the activation mail HTML.
func ActivationBody(data ActivationData) (string, error) {
	var sb strings.Builder
	view := activationView{
		ActivationData: data,
		ValidForText:   validForText(data.ValidFor),
	}
	if err := activationTmpl.Execute(&sb, view); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func validForText(d time.Duration) string {
	if d <= 0 {
		d = 15 * time.Minute
	}
	if d < time.Hour {
		minutes := int(d.Round(time.Minute) / time.Minute)
		if minutes <= 1 {
			return "1 minute"
		}
		return strconv.Itoa(minutes) + " minutes"
	}
	hours := int(d.Round(time.Hour) / time.Hour)
	if hours <= 1 {
		return "1 hour"
	}
	return strconv.Itoa(hours) + " hours"
}
