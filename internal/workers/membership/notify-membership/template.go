package notifymembership

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

var receiptHTML = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif;">
  <p>Hi {{.Name}},</p>
  <p>{{.Headline}}</p>
  <table>
    <tr><td>Membership</td><td><strong>{{.Tier}}</strong></td></tr>
    <tr><td>Available coverage</td><td>{{.Coverage}}</td></tr>
    <tr><td>Valid until</td><td>{{.Expires}}</td></tr>
  </table>
  <p>Thank you for choosing {{.Clinic}}.</p>
</body>
</html>`))

type receipt struct {
	Name     string
	Clinic   string
	Headline string
	Tier     string
	Coverage string
	Expires  string
}

func newReceipt(input *Input, name, clinic string) receipt {
	r := receipt{
		Name:     name,
		Clinic:   clinic,
		Tier:     tierLabel(input.Tier),
		Coverage: fmt.Sprintf("%.2f", input.Coverage),
		Expires:  "no expiration",
	}
	if r.Name == "" {
		r.Name = "there"
	}
	if s, ok := input.ExpireDate.(string); ok && s != "" {
		r.Expires = s
	}
	if input.Action == "renewed" {
		r.Headline = fmt.Sprintf("Your %s membership has been renewed.", r.Tier)
	} else {
		r.Headline = fmt.Sprintf("Welcome! Your %s membership is now active.", r.Tier)
	}
	return r
}

func (r receipt) subject() string {
	return fmt.Sprintf("%s membership receipt", r.Tier)
}

func (r receipt) text() string {
	return fmt.Sprintf("Hi %s,\n\n%s\nCoverage: %s\nValid until: %s\n\nThank you for choosing %s.\n",
		r.Name, r.Headline, r.Coverage, r.Expires, r.Clinic)
}

func (r receipt) sms() string {
	return fmt.Sprintf("%s Coverage: %s. Valid until: %s.", r.Headline, r.Coverage, r.Expires)
}

func (r receipt) html() (string, error) {
	var buf bytes.Buffer
	if err := receiptHTML.Execute(&buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func tierLabel(tier string) string {
	tier = strings.TrimSpace(strings.ToLower(tier))
	if tier == "" {
		return tier
	}
	return strings.ToUpper(tier[:1]) + tier[1:]
}
