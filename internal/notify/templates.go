package notify

import (
	"bytes"
	"html/template"
)

var deliveredTmpl = template.Must(template.New("delivered").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; background: #09090b; color: #fafafa; padding: 40px; border-radius: 16px;">
  <h1 style="color: #8B5CF6;">Your RaaS Outcome is Delivered ✅</h1>
  <p style="font-size: 18px;"><strong>{{.Title}}</strong> has been verified and is now live.</p>
  <p style="color: #a1a1aa;">You will be charged only upon confirmation. View your result in the dashboard.</p>
  <a href="{{.DashboardURL}}" style="display: inline-block; margin-top: 20px; padding: 12px 32px; background: #8B5CF6; color: white; text-decoration: none; border-radius: 8px; font-weight: bold;">View Outcome</a>
  <p style="margin-top: 40px; color: #71717a; font-size: 12px;">Lumina RaaS – Pay only for delivered results.</p>
</div>
`))

var paymentTmpl = template.Must(template.New("payment").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; background: #09090b; color: #fafafa; padding: 40px; border-radius: 16px;">
  <h1 style="color: #10B981;">Payment Confirmed 💰</h1>
  <p style="font-size: 18px;">Thank you for confirming <strong>{{.Title}}</strong>.</p>
  <p style="color: #a1a1aa;">Amount: <strong>${{.Amount}} {{.Currency}}</strong></p>
  <p style="margin-top: 40px; color: #71717a; font-size: 12px;">Lumina RaaS – Results-as-a-Service.</p>
</div>
`))

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
