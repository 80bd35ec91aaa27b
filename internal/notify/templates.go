package notify

import (
	"bytes"
	"html/template"
)

// ReceiptDetails fills the receipt email.
type ReceiptDetails struct {
	Org           string
	DonorName     string
	Email         string
	AmountText    string // already formatted, e.g. "1,000"
	TransactionID string
	Receipt       *Attachment // nil when rendering failed
}

// receiptTmpl is the donor thank-you mail. html/template escapes every
// donor-supplied field.
var receiptTmpl = template.Must(template.New("receipt").Parse(`<h2>Thank you for your generous donation!</h2>
<p>Dear {{.DonorName}},</p>
<p>We have received your donation of &#8377;{{.AmountText}}.</p>
<p>Your transaction ID is: {{.TransactionID}}</p>
{{if .Receipt}}<p>Please find your receipt attached.</p>
{{else}}<p>Your receipt will be shared with you separately.</p>
{{end}}<p>Your support helps us continue our mission to create positive change.</p>
<p>Best regards,<br>{{.Org}}</p>
`))

// ReceiptEmail builds the donor receipt message.
func ReceiptEmail(d ReceiptDetails) (Message, error) {
	var buf bytes.Buffer
	if err := receiptTmpl.Execute(&buf, d); err != nil {
		return Message{}, err
	}
	msg := Message{
		To:      []string{d.Email},
		Subject: "Donation Receipt - " + d.Org,
		HTML:    buf.String(),
	}
	if d.Receipt != nil {
		msg.Attachments = []Attachment{*d.Receipt}
	}
	return msg, nil
}
