// Package demanddrafts builds printable demand-draft request letters in
// plain-text and HTML variants.
package demanddrafts

import (
	"bytes"
	"errors"
	html "html/template"
	"strings"
	text "text/template"
	"time"
)

// Draft carries the fields substituted into the letter template.
type Draft struct {
	RefNo            string    `json:"ref_no" validate:"required,max=40"`
	Date             time.Time `json:"date"`
	PayeeName        string    `json:"payee_name" validate:"required,max=200"`
	Amount           float64   `json:"amount" validate:"required,gt=0"`
	BankName         string    `json:"bank_name" validate:"required,max=200"`
	BranchName       string    `json:"branch_name,omitempty" validate:"omitempty,max=200"`
	PurchaserName    string    `json:"purchaser_name" validate:"required,max=200"`
	PurchaserAddress string    `json:"purchaser_address,omitempty" validate:"omitempty,max=500"`
	Remarks          string    `json:"remarks,omitempty" validate:"omitempty,max=500"`
}

// RenderedLetter holds both output variants.
type RenderedLetter struct {
	Text string `json:"text"`
	HTML string `json:"html"`
}

// ErrMissingField indicates a required letter field is empty.
var ErrMissingField = errors.New("demanddrafts: missing required field")

type letterData struct {
	Draft
	DateFormatted   string
	AmountFormatted string
	AmountWords     string
}

const textLetter = `Ref: {{.RefNo}}
Date: {{.DateFormatted}}

To,
The Branch Manager
{{.BankName}}{{if .BranchName}}
{{.BranchName}} Branch{{end}}

Subject: Request for issue of Demand Draft

Dear Sir/Madam,

Kindly issue a Demand Draft in favour of {{.PayeeName}} for an amount of
Rs. {{.AmountFormatted}} ({{.AmountWords}}) and debit the same along with
applicable charges to the account of the undersigned.
{{if .Remarks}}
Remarks: {{.Remarks}}
{{end}}
Thanking you,

Yours faithfully,

{{.PurchaserName}}{{if .PurchaserAddress}}
{{.PurchaserAddress}}{{end}}
`

const htmlLetter = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Demand Draft Request {{.RefNo}}</title></head>
<body style="font-family: serif; max-width: 640px; margin: 2em auto;">
<p>Ref: {{.RefNo}}<br>Date: {{.DateFormatted}}</p>
<p>To,<br>The Branch Manager<br>{{.BankName}}{{if .BranchName}}<br>{{.BranchName}} Branch{{end}}</p>
<p><strong>Subject: Request for issue of Demand Draft</strong></p>
<p>Dear Sir/Madam,</p>
<p>Kindly issue a Demand Draft in favour of <strong>{{.PayeeName}}</strong>
for an amount of <strong>Rs. {{.AmountFormatted}}</strong>
({{.AmountWords}}) and debit the same along with applicable charges to
the account of the undersigned.</p>
{{if .Remarks}}<p>Remarks: {{.Remarks}}</p>{{end}}
<p>Thanking you,</p>
<p>Yours faithfully,<br><br>{{.PurchaserName}}{{if .PurchaserAddress}}<br>{{.PurchaserAddress}}{{end}}</p>
</body>
</html>
`

var (
	textTmpl = text.Must(text.New("letter").Parse(textLetter))
	htmlTmpl = html.Must(html.New("letter").Parse(htmlLetter))
)

func prepare(d Draft) (letterData, error) {
	if strings.TrimSpace(d.RefNo) == "" || strings.TrimSpace(d.PayeeName) == "" ||
		strings.TrimSpace(d.BankName) == "" || strings.TrimSpace(d.PurchaserName) == "" {
		return letterData{}, ErrMissingField
	}
	if d.Amount <= 0 {
		return letterData{}, ErrMissingField
	}
	date := d.Date
	if date.IsZero() {
		date = time.Now()
	}
	return letterData{
		Draft:           d,
		DateFormatted:   date.Format("02 January 2006"),
		AmountFormatted: FormatIndian(d.Amount),
		AmountWords:     AmountInWords(d.Amount),
	}, nil
}

// BuildText renders the plain-text letter.
func BuildText(d Draft) (string, error) {
	data, err := prepare(d)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := textTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BuildHTML renders the HTML letter. Field values are escaped by
// html/template.
func BuildHTML(d Draft) (string, error) {
	data, err := prepare(d)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render produces both variants.
func Render(d Draft) (RenderedLetter, error) {
	textOut, err := BuildText(d)
	if err != nil {
		return RenderedLetter{}, err
	}
	htmlOut, err := BuildHTML(d)
	if err != nil {
		return RenderedLetter{}, err
	}
	return RenderedLetter{Text: textOut, HTML: htmlOut}, nil
}
