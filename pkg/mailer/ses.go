// Package mailer sends transactional email through Amazon SES.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// Receipt is the data rendered into a payment receipt email.
type Receipt struct {
	To          string
	Name        string
	ProjectName string
	OrderID     uint
	Amount      float64
	Commission  float64
	Currency    string
	PaidAt      time.Time
}

// ResetCode is the one-time code mailed to start a password reset.
type ResetCode struct {
	To       string
	Name     string
	Code     string
	ValidFor time.Duration
}

type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type SESMailer struct {
	client sesAPI
	from   string
}

// NewSESMailer loads AWS credentials from the default chain.
func NewSESMailer(ctx context.Context, region, from string) (*SESMailer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("mailer: load aws config: %w", err)
	}
	return &SESMailer{client: sesv2.NewFromConfig(cfg), from: from}, nil
}

var receiptTmpl = template.Must(template.New("receipt").Parse(`<html><body>
<p>Hi {{.Name}},</p>
<p>We received your payment for <strong>{{.ProjectName}}</strong>.</p>
<table>
<tr><td>Order</td><td>#{{.OrderID}}</td></tr>
<tr><td>Amount</td><td>{{printf "%.2f" .Amount}} {{.Currency}}</td></tr>
<tr><td>Service fee</td><td>{{printf "%.2f" .Commission}} {{.Currency}}</td></tr>
<tr><td>Date</td><td>{{.PaidAt.Format "02 Jan 2006 15:04"}}</td></tr>
</table>
<p>Your provider has been notified and work can start.</p>
</body></html>`))

var resetCodeTmpl = template.Must(template.New("reset").Parse(`<html><body>
<p>Hi {{.Name}},</p>
<p>Your password reset code is <strong>{{.Code}}</strong>.</p>
<p>It expires in {{.Minutes}} minutes. If you did not ask to reset your password, ignore this email.</p>
</body></html>`))

func (m *SESMailer) SendReceipt(ctx context.Context, r Receipt) error {
	if r.To == "" {
		return nil
	}
	var body bytes.Buffer
	if err := receiptTmpl.Execute(&body, r); err != nil {
		return fmt.Errorf("mailer: render receipt: %w", err)
	}
	if err := m.send(ctx, r.To, fmt.Sprintf("Payment receipt for order #%d", r.OrderID), body.String()); err != nil {
		return fmt.Errorf("mailer: send receipt: %w", err)
	}
	return nil
}

func (m *SESMailer) SendResetCode(ctx context.Context, c ResetCode) error {
	var body bytes.Buffer
	err := resetCodeTmpl.Execute(&body, struct {
		ResetCode
		Minutes int
	}{c, int(c.ValidFor.Minutes())})
	if err != nil {
		return fmt.Errorf("mailer: render reset code: %w", err)
	}
	if err := m.send(ctx, c.To, "Your password reset code", body.String()); err != nil {
		return fmt.Errorf("mailer: send reset code: %w", err)
	}
	return nil
}

func (m *SESMailer) send(ctx context.Context, to, subject, html string) error {
	_, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body:    &types.Body{Html: &types.Content{Data: aws.String(html)}},
			},
		},
	})
	return err
}
