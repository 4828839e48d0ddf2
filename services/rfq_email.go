package services

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"bidprep/config"
	"bidprep/metrics"

	"github.com/a-h/templ"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/mailer"
)

// Email is a rendered message ready to hand to a Notifier.
type Email struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

// Notifier delivers rendered emails. Implementations report failure and do
// not retry.
type Notifier interface {
	Send(ctx context.Context, e Email) error
}

// MailNotifier sends through the app's configured mail client.
type MailNotifier struct {
	app  core.App
	from mail.Address
}

// NewMailNotifier uses the configured sender, falling back to the app's
// mail settings when no address is configured.
func NewMailNotifier(app core.App, cfg config.MailConfig) *MailNotifier {
	from := mail.Address{Address: cfg.FromAddress, Name: cfg.FromName}
	if from.Address == "" {
		meta := app.Settings().Meta
		from = mail.Address{Address: meta.SenderAddress, Name: meta.SenderName}
	}
	return &MailNotifier{app: app, from: from}
}

func (n *MailNotifier) Send(ctx context.Context, e Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &mailer.Message{
		From:    n.from,
		To:      []mail.Address{{Address: e.To, Name: e.ToName}},
		Subject: e.Subject,
		HTML:    e.HTML,
	}
	return n.app.NewMailClient().Send(msg)
}

// RFQEmailData is everything substituted into the RFQ templates.
type RFQEmailData struct {
	VendorName  string
	VendorEmail string
	ProjectName string
	RFQNumber   string
	DueDate     time.Time
	Items       []RFQItem
}

// RenderRFQEmail fills the subject and body templates. Supported
// placeholders are {{vendor_name}}, {{project_name}}, {{rfq_number}},
// {{due_date}} and, in the body only, {{materials_table}}. Values are HTML
// escaped in the body.
func RenderRFQEmail(ctx context.Context, data RFQEmailData, cfg config.MailConfig) (Email, error) {
	due := "TBD"
	if !data.DueDate.IsZero() {
		due = data.DueDate.Format("January 2, 2006")
	}

	var table bytes.Buffer
	if err := materialsTable(data.Items).Render(ctx, &table); err != nil {
		return Email{}, fmt.Errorf("render materials table: %w", err)
	}

	subject := strings.NewReplacer(
		"{{vendor_name}}", data.VendorName,
		"{{project_name}}", data.ProjectName,
		"{{rfq_number}}", data.RFQNumber,
		"{{due_date}}", due,
		"{{materials_table}}", "",
	).Replace(cfg.RFQSubject)

	body := strings.NewReplacer(
		"{{vendor_name}}", templ.EscapeString(data.VendorName),
		"{{project_name}}", templ.EscapeString(data.ProjectName),
		"{{rfq_number}}", templ.EscapeString(data.RFQNumber),
		"{{due_date}}", templ.EscapeString(due),
		"{{materials_table}}", table.String(),
	).Replace(cfg.RFQBody)

	return Email{
		To:      data.VendorEmail,
		ToName:  data.VendorName,
		Subject: strings.TrimSpace(subject),
		HTML:    body,
	}, nil
}

// RFQSender renders RFQ emails and marks RFQs sent.
type RFQSender struct {
	app      core.App
	notifier Notifier
	cfg      config.MailConfig
	now      func() time.Time
}

func NewRFQSender(app core.App, notifier Notifier, cfg config.MailConfig) *RFQSender {
	return &RFQSender{app: app, notifier: notifier, cfg: cfg, now: time.Now}
}

// Send emails the RFQ to its vendor and marks it SENT. A DRAFT or SENT RFQ
// can be sent; a RESPONDED one cannot. When delivery fails the RFQ is left
// unchanged and the error is returned.
func (s *RFQSender) Send(ctx context.Context, rfqID string) (*RFQ, error) {
	rfq, err := GetRFQ(s.app, rfqID)
	if err != nil {
		return nil, err
	}
	if rfq.Status == RFQResponded {
		return nil, fmt.Errorf("%w: rfq %s already has a response", ErrInvalidState, rfq.Number)
	}
	if len(rfq.Items) == 0 {
		return nil, fmt.Errorf("%w: rfq %s has no items", ErrInvalidInput, rfq.Number)
	}

	vendor, err := GetVendor(s.app, rfq.VendorID)
	if err != nil {
		return nil, err
	}
	if vendor.Email == "" {
		return nil, fmt.Errorf("%w: vendor %s has no email", ErrInvalidInput, vendor.Name)
	}
	project, err := s.app.FindRecordById("projects", rfq.ProjectID)
	if err != nil {
		return nil, LookupErr(err, "project", rfq.ProjectID)
	}

	email, err := RenderRFQEmail(ctx, RFQEmailData{
		VendorName:  vendor.Name,
		VendorEmail: vendor.Email,
		ProjectName: project.GetString("name"),
		RFQNumber:   rfq.Number,
		DueDate:     rfq.DueDate,
		Items:       rfq.Items,
	}, s.cfg)
	if err != nil {
		return nil, err
	}

	logger := s.app.Logger().With("component", "rfq", "rfq", rfq.Number, "vendor", vendor.Name)
	if err := s.notifier.Send(ctx, email); err != nil {
		logger.Error("rfq email failed", "error", err)
		return nil, fmt.Errorf("%w: send rfq %s: %w", ErrDeliveryFailed, rfq.Number, err)
	}

	rec, err := s.app.FindRecordById("rfqs", rfq.ID)
	if err != nil {
		return nil, LookupErr(err, "rfq", rfq.ID)
	}
	sentAt := s.now().UTC()
	rec.Set("status", string(RFQSent))
	rec.Set("sent_at", sentAt)
	if err := s.app.Save(rec); err != nil {
		return nil, fmt.Errorf("mark rfq sent: %w", err)
	}

	rfq.Status = RFQSent
	rfq.SentAt = sentAt
	metrics.RFQsSent.Inc()
	logger.Info("rfq sent", "to", vendor.Email, "items", len(rfq.Items))
	return rfq, nil
}
