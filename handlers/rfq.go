package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"bidprep/config"
	"bidprep/services"
)

// CreateRFQRequest is the body of an RFQ create call. DueDate accepts
// YYYY-MM-DD or RFC 3339.
type CreateRFQRequest struct {
	VendorID   string   `json:"vendor_id"`
	BOMItemIDs []string `json:"bom_item_ids"`
	DueDate    string   `json:"due_date"`
	Notes      string   `json:"notes"`
}

// HandleCreateRFQ snapshots the selected BOM lines into a new DRAFT RFQ.
// Route: POST /api/bidprep/projects/{projectId}/rfqs
func HandleCreateRFQ(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var body CreateRFQRequest
		if err := readJSON(e, &body); err != nil {
			return respondError(e, "rfq_create", err)
		}

		in := services.CreateRFQInput{
			ProjectID:  e.Request.PathValue("projectId"),
			VendorID:   body.VendorID,
			BOMItemIDs: body.BOMItemIDs,
			Notes:      strings.TrimSpace(body.Notes),
		}
		if body.DueDate != "" {
			due, err := cast.ToTimeE(body.DueDate)
			if err != nil {
				return respondError(e, "rfq_create", fmt.Errorf("%w: due_date %q", services.ErrInvalidInput, body.DueDate))
			}
			in.DueDate = due
		}

		rfq, err := services.CreateRFQ(app, in, time.Now())
		if err != nil {
			return respondError(e, "rfq_create", err)
		}
		return e.JSON(http.StatusCreated, rfq)
	}
}

// HandleListRFQs returns the project's RFQs, newest first.
// Route: GET /api/bidprep/projects/{projectId}/rfqs
func HandleListRFQs(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		project, err := loadProject(app, e)
		if err != nil {
			return respondError(e, "rfq_list", err)
		}
		rfqs, err := services.ListProjectRFQs(app, project.Id)
		if err != nil {
			return respondError(e, "rfq_list", err)
		}
		return e.JSON(http.StatusOK, rfqs)
	}
}

// projectRFQ loads the {rfqId} RFQ and checks it belongs to {projectId}.
func projectRFQ(app *pocketbase.PocketBase, e *core.RequestEvent) (*services.RFQ, error) {
	rfqID := e.Request.PathValue("rfqId")
	rfq, err := services.GetRFQ(app, rfqID)
	if err != nil {
		return nil, err
	}
	if rfq.ProjectID != e.Request.PathValue("projectId") {
		return nil, fmt.Errorf("%w: rfq %s", services.ErrNotFound, rfqID)
	}
	return rfq, nil
}

// HandleGetRFQ returns one RFQ with its items.
// Route: GET /api/bidprep/projects/{projectId}/rfqs/{rfqId}
func HandleGetRFQ(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rfq, err := projectRFQ(app, e)
		if err != nil {
			return respondError(e, "rfq_get", err)
		}
		return e.JSON(http.StatusOK, rfq)
	}
}

// HandleSendRFQ emails the RFQ to its vendor and marks it SENT.
// Route: POST /api/bidprep/projects/{projectId}/rfqs/{rfqId}/send
func HandleSendRFQ(app *pocketbase.PocketBase, notifier services.Notifier, cfg config.MailConfig) func(*core.RequestEvent) error {
	sender := services.NewRFQSender(app, notifier, cfg)
	return func(e *core.RequestEvent) error {
		rfq, err := projectRFQ(app, e)
		if err != nil {
			return respondError(e, "rfq_send", err)
		}
		sent, err := sender.Send(e.Request.Context(), rfq.ID)
		if err != nil {
			return respondError(e, "rfq_send", err)
		}
		return e.JSON(http.StatusOK, sent)
	}
}

// HandleRFQPDF downloads the RFQ as a PDF.
// Route: GET /api/bidprep/projects/{projectId}/rfqs/{rfqId}/pdf
func HandleRFQPDF(app *pocketbase.PocketBase, company config.CompanyConfig) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rfq, err := projectRFQ(app, e)
		if err != nil {
			return respondError(e, "rfq_pdf", err)
		}

		doc, err := services.BuildRFQDocument(app, rfq.ID, company)
		if err != nil {
			return respondError(e, "rfq_pdf", err)
		}
		pdfBytes, err := services.GenerateRFQPDF(doc)
		if err != nil {
			return respondError(e, "rfq_pdf", err)
		}

		filename := fmt.Sprintf("%s.pdf", sanitizeFilename(doc.RFQNumber))
		return sendFile(e, "application/pdf", filename, pdfBytes)
	}
}
