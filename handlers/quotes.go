package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"bidprep/services"
)

// HandleIngestQuote parses a vendor response to an RFQ. The response is a
// multipart form with an optional "text" field and any number of "files"
// attachments; a plain form with only "text" is accepted too.
// Route: POST /api/bidprep/rfqs/{rfqId}/quotes
func HandleIngestQuote(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	ingestor := services.NewQuoteIngestor(app, services.DecodeSheet)
	return func(e *core.RequestEvent) error {
		req := services.IngestRequest{RFQID: e.Request.PathValue("rfqId")}

		err := e.Request.ParseMultipartForm(maxUploadBytes)
		switch {
		case errors.Is(err, http.ErrNotMultipart):
			if err := e.Request.ParseForm(); err != nil {
				return respondError(e, "quote_ingest", fmt.Errorf("%w: invalid form data", services.ErrInvalidInput))
			}
		case err != nil:
			return respondError(e, "quote_ingest", fmt.Errorf("%w: file too large or invalid form data", services.ErrInvalidInput))
		}
		req.Text = e.Request.FormValue("text")

		attachments, err := readAttachments(e)
		if err != nil {
			return respondError(e, "quote_ingest", err)
		}
		req.Attachments = attachments

		result, err := ingestor.Ingest(e.Request.Context(), req)
		if err != nil {
			return respondError(e, "quote_ingest", err)
		}
		return e.JSON(http.StatusCreated, result)
	}
}

func readAttachments(e *core.RequestEvent) ([]services.Attachment, error) {
	if e.Request.MultipartForm == nil {
		return nil, nil
	}
	var out []services.Attachment
	for _, fh := range e.Request.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", services.ErrInvalidInput, fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", services.ErrInvalidInput, fh.Filename, err)
		}
		out = append(out, services.Attachment{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return out, nil
}

// HandleGetQuote returns one quote with its items and unmatched lines.
// Route: GET /api/bidprep/quotes/{quoteId}
func HandleGetQuote(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		q, err := services.GetQuote(app, e.Request.PathValue("quoteId"))
		if err != nil {
			return respondError(e, "quote_get", err)
		}
		return e.JSON(http.StatusOK, q)
	}
}

// HandleAwardQuote accepts a quote and rejects its open rivals.
// Route: POST /api/bidprep/quotes/{quoteId}/award
func HandleAwardQuote(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		result, err := services.AwardQuote(app, e.Request.PathValue("quoteId"))
		if err != nil {
			return respondError(e, "quote_award", err)
		}
		return e.JSON(http.StatusOK, result)
	}
}
