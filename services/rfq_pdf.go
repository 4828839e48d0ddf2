package services

import (
	"fmt"
	"strings"

	"bidprep/config"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	mconfig "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	mcore "github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/pocketbase/pocketbase/core"
)

// RFQDocument holds all data needed to render an RFQ PDF.
type RFQDocument struct {
	Company config.CompanyConfig

	RFQNumber   string
	IssuedDate  string
	DueDate     string
	ProjectName string
	ProjectRef  string
	Notes       string

	VendorName    string
	VendorContact string

	Items []RFQItem
}

// BuildRFQDocument assembles the RFQ, its vendor and project for rendering.
func BuildRFQDocument(app core.App, rfqID string, company config.CompanyConfig) (*RFQDocument, error) {
	rfq, err := GetRFQ(app, rfqID)
	if err != nil {
		return nil, err
	}
	project, err := app.FindRecordById("projects", rfq.ProjectID)
	if err != nil {
		return nil, LookupErr(err, "project", rfq.ProjectID)
	}

	doc := &RFQDocument{
		Company:     company,
		RFQNumber:   rfq.Number,
		IssuedDate:  "Draft",
		DueDate:     "TBD",
		ProjectName: project.GetString("name"),
		ProjectRef:  project.GetString("reference_number"),
		Notes:       rfq.Notes,
		Items:       rfq.Items,
	}
	if !rfq.SentAt.IsZero() {
		doc.IssuedDate = rfq.SentAt.Format("Jan 2, 2006")
	}
	if !rfq.DueDate.IsZero() {
		doc.DueDate = rfq.DueDate.Format("Jan 2, 2006")
	}

	if vendor, err := GetVendor(app, rfq.VendorID); err == nil {
		doc.VendorName = vendor.Name
		doc.VendorContact = joinNonEmpty([]string{vendor.ContactName, vendor.Phone, vendor.Email}, " | ")
	} else {
		app.Logger().Warn("rfq pdf: vendor missing", "rfq", rfq.Number, "error", err)
	}
	return doc, nil
}

// GenerateRFQPDF renders an RFQ document and returns the PDF bytes.
func GenerateRFQPDF(doc *RFQDocument) ([]byte, error) {
	cfg := mconfig.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.Letter).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addRFQHeader(m, doc)
	addRFQVendorBlock(m, doc)
	addRFQItemsTable(m, doc)
	addRFQNotes(m, doc)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate RFQ PDF: %w", err)
	}
	return out.GetBytes(), nil
}

var mutedColor = &props.Color{Red: 100, Green: 100, Blue: 100}

func addRFQHeader(m mcore.Maroto, doc *RFQDocument) {
	m.AddRows(
		row.New(10).Add(
			col.New(6).Add(text.New(doc.Company.Name, props.Text{
				Size:  14,
				Style: fontstyle.Bold,
				Align: align.Left,
			})),
			col.New(6).Add(text.New("REQUEST FOR QUOTE", props.Text{
				Size:  14,
				Style: fontstyle.Bold,
				Align: align.Right,
				Color: &props.Color{Red: 33, Green: 37, Blue: 41},
			})),
		),
	)

	m.AddRows(
		row.New(8).Add(
			col.New(6).Add(text.New(joinNonEmpty([]string{doc.Company.Address, doc.Company.Email}, " | "), props.Text{
				Size:  8,
				Align: align.Left,
				Color: mutedColor,
			})),
			col.New(6).Add(text.New("RFQ #: "+doc.RFQNumber, props.Text{
				Size:  10,
				Style: fontstyle.Bold,
				Align: align.Right,
			})),
		),
	)

	m.AddRows(row.New(3))
}

func addRFQVendorBlock(m mcore.Maroto, doc *RFQDocument) {
	label := props.Text{Size: 7, Style: fontstyle.Bold, Align: align.Left, Color: mutedColor}
	rightLabel := props.Text{Size: 7, Style: fontstyle.Bold, Align: align.Right, Color: mutedColor}
	value := props.Text{Size: 8, Align: align.Left}
	rightValue := props.Text{Size: 8, Align: align.Right}

	project := doc.ProjectName
	if doc.ProjectRef != "" {
		project += " (" + doc.ProjectRef + ")"
	}

	m.AddRows(
		row.New(6).Add(
			col.New(6).Add(text.New("VENDOR", label)),
			col.New(6).Add(text.New("REQUEST DETAILS", rightLabel)),
		),
		row.New(7).Add(
			col.New(6).Add(text.New(doc.VendorName, props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Left})),
			col.New(3).Add(text.New("Issued:", rightLabel)),
			col.New(3).Add(text.New(doc.IssuedDate, rightValue)),
		),
		row.New(7).Add(
			col.New(6).Add(text.New(doc.VendorContact, value)),
			col.New(3).Add(text.New("Due:", rightLabel)),
			col.New(3).Add(text.New(doc.DueDate, rightValue)),
		),
		row.New(7).Add(
			col.New(6).Add(text.New("Project: "+project, value)),
		),
	)

	m.AddRows(row.New(3))
}

func addRFQItemsTable(m mcore.Maroto, doc *RFQDocument) {
	headerText := props.Text{
		Size:  7,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	headerLeft := headerText
	headerLeft.Align = align.Left
	headerCell := &props.Cell{BackgroundColor: &props.Color{Red: 33, Green: 37, Blue: 41}}

	m.AddRows(
		row.New(8).Add(
			col.New(1).Add(text.New("#", headerText)).WithStyle(headerCell),
			col.New(5).Add(text.New("Description", headerLeft)).WithStyle(headerCell),
			col.New(2).Add(text.New("SKU", headerText)).WithStyle(headerCell),
			col.New(1).Add(text.New("Qty", headerText)).WithStyle(headerCell),
			col.New(1).Add(text.New("UOM", headerText)).WithStyle(headerCell),
			col.New(2).Add(text.New("Unit Price", headerText)).WithStyle(headerCell),
		),
	)

	altCell := &props.Cell{BackgroundColor: &props.Color{Red: 248, Green: 249, Blue: 250}}
	center := props.Text{Size: 7, Align: align.Center}
	left := props.Text{Size: 7, Align: align.Left}
	right := props.Text{Size: 7, Align: align.Right}

	for i, item := range doc.Items {
		cols := []mcore.Col{
			col.New(1).Add(text.New(fmt.Sprintf("%d", i+1), center)),
			col.New(5).Add(text.New(item.Description, left)),
			col.New(2).Add(text.New(item.SKU, center)),
			col.New(1).Add(text.New(FormatQuantity(item.Quantity), right)),
			col.New(1).Add(text.New(item.UOM, center)),
			col.New(2).Add(text.New("", right)),
		}
		if i%2 == 1 {
			for j := range cols {
				cols[j] = cols[j].WithStyle(altCell)
			}
		}
		m.AddRows(row.New(7).Add(cols...))
	}

	m.AddRows(row.New(4))
}

func addRFQNotes(m mcore.Maroto, doc *RFQDocument) {
	section := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Left, Color: &props.Color{Red: 33, Green: 37, Blue: 41}}
	body := props.Text{Size: 8, Align: align.Left}

	lines := []string{
		"Quote unit prices in USD. Reply with a spreadsheet or one line per item as \"Description - $price\".",
	}
	if doc.Notes != "" {
		lines = append(lines, strings.Split(doc.Notes, "\n")...)
	}

	m.AddRows(row.New(7).Add(col.New(12).Add(text.New("NOTES", section))))
	for _, l := range lines {
		m.AddRows(row.New(6).Add(col.New(12).Add(text.New(l, body))))
	}
}

// joinNonEmpty joins non-empty strings with the given separator.
func joinNonEmpty(parts []string, sep string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, sep)
}
