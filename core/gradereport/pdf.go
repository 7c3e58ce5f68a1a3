package gradereport

import (
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
)

var colWidths = []float64{28, 52, 18, 26, 28, 28} // mm, A4 portrait minus margins

const rowHeight = 7

// WritePDF writes rep as an A4 table titled "Grade Report", repeating the header on every page.
func WritePDF(w io.Writer, rep Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(false, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()

	header := func() {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetFillColor(0x34, 0x98, 0xdb)
		pdf.SetTextColor(0xff, 0xff, 0xff)
		for i, c := range Columns {
			pdf.CellFormat(colWidths[i], rowHeight+1, c, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(0x2c, 0x3e, 0x50)
	pdf.CellFormat(0, 10, "Grade Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, tr(rep.Course.Code+" - "+rep.Course.Name), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Generated "+rep.GeneratedAt.Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")
	pdf.Ln(4)
	header()

	for i, r := range rep.Rows {
		if pdf.GetY()+rowHeight > pageHeight-bottom {
			pdf.AddPage()
			header()
		}
		if i%2 == 0 {
			pdf.SetFillColor(0xff, 0xff, 0xff)
		} else {
			pdf.SetFillColor(0xd3, 0xd3, 0xd3)
		}
		for j, v := range r.values() {
			pdf.CellFormat(colWidths[j], rowHeight, tr(v), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return errors.Wrap(err, "rendering pdf")
	}
	return errors.Wrap(pdf.Output(w), "writing pdf")
}
