package leads

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/model"
)

// ExportXLSX writes the sanitized prospect list as a single-sheet workbook.
// Records are written as-is: callers are expected to have sanitized them, and
// the export must never contain more than chat showed.
func ExportXLSX(w io.Writer, records []model.ProspectRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Prospects")
	if err != nil {
		return eris.Wrap(err, "leads: add export sheet")
	}

	header := sheet.AddRow()
	for _, col := range model.ProspectColumns {
		header.AddCell().SetString(col)
	}
	for _, rec := range records {
		row := sheet.AddRow()
		for _, cell := range rec.Row() {
			row.AddCell().SetString(cell)
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "leads: write export")
	}
	return nil
}
