package storage

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"contact-scraper/models"
)

const (
	contactsSheet = "Contacts"
	importSheet   = "Import"
)

// WriteWorkbook writes contacts and import rows to an .xlsx file with one
// sheet each, using the same headers as the CSV exports.
func WriteWorkbook(path string, contacts []models.Observation, rows []models.ImportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", contactsSheet); err != nil {
		return eris.Wrap(err, "workbook: rename sheet")
	}
	if _, err := f.NewSheet(importSheet); err != nil {
		return eris.Wrap(err, "workbook: add sheet")
	}

	contactRows := make([][]string, len(contacts))
	for i, c := range contacts {
		contactRows[i] = []string{c.Name, c.Phone, c.Email, c.SourceURL}
	}
	if err := writeSheet(f, contactsSheet, ContactsHeader, contactRows); err != nil {
		return err
	}

	importRows := make([][]string, len(rows))
	for i, r := range rows {
		importRows[i] = []string{r.Email, r.SMS, r.FirstName, r.LastName, r.SourceURL}
	}
	if err := writeSheet(f, importSheet, ImportHeader, importRows); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "workbook: create output dir")
	}
	if err := f.SaveAs(path); err != nil {
		return eris.Wrapf(err, "workbook: save %q", path)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string) error {
	for r, values := range append([][]string{header}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return eris.Wrap(err, "workbook: cell name")
		}
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return eris.Wrapf(err, "workbook: write %s row %d", sheet, r+1)
		}
	}
	return nil
}
