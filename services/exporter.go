package services

import (
	"strings"

	"contact-scraper/models"
	"contact-scraper/utils"
)

// ToImportRows reshapes contacts for contact-import tools: the name is split
// into first token and remainder, the phone rendered as E.164 and the email
// lowercased.
func ToImportRows(contacts []models.Observation) []models.ImportRow {
	rows := make([]models.ImportRow, len(contacts))
	for i, c := range contacts {
		first, last := utils.SplitName(c.Name)
		rows[i] = models.ImportRow{
			Email:     strings.ToLower(strings.TrimSpace(c.Email)),
			SMS:       utils.ToE164(c.Phone),
			FirstName: first,
			LastName:  last,
			SourceURL: c.SourceURL,
		}
	}
	return rows
}
