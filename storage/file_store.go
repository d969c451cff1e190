package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"contact-scraper/models"
)

// FileStore writes run outputs as JSON and CSV files under one directory.
type FileStore struct {
	dir          string
	rosterName   string
	enrichedName string
	importFile   string
}

// NewFileStore creates a FileStore. rosterName and enrichedName are base
// names without extension; importFile is the contact-import file name.
func NewFileStore(dir, rosterName, enrichedName, importFile string) *FileStore {
	return &FileStore{
		dir:          dir,
		rosterName:   rosterName,
		enrichedName: enrichedName,
		importFile:   importFile,
	}
}

func (s *FileStore) path(name string) string { return filepath.Join(s.dir, name) }

// RosterFiles returns the JSON and CSV roster paths.
func (s *FileStore) RosterFiles() []string {
	return []string{s.path(s.rosterName + ".json"), s.path(s.rosterName + ".csv")}
}

// ContactFiles returns the JSON and CSV enriched-output paths.
func (s *FileStore) ContactFiles() []string {
	return []string{s.path(s.enrichedName + ".json"), s.path(s.enrichedName + ".csv")}
}

// ImportFile returns the contact-import CSV path.
func (s *FileStore) ImportFile() string { return s.path(s.importFile) }

// WriteRoster writes the roster as a JSON array and as CSV.
func (s *FileStore) WriteRoster(_ context.Context, roster []models.Agent) error {
	rows := make([][]string, len(roster))
	for i, r := range roster {
		rows[i] = []string{r.Name, r.City, r.Source}
	}
	files := s.RosterFiles()
	return writeJSONAndCSV(files[0], files[1], nonNil(roster), RosterHeader, rows)
}

// ReadRoster reads back the JSON roster. A missing file yields os.ErrNotExist.
func (s *FileStore) ReadRoster(_ context.Context) ([]models.Agent, error) {
	path := s.RosterFiles()[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "storage: read roster %q", path)
	}
	var roster []models.Agent
	if err := json.Unmarshal(data, &roster); err != nil {
		return nil, eris.Wrapf(err, "storage: decode roster %q", path)
	}
	return roster, nil
}

// WriteContacts writes consolidated contacts as a JSON array and as CSV.
func (s *FileStore) WriteContacts(_ context.Context, contacts []models.Observation) error {
	rows := make([][]string, len(contacts))
	for i, c := range contacts {
		rows[i] = []string{c.Name, c.Phone, c.Email, c.SourceURL}
	}
	files := s.ContactFiles()
	return writeJSONAndCSV(files[0], files[1], nonNil(contacts), ContactsHeader, rows)
}

// WriteImport writes the contact-import CSV.
func (s *FileStore) WriteImport(rows []models.ImportRow) error {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{r.Email, r.SMS, r.FirstName, r.LastName, r.SourceURL}
	}
	return writeFile(s.ImportFile(), []byte(RenderCSV(ImportHeader, out)))
}

func writeJSONAndCSV(jsonPath, csvPath string, v any, header []string, rows [][]string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "storage: encode %q", jsonPath)
	}
	if err := writeFile(jsonPath, data); err != nil {
		return err
	}
	return writeFile(csvPath, []byte(RenderCSV(header, rows)))
}

// nonNil makes empty results encode as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
