package models

import (
	"encoding/json"
	"time"
)

// Request labels shared by the crawl phases. Listing sources add their own
// "<SOURCE>_LIST" labels through the adapter registry.
const (
	LabelSearch = "SEARCH"
	LabelPage   = "PAGE"
)

// SeedRequest describes one listing page an adapter wants fetched.
// Seeds are produced lazily and never modified after creation.
type SeedRequest struct {
	URL   string
	Label string
	Page  int
	Limit int
}

// CrawlRequest is one unit of work in a crawl queue. Depth is 0 for seeds and
// search queries and grows by one for every harvested link.
type CrawlRequest struct {
	URL    string
	Label  string
	Depth  int
	Person string
}

// Agent is a roster entry. Name is title-cased; Source is the listing domain.
type Agent struct {
	Name   string `json:"name"`
	City   string `json:"city"`
	Source string `json:"source"`
}

// Observation is one page-derived contact finding for a person. Email and
// Phone are empty when absent (null in JSON); Phone is always in
// "(DDD) DDD-DDDD" form.
type Observation struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	SourceURL string `json:"sourceUrl"`
}

type observationJSON struct {
	Name      string  `json:"name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	SourceURL string  `json:"sourceUrl"`
}

// MarshalJSON writes a missing email or phone as null.
func (o Observation) MarshalJSON() ([]byte, error) {
	return json.Marshal(observationJSON{
		Name:      o.Name,
		Email:     optional(o.Email),
		Phone:     optional(o.Phone),
		SourceURL: o.SourceURL,
	})
}

// UnmarshalJSON accepts null or a string for email and phone.
func (o *Observation) UnmarshalJSON(data []byte) error {
	var raw observationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = Observation{Name: raw.Name, SourceURL: raw.SourceURL}
	if raw.Email != nil {
		o.Email = *raw.Email
	}
	if raw.Phone != nil {
		o.Phone = *raw.Phone
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Score ranks how complete an observation is: email counts 2, phone counts 1.
func (o Observation) Score() int {
	score := 0
	if o.Email != "" {
		score += 2
	}
	if o.Phone != "" {
		score++
	}
	return score
}

// ImportRow is an Observation reshaped for contact-import tools.
type ImportRow struct {
	Email     string
	SMS       string
	FirstName string
	LastName  string
	SourceURL string
}

// RunReport summarises one phase run.
type RunReport struct {
	RunID        string
	Phase        string
	City         string
	StartedAt    time.Time
	FinishedAt   time.Time
	Queued       int
	Fetched      int
	Failed       int
	RawRecords   int
	Names        int
	Observations int
	Contacts     int
	WithEmail    int
	WithPhone    int
	BySource     map[string]int
	Outputs      []string
}
