package sources

// Compass reads the Compass location agent listing.
func Compass() *ListAdapter {
	return mustListAdapter(Spec{
		ID:       "compass",
		Label:    "COMPASS_LIST",
		Domain:   "compass.com",
		URL:      "https://www.compass.com/agents/locations/jacksonville-fl/2801/?page={page}",
		MaxPages: 20,
		Cards:    `[data-test="agent-card"], .agentCard, a[href*="/agents/"]`,
		Name:     `[data-test="agent-card-name"], h3, .MuiTypography-root`,
	})
}
