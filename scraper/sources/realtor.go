package sources

// Realtor reads the realtor.com agent directory.
func Realtor() *ListAdapter {
	return mustListAdapter(Spec{
		ID:       "realtor",
		Label:    "REALTOR_LIST",
		Domain:   "realtor.com",
		URL:      "https://www.realtor.com/realestateagents/jacksonville_fl/pg-{page}",
		MaxPages: 20,
		Cards:    ".agent-list-card",
		Name:     `[data-testid="agent-name"], .agent-name`,
	})
}
