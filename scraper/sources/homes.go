package sources

// Homes reads the homes.com agent directory.
func Homes() *ListAdapter {
	return mustListAdapter(Spec{
		ID:       "homes",
		Label:    "HOMES_LIST",
		Domain:   "homes.com",
		URL:      "https://www.homes.com/real-estate-agents/jacksonville-fl/p-{page}/",
		MaxPages: 50,
		Cards:    `[data-qa="agent-card"], .agent-card`,
		Name:     `[data-qa="agent-name"], .name, h3`,
	})
}
