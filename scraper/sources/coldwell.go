package sources

// ColdwellBanker reads the Coldwell Banker city agent pages.
func ColdwellBanker() *ListAdapter {
	return mustListAdapter(Spec{
		ID:       "coldwellbanker",
		Label:    "COLDWELL_LIST",
		Domain:   "coldwellbanker.com",
		URL:      "https://www.coldwellbanker.com/city/fl/jacksonville/agents?pg={page}",
		MaxPages: 30,
		Cards:    ".agent-card, .agent-result",
		Name:     `.agent-name, .agent-card__name, a[data-cg="agent-name"]`,
	})
}
