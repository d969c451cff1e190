package sources

// Exp reads the eXp Realty agent search. Its markup varies, so headings and
// profile links are read directly and button labels are skipped.
func Exp() *ListAdapter {
	return mustListAdapter(Spec{
		ID:        "exp",
		Label:     "EXP_LIST",
		Domain:    "exprealty.com",
		URL:       "https://www.exprealty.com/agents-search?page={page}&country=US&m=f&location=Jacksonville%2C%20FL",
		MaxPages:  50,
		Cards:     `a[href*="/agents/"], [data-testid="agent-name"], .agent-card h3, .agent-name, h3, h2`,
		Skip:      `^(learn more|view profile|contact|about)`,
		MinLength: 3,
	})
}
