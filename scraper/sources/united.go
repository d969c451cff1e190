package sources

// United reads the United Real Estate Gallery agent finder.
func United() *ListAdapter {
	return mustListAdapter(Spec{
		ID:           "united",
		Label:        "UNITED_LIST",
		Domain:       "unitedrealestategallery.com",
		FirstPageURL: "https://www.unitedrealestategallery.com/findanagent.htm",
		URL:          "https://www.unitedrealestategallery.com/findanagent.htm?page={page}",
		MaxPages:     20,
		Cards:        `.ourAgentsCardName, .agentlist-name, .agent .name, .agent-card .name, .directory-card .name, h3, h4, a[href*="/agent/"]`,
		Skip:         `^(contact|learn more|details)`,
		MinLength:    3,
	})
}
