package config

// Built-in fallback data used when the spreadsheet is unreachable or its
// Keywords/Prompts tables are missing. Mirrors the seed data the provisioning
// flow writes into a fresh spreadsheet.

// FallbackKeywords returns the default category -> search terms mapping
func FallbackKeywords() map[string][]string {
	return map[string][]string{
		"Press & Information Freedom": {
			"press freedom",
			"journalist arrested",
			"book ban",
			"disinformation",
		},
		"Voting Rights & Election Integrity": {
			"voter suppression",
			"gerrymandering",
			"election interference",
		},
		"Judicial & Legal Integrity": {
			"court independence",
			"due process",
			"rule of law",
		},
	}
}

// FallbackPrompts returns the default prompt templates keyed by name.
// Templates use {headline}, {summary}, {source} and {summaries_text} placeholders.
func FallbackPrompts() map[string]string {
	return map[string]string{
		"Explainer Script": "You are a U.S.-based political journalist creating a 60-second " +
			"daily briefing for an audience deeply concerned with American " +
			"democracy. Write a concise, compelling script summarizing the " +
			"top U.S. democracy-impacting news of the day. Start with " +
			"'Today in American democracy...' and prioritize 3-4 stories. " +
			"Spreadsheet input: {summaries_text}",
		"One Sheet Briefing": "Create a comprehensive one-sheet briefing document covering " +
			"the most critical democracy-related news. Organize into " +
			"thematic sections and focus on democratic institutions impact. " +
			"Spreadsheet input: {summaries_text}",
		"US Article Filter": "Determine if this news article is about United States domestic " +
			"news or politics. Respond with exactly one word, YES for US domestic " +
			"news or NO for anything else. Article: Headline: {headline}, " +
			"Summary: {summary}, Source: {source}",
	}
}
