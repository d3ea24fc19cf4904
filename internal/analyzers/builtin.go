package analyzers

// Builtins are the analyzers bundled with the ica tool.
var Builtins = []*Analyzer{
	{Name: "attachment_totals", Category: CategoryTotals,
		Description: "Totals of attachments by type (images, videos, links, ...)"},
	{Name: "count_phrases", Category: CategoryContent,
		Description: "Occurrences of the given phrases, optionally case-sensitive or regex"},
	{Name: "from_prompt", Category: CategoryContent,
		Description: "Analyzer generated from a natural-language prompt"},
	{Name: "from_sql", Category: CategoryExport,
		Description: "Results of a custom SQL query against the message tables"},
	{Name: "message_totals", Category: CategoryTotals,
		Description: "Message counts and reactions per sender"},
	{Name: "most_frequent_emojis", Category: CategoryContent,
		Description: "The emojis used most often in the conversation"},
	{Name: "totals_by_day", Category: CategoryTotals,
		Description: "Per-day message counts split by sender"},
	{Name: "transcript", Category: CategoryExport,
		Description: "Full conversation transcript with timestamps and senders"},
}

// DefaultRegistry returns a registry holding the built-in analyzers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, a := range Builtins {
		copied := *a
		r.MustRegister(&copied)
	}
	return r
}
