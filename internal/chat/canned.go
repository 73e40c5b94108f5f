package chat

// Canned turn served in offline mode. The fixed payload keeps frontend
// development deterministic without any backend credentials.
func cannedResult(mode string, altOutput bool) *Result {
	const (
		message   = "**In the last 4 months, you attended Mahesh's wedding on 14th December 2024.**"
		title     = "wedding attempt"
		content   = "I attended Mahesh's wedding on 14 Dec 2024"
		formatted = "📌 **wedding attempt**\nI attended Mahesh's wedding on 14 Dec 2024\n"
	)
	res := &Result{
		Message: message,
		RelevantNotes: []RelevantNote{
			{Title: title, Content: content, Similarity: 0.95},
		},
		FormattedNotes: formatted,
		Mode:           mode,
	}
	if altOutput {
		res.CleanResponse = "In the last 4 months, you attended Mahesh's wedding on 14th December 2024."
	}
	return res
}
