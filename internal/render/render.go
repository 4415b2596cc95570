package render

// Markdown renders an assistant reply for the terminal. Keyword emphasis is
// applied first when opts asks for it.
func Markdown(content string, opts Options) (string, error) {
	if opts.HighlightKeywords {
		content = Emphasize(content)
	}

	tr, err := shared.checkout(opts)
	if err != nil {
		return "", err
	}
	defer shared.checkin(opts, tr)

	return tr.Render(content)
}
