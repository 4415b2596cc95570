// Package render turns assistant replies into styled terminal output.
package render

// Options controls how a reply is rendered. The zero value of each flag
// disables the feature; DefaultOptions turns the usual ones on.
type Options struct {
	Width int

	// Style is a glamour standard style name or a JSON style file
	Style string

	EnableEmoji      bool
	PreserveNewLines bool
	TableWrap        bool
	InlineTableLinks bool

	// HighlightKeywords bolds recycling keywords and prefixes them with an emoji
	HighlightKeywords bool
}

// DefaultOptions is what the chat and the one-shot command start from.
func DefaultOptions() Options {
	return Options{
		Width:             80,
		Style:             ThemeDark,
		EnableEmoji:       true,
		PreserveNewLines:  true,
		TableWrap:         true,
		HighlightKeywords: true,
	}
}

func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}

func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}

func (o Options) WithHighlightKeywords(enabled bool) Options {
	o.HighlightKeywords = enabled
	return o
}
