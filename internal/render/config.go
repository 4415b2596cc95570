package render

import (
	"os"

	"github.com/diogo/cleansight/internal/config"
)

// StyleEnv overrides the configured style when set
const StyleEnv = "GLAMOUR_STYLE"

// OptionsFromConfig maps the markdown section of the config onto Options.
// GLAMOUR_STYLE wins over the file; a style that is neither a standard name
// nor a readable file falls back to the dark style.
func OptionsFromConfig(md config.MarkdownConfig) Options {
	opts := Options{
		Width:             DefaultOptions().Width,
		Style:             md.Style,
		EnableEmoji:       md.EnableEmoji,
		PreserveNewLines:  md.PreserveNewLines,
		TableWrap:         md.TableWrap,
		InlineTableLinks:  md.InlineTableLinks,
		HighlightKeywords: md.HighlightKeywords,
	}
	if style := os.Getenv(StyleEnv); style != "" {
		opts.Style = style
	}
	if opts.Style == "" || ValidateStyle(opts.Style) != nil {
		opts.Style = ThemeDark
	}
	return opts
}

func OptionsFromConfigWithWidth(md config.MarkdownConfig, width int) Options {
	return OptionsFromConfig(md).WithWidth(width)
}
