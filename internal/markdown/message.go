package markdown

import "strings"

// Options configures RenderMessage.
type Options struct {
	RenderContext

	// DisableMarkdown renders the normalized text as a single text unit.
	// Ignored in preview mode.
	DisableMarkdown bool `json:"disableMarkdown,omitempty"`
	// IsEdited appends the edited indicator to the last block.
	IsEdited bool `json:"isEdited,omitempty"`
}

var defaultParser = NewParser()

// RenderMessage runs the whole pipeline for one message. It returns nil for
// an empty message.
func RenderMessage(raw string, opts Options) *Output {
	if raw == "" {
		return nil
	}
	m := Normalize(raw)
	ctx := opts.RenderContext

	if opts.DisableMarkdown && !ctx.Preview {
		return Render(&Node{Kind: KindText, Literal: m}, ctx)
	}
	if ctx.Preview {
		m = strings.ReplaceAll(m, "\n\n", " ")
	}

	tree := defaultParser.Parse(m)
	ctx.OnlyEmoji = IsBigEmoji(ToShort(m))
	if opts.IsEdited {
		spliceEdited(tree)
	}
	return Render(tree, ctx)
}

// spliceEdited appends the edited indicator to a trailing paragraph or
// heading, or adds a paragraph holding only the indicator.
func spliceEdited(doc *Node) {
	last := doc.LastChild()
	if last != nil && (last.Kind == KindParagraph || last.Kind == KindHeading) {
		last.Children = append(last.Children, &Node{
			Kind:    KindEditedIndicator,
			Context: last.Context.With(last.Kind),
		})
		return
	}
	p := &Node{Kind: KindParagraph, Context: Context{}}
	p.Children = []*Node{{Kind: KindEditedIndicator, Context: p.Context.With(KindParagraph)}}
	doc.Children = append(doc.Children, p)
}
