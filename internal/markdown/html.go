package markdown

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var classRegex = regexp.MustCompile(`^[a-zA-Z0-9_ ]+$`)

var sanitizer = newSanitizer()

func newSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(classRegex).OnElements("span", "a", "img", "pre", "code", "p", "li",
		"h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("start").Matching(bluemonday.Integer).OnElements("ol")
	p.RequireNoFollowOnLinks(false)
	return p
}

// PlainText joins the rendered text. Blocks are separated by a newline, or
// by a space in preview mode.
func (o *Output) PlainText() string {
	sep := "\n"
	if o.ctx.Preview {
		sep = " "
	}
	var b strings.Builder
	writeUnitPlain(&b, o.Root(), sep)
	return b.String()
}

func writeUnitPlain(b *strings.Builder, u *Unit, sep string) {
	if u == nil {
		return
	}
	if len(u.Children) == 0 {
		b.WriteString(u.Literal)
		return
	}
	prevBlock := false
	for _, child := range u.Children {
		block := child.Kind.IsBlock()
		if block && prevBlock {
			b.WriteString(sep)
		}
		writeUnitPlain(b, child, sep)
		prevBlock = block
	}
}

// HTML writes the units as HTML for web shells. The result is sanitized.
func (o *Output) HTML() string {
	var b strings.Builder
	writeUnitHTML(&b, o.Root())
	return sanitizer.Sanitize(b.String())
}

func class(styles []string) string {
	if len(styles) == 0 {
		return ""
	}
	return ` class="` + html.EscapeString(strings.Join(styles, " ")) + `"`
}

func writeUnitHTML(b *strings.Builder, u *Unit) {
	if u == nil {
		return
	}
	inner := func() {
		for _, child := range u.Children {
			writeUnitHTML(b, child)
		}
	}
	esc := html.EscapeString

	switch u.Element {
	case ElementFragment:
		switch u.Kind {
		case KindEmphasis:
			b.WriteString("<em>")
			inner()
			b.WriteString("</em>")
		case KindStrong:
			b.WriteString("<strong>")
			inner()
			b.WriteString("</strong>")
		case KindStrikethrough:
			b.WriteString("<del>")
			inner()
			b.WriteString("</del>")
		default:
			inner()
		}
	case ElementText:
		if u.Kind.IsBlock() {
			b.WriteString("<p" + class(u.Styles) + ">" + esc(u.Literal) + "</p>")
			return
		}
		b.WriteString("<span" + class(u.Styles) + ">" + esc(u.Literal) + "</span>")
	case ElementBreak:
		if u.Literal == "\n" {
			b.WriteString("<br>")
			return
		}
		b.WriteString(" ")
	case ElementParagraph:
		b.WriteString("<p>")
		inner()
		b.WriteString("</p>")
	case ElementHeading:
		tag := "h" + strconv.Itoa(u.Level)
		b.WriteString("<" + tag + class(u.Styles) + ">")
		inner()
		b.WriteString("</" + tag + ">")
	case ElementCode:
		b.WriteString("<code>" + esc(u.Literal) + "</code>")
	case ElementCodeBlock:
		b.WriteString("<pre><code")
		if u.Language != "" {
			b.WriteString(class([]string{"language-" + u.Language}))
		}
		b.WriteString(">" + esc(u.Literal) + "</code></pre>")
	case ElementBlockQuote:
		b.WriteString("<blockquote>")
		inner()
		b.WriteString("</blockquote>")
	case ElementLink:
		b.WriteString(`<a href="` + esc(u.Href) + `">`)
		inner()
		b.WriteString("</a>")
	case ElementImage:
		b.WriteString(`<img src="` + esc(u.Href) + `" alt="` + esc(u.Literal) + `">`)
	case ElementMention, ElementHashtag:
		b.WriteString("<span" + class(u.Styles) + ">" + esc(u.Literal) + "</span>")
	case ElementEmoji:
		if u.Href != "" {
			b.WriteString(`<img class="emoji" src="` + esc(u.Href) + `" alt="` + esc(u.Literal) + `">`)
			return
		}
		b.WriteString(`<span class="emoji">` + esc(u.Literal) + "</span>")
	case ElementList:
		if u.Ordered {
			b.WriteString(`<ol start="` + strconv.Itoa(u.Start) + `">`)
			inner()
			b.WriteString("</ol>")
			return
		}
		b.WriteString("<ul>")
		inner()
		b.WriteString("</ul>")
	case ElementListItem:
		b.WriteString("<li>")
		inner()
		b.WriteString("</li>")
	case ElementTable:
		b.WriteString("<table>")
		inner()
		b.WriteString("</table>")
	case ElementTableRow:
		b.WriteString("<tr>")
		inner()
		b.WriteString("</tr>")
	case ElementTableCell:
		tag := "td"
		if u.Header {
			tag = "th"
		}
		b.WriteString("<" + tag + ">")
		inner()
		b.WriteString("</" + tag + ">")
	}
}
