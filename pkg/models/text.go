package models

import "strings"

// BodyText gathers the prose of the article and its blocks, one passage
// per line.
func (a *Article) BodyText() string {
	var sb strings.Builder
	add := func(parts ...string) {
		for _, p := range parts {
			sb.WriteString(p)
			sb.WriteByte('\n')
		}
	}
	add(a.Title, a.Description, a.Hero.Headline, a.Hero.Subheadline)
	for _, b := range a.Blocks {
		add(b.Heading())
		switch v := b.(type) {
		case IntroBlock:
			add(v.Content)
		case MarkdownBlock:
			add(v.Content)
		case ProsConsBlock:
			add(v.Pros...)
			add(v.Cons...)
		case FAQBlock:
			for _, item := range v.Items {
				add(item.Question, item.Answer)
			}
		case SpecGridBlock:
			for _, s := range v.Items {
				add(s.Label, s.Value)
			}
		case CTABannerBlock:
			add(v.Text)
		case ComparisonTableBlock:
			for _, item := range v.Items {
				for _, k := range sortedKeys(item) {
					if s, ok := item[k].(string); ok {
						add(s)
					}
				}
			}
		}
	}
	return sb.String()
}
