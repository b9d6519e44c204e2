package models

import (
	"vehicle-intel/pkg/slug"
)

type BlockType string

const (
	BlockIntro           BlockType = "intro"
	BlockComparisonTable BlockType = "comparisonTable"
	BlockSpecGrid        BlockType = "specGrid"
	BlockProsCons        BlockType = "prosCons"
	BlockGallery         BlockType = "gallery"
	BlockFAQ             BlockType = "faq"
	BlockCTABanner       BlockType = "ctaBanner"
	BlockMarkdown        BlockType = "markdown"
)

// Block is one typed unit of an article body. The concrete types below are
// the only implementations.
type Block interface {
	Kind() BlockType
	Anchor() string
	Heading() string
}

// Section carries the fields every block shares.
type Section struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
}

func (s Section) Anchor() string  { return s.ID }
func (s Section) Heading() string { return s.Title }

type IntroBlock struct {
	Section
	Content string `json:"content"`

	Extra map[string]any `json:"-"`
}

type ComparisonTableBlock struct {
	Section
	Columns []string         `json:"columns,omitempty"`
	Items   []map[string]any `json:"items"`

	Extra map[string]any `json:"-"`
}

type Spec struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type SpecGridBlock struct {
	Section
	Items []Spec `json:"items"`

	Extra map[string]any `json:"-"`
}

type ProsConsBlock struct {
	Section
	Pros []string `json:"pros"`
	Cons []string `json:"cons"`

	Extra map[string]any `json:"-"`
}

type GalleryBlock struct {
	Section
	Images []Image `json:"images"`

	Extra map[string]any `json:"-"`
}

type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type FAQBlock struct {
	Section
	Items []FAQItem `json:"items"`

	Extra map[string]any `json:"-"`
}

type CTABannerBlock struct {
	Section
	Text string `json:"text,omitempty"`
	CTA  *CTA   `json:"cta,omitempty"`

	Extra map[string]any `json:"-"`
}

type MarkdownBlock struct {
	Section
	Content string `json:"content"`

	Extra map[string]any `json:"-"`
}

func (IntroBlock) Kind() BlockType           { return BlockIntro }
func (ComparisonTableBlock) Kind() BlockType { return BlockComparisonTable }
func (SpecGridBlock) Kind() BlockType        { return BlockSpecGrid }
func (ProsConsBlock) Kind() BlockType        { return BlockProsCons }
func (GalleryBlock) Kind() BlockType         { return BlockGallery }
func (FAQBlock) Kind() BlockType             { return BlockFAQ }
func (CTABannerBlock) Kind() BlockType       { return BlockCTABanner }
func (MarkdownBlock) Kind() BlockType        { return BlockMarkdown }

func (b IntroBlock) MarshalJSON() ([]byte, error) {
	type plain IntroBlock
	return encodeObject(string(BlockIntro), plain(b), b.Extra)
}

func (b ComparisonTableBlock) MarshalJSON() ([]byte, error) {
	type plain ComparisonTableBlock
	return encodeObject(string(BlockComparisonTable), plain(b), b.Extra)
}

func (b SpecGridBlock) MarshalJSON() ([]byte, error) {
	type plain SpecGridBlock
	return encodeObject(string(BlockSpecGrid), plain(b), b.Extra)
}

func (b ProsConsBlock) MarshalJSON() ([]byte, error) {
	type plain ProsConsBlock
	return encodeObject(string(BlockProsCons), plain(b), b.Extra)
}

func (b GalleryBlock) MarshalJSON() ([]byte, error) {
	type plain GalleryBlock
	return encodeObject(string(BlockGallery), plain(b), b.Extra)
}

func (b FAQBlock) MarshalJSON() ([]byte, error) {
	type plain FAQBlock
	return encodeObject(string(BlockFAQ), plain(b), b.Extra)
}

func (b CTABannerBlock) MarshalJSON() ([]byte, error) {
	type plain CTABannerBlock
	return encodeObject(string(BlockCTABanner), plain(b), b.Extra)
}

func (b MarkdownBlock) MarshalJSON() ([]byte, error) {
	type plain MarkdownBlock
	return encodeObject(string(BlockMarkdown), plain(b), b.Extra)
}

var blockCoercers = map[BlockType]func(*fields, Section) Block{
	BlockIntro:           coerceIntro,
	BlockComparisonTable: coerceComparisonTable,
	BlockSpecGrid:        coerceSpecGrid,
	BlockProsCons:        coerceProsCons,
	BlockGallery:         coerceGallery,
	BlockFAQ:             coerceFAQ,
	BlockCTABanner:       coerceCTABanner,
	BlockMarkdown:        coerceMarkdown,
}

// coerceBlock maps one raw entry of "blocks" onto a recognized variant.
// Nothing is dropped: unknown tags and non-object entries become markdown.
func coerceBlock(raw any) Block {
	obj, ok := raw.(map[string]any)
	if !ok {
		return MarkdownBlock{Content: bestText(raw)}
	}

	f := newFields(obj)
	tag, _ := obj["type"].(string)
	coerce, known := blockCoercers[BlockType(tag)]
	if !known {
		return coerceUnknownBlock(f, tag)
	}

	sec := Section{ID: f.str("id", "anchor"), Title: f.str("title", "heading")}
	f.claim("id", "title")
	if sec.ID == "" && sec.Title != "" {
		sec.ID = slug.Make(sec.Title)
	}
	return coerce(f, sec)
}

func coerceUnknownBlock(f *fields, tag string) Block {
	content := f.peek("content", "text")
	if content == "" {
		content = bestText(f.m)
	}
	b := MarkdownBlock{
		Section: Section{ID: f.peek("id", "anchor"), Title: f.peek("title", "heading")},
		Content: content,
	}
	if b.ID == "" && b.Title != "" {
		b.ID = slug.Make(b.Title)
	}
	if tag != "" {
		b.Extra = map[string]any{"sourceType": tag}
	}
	return b
}

func coerceIntro(f *fields, sec Section) Block {
	b := IntroBlock{Section: sec, Content: f.text("content", "text", "body")}
	f.claim("content")
	b.Extra = f.rest()
	return b
}

func coerceMarkdown(f *fields, sec Section) Block {
	b := MarkdownBlock{Section: sec, Content: f.text("content", "text", "markdown", "body")}
	f.claim("content")
	b.Extra = f.rest()
	return b
}

func coerceComparisonTable(f *fields, sec Section) Block {
	b := ComparisonTableBlock{Section: sec, Items: []map[string]any{}}
	if cols := f.strings("columns", "headers"); len(cols) > 0 {
		b.Columns = cols
	}
	if raw, ok := f.list("items", "rows", "vehicles"); ok {
		for _, item := range raw {
			switch v := item.(type) {
			case map[string]any:
				b.Items = append(b.Items, v)
			case nil:
			default:
				b.Items = append(b.Items, map[string]any{"label": bestText(v)})
			}
		}
	}
	f.claim("columns", "items")
	b.Extra = f.rest()
	return b
}

func coerceSpecGrid(f *fields, sec Section) Block {
	b := SpecGridBlock{Section: sec, Items: []Spec{}}
	if raw, ok := f.list("items", "specs"); ok {
		for _, item := range raw {
			switch v := item.(type) {
			case map[string]any:
				sf := newFields(v)
				b.Items = append(b.Items, Spec{
					Label: sf.str("label", "name", "key", "title"),
					Value: sf.text("value", "spec", "text"),
				})
			case nil:
			default:
				b.Items = append(b.Items, Spec{Label: bestText(v)})
			}
		}
	} else if obj, ok := f.object("specs"); ok {
		// {"Horsepower": "192 hp", ...} style maps.
		for _, k := range sortedKeys(obj) {
			b.Items = append(b.Items, Spec{Label: k, Value: bestText(obj[k])})
		}
	}
	f.claim("items")
	b.Extra = f.rest()
	return b
}

func coerceProsCons(f *fields, sec Section) Block {
	b := ProsConsBlock{
		Section: sec,
		Pros:    f.strings("pros", "advantages"),
		Cons:    f.strings("cons", "disadvantages"),
	}
	f.claim("pros", "cons")
	b.Extra = f.rest()
	return b
}

func coerceGallery(f *fields, sec Section) Block {
	b := GalleryBlock{Section: sec, Images: []Image{}}
	if raw, ok := f.list("images", "items"); ok {
		for _, item := range raw {
			if img := coerceImage(item, ""); img != nil {
				b.Images = append(b.Images, *img)
			}
		}
	}
	f.claim("images")
	b.Extra = f.rest()
	return b
}

func coerceFAQ(f *fields, sec Section) Block {
	b := FAQBlock{Section: sec, Items: []FAQItem{}}
	if raw, ok := f.list("items", "faqs", "questions"); ok {
		for _, item := range raw {
			obj, ok := item.(map[string]any)
			if !ok {
				if t := itemText(item); t != "" {
					b.Items = append(b.Items, FAQItem{Question: t})
				}
				continue
			}
			qf := newFields(obj)
			b.Items = append(b.Items, FAQItem{
				Question: qf.str("question", "q", "title"),
				Answer:   qf.text("answer", "a", "content", "text"),
			})
		}
	}
	f.claim("items")
	b.Extra = f.rest()
	return b
}

func coerceCTABanner(f *fields, sec Section) Block {
	b := CTABannerBlock{Section: sec, Text: f.str("text", "body", "content", "subheadline")}
	if raw, ok := f.take("cta"); ok {
		b.CTA = coerceCTA(raw)
	} else if label := f.str("label", "buttonLabel"); label != "" {
		b.CTA = &CTA{Label: label, Href: f.str("href", "url", "link")}
	}
	f.claim("text", "cta")
	b.Extra = f.rest()
	return b
}

func coerceCTA(raw any) *CTA {
	switch v := raw.(type) {
	case map[string]any:
		cf := newFields(v)
		return &CTA{Label: cf.str("label", "text", "title"), Href: cf.str("href", "url", "link")}
	case string:
		if v == "" {
			return nil
		}
		return &CTA{Label: v}
	}
	return nil
}

// coerceImage accepts a bare URL string or an object; src stands in for url.
// Missing alt text falls back to defaultAlt.
func coerceImage(raw any, defaultAlt string) *Image {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil
		}
		return &Image{URL: v, Alt: defaultAlt}
	case map[string]any:
		f := newFields(v)
		img := &Image{URL: f.str("url")}
		if img.URL == "" {
			img.URL = f.peek("src")
		}
		img.Alt = f.str("alt")
		if img.Alt == "" {
			img.Alt = defaultAlt
		}
		f.claim("url", "alt")
		img.Extra = f.rest()
		return img
	}
	return nil
}
