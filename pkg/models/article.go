package models

import (
	"encoding/json"
	"errors"
	"time"
)

// Article is the canonical vehicle-intelligence document. Values produced by
// Normalize (and by JSON decoding, which goes through Normalize) always have
// non-nil TOC and Blocks and only recognized block types.
type Article struct {
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Description string     `json:"description,omitempty"`
	Hero        Hero       `json:"hero"`
	TOC         []TOCEntry `json:"toc"`
	Blocks      []Block    `json:"blocks"`
	Modules     []Module   `json:"modules,omitempty"`
	SEO         *SEO       `json:"seo,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`

	// Extra holds top-level fields the schema does not know about.
	Extra map[string]any `json:"-"`
}

type Hero struct {
	Headline    string  `json:"headline"`
	Subheadline string  `json:"subheadline,omitempty"`
	Image       *Image  `json:"image,omitempty"`
	Badges      []Badge `json:"badges,omitempty"`
	CTA         *CTA    `json:"cta,omitempty"`

	Extra map[string]any `json:"-"`
}

type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt"`

	Extra map[string]any `json:"-"`
}

type Badge struct {
	Label string `json:"label"`
}

type CTA struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type TOCEntry struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type SEO struct {
	Canonical string `json:"canonical,omitempty"`
	OGImage   string `json:"ogImage,omitempty"`
	Schema    any    `json:"schema,omitempty"`

	Extra map[string]any `json:"-"`
}

// ErrIncomplete is returned by CheckRenderable for documents that normalized
// cleanly but carry nothing worth rendering.
var ErrIncomplete = errors.New("article is incomplete")

// CheckRenderable reports whether a normalized article is substantial enough
// to stand on its own: it needs a title and at least one block.
func (a *Article) CheckRenderable() error {
	switch {
	case a == nil:
		return ErrIncomplete
	case a.Title == "":
		return errors.Join(ErrIncomplete, errors.New("missing title"))
	case len(a.Blocks) == 0:
		return errors.Join(ErrIncomplete, errors.New("no blocks"))
	}
	return nil
}

// Anchors returns the ids of all blocks that declare one, in order.
func (a *Article) Anchors() []string {
	ids := make([]string, 0, len(a.Blocks))
	for _, b := range a.Blocks {
		if id := b.Anchor(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Clone returns a deep copy made through the canonical JSON form.
func (a *Article) Clone() *Article {
	b, err := json.Marshal(a)
	if err != nil {
		cp := *a
		return &cp
	}
	var out Article
	if err := json.Unmarshal(b, &out); err != nil {
		cp := *a
		return &cp
	}
	return &out
}

func (a Article) MarshalJSON() ([]byte, error) {
	type plain Article
	p := plain(a)
	if p.TOC == nil {
		p.TOC = []TOCEntry{}
	}
	if p.Blocks == nil {
		p.Blocks = []Block{}
	}
	return encodeObject("", p, a.Extra)
}

// UnmarshalJSON never fails on shape problems: any syntactically valid JSON
// is normalized into an Article.
func (a *Article) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = *Normalize(raw)
	return nil
}

func (h Hero) MarshalJSON() ([]byte, error) {
	type plain Hero
	return encodeObject("", plain(h), h.Extra)
}

func (i Image) MarshalJSON() ([]byte, error) {
	type plain Image
	return encodeObject("", plain(i), i.Extra)
}

func (s SEO) MarshalJSON() ([]byte, error) {
	type plain SEO
	return encodeObject("", plain(s), s.Extra)
}
