package models

import (
	"encoding/json"
	"fmt"
	"time"

	"vehicle-intel/pkg/slug"
)

// Normalize coerces any decoded JSON (or YAML) value into an Article. It is
// total and idempotent: it never fails, a non-object root is treated as an
// empty object, and Normalize of a normalized article is the same article.
//
// Repairs, in order: hero synthesis, hero image shape, toc entries, block
// types and per-type defaults, and dropping a non-array modules value. Fields
// the schema does not know are kept in Extra.
func Normalize(candidate any) *Article {
	root, ok := sanitizeValue(candidate).(map[string]any)
	if !ok {
		root = map[string]any{}
	}
	f := newFields(root)
	f.used = map[string]struct{}{}

	a := &Article{Title: f.str("title")}

	heroRaw, _ := f.take("hero")
	a.Hero = coerceHero(heroRaw, a.Title, f.peek("tldr", "summary"))
	if a.Title == "" {
		// Covers hero objects and bare hero strings alike.
		a.Title = a.Hero.Headline
	}

	a.Slug = slug.Make(f.str("slug"))
	if a.Slug == "" {
		a.Slug = slug.Make(a.Title)
	}
	a.Description = f.str("description")

	tocRaw, _ := f.take("toc")
	a.TOC = coerceTOC(tocRaw)

	blocksRaw, _ := f.take("blocks")
	a.Blocks = coerceBlocks(blocksRaw)

	if modulesRaw, ok := f.take("modules"); ok {
		a.Modules = coerceModules(modulesRaw)
	}

	if seoRaw, ok := f.take("seo"); ok {
		a.SEO = coerceSEO(seoRaw)
	}

	if t, ok := parseTime(root["publishedAt"]); ok {
		a.PublishedAt = t
		f.mark("publishedAt")
	}
	if t, ok := parseTime(root["updatedAt"]); ok {
		a.UpdatedAt = t
		f.mark("updatedAt")
	}

	f.claim("title", "slug", "description")
	a.Extra = f.rest()
	return a
}

func coerceHero(raw any, title, tldr string) Hero {
	var obj map[string]any
	switch v := raw.(type) {
	case map[string]any:
		obj = v
	case string:
		obj = map[string]any{"headline": v}
	default:
		obj = map[string]any{}
	}
	f := newFields(obj)
	f.used = map[string]struct{}{}

	h := Hero{Headline: f.str("headline", "title")}
	if h.Headline == "" {
		h.Headline = title
	}
	h.Subheadline = f.str("subheadline", "subtitle")
	if h.Subheadline == "" {
		h.Subheadline = f.peek("tldr")
	}
	if h.Subheadline == "" {
		h.Subheadline = tldr
	}

	alt := h.Headline
	if alt == "" {
		alt = title
	}
	if img, ok := f.take("image"); ok {
		h.Image = coerceImage(img, alt)
	}

	if raw, ok := f.list("badges"); ok {
		for _, item := range raw {
			if label := itemText(item); label != "" {
				h.Badges = append(h.Badges, Badge{Label: label})
			}
		}
	}
	if raw, ok := f.take("cta"); ok {
		h.CTA = coerceCTA(raw)
	}

	f.claim("headline", "subheadline", "image", "badges", "cta")
	h.Extra = f.rest()
	return h
}

func coerceTOC(raw any) []TOCEntry {
	out := []TOCEntry{}
	arr, ok := raw.([]any)
	if !ok {
		return out
	}
	for _, item := range arr {
		switch v := item.(type) {
		case nil:
			continue
		case map[string]any:
			f := newFields(v)
			label := f.str("label", "title", "text")
			id := f.str("id", "anchor")
			if id == "" {
				id = slug.Make(label)
			}
			out = append(out, TOCEntry{ID: id, Label: label})
		default:
			label := bestText(v)
			out = append(out, TOCEntry{ID: slug.Make(label), Label: label})
		}
	}
	return out
}

func coerceBlocks(raw any) []Block {
	var arr []any
	switch v := raw.(type) {
	case []any:
		arr = v
	case map[string]any:
		// A single block object where a list was expected.
		arr = []any{v}
	}
	out := make([]Block, 0, len(arr))
	for _, item := range arr {
		out = append(out, coerceBlock(item))
	}
	return out
}

func coerceSEO(raw any) *SEO {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	f := newFields(obj)
	f.used = map[string]struct{}{}
	s := &SEO{
		Canonical: f.str("canonical", "canonicalUrl"),
		OGImage:   f.str("ogImage", "og_image"),
	}
	if v, ok := f.take("schema"); ok && v != nil {
		s.Schema = v
	}
	f.claim("canonical", "ogImage", "schema")
	s.Extra = f.rest()
	return s
}

// sanitizeValue turns decoder output into plain JSON-shaped values:
// map[string]any, []any, string, float64, bool and nil.
func sanitizeValue(value any) any {
	switch v := value.(type) {
	case nil, string, bool, float64:
		return v
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, inner := range v {
			out[k] = sanitizeValue(inner)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]any, len(v))
		for k, inner := range v {
			out[fmt.Sprint(k)] = sanitizeValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = sanitizeValue(v[i])
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return v.String()
		}
		return n
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	default:
		// Typed values (including *Article) go through their JSON form.
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		var out any
		if err := json.Unmarshal(b, &out); err != nil {
			return nil
		}
		return out
	}
}
