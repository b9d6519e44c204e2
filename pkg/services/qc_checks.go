package services

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"vehicle-intel/pkg/models"
	"vehicle-intel/pkg/slug"
)

var checks = map[string]check{
	"duplicate.toc-ids":          {run: checkTOCIDs},
	"duplicate.block-ids":        {run: checkBlockIDs},
	"duplicate.repeated-text":    {run: checkRepeatedText},
	"duplicate.faq-questions":    {run: checkFAQQuestions},
	"accessibility.image-alt":    {run: checkImageAlt},
	"accessibility.link-text":    {run: checkLinkText},
	"accessibility.heading-text": {run: checkHeadingText},
	"seo.title-length":           {run: checkTitleLength},
	"seo.description-length":     {run: checkDescriptionLength},
	"seo.slug-format":            {run: checkSlugFormat},
	"seo.canonical-url":          {run: checkCanonicalURL},
	"schema.required-fields":     {run: checkRequiredFields},
	"schema.has-blocks":          {run: checkHasBlocks},
	"schema.toc-anchors":         {run: checkTOCAnchors},
	"schema.comparison-items":    {run: checkComparisonItems},
	"content.intro-present":      {run: checkIntroPresent},
	"content.min-words":          {run: checkMinWords},
	"content.placeholder-text":   {prepare: preparePatterns, run: checkPlaceholderText},
}

func duplicates(values []string) []string {
	seen := map[string]int{}
	for _, v := range values {
		if v != "" {
			seen[v]++
		}
	}
	var dups []string
	for v, n := range seen {
		if n > 1 {
			dups = append(dups, v)
		}
	}
	sort.Strings(dups)
	return dups
}

func checkTOCIDs(a *models.Article, _ *Rule) outcome {
	ids := make([]string, len(a.TOC))
	for i, e := range a.TOC {
		ids[i] = e.ID
	}
	if dups := duplicates(ids); len(dups) > 0 {
		return fail("table of contents repeats ids", map[string]any{"duplicates": dups})
	}
	return pass("table of contents ids are unique")
}

func checkBlockIDs(a *models.Article, _ *Rule) outcome {
	if dups := duplicates(a.Anchors()); len(dups) > 0 {
		return fail("several blocks share an anchor id", map[string]any{"duplicates": dups})
	}
	return pass("block anchors are unique")
}

func normalizedText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func checkRepeatedText(a *models.Article, _ *Rule) outcome {
	var texts []string
	for _, b := range a.Blocks {
		switch v := b.(type) {
		case models.IntroBlock:
			texts = append(texts, normalizedText(v.Content))
		case models.MarkdownBlock:
			texts = append(texts, normalizedText(v.Content))
		}
	}
	if dups := duplicates(texts); len(dups) > 0 {
		return fail(fmt.Sprintf("%d passage(s) appear more than once", len(dups)), map[string]any{"count": len(dups)})
	}
	return pass("no repeated passages")
}

func checkFAQQuestions(a *models.Article, _ *Rule) outcome {
	var questions []string
	for _, b := range a.Blocks {
		if faq, ok := b.(models.FAQBlock); ok {
			for _, item := range faq.Items {
				questions = append(questions, normalizedText(item.Question))
			}
		}
	}
	if dups := duplicates(questions); len(dups) > 0 {
		return fail("FAQ repeats questions", map[string]any{"duplicates": dups})
	}
	return pass("FAQ questions are unique")
}

func checkImageAlt(a *models.Article, _ *Rule) outcome {
	var missing []string
	if img := a.Hero.Image; img != nil && strings.TrimSpace(img.Alt) == "" {
		missing = append(missing, img.URL)
	}
	for _, b := range a.Blocks {
		if g, ok := b.(models.GalleryBlock); ok {
			for _, img := range g.Images {
				if strings.TrimSpace(img.Alt) == "" {
					missing = append(missing, img.URL)
				}
			}
		}
	}
	if len(missing) > 0 {
		return fail(fmt.Sprintf("%d image(s) lack alt text", len(missing)), map[string]any{"images": missing})
	}
	return pass("all images have alt text")
}

func checkLinkText(a *models.Article, r *Rule) outcome {
	vague := map[string]bool{}
	for _, v := range paramStrings(r, "vague") {
		vague[strings.ToLower(v)] = true
	}
	ctas := []*models.CTA{a.Hero.CTA}
	for _, b := range a.Blocks {
		if banner, ok := b.(models.CTABannerBlock); ok {
			ctas = append(ctas, banner.CTA)
		}
	}
	var bad []string
	for _, c := range ctas {
		if c == nil {
			continue
		}
		label := strings.TrimSpace(c.Label)
		if label == "" || vague[strings.ToLower(label)] {
			bad = append(bad, label)
		}
	}
	if len(bad) > 0 {
		return fail("call-to-action labels are empty or vague", map[string]any{"labels": bad})
	}
	return pass("call-to-action labels are descriptive")
}

func checkHeadingText(a *models.Article, _ *Rule) outcome {
	var untitled []int
	for i, b := range a.Blocks {
		if i == 0 {
			continue
		}
		if strings.TrimSpace(b.Heading()) == "" {
			untitled = append(untitled, i)
		}
	}
	if len(untitled) > 0 {
		return fail(fmt.Sprintf("%d block(s) have no heading", len(untitled)), map[string]any{"blocks": untitled})
	}
	return pass("blocks have headings")
}

func lengthOutcome(what, s string, r *Rule, defMin, defMax int) outcome {
	min, max := paramInt(r, "min", defMin), paramInt(r, "max", defMax)
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	details := map[string]any{"length": n, "min": min, "max": max}
	if n < min || n > max {
		return fail(fmt.Sprintf("%s is %d characters, want %d-%d", what, n, min, max), details)
	}
	return outcome{passed: true, message: fmt.Sprintf("%s length is %d", what, n), details: details}
}

func checkTitleLength(a *models.Article, r *Rule) outcome {
	return lengthOutcome("title", a.Title, r, 20, 70)
}

func checkDescriptionLength(a *models.Article, r *Rule) outcome {
	return lengthOutcome("description", a.Description, r, 50, 160)
}

func checkSlugFormat(a *models.Article, _ *Rule) outcome {
	if !slug.Valid(a.Slug) {
		return fail("slug is empty or not canonical", map[string]any{"slug": a.Slug, "suggested": slug.Make(a.Slug)})
	}
	return pass("slug is canonical")
}

func checkCanonicalURL(a *models.Article, _ *Rule) outcome {
	if a.SEO == nil || a.SEO.Canonical == "" {
		return pass("no canonical URL set")
	}
	u, err := url.Parse(a.SEO.Canonical)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fail("canonical URL is not absolute", map[string]any{"canonical": a.SEO.Canonical})
	}
	return pass("canonical URL is absolute")
}

func checkRequiredFields(a *models.Article, _ *Rule) outcome {
	var missing []string
	if strings.TrimSpace(a.Title) == "" {
		missing = append(missing, "title")
	}
	if a.Slug == "" {
		missing = append(missing, "slug")
	}
	if strings.TrimSpace(a.Hero.Headline) == "" {
		missing = append(missing, "hero.headline")
	}
	if len(missing) > 0 {
		return fail("required fields are missing", map[string]any{"fields": missing})
	}
	return pass("required fields are present")
}

func checkHasBlocks(a *models.Article, _ *Rule) outcome {
	if len(a.Blocks) == 0 {
		return fail("article has no blocks", nil)
	}
	return pass(fmt.Sprintf("article has %d blocks", len(a.Blocks)))
}

func checkTOCAnchors(a *models.Article, _ *Rule) outcome {
	anchors := map[string]bool{}
	for _, id := range a.Anchors() {
		anchors[id] = true
	}
	var dangling []string
	for _, e := range a.TOC {
		if !anchors[e.ID] {
			dangling = append(dangling, e.ID)
		}
	}
	if len(dangling) > 0 {
		return fail("table of contents points at missing blocks", map[string]any{"ids": dangling})
	}
	return pass("table of contents resolves")
}

func checkComparisonItems(a *models.Article, r *Rule) outcome {
	min := paramInt(r, "min", 2)
	var thin []string
	for i, b := range a.Blocks {
		if t, ok := b.(models.ComparisonTableBlock); ok && len(t.Items) < min {
			name := t.ID
			if name == "" {
				name = fmt.Sprintf("blocks[%d]", i)
			}
			thin = append(thin, name)
		}
	}
	if len(thin) > 0 {
		return fail(fmt.Sprintf("comparison tables need at least %d items", min), map[string]any{"blocks": thin})
	}
	return pass("comparison tables are populated")
}

func checkIntroPresent(a *models.Article, _ *Rule) outcome {
	for _, b := range a.Blocks {
		if b.Kind() == models.BlockIntro {
			return pass("intro block present")
		}
	}
	return fail("no intro block", nil)
}

func checkMinWords(a *models.Article, r *Rule) outcome {
	min := paramInt(r, "min", 300)
	n := len(strings.Fields(a.BodyText()))
	details := map[string]any{"words": n, "min": min}
	if n < min {
		return fail(fmt.Sprintf("article has %d words, want at least %d", n, min), details)
	}
	return outcome{passed: true, message: fmt.Sprintf("article has %d words", n), details: details}
}

func preparePatterns(r *Rule) error {
	for _, p := range paramStrings(r, "patterns") {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("pattern %q: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}
	return nil
}

func checkPlaceholderText(a *models.Article, r *Rule) outcome {
	text := a.BodyText()
	var found []string
	for _, re := range r.patterns {
		if m := re.FindString(text); m != "" {
			found = append(found, m)
		}
	}
	if len(found) > 0 {
		return fail("placeholder text found", map[string]any{"matches": found})
	}
	return pass("no placeholder text")
}
