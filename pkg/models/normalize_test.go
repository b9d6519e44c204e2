package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

// roundTrip feeds an article back through its JSON form.
func roundTrip(t *testing.T, a *Article) *Article {
	t.Helper()
	b, err := json.Marshal(a)
	require.NoError(t, err)
	return Normalize(decode(t, string(b)))
}

func TestNormalizeTotality(t *testing.T) {
	inputs := []string{
		`null`, `true`, `42`, `"text"`, `[]`, `[1, {"title": "x"}]`, `{}`,
		`{"toc": "nope", "blocks": "nope"}`,
		`{"toc": null, "blocks": null, "hero": 7, "modules": {"a": 1}, "seo": []}`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			var a *Article
			assert.NotPanics(t, func() { a = Normalize(decode(t, in)) })
			require.NotNil(t, a)
			assert.NotNil(t, a.TOC)
			assert.NotNil(t, a.Blocks)

			b, err := json.Marshal(a)
			require.NoError(t, err)
			var shape map[string]any
			require.NoError(t, json.Unmarshal(b, &shape))
			assert.IsType(t, []any{}, shape["toc"])
			assert.IsType(t, []any{}, shape["blocks"])
		})
	}
}

func TestNormalizeHeroRepairs(t *testing.T) {
	a := Normalize(decode(t, `{
		"title": "2026 Honda Accord Review",
		"tldr": "The Accord stays the benchmark.",
		"hero": {"image": "https://cdn.example.com/accord.jpg", "badges": ["Hybrid", {"label": "Top Pick"}]}
	}`))

	assert.Equal(t, "2026 Honda Accord Review", a.Hero.Headline)
	assert.Equal(t, "The Accord stays the benchmark.", a.Hero.Subheadline)
	require.NotNil(t, a.Hero.Image)
	assert.Equal(t, "https://cdn.example.com/accord.jpg", a.Hero.Image.URL)
	assert.Equal(t, "2026 Honda Accord Review", a.Hero.Image.Alt)
	assert.Equal(t, []Badge{{Label: "Hybrid"}, {Label: "Top Pick"}}, a.Hero.Badges)
	assert.Equal(t, "2026-honda-accord-review", a.Slug)
	assert.Equal(t, "The Accord stays the benchmark.", a.Extra["tldr"])
}

func TestNormalizeHeroImageSrc(t *testing.T) {
	a := Normalize(decode(t, `{"title": "Camry", "hero": {"headline": "Camry Hybrid", "image": {"src": "/img/camry.png"}}}`))

	require.NotNil(t, a.Hero.Image)
	assert.Equal(t, "/img/camry.png", a.Hero.Image.URL)
	assert.Equal(t, "Camry Hybrid", a.Hero.Image.Alt)
	assert.Equal(t, "/img/camry.png", a.Hero.Image.Extra["src"])
}

func TestNormalizeTitleFromHero(t *testing.T) {
	a := Normalize(decode(t, `{"hero": {"headline": "Best Midsize Sedans"}}`))
	assert.Equal(t, "Best Midsize Sedans", a.Title)
	assert.Equal(t, "best-midsize-sedans", a.Slug)

	a = Normalize(decode(t, `{"hero": "Cheapest Hybrids of 2026"}`))
	assert.Equal(t, "Cheapest Hybrids of 2026", a.Title)
	assert.Equal(t, "cheapest-hybrids-of-2026", a.Slug)
	assert.Equal(t, "Cheapest Hybrids of 2026", a.Hero.Headline)
}

func TestNormalizeTOC(t *testing.T) {
	a := Normalize(decode(t, `{"toc": ["Key Specs", {"title": "Pros & Cons"}, {"id": "faq", "label": "FAQ"}]}`))

	assert.Equal(t, []TOCEntry{
		{ID: "key-specs", Label: "Key Specs"},
		{ID: "pros-cons", Label: "Pros & Cons"},
		{ID: "faq", Label: "FAQ"},
	}, a.TOC)
}

func TestNormalizeUnknownBlockBecomesMarkdown(t *testing.T) {
	cases := map[string]string{
		`{"type": "videoEmbed", "content": "watch this"}`: "watch this",
		`{"type": "chart", "text": "sales chart"}`:        "sales chart",
		`{"type": "widget", "data": {"x": 1}}`:            `{"data":{"x":1},"type":"widget"}`,
		`{"content": "untagged"}`:                         "untagged",
		`"just a string"`:                                 "just a string",
	}
	for in, want := range cases {
		a := Normalize(decode(t, `{"blocks": [`+in+`]}`))
		require.Len(t, a.Blocks, 1, in)
		md, ok := a.Blocks[0].(MarkdownBlock)
		require.True(t, ok, "block %s coerced to %T", in, a.Blocks[0])
		assert.Equal(t, BlockMarkdown, md.Kind())
		assert.Equal(t, want, md.Content, in)
	}
}

func TestNormalizeAliasesAreNotLost(t *testing.T) {
	a := Normalize(decode(t, `{"toc": [null, "Specs"], "blocks": [
		{"type": "prosCons", "pros": "", "advantages": ["Quiet cabin"], "cons": [], "disadvantages": "Small trunk"},
		{"type": "faq", "items": [{"q": "Range?", "a": {"epa": 310}}]}
	]}`))

	assert.Equal(t, []TOCEntry{{ID: "specs", Label: "Specs"}}, a.TOC)

	require.Len(t, a.Blocks, 2)
	pc := a.Blocks[0].(ProsConsBlock)
	assert.Equal(t, []string{"Quiet cabin"}, pc.Pros)
	assert.Equal(t, []string{"Small trunk"}, pc.Cons)

	faq := a.Blocks[1].(FAQBlock)
	assert.Equal(t, []FAQItem{{Question: "Range?", Answer: `{"epa":310}`}}, faq.Items)
}

func TestNormalizeBlockDefaults(t *testing.T) {
	a := Normalize(decode(t, `{"blocks": [
		{"type": "comparisonTable", "title": "Head to Head"},
		{"type": "prosCons"},
		{"type": "faq", "faqs": [{"q": "Is it reliable?", "a": "Yes."}]},
		{"type": "specGrid", "specs": {"Horsepower": "192 hp", "MPG": 48}},
		{"type": "gallery", "images": ["/a.jpg", {"src": "/b.jpg", "alt": "Rear"}]}
	]}`))
	require.Len(t, a.Blocks, 5)

	table := a.Blocks[0].(ComparisonTableBlock)
	assert.Equal(t, "head-to-head", table.ID)
	assert.NotNil(t, table.Items)
	assert.Empty(t, table.Items)

	pc := a.Blocks[1].(ProsConsBlock)
	assert.NotNil(t, pc.Pros)
	assert.NotNil(t, pc.Cons)

	faq := a.Blocks[2].(FAQBlock)
	assert.Equal(t, []FAQItem{{Question: "Is it reliable?", Answer: "Yes."}}, faq.Items)

	grid := a.Blocks[3].(SpecGridBlock)
	assert.Equal(t, []Spec{{Label: "Horsepower", Value: "192 hp"}, {Label: "MPG", Value: "48"}}, grid.Items)

	gallery := a.Blocks[4].(GalleryBlock)
	require.Len(t, gallery.Images, 2)
	assert.Equal(t, "/a.jpg", gallery.Images[0].URL)
	assert.Equal(t, "/b.jpg", gallery.Images[1].URL)
	assert.Equal(t, "Rear", gallery.Images[1].Alt)
}

func TestNormalizeModules(t *testing.T) {
	t.Run("non-array is dropped", func(t *testing.T) {
		a := Normalize(decode(t, `{"title": "x", "modules": {"type": "tldr"}}`))
		assert.Nil(t, a.Modules)
		assert.NotContains(t, a.Extra, "modules")
	})

	t.Run("variants", func(t *testing.T) {
		a := Normalize(decode(t, `{"modules": [
			{"type": "tldr", "text": "Short version"},
			{"type": "quiz", "questions": [{"question": "Which is quicker?", "options": ["Accord", "Camry"], "answer": "Camry"}]},
			{"type": "mpg_calculator", "vehicles": [{"name": "Accord Hybrid", "mpg": "48"}], "fuelPrice": 3.5},
			{"type": "confetti", "amount": 3},
			"junk"
		]}`))
		require.Len(t, a.Modules, 4)

		assert.Equal(t, TLDRModule{Text: "Short version"}, a.Modules[0])
		quiz := a.Modules[1].(QuizModule)
		assert.Equal(t, 1, quiz.Questions[0].Answer)
		mpg := a.Modules[2].(MPGCalculatorModule)
		assert.Equal(t, 48.0, mpg.Vehicles[0].MPG)
		assert.Equal(t, 3.5, mpg.FuelPrice)
		unknown := a.Modules[3].(UnknownModule)
		assert.Equal(t, ModuleType("confetti"), unknown.Kind())
		assert.Equal(t, map[string]any{"amount": 3.0}, unknown.Fields)
	})
}

func TestNormalizePreservesUnknownFields(t *testing.T) {
	a := Normalize(decode(t, `{"title": "x", "author": {"name": "Staff"}, "blocks": [{"type": "intro", "content": "hi", "tone": "warm"}]}`))

	assert.Equal(t, map[string]any{"name": "Staff"}, a.Extra["author"])
	intro := a.Blocks[0].(IntroBlock)
	assert.Equal(t, "warm", intro.Extra["tone"])

	b, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"author":{"name":"Staff"}`)
	assert.Contains(t, string(b), `"tone":"warm"`)
}

func TestNormalizeTimestamps(t *testing.T) {
	a := Normalize(decode(t, `{"publishedAt": "2026-03-01T10:00:00+02:00", "updatedAt": "last tuesday"}`))
	require.NotNil(t, a.PublishedAt)
	assert.Equal(t, "2026-03-01T08:00:00Z", a.PublishedAt.Format("2006-01-02T15:04:05Z07:00"))
	assert.Nil(t, a.UpdatedAt)
	assert.Equal(t, "last tuesday", a.Extra["updatedAt"])
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		`{}`,
		`"scalar root"`,
		`{"hero": "Head", "modules": {"a": 1}}`,
		`{"toc": [null, "Specs"], "blocks": [
		  {"type": "prosCons", "pros": "", "advantages": ["Quiet cabin"], "cons": [], "disadvantages": "Small trunk"},
		  {"type": "faq", "items": [{"q": "Range?", "a": {"epa": 310, "real": 280}}]}]}`,
		`{"title": "Accord vs Camry", "tldr": "Close fight", "hero": {"image": {"src": "/x.png"}, "cta": "Read"},
		  "toc": ["Overview", {"title": "Specs"}, 3],
		  "blocks": [
			{"type": "intro", "text": ["para one", "para two"]},
			{"type": "comparisonTable", "rows": [{"name": "Accord", "hp": 192}, "Camry"], "headers": "Model"},
			{"type": "specGrid", "items": ["bare", {"name": "Torque", "value": 247}]},
			{"type": "prosCons", "pros": "Roomy", "cons": [{"text": "Pricey"}]},
			{"type": "faq", "items": ["Why?", {"question": "How?", "answer": {"long": true}}]},
			{"type": "ctaBanner", "title": "Shop now", "buttonLabel": "Browse", "url": "/shop"},
			{"type": "gallery", "images": [{"src": "/g.jpg"}, ""]},
			{"type": "mystery", "heading": "Odd One", "payload": [1, 2]},
			null
		  ],
		  "modules": [{"type": "reviews", "reviews": [{"name": "Ana", "stars": "4.5", "body": "Great"}]},
		              {"type": "dropdown", "sections": [{"label": "Warranty", "answer": "5 years"}]},
		              {"type": "pull_quote", "text": "Best sedan", "author": "Editors"},
		              {"type": "key_takeaways", "points": ["one"]},
		              {"type": "quiz", "items": [{"q": "Pick", "choices": ["a"], "answer": 7}]},
		              {"type": "novel", "x": null}],
		  "seo": {"canonical": "https://example.com/a", "schema": {"@type": "Article"}, "robots": "index"},
		  "publishedAt": "2026-01-02T03:04:05.123456789Z",
		  "updatedAt": 12345,
		  "custom": [true, null]}`,
	}
	for _, in := range inputs {
		once := Normalize(decode(t, in))
		twice := roundTrip(t, once)
		assert.Equal(t, once, twice, "input %s", in)

		direct := Normalize(once)
		assert.Equal(t, once, direct)
	}
}

func TestUnmarshalRunsNormalizer(t *testing.T) {
	var a Article
	require.NoError(t, json.Unmarshal([]byte(`{"title": "Hello World", "blocks": [{"type": "nope", "text": "x"}]}`), &a))
	assert.Equal(t, "hello-world", a.Slug)
	assert.Equal(t, BlockMarkdown, a.Blocks[0].Kind())
}

func TestNormalizeYAMLInput(t *testing.T) {
	var raw any
	require.NoError(t, yaml.Unmarshal([]byte("title: Civic Type R\nblocks:\n  - type: intro\n    content: Hot hatch.\n"), &raw))

	a := Normalize(raw)
	assert.Equal(t, "civic-type-r", a.Slug)
	require.Len(t, a.Blocks, 1)
	assert.Equal(t, IntroBlock{Section: Section{}, Content: "Hot hatch."}, a.Blocks[0])
}

func TestCheckRenderable(t *testing.T) {
	assert.ErrorIs(t, Normalize(decode(t, `{}`)).CheckRenderable(), ErrIncomplete)
	assert.ErrorIs(t, Normalize(decode(t, `{"title": "x"}`)).CheckRenderable(), ErrIncomplete)
	assert.NoError(t, Normalize(decode(t, `{"title": "x", "blocks": [{"type": "intro"}]}`)).CheckRenderable())
}
