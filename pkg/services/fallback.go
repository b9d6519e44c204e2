package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"vehicle-intel/pkg/models"
	"vehicle-intel/pkg/slug"
)

const (
	fallbackTitle = "Vehicle Intelligence Report"
	fallbackSlug  = "vehicle-intelligence-report"
)

var versusPattern = regexp.MustCompile(`(?i)\s+(?:vs\.?|versus)\s+`)

// Fallback builds a complete article from the prompt alone. It is
// deterministic and cannot fail.
func Fallback(prompt string) *models.Article {
	title := strings.Join(strings.Fields(prompt), " ")
	if title == "" {
		title = fallbackTitle
	}
	s := slug.Make(title)
	if s == "" {
		s = fallbackSlug
	}

	vehicles := vehiclesIn(title)
	subject := strings.Join(vehicles, " and ")

	blocks := []models.Block{
		models.IntroBlock{
			Section: models.Section{ID: "overview", Title: "Overview"},
			Content: fmt.Sprintf("This report looks at %s from a buyer's point of view. "+
				"It covers how each model is positioned, what ownership tends to cost, and which "+
				"kind of driver will be happiest with it. Figures vary by trim, region and model "+
				"year, so confirm current pricing and specifications with a dealer before you buy.", subject),
		},
		comparisonBlock(vehicles),
		models.SpecGridBlock{
			Section: models.Section{ID: "key-specs", Title: "Key Specs to Check"},
			Items: []models.Spec{
				{Label: "Powertrain", Value: "Compare engine output and hybrid availability across trims"},
				{Label: "Fuel economy", Value: "Check official combined ratings for the exact configuration"},
				{Label: "Cargo space", Value: "Measure against your weekly loads, not just the brochure figure"},
				{Label: "Safety", Value: "Look up current crash-test ratings and standard driver aids"},
				{Label: "Warranty", Value: "Compare basic and powertrain coverage terms"},
			},
		},
		models.ProsConsBlock{
			Section: models.Section{ID: "pros-and-cons", Title: "Pros and Cons"},
			Pros: []string{
				"Established nameplates with broad dealer and service networks",
				"Multiple trims make it easy to match budget to features",
				"Strong resale history in their segment",
			},
			Cons: []string{
				"Popular trims can carry dealer markups",
				"Options packages can push prices into the next class",
			},
		},
		models.FAQBlock{
			Section: models.Section{ID: "faq", Title: "Frequently Asked Questions"},
			Items: []models.FAQItem{
				{
					Question: fmt.Sprintf("Which is the better buy: %s?", strings.Join(vehicles, " or ")),
					Answer:   "It depends on how you drive. Compare total cost of ownership over the years you plan to keep the car, then test drive the trims you can afford.",
				},
				{
					Question: "How should I compare fuel costs?",
					Answer:   "Multiply your annual miles by local fuel prices and divide by each vehicle's combined rating.",
				},
				{
					Question: "Is it worth waiting for the next model year?",
					Answer:   "Only if a redesign or a feature you need is confirmed. Outgoing models often carry better incentives.",
				},
			},
		},
	}

	toc := make([]models.TOCEntry, 0, len(blocks))
	for _, b := range blocks {
		toc = append(toc, models.TOCEntry{ID: b.Anchor(), Label: b.Heading()})
	}

	return &models.Article{
		Title:       title,
		Slug:        s,
		Description: fmt.Sprintf("A buyer's overview of %s: positioning, specs to check, pros and cons, and common questions.", subject),
		Hero: models.Hero{
			Headline:    title,
			Subheadline: fmt.Sprintf("What to know before you choose %s.", subject),
			Badges:      []models.Badge{{Label: "Buyer's Guide"}},
		},
		TOC:    toc,
		Blocks: blocks,
		Modules: []models.Module{
			models.TLDRModule{
				Title: "TL;DR",
				Text:  fmt.Sprintf("%s each suit different priorities. Compare ownership costs and test drive before deciding.", capitalize(subject)),
			},
			models.KeyTakeawaysModule{
				Title: "Key Takeaways",
				Items: []string{
					"Match the trim to the features you will actually use",
					"Compare total cost of ownership, not just sticker price",
					"Confirm current specs and incentives with a dealer",
				},
			},
		},
	}
}

// vehiclesIn splits "A vs B" prompts into their subjects.
func vehiclesIn(title string) []string {
	var out []string
	for _, part := range versusPattern.Split(title, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		out = []string{title}
	}
	return out
}

func comparisonBlock(vehicles []string) models.ComparisonTableBlock {
	names := vehicles
	if len(names) < 2 {
		names = append([]string{}, vehicles...)
		names = append(names, "Segment average")
	}
	items := make([]map[string]any, 0, len(names))
	for _, name := range names {
		items = append(items, map[string]any{
			"name":    name,
			"bestFor": "Buyers who value " + strings.ToLower(focusFor(name)),
			"focus":   focusFor(name),
		})
	}
	return models.ComparisonTableBlock{
		Section: models.Section{ID: "comparison", Title: "Head-to-Head Comparison"},
		Columns: []string{"name", "focus", "bestFor"},
		Items:   items,
	}
}

var focusAreas = []string{"Comfort and refinement", "Efficiency and value", "Driving engagement", "Practicality and space"}

func focusFor(name string) string {
	sum := 0
	for _, r := range name {
		sum += int(r)
	}
	return focusAreas[sum%len(focusAreas)]
}

func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
