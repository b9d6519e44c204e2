package models

import "math"

type ModuleType string

const (
	ModuleTLDR          ModuleType = "tldr"
	ModuleKeyTakeaways  ModuleType = "key_takeaways"
	ModuleQuiz          ModuleType = "quiz"
	ModuleMPGCalculator ModuleType = "mpg_calculator"
	ModulePullQuote     ModuleType = "pull_quote"
	ModuleDropdown      ModuleType = "dropdown"
	ModuleReviews       ModuleType = "reviews"
)

// Module is an optional widget attached to an article. Modules never affect
// validity; tags we do not know are kept as UnknownModule.
type Module interface {
	Kind() ModuleType
}

type TLDRModule struct {
	Title  string   `json:"title,omitempty"`
	Text   string   `json:"text"`
	Points []string `json:"points,omitempty"`

	Extra map[string]any `json:"-"`
}

type KeyTakeawaysModule struct {
	Title string   `json:"title,omitempty"`
	Items []string `json:"items"`

	Extra map[string]any `json:"-"`
}

type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      int      `json:"answer"` // index into Options, -1 when unknown
	Explanation string   `json:"explanation,omitempty"`
}

type QuizModule struct {
	Title     string         `json:"title,omitempty"`
	Questions []QuizQuestion `json:"questions"`

	Extra map[string]any `json:"-"`
}

type MPGVehicle struct {
	Name string  `json:"name"`
	MPG  float64 `json:"mpg"`
}

type MPGCalculatorModule struct {
	Title       string       `json:"title,omitempty"`
	Vehicles    []MPGVehicle `json:"vehicles"`
	FuelPrice   float64      `json:"fuelPrice,omitempty"`
	AnnualMiles float64      `json:"annualMiles,omitempty"`

	Extra map[string]any `json:"-"`
}

type PullQuoteModule struct {
	Quote       string `json:"quote"`
	Attribution string `json:"attribution,omitempty"`

	Extra map[string]any `json:"-"`
}

type DropdownItem struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type DropdownModule struct {
	Title string         `json:"title,omitempty"`
	Items []DropdownItem `json:"items"`

	Extra map[string]any `json:"-"`
}

type Review struct {
	Author string  `json:"author,omitempty"`
	Rating float64 `json:"rating,omitempty"`
	Text   string  `json:"text"`
	Source string  `json:"source,omitempty"`
}

type ReviewsModule struct {
	Title string   `json:"title,omitempty"`
	Items []Review `json:"items"`

	Extra map[string]any `json:"-"`
}

// UnknownModule keeps a module whose tag is not recognized, verbatim.
type UnknownModule struct {
	Type   string
	Fields map[string]any
}

func (TLDRModule) Kind() ModuleType          { return ModuleTLDR }
func (KeyTakeawaysModule) Kind() ModuleType  { return ModuleKeyTakeaways }
func (QuizModule) Kind() ModuleType          { return ModuleQuiz }
func (MPGCalculatorModule) Kind() ModuleType { return ModuleMPGCalculator }
func (PullQuoteModule) Kind() ModuleType     { return ModulePullQuote }
func (DropdownModule) Kind() ModuleType      { return ModuleDropdown }
func (ReviewsModule) Kind() ModuleType       { return ModuleReviews }
func (m UnknownModule) Kind() ModuleType     { return ModuleType(m.Type) }

func (m TLDRModule) MarshalJSON() ([]byte, error) {
	type plain TLDRModule
	return encodeObject(string(ModuleTLDR), plain(m), m.Extra)
}

func (m KeyTakeawaysModule) MarshalJSON() ([]byte, error) {
	type plain KeyTakeawaysModule
	return encodeObject(string(ModuleKeyTakeaways), plain(m), m.Extra)
}

func (m QuizModule) MarshalJSON() ([]byte, error) {
	type plain QuizModule
	return encodeObject(string(ModuleQuiz), plain(m), m.Extra)
}

func (m MPGCalculatorModule) MarshalJSON() ([]byte, error) {
	type plain MPGCalculatorModule
	return encodeObject(string(ModuleMPGCalculator), plain(m), m.Extra)
}

func (m PullQuoteModule) MarshalJSON() ([]byte, error) {
	type plain PullQuoteModule
	return encodeObject(string(ModulePullQuote), plain(m), m.Extra)
}

func (m DropdownModule) MarshalJSON() ([]byte, error) {
	type plain DropdownModule
	return encodeObject(string(ModuleDropdown), plain(m), m.Extra)
}

func (m ReviewsModule) MarshalJSON() ([]byte, error) {
	type plain ReviewsModule
	return encodeObject(string(ModuleReviews), plain(m), m.Extra)
}

func (m UnknownModule) MarshalJSON() ([]byte, error) {
	return encodeObject(m.Type, struct{}{}, m.Fields)
}

var moduleCoercers = map[ModuleType]func(*fields) Module{
	ModuleTLDR:          coerceTLDR,
	ModuleKeyTakeaways:  coerceKeyTakeaways,
	ModuleQuiz:          coerceQuiz,
	ModuleMPGCalculator: coerceMPGCalculator,
	ModulePullQuote:     coercePullQuote,
	ModuleDropdown:      coerceDropdown,
	ModuleReviews:       coerceReviews,
}

// coerceModules is best-effort: a non-array value yields no modules at all
// and entries that are not tagged objects are skipped.
func coerceModules(raw any) []Module {
	arr, ok := raw.([]any)
	if !ok {
		return nil
	}
	var out []Module
	for _, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		tag, _ := obj["type"].(string)
		if tag == "" {
			continue
		}
		f := newFields(obj)
		coerce, known := moduleCoercers[ModuleType(tag)]
		if !known {
			out = append(out, UnknownModule{Type: tag, Fields: f.rest()})
			continue
		}
		out = append(out, coerce(f))
	}
	return out
}

func coerceTLDR(f *fields) Module {
	m := TLDRModule{Title: f.str("title"), Text: f.text("text", "content", "summary")}
	if points := f.strings("points", "bullets", "items"); len(points) > 0 {
		m.Points = points
	}
	f.claim("title", "text", "points")
	m.Extra = f.rest()
	return m
}

func coerceKeyTakeaways(f *fields) Module {
	m := KeyTakeawaysModule{Title: f.str("title"), Items: f.strings("items", "takeaways", "points")}
	f.claim("title", "items")
	m.Extra = f.rest()
	return m
}

func coerceQuiz(f *fields) Module {
	m := QuizModule{Title: f.str("title"), Questions: []QuizQuestion{}}
	if raw, ok := f.list("questions", "items"); ok {
		for _, item := range raw {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			qf := newFields(obj)
			q := QuizQuestion{
				Question:    qf.str("question", "q", "title"),
				Options:     qf.strings("options", "choices", "answers"),
				Explanation: qf.str("explanation"),
				Answer:      -1,
			}
			q.Answer = quizAnswer(qf, q.Options)
			m.Questions = append(m.Questions, q)
		}
	}
	f.claim("title", "questions")
	m.Extra = f.rest()
	return m
}

// quizAnswer accepts an option index or the text of the correct option.
func quizAnswer(f *fields, options []string) int {
	for _, key := range []string{"answer", "correct", "correctIndex"} {
		v, ok := f.m[key]
		if !ok {
			continue
		}
		if n, ok := v.(float64); ok && n == math.Trunc(n) && n >= 0 && int(n) < len(options) {
			return int(n)
		}
		if s, ok := v.(string); ok {
			for i, opt := range options {
				if opt == s {
					return i
				}
			}
		}
	}
	return -1
}

func coerceMPGCalculator(f *fields) Module {
	m := MPGCalculatorModule{Title: f.str("title"), Vehicles: []MPGVehicle{}}
	if raw, ok := f.list("vehicles", "items"); ok {
		for _, item := range raw {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			vf := newFields(obj)
			mpg, _ := vf.number("mpg", "combinedMpg", "combined")
			m.Vehicles = append(m.Vehicles, MPGVehicle{Name: vf.str("name", "label", "model"), MPG: mpg})
		}
	}
	m.FuelPrice, _ = f.number("fuelPrice", "fuel_price")
	m.AnnualMiles, _ = f.number("annualMiles", "annual_miles")
	f.claim("title", "vehicles", "fuelPrice", "annualMiles")
	m.Extra = f.rest()
	return m
}

func coercePullQuote(f *fields) Module {
	m := PullQuoteModule{
		Quote:       f.text("quote", "text", "content"),
		Attribution: f.str("attribution", "author", "source"),
	}
	f.claim("quote", "attribution")
	m.Extra = f.rest()
	return m
}

func coerceDropdown(f *fields) Module {
	m := DropdownModule{Title: f.str("title"), Items: []DropdownItem{}}
	if raw, ok := f.list("items", "sections"); ok {
		for _, item := range raw {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			df := newFields(obj)
			m.Items = append(m.Items, DropdownItem{
				Title:   df.str("title", "label", "question"),
				Content: df.text("content", "text", "answer"),
			})
		}
	}
	f.claim("title", "items")
	m.Extra = f.rest()
	return m
}

func coerceReviews(f *fields) Module {
	m := ReviewsModule{Title: f.str("title"), Items: []Review{}}
	if raw, ok := f.list("items", "reviews"); ok {
		for _, item := range raw {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			rf := newFields(obj)
			rating, _ := rf.number("rating", "stars")
			m.Items = append(m.Items, Review{
				Author: rf.str("author", "name"),
				Rating: rating,
				Text:   rf.text("text", "content", "body"),
				Source: rf.str("source"),
			})
		}
	}
	f.claim("title", "items")
	m.Extra = f.rest()
	return m
}
