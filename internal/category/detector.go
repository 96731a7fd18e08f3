package category

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/aletheia/internal/llm"
)

// General is the category assigned when no keywords match
const General = "general"

// categoryTable lists categories in priority order: on a tied keyword
// count the earlier category wins.
var categoryTable = []struct {
	name     string
	keywords []string
}{
	{"politics", []string{
		"election", "vote", "government", "minister", "parliament", "political", "party",
		"democracy", "president", "prime minister", "congress", "bjp", "aap", "modi",
		"rahul", "kejriwal", "politician", "policy", "law", "bill", "assembly",
	}},
	{"games", []string{
		"game", "gaming", "player", "tournament", "cricket", "football", "soccer",
		"basketball", "tennis", "olympics", "match", "score", "team", "championship",
		"esports", "video game", "console", "mobile game",
	}},
	{"bollywood", []string{
		"bollywood", "actor", "actress", "movie", "film", "director", "producer",
		"song", "music", "album", "celebrity", "star", "release", "box office",
		"award", "oscar", "filmfare", "khan", "kapoor", "bhatt",
	}},
	{"news", []string{
		"news", "report", "breaking", "headline", "journalist", "media", "press",
		"announcement", "update", "latest", "recent", "happened", "incident",
	}},
	{"farmers", []string{
		"farmer", "agriculture", "crop", "harvest", "farming", "field", "land",
		"irrigation", "subsidy", "mandi", "kisan", "agricultural", "rural",
		"village", "crop price", "msp", "farmer protest",
	}},
	{"animals", []string{
		"animal", "dog", "cat", "bird", "wildlife", "tiger", "elephant", "lion",
		"pet", "veterinary", "zoo", "conservation", "endangered", "species",
		"cattle", "livestock", "cow", "buffalo",
	}},
	{"sports", []string{
		"sport", "athlete", "coach", "stadium", "league", "cup", "medal", "gold",
		"silver", "bronze", "champion", "world cup", "olympic", "cricket", "football",
	}},
	{"technology", []string{
		"tech", "technology", "computer", "software", "app", "mobile", "phone",
		"internet", "ai", "artificial intelligence", "robot", "digital", "cyber",
		"startup", "innovation", "gadget", "device",
	}},
	{"health", []string{
		"health", "medical", "doctor", "hospital", "disease", "medicine", "treatment",
		"patient", "covid", "vaccine", "healthcare", "surgery", "clinic", "diagnosis",
	}},
	{"education", []string{
		"education", "school", "college", "university", "student", "teacher",
		"exam", "degree", "course", "learning", "academic", "study", "research",
	}},
	{"business", []string{
		"business", "company", "corporate", "market", "stock", "economy", "trade",
		"industry", "revenue", "profit", "investment", "bank", "finance", "startup",
	}},
	{"entertainment", []string{
		"entertainment", "tv", "television", "show", "series", "comedy", "drama",
		"reality show", "youtube", "streaming", "netflix", "amazon prime",
	}},
	{"science", []string{
		"science", "scientist", "research", "study", "experiment", "discovery",
		"laboratory", "theory", "hypothesis", "data", "analysis", "publication",
	}},
	{"environment", []string{
		"environment", "climate", "pollution", "green", "renewable", "energy",
		"carbon", "emission", "global warming", "sustainability", "eco-friendly",
	}},
}

const categoryPromptTemplate = `Analyze the following claim and categorize it into one of these categories:
%s

Claim: %s

Respond with only the category name (lowercase, one word). Examples: politics, games, bollywood, news, farmers, animals, sports, technology, health, education, business, entertainment, science, environment, or general.

Category:`

// Detector assigns a topical category to claim text by counting
// word-boundary keyword hits per category.
type Detector struct {
	categories []compiledCategory
	names      []string
}

type compiledCategory struct {
	name     string
	patterns []*regexp.Regexp
}

// NewDetector compiles the keyword tables
func NewDetector() *Detector {
	categories := make([]compiledCategory, 0, len(categoryTable))
	names := make([]string, 0, len(categoryTable)+1)

	for _, entry := range categoryTable {
		patterns := make([]*regexp.Regexp, 0, len(entry.keywords))
		for _, keyword := range entry.keywords {
			patterns = append(patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(keyword)+`\b`))
		}
		categories = append(categories, compiledCategory{name: entry.name, patterns: patterns})
		names = append(names, entry.name)
	}
	names = append(names, General)

	return &Detector{categories: categories, names: names}
}

// Names returns every known category including the general default
func (d *Detector) Names() []string {
	return d.names
}

// Detect returns the category whose keywords occur most often in the
// text, or General when nothing matches
func (d *Detector) Detect(text string) string {
	if strings.TrimSpace(text) == "" {
		return General
	}

	lower := strings.ToLower(text)

	best := General
	bestScore := 0
	for _, cat := range d.categories {
		score := 0
		for _, pattern := range cat.patterns {
			score += len(pattern.FindAllStringIndex(lower, -1))
		}
		if score > bestScore {
			best = cat.name
			bestScore = score
		}
	}

	return best
}

// DetectWithGenerator asks the generative backend to categorize the text,
// falling back to keyword detection when the backend is missing, fails,
// or answers with an unknown category
func (d *Detector) DetectWithGenerator(ctx context.Context, generator llm.Generator, text string) string {
	if generator == nil {
		return d.Detect(text)
	}

	opts := llm.DefaultOptions()
	opts.Temperature = 0.3
	opts.MaxTokens = 10

	prompt := fmt.Sprintf(categoryPromptTemplate, strings.Join(d.names, ", "), text)
	response, err := generator.Generate(ctx, prompt, opts)
	if err != nil {
		return d.Detect(text)
	}

	candidate := strings.ToLower(strings.TrimSpace(response))
	for _, name := range d.names {
		if candidate == name {
			return candidate
		}
	}

	return d.Detect(text)
}
