package news

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/bourse/internal/neural"
)

// Article is the rendered story for one event.
type Article struct {
	ID       string `json:"id"`
	Day      int    `json:"day"`
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Body     string `json:"body"`
	ImageURL string `json:"image_url"`
	Event    Event  `json:"event"`
}

// Trace is the learnable token trace an article hands back for later
// reinforcement. The simulation core never looks inside it; it only
// returns it verbatim once the outcome matures.
type Trace struct {
	ToneSlot int       `msgpack:"tone_slot"`
	Features []float64 `msgpack:"features"`
}

// MarketView is the slice of simulation state a generator may read.
type MarketView struct {
	Day         int
	IndexValue  float64
	CompanyName string
}

// ArticleGenerator renders events into stories and learns, deferred,
// which tone worked.
type ArticleGenerator interface {
	Generate(ev Event, view MarketView) (Article, *Trace, error)
	ReinforceArticle(trace *Trace, outcome float64) error
}

// ImageLookup resolves an illustrative image for a headline.
// Cosmetic only: it never affects simulation numbers.
type ImageLookup interface {
	PickImage(headline string, keywords ...string) string
}

// Tone slots of the generator's picker network. Order is part of the
// network's output contract.
const (
	ToneAlarmist = iota
	ToneNeutral
	ToneAnalytical

	toneCount
)

// ToneFeatureNames documents the tone picker's input vector.
var ToneFeatureNames = []string{"event_sentiment", "event_impact", "event_macro", "event_corporate"}

// NewToneNetwork builds a fresh tone picker network.
func NewToneNetwork(rng *rand.Rand) (*neural.Network, error) {
	return neural.New(rng, []int{len(ToneFeatureNames), 6, toneCount}, ToneFeatureNames)
}

// TemplateGenerator writes articles from per-kind templates. A small
// trainable network picks the tone; the deferred article ledger feeds
// realized outcomes back into it through ReinforceArticle.
type TemplateGenerator struct {
	tone         *neural.Network
	learningRate float64
	images       ImageLookup
	log          zerolog.Logger
}

// NewTemplateGenerator wires a generator around the simulation-owned
// tone network so its weights ride along in every snapshot.
func NewTemplateGenerator(tone *neural.Network, learningRate float64, images ImageLookup, log zerolog.Logger) *TemplateGenerator {
	return &TemplateGenerator{
		tone:         tone,
		learningRate: learningRate,
		images:       images,
		log:          log.With().Str("component", "article_generator").Logger(),
	}
}

// ToneFeatures extracts the tone picker's input vector from an event.
func ToneFeatures(ev Event) []float64 {
	macro, corporate := 0.0, 0.0
	if ev.Origin == OriginMacro {
		macro = 1
	} else {
		corporate = 1
	}
	return []float64{
		ev.Sentiment(),
		math.Abs(ev.MeanImpact()-1) * 10,
		macro,
		corporate,
	}
}

// Generate implements ArticleGenerator.
func (g *TemplateGenerator) Generate(ev Event, view MarketView) (Article, *Trace, error) {
	features := ToneFeatures(ev)

	slot := ToneNeutral
	if g.tone != nil {
		out, err := neural.FeedForward(g.tone, features)
		if err != nil {
			return Article{}, nil, fmt.Errorf("tone network: %w", err)
		}
		slot = argmax(out)
	}

	headline := toneHeadline(slot, ev.Headline)
	article := Article{
		ID:       uuid.New().String(),
		Day:      ev.Day,
		Headline: headline,
		Summary:  toneSummary(slot, ev),
		Body:     toneBody(slot, ev, view),
		Event:    ev,
	}
	if g.images != nil {
		article.ImageURL = g.images.PickImage(headline, string(ev.Kind), string(ev.Sector))
	}

	g.log.Debug().
		Str("headline", headline).
		Str("tone", toneName(slot)).
		Msg("article generated")

	return article, &Trace{ToneSlot: slot, Features: features}, nil
}

// ReinforceArticle implements ArticleGenerator: one online step nudging
// the chosen tone slot toward the realized outcome.
func (g *TemplateGenerator) ReinforceArticle(trace *Trace, outcome float64) error {
	if trace == nil || g.tone == nil {
		return nil
	}
	return neural.TrainOutput(g.tone, trace.Features, trace.ToneSlot, outcome, g.learningRate)
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

func toneName(slot int) string {
	switch slot {
	case ToneAlarmist:
		return "alarmist"
	case ToneAnalytical:
		return "analytical"
	default:
		return "neutral"
	}
}

func toneHeadline(slot int, base string) string {
	switch slot {
	case ToneAlarmist:
		return "BREAKING: " + base
	case ToneAnalytical:
		return "Analysis: " + base
	default:
		return base
	}
}

func toneSummary(slot int, ev Event) string {
	move := (ev.MeanImpact() - 1) * 100
	switch slot {
	case ToneAlarmist:
		return fmt.Sprintf("Traders scramble as markets digest the news; early estimates point to a %+.1f%% move.", move)
	case ToneAnalytical:
		return fmt.Sprintf("The measured read: a %+.1f%% repricing, with second-order effects likely spread over days.", move)
	default:
		return fmt.Sprintf("Markets price in roughly a %+.1f%% adjustment.", move)
	}
}

func toneBody(slot int, ev Event, view MarketView) string {
	subject := view.CompanyName
	if subject == "" {
		subject = "the broader market"
	}

	lead := fmt.Sprintf("On day %d, %s. The development centers on %s.", view.Day, ev.Headline, subject)
	switch slot {
	case ToneAlarmist:
		return lead + " Desks describe the session as frantic, with positioning unwinding fast and nobody willing to call a bottom before the dust settles."
	case ToneAnalytical:
		return fmt.Sprintf("%s With the market index at %.2f, the move fits the established pattern for %s events; the repricing should be orderly if no follow-on headlines land.",
			lead, view.IndexValue, ev.Kind)
	default:
		return lead + " Reaction has been steady, and most participants expect normal trading to resume shortly."
	}
}

// PlaceholderImages picks deterministic placeholder art so the feed has
// pictures without any external service.
type PlaceholderImages struct{}

// PickImage implements ImageLookup.
func (PlaceholderImages) PickImage(headline string, keywords ...string) string {
	h := fnv.New32a()
	h.Write([]byte(headline))
	for _, k := range keywords {
		h.Write([]byte(k))
	}
	return fmt.Sprintf("https://picsum.photos/seed/%d/640/360", h.Sum32())
}
