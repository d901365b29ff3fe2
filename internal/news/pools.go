package news

import (
	"math/rand"
	"strings"

	"github.com/aristath/bourse/internal/domain"
)

// PoolEntry is one sampleable event template. Impact is drawn uniformly
// from [MinImpact, MaxImpact]; the scope fields are optional.
type PoolEntry struct {
	Headline  string                    `yaml:"headline"`
	MinImpact float64                   `yaml:"min_impact"`
	MaxImpact float64                   `yaml:"max_impact"`
	Region    domain.Region             `yaml:"region,omitempty"`
	Sector    domain.Sector             `yaml:"sector,omitempty"`
	Regions   map[domain.Region]float64 `yaml:"regions,omitempty"`
}

// Pool holds the macro event templates per category.
type Pool map[Kind][]PoolEntry

// SampleMacro draws one concrete macro event from the category's pool.
// An empty category falls back to drawing from every entry in the pool;
// a completely empty pool yields a neutral no-impact event so trigger
// days never fail.
func SampleMacro(rng *rand.Rand, pool Pool, category Kind, day int) Event {
	entries := pool[category]
	kind := category
	if len(entries) == 0 {
		for _, batch := range pool {
			entries = append(entries, batch...)
		}
	}
	if len(entries) == 0 {
		return Event{
			Day:      day,
			Kind:     KindNeutral,
			Origin:   OriginMacro,
			Impact:   1,
			Headline: "Markets drift through an uneventful session",
		}
	}

	entry := entries[rng.Intn(len(entries))]
	impact := sampleImpact(rng, entry.MinImpact, entry.MaxImpact)

	ev := Event{
		Day:      day,
		Kind:     kind,
		Origin:   OriginMacro,
		Sector:   entry.Sector,
		Region:   entry.Region,
		Impact:   impact,
		Headline: fillScope(entry.Headline, "", string(entry.Sector), string(entry.Region)),
	}
	if len(entry.Regions) > 0 {
		ev.Impacts = make(map[domain.Region]float64, len(entry.Regions))
		for region, weight := range entry.Regions {
			// Region weights scale the drawn impact's distance from 1.
			ev.Impacts[region] = 1 + (impact-1)*weight
		}
	}
	return ev
}

// Cosmetic builds a sector-appropriate filler event for a company. It
// carries no price impact and never reaches a decision ledger; it exists
// so quiet companies still make the news.
func Cosmetic(rng *rand.Rand, c *domain.Company, day int) Event {
	headlines := []struct {
		kind Kind
		text string
	}{
		{KindNeutral, "{company} schedules its annual shareholder meeting"},
		{KindNeutral, "{company} refreshes its {sector} product lineup"},
		{KindPositive, "Analysts take a fresh look at {company}"},
		{KindNeutral, "{company} opens a new office in the {region} market"},
		{KindNegative, "{company} faces routine questions over {sector} margins"},
	}

	pick := headlines[rng.Intn(len(headlines))]
	return Event{
		Day:      day,
		Kind:     pick.kind,
		Origin:   OriginCorporate,
		Symbol:   c.Symbol,
		Sector:   c.Sector,
		Region:   c.Region,
		Impact:   1,
		Headline: fillScope(pick.text, c.Name, string(c.Sector), string(c.Region)),
	}
}

func sampleImpact(rng *rand.Rand, min, max float64) float64 {
	if max < min {
		min, max = max, min
	}
	if min == 0 && max == 0 {
		return 1
	}
	if max == min {
		return min
	}
	return min + rng.Float64()*(max-min)
}

func fillScope(template, company, sector, region string) string {
	r := strings.NewReplacer(
		"{company}", company,
		"{sector}", strings.ReplaceAll(sector, "_", " "),
		"{region}", strings.ReplaceAll(region, "_", " "),
	)
	return strings.TrimSpace(r.Replace(template))
}
