package universe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/bourse/internal/news"
)

func TestLoad_EmbeddedDefault(t *testing.T) {
	u, err := Load("")
	require.NoError(t, err)

	assert.NotEmpty(t, u.Sectors)
	assert.NotEmpty(t, u.Regions)
	assert.GreaterOrEqual(t, len(u.Companies), 10)
	assert.Greater(t, u.IndexBase, 0.0)
	assert.GreaterOrEqual(t, u.SeedDays, 2)

	for _, s := range u.Sectors {
		assert.NotEmpty(t, s.Name)
		assert.GreaterOrEqual(t, s.TaxDrag, 0.0)
	}

	for _, kind := range news.MacroCategories {
		assert.NotEmpty(t, u.EventPools[kind], "category %s needs at least one template", kind)
	}

	assert.Equal(t, 61, u.TotalInvestors(), "20+15+15+10 AI investors plus the player")
}

func TestLoad_OverridePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sectors:
  - name: tech
regions: [moon]
index_base: 500
seed_days: 10
companies:
  - symbol: LUNA
    name: Lunar Mining
    sector: tech
    region: moon
    base_price: 10
    volatility: 0.02
    shares_outstanding: 1000
    eps: 1
investors:
  human_cash: 5000
`), 0o644))

	u, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, u.Companies, 1)
	assert.Equal(t, "LUNA", u.Companies[0].Symbol)
	assert.Equal(t, 1, u.TotalInvestors(), "No AI tiers, just the player")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	base := func() *Universe {
		return &Universe{
			Sectors:   []SectorSeed{{Name: "tech", TaxDrag: 0.0002}},
			Regions:   []string{"americas"},
			IndexBase: 1000,
			SeedDays:  30,
			Companies: []CompanySeed{{
				Symbol: "AAA", Name: "Alpha", Sector: "tech", Region: "americas",
				BasePrice: 100, Volatility: 0.02, SharesOutstanding: 1000, EPS: 2,
			}},
			Investors: InvestorSeeds{HumanCash: 1000},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Universe)
	}{
		{"no companies", func(u *Universe) { u.Companies = nil }},
		{"duplicate symbol", func(u *Universe) {
			u.Companies = append(u.Companies, u.Companies[0])
		}},
		{"wild sector tax drag", func(u *Universe) { u.Sectors[0].TaxDrag = 0.5 }},
		{"unknown sector", func(u *Universe) { u.Companies[0].Sector = "plastics" }},
		{"unknown region", func(u *Universe) { u.Companies[0].Region = "atlantis" }},
		{"zero price", func(u *Universe) { u.Companies[0].BasePrice = 0 }},
		{"wild volatility", func(u *Universe) { u.Companies[0].Volatility = 0.9 }},
		{"zero shares", func(u *Universe) { u.Companies[0].SharesOutstanding = 0 }},
		{"bad index base", func(u *Universe) { u.IndexBase = 0 }},
		{"too few seed days", func(u *Universe) { u.SeedDays = 1 }},
		{"no human cash", func(u *Universe) { u.Investors.HumanCash = 0 }},
		{"bad tier cash range", func(u *Universe) {
			u.Investors.Random = TierSeed{Count: 5, CashMin: 100, CashMax: 50}
		}},
		{"pool entry without headline", func(u *Universe) {
			u.EventPools = news.Pool{news.KindPositive: {{MinImpact: 1, MaxImpact: 1.1}}}
		}},
		{"pool entry bad impact range", func(u *Universe) {
			u.EventPools = news.Pool{news.KindPositive: {{Headline: "x", MinImpact: 1.1, MaxImpact: 1.0}}}
		}},
		{"pool entry unknown region", func(u *Universe) {
			u.EventPools = news.Pool{news.KindPositive: {{Headline: "x", MinImpact: 1, MaxImpact: 1.1, Region: "mars"}}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := base()
			tt.mutate(u)
			assert.Error(t, u.validate())
		})
	}
}
