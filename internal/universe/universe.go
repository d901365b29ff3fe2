// Package universe loads the seed file that defines the simulated world:
// sectors, regions, the listed companies, the investor population and the
// macro event pools. A default universe ships embedded in the binary; an
// override path replaces it wholesale.
package universe

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aristath/bourse/internal/news"
)

//go:embed universe.yaml
var defaultUniverse []byte

// SectorSeed declares one industry and the small daily tax drag its
// companies carry in the price pass.
type SectorSeed struct {
	Name    string  `yaml:"name"`
	TaxDrag float64 `yaml:"tax_drag"`
}

// CompanySeed describes one listing before any history exists.
type CompanySeed struct {
	Symbol            string  `yaml:"symbol"`
	Name              string  `yaml:"name"`
	Sector            string  `yaml:"sector"`
	Region            string  `yaml:"region"`
	BasePrice         float64 `yaml:"base_price"`
	Volatility        float64 `yaml:"volatility"`
	SharesOutstanding int64   `yaml:"shares_outstanding"`
	EPS               float64 `yaml:"eps"`
}

// TierSeed sizes one strategy tier of the investor population. Starting
// cash is drawn uniformly from [CashMin, CashMax].
type TierSeed struct {
	Count   int     `yaml:"count"`
	CashMin float64 `yaml:"cash_min"`
	CashMax float64 `yaml:"cash_max"`
}

// InvestorSeeds sizes the whole population. The human player is always
// exactly one investor.
type InvestorSeeds struct {
	HyperComplex TierSeed `yaml:"hyper_complex"`
	Complex      TierSeed `yaml:"complex"`
	Simple       TierSeed `yaml:"simple"`
	Random       TierSeed `yaml:"random"`
	HumanCash    float64  `yaml:"human_cash"`
}

// Universe is the parsed seed file.
type Universe struct {
	Sectors    []SectorSeed  `yaml:"sectors"`
	Regions    []string      `yaml:"regions"`
	IndexBase  float64       `yaml:"index_base"`
	SeedDays   int           `yaml:"seed_days"`
	Companies  []CompanySeed `yaml:"companies"`
	Investors  InvestorSeeds `yaml:"investors"`
	EventPools news.Pool     `yaml:"event_pools"`
}

// Load reads and validates a universe file. An empty path loads the
// embedded default.
func Load(path string) (*Universe, error) {
	raw := defaultUniverse
	if path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read universe file: %w", err)
		}
	}

	var u Universe
	if err := yaml.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("failed to parse universe file: %w", err)
	}
	if err := u.validate(); err != nil {
		return nil, fmt.Errorf("invalid universe: %w", err)
	}
	return &u, nil
}

func (u *Universe) validate() error {
	if len(u.Companies) == 0 {
		return fmt.Errorf("no companies defined")
	}
	if u.IndexBase <= 0 {
		return fmt.Errorf("index_base must be positive, got %v", u.IndexBase)
	}
	if u.SeedDays < 2 {
		return fmt.Errorf("seed_days must be at least 2, got %d", u.SeedDays)
	}

	sectors := make(map[string]bool, len(u.Sectors))
	for _, s := range u.Sectors {
		if s.Name == "" {
			return fmt.Errorf("sector with empty name")
		}
		if s.TaxDrag < 0 || s.TaxDrag > 0.01 {
			return fmt.Errorf("sector %s tax_drag %v out of [0, 0.01]", s.Name, s.TaxDrag)
		}
		sectors[s.Name] = true
	}
	regions := make(map[string]bool, len(u.Regions))
	for _, r := range u.Regions {
		regions[r] = true
	}

	symbols := make(map[string]bool, len(u.Companies))
	for _, c := range u.Companies {
		if c.Symbol == "" {
			return fmt.Errorf("company %q has no symbol", c.Name)
		}
		if symbols[c.Symbol] {
			return fmt.Errorf("duplicate symbol %s", c.Symbol)
		}
		symbols[c.Symbol] = true

		if !sectors[c.Sector] {
			return fmt.Errorf("company %s references undeclared sector %q", c.Symbol, c.Sector)
		}
		if !regions[c.Region] {
			return fmt.Errorf("company %s references undeclared region %q", c.Symbol, c.Region)
		}
		if c.BasePrice <= 0 {
			return fmt.Errorf("company %s has non-positive base price", c.Symbol)
		}
		if c.Volatility <= 0 || c.Volatility > 0.5 {
			return fmt.Errorf("company %s volatility %v out of (0, 0.5]", c.Symbol, c.Volatility)
		}
		if c.SharesOutstanding <= 0 {
			return fmt.Errorf("company %s has non-positive shares outstanding", c.Symbol)
		}
	}

	for _, tier := range []struct {
		name string
		seed TierSeed
	}{
		{"hyper_complex", u.Investors.HyperComplex},
		{"complex", u.Investors.Complex},
		{"simple", u.Investors.Simple},
		{"random", u.Investors.Random},
	} {
		if tier.seed.Count < 0 {
			return fmt.Errorf("investor tier %s has negative count", tier.name)
		}
		if tier.seed.Count > 0 && (tier.seed.CashMin <= 0 || tier.seed.CashMax < tier.seed.CashMin) {
			return fmt.Errorf("investor tier %s has invalid cash range [%v, %v]",
				tier.name, tier.seed.CashMin, tier.seed.CashMax)
		}
	}
	if u.Investors.HumanCash <= 0 {
		return fmt.Errorf("human_cash must be positive, got %v", u.Investors.HumanCash)
	}

	for kind, entries := range u.EventPools {
		for i, e := range entries {
			if e.Headline == "" {
				return fmt.Errorf("event pool %s entry %d has no headline", kind, i)
			}
			if e.MinImpact < 0 || e.MaxImpact < e.MinImpact {
				return fmt.Errorf("event pool %s entry %d has invalid impact range [%v, %v]",
					kind, i, e.MinImpact, e.MaxImpact)
			}
			if e.Region != "" && !regions[string(e.Region)] {
				return fmt.Errorf("event pool %s entry %d references undeclared region %q", kind, i, e.Region)
			}
			if e.Sector != "" && !sectors[string(e.Sector)] {
				return fmt.Errorf("event pool %s entry %d references undeclared sector %q", kind, i, e.Sector)
			}
		}
	}

	return nil
}

// TotalInvestors counts the AI population plus the human player.
func (u *Universe) TotalInvestors() int {
	inv := u.Investors
	return inv.HyperComplex.Count + inv.Complex.Count + inv.Simple.Count + inv.Random.Count + 1
}
