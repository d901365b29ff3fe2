package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestCompany() *Company {
	return &Company{
		Symbol:            "ACME",
		Name:              "Acme Corp",
		Sector:            "technology",
		Region:            "north_america",
		SharesOutstanding: 1000,
		EPS:               4.0,
		History: []PricePoint{
			{Day: 0, Open: 95, High: 101, Low: 94, Close: 100, Volume: 500},
			{Day: 1, Open: 100, High: 111, Low: 99, Close: 110, Volume: 600},
		},
	}
}

func TestCompanyApplySplit_PreservesMarketCap(t *testing.T) {
	c := newTestCompany()
	capBefore := c.MarketCap()
	epsBefore := c.EPS

	c.ApplySplit(2)

	assert.InDelta(t, capBefore, c.MarketCap(), 0.0001, "A split must not create or destroy value")
	assert.InDelta(t, 55.0, c.Price(), 0.0001)
	assert.Equal(t, int64(2000), c.SharesOutstanding)
	assert.InDelta(t, epsBefore/2, c.EPS, 0.0001)
	assert.InDelta(t, 50.0, c.History[0].Close, 0.0001, "The whole history rescales")
}

func TestCompanyApplySplit_IgnoresDegenerateRatio(t *testing.T) {
	c := newTestCompany()
	before := c.Price()

	c.ApplySplit(1)
	c.ApplySplit(0)
	c.ApplySplit(-2)

	assert.Equal(t, before, c.Price())
	assert.Equal(t, int64(1000), c.SharesOutstanding)
}

func TestCompanyPrice_EmptyHistory(t *testing.T) {
	c := &Company{Symbol: "NEW"}
	assert.Equal(t, 0.0, c.Price())
	assert.Nil(t, c.Last())
}

func TestCompanyRangePosition(t *testing.T) {
	c := &Company{
		History: []PricePoint{
			{Close: 50}, {Close: 100}, {Close: 75},
		},
	}

	assert.InDelta(t, 0.5, c.RangePosition(10), 0.0001, "75 sits midway between 50 and 100")

	flat := &Company{History: []PricePoint{{Close: 10}, {Close: 10}}}
	assert.Equal(t, 0.5, flat.RangePosition(10), "Degenerate range reads neutral")
}

func TestCompanyPERatio(t *testing.T) {
	c := newTestCompany()
	assert.InDelta(t, 27.5, c.PERatio(), 0.0001)

	c.EPS = 0
	assert.Equal(t, 0.0, c.PERatio(), "Zero EPS must not divide")
}

func TestCompanyAllTimeHigh(t *testing.T) {
	c := newTestCompany()
	assert.Equal(t, 110.0, c.AllTimeHigh())
}
