package domain

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/bourse/internal/strategy"
)

// Lot is a discrete purchase record used for FIFO cost basis and
// holding-period tax determination.
type Lot struct {
	PurchaseDay   int       `json:"purchase_day" msgpack:"purchase_day"`
	PurchasePrice float64   `json:"purchase_price" msgpack:"purchase_price"`
	Shares        int       `json:"shares" msgpack:"shares"`
	Indicators    []float64 `json:"-" msgpack:"indicators"`
}

// Investor owns cash and FIFO share lots per symbol. The one human
// investor carries an inert strategy and trades out of band; everyone
// else trades autonomously during the daily transition.
type Investor struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Human         bool              `json:"human"`
	Cash          float64           `json:"cash"`
	Lots          map[string][]Lot  `json:"-"`
	Strategy      strategy.Strategy `json:"-"`
	LongTermGains float64           `json:"-"`
	TaxPaid       float64           `json:"tax_paid"`
	Valuations    []ValuationPoint  `json:"-"`
}

// SharesOf returns the total shares held for a symbol across all lots.
func (inv *Investor) SharesOf(symbol string) int {
	total := 0
	for _, lot := range inv.Lots[symbol] {
		total += lot.Shares
	}
	return total
}

// Buy appends a new lot and deducts the cost. Rejects (returns false)
// when shares is not positive or the cost exceeds available cash, leaving
// the investor untouched.
func (inv *Investor) Buy(symbol string, shares int, price float64, day int, indicators []float64) bool {
	if shares <= 0 || price <= 0 {
		return false
	}
	cost := float64(shares) * price
	if cost > inv.Cash {
		return false
	}

	if inv.Lots == nil {
		inv.Lots = make(map[string][]Lot)
	}
	inv.Cash -= cost
	inv.Lots[symbol] = append(inv.Lots[symbol], Lot{
		PurchaseDay:   day,
		PurchasePrice: price,
		Shares:        shares,
		Indicators:    indicators,
	})
	return true
}

// Sell consumes shares FIFO against the oldest lots, credits the
// proceeds, and accumulates realized gains on lots held at least
// longTermDays into the long-term tax accumulator. Rejects (returns
// false) when shares is not positive or exceeds the holding.
func (inv *Investor) Sell(symbol string, shares int, price float64, day, longTermDays int) bool {
	if shares <= 0 || price <= 0 || shares > inv.SharesOf(symbol) {
		return false
	}

	remaining := shares
	lots := inv.Lots[symbol]
	for remaining > 0 && len(lots) > 0 {
		lot := &lots[0]
		qty := lot.Shares
		if qty > remaining {
			qty = remaining
		}

		realized := (price - lot.PurchasePrice) * float64(qty)
		if day-lot.PurchaseDay >= longTermDays {
			inv.LongTermGains += realized
		}

		lot.Shares -= qty
		remaining -= qty
		if lot.Shares == 0 {
			lots = lots[1:]
		}
	}

	if len(lots) == 0 {
		delete(inv.Lots, symbol)
	} else {
		inv.Lots[symbol] = lots
	}
	inv.Cash += float64(shares) * price
	return true
}

// PortfolioValue prices every holding with the supplied lookup.
// Symbols the lookup does not know (delisted) contribute nothing.
func (inv *Investor) PortfolioValue(priceOf func(symbol string) (float64, bool)) float64 {
	total := 0.0
	for symbol, lots := range inv.Lots {
		price, ok := priceOf(symbol)
		if !ok {
			continue
		}
		for _, lot := range lots {
			total += float64(lot.Shares) * price
		}
	}
	return total
}

// SettleAnnualTax applies the jurisdiction rate to net long-term gains
// above the exemption, resets the accumulator and returns the tax taken.
// The bill is capped at available cash so the balance never goes
// negative.
func (inv *Investor) SettleAnnualTax(rate, exemption float64) float64 {
	taxable := inv.LongTermGains - exemption
	inv.LongTermGains = 0
	if taxable <= 0 || rate <= 0 {
		return 0
	}

	tax := taxable * rate
	if tax > inv.Cash {
		tax = inv.Cash
	}
	inv.Cash -= tax
	inv.TaxPaid += tax
	return tax
}

// investorRecord is the serialized mirror of Investor; the strategy
// interface travels as a tagged envelope.
type investorRecord struct {
	ID            string            `msgpack:"id"`
	Name          string            `msgpack:"name"`
	Human         bool              `msgpack:"human"`
	Cash          float64           `msgpack:"cash"`
	Lots          map[string][]Lot  `msgpack:"lots"`
	Strategy      strategy.Envelope `msgpack:"strategy"`
	LongTermGains float64           `msgpack:"long_term_gains"`
	TaxPaid       float64           `msgpack:"tax_paid"`
	Valuations    []ValuationPoint  `msgpack:"valuations"`
}

var (
	_ msgpack.CustomEncoder = (*Investor)(nil)
	_ msgpack.CustomDecoder = (*Investor)(nil)
)

// EncodeMsgpack implements msgpack.CustomEncoder.
func (inv *Investor) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(investorRecord{
		ID:            inv.ID,
		Name:          inv.Name,
		Human:         inv.Human,
		Cash:          inv.Cash,
		Lots:          inv.Lots,
		Strategy:      strategy.Pack(inv.Strategy),
		LongTermGains: inv.LongTermGains,
		TaxPaid:       inv.TaxPaid,
		Valuations:    inv.Valuations,
	})
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (inv *Investor) DecodeMsgpack(dec *msgpack.Decoder) error {
	var rec investorRecord
	if err := dec.Decode(&rec); err != nil {
		return err
	}

	inv.ID = rec.ID
	inv.Name = rec.Name
	inv.Human = rec.Human
	inv.Cash = rec.Cash
	inv.Lots = rec.Lots
	inv.Strategy = rec.Strategy.Unpack()
	inv.LongTermGains = rec.LongTermGains
	inv.TaxPaid = rec.TaxPaid
	inv.Valuations = rec.Valuations
	return nil
}
