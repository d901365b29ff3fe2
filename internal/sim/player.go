package sim

// PlayerBuy executes a market buy for the human investor at the current
// price. Returns false without mutating anything when the caller is not
// the player, the symbol is unknown or delisted, or the order does not
// clear the investor's cash.
func (e *Engine) PlayerBuy(s *State, investorID, symbol string, shares int) bool {
	if investorID == "" || investorID != s.PlayerID {
		return false
	}
	inv := s.Investor(investorID)
	c := s.Company(symbol)
	if inv == nil || c == nil || c.Delisted || len(c.History) == 0 {
		return false
	}
	if !inv.Buy(symbol, shares, c.Price(), s.Day, nil) {
		return false
	}
	s.addVolume(symbol, shares)
	return true
}

// PlayerSell executes a market sell for the human investor at the
// current price, FIFO against their lots. Same rejection rules as
// PlayerBuy plus the holding check inside Sell.
func (e *Engine) PlayerSell(s *State, investorID, symbol string, shares int) bool {
	if investorID == "" || investorID != s.PlayerID {
		return false
	}
	inv := s.Investor(investorID)
	c := s.Company(symbol)
	if inv == nil || c == nil || c.Delisted || len(c.History) == 0 {
		return false
	}
	if !inv.Sell(symbol, shares, c.Price(), s.Day, e.cfg.LongTermDays) {
		return false
	}
	s.addVolume(symbol, shares)
	return true
}
