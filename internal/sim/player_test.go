package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerBuyAndSell(t *testing.T) {
	u := testUniverse()
	e := testEngine(deterministicConfig())
	s, err := e.Initialize(rand.New(rand.NewSource(42)), u)
	require.NoError(t, err)

	player := s.Player()
	require.NotNil(t, player)
	price := s.Company("ALFA").Price()
	startCash := player.Cash

	require.True(t, e.PlayerBuy(s, s.PlayerID, "ALFA", 10))
	assert.Equal(t, 10, player.SharesOf("ALFA"))
	assert.InDelta(t, startCash-10*price, player.Cash, 1e-9)
	assert.Equal(t, int64(10), s.DailyVolume["ALFA"])

	require.True(t, e.PlayerSell(s, s.PlayerID, "ALFA", 10))
	assert.Zero(t, player.SharesOf("ALFA"))
	assert.InDelta(t, startCash, player.Cash, 1e-9, "Round trip at an unmoved price is free")
	assert.Equal(t, int64(20), s.DailyVolume["ALFA"], "Both legs count as traded volume")
}

func TestPlayerTrade_Rejections(t *testing.T) {
	u := testUniverse()
	e := testEngine(deterministicConfig())
	s, err := e.Initialize(rand.New(rand.NewSource(42)), u)
	require.NoError(t, err)

	player := s.Player()
	startCash := player.Cash

	var botID string
	for _, inv := range s.Investors {
		if !inv.Human {
			botID = inv.ID
			break
		}
	}
	require.NotEmpty(t, botID)

	assert.False(t, e.PlayerBuy(s, botID, "ALFA", 1), "Only the player trades through this surface")
	assert.False(t, e.PlayerBuy(s, "", "ALFA", 1))
	assert.False(t, e.PlayerBuy(s, s.PlayerID, "NOPE", 1))
	assert.False(t, e.PlayerBuy(s, s.PlayerID, "ALFA", 0))
	assert.False(t, e.PlayerBuy(s, s.PlayerID, "ALFA", 100000000), "Orders past available cash bounce")
	assert.False(t, e.PlayerSell(s, s.PlayerID, "ALFA", 1), "Nothing held, nothing sold")

	s.Company("BETA").Delisted = true
	assert.False(t, e.PlayerBuy(s, s.PlayerID, "BETA", 1))
	assert.False(t, e.PlayerSell(s, s.PlayerID, "BETA", 1))

	assert.InDelta(t, startCash, player.Cash, 1e-12, "Rejected orders leave cash alone")
	assert.Empty(t, s.DailyVolume)
}
