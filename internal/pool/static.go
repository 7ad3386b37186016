package pool

import "GameHarvester/internal/domain"

// StaticPlayers returns the bundled fallback pool: well-known, consistently
// active accounts whose histories stay dense across the whole window walk.
// The list only matters when every leaderboard fetch fails, so breadth across
// speed classes counts for more than freshness.
func StaticPlayers() []domain.Player {
	return []domain.Player{
		{Handle: "DrNykterstein", Title: "GM", Rating: 3200, Category: "blitz", Source: domain.PlayerSourceFallback},
		{Handle: "RebeccaHarris", Title: "GM", Rating: 3150, Category: "blitz", Source: domain.PlayerSourceFallback},
		{Handle: "penguingim1", Title: "GM", Rating: 3100, Category: "bullet", Source: domain.PlayerSourceFallback},
		{Handle: "Zhigalko_Sergei", Title: "GM", Rating: 3050, Category: "blitz", Source: domain.PlayerSourceFallback},
		{Handle: "nihalsarin2004", Title: "GM", Rating: 3120, Category: "bullet", Source: domain.PlayerSourceFallback},
		{Handle: "Vladimirovich9000", Title: "GM", Rating: 3080, Category: "blitz", Source: domain.PlayerSourceFallback},
		{Handle: "Ogrilla", Title: "GM", Rating: 2980, Category: "rapid", Source: domain.PlayerSourceFallback},
		{Handle: "Bombegranate", Title: "GM", Rating: 2960, Category: "blitz", Source: domain.PlayerSourceFallback},
		{Handle: "AnishGiri", Title: "GM", Rating: 3000, Category: "blitz", Source: domain.PlayerSourceFallback},
		{Handle: "Alireza2003", Title: "GM", Rating: 3180, Category: "bullet", Source: domain.PlayerSourceFallback},
		{Handle: "Arka50", Title: "IM", Rating: 2900, Category: "rapid", Source: domain.PlayerSourceFallback},
		{Handle: "Night-King96", Title: "GM", Rating: 2940, Category: "blitz", Source: domain.PlayerSourceFallback},
		{Handle: "Crazy_Eight", Title: "IM", Rating: 2860, Category: "bullet", Source: domain.PlayerSourceFallback},
		{Handle: "Chesstoday", Title: "FM", Rating: 2780, Category: "rapid", Source: domain.PlayerSourceFallback},
		{Handle: "TheTacticianMaster", Rating: 2740, Category: "classical", Source: domain.PlayerSourceFallback},
		{Handle: "Kingscrusher-YouTube", Rating: 2550, Category: "classical", Source: domain.PlayerSourceFallback},
	}
}
