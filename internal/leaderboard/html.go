package leaderboard

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"GameHarvester/internal/domain"
)

// knownTitles are the prefixes a standings page glues onto player names.
var knownTitles = map[string]struct{}{
	"GM": {}, "IM": {}, "FM": {}, "CM": {}, "NM": {},
	"WGM": {}, "WIM": {}, "WFM": {}, "WCM": {}, "LM": {},
}

// HTMLScanner scrapes ranked-player tables from mirror pages that expose no
// JSON API. Each category config supplies its page URL.
type HTMLScanner struct {
	client    *http.Client
	userAgent string
}

// NewHTMLScanner wires an HTTP client; a nil client gets a 20s timeout default.
func NewHTMLScanner(client *http.Client, userAgent string) *HTMLScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTMLScanner{client: client, userAgent: userAgent}
}

// Name identifies the strategy inside the registry.
func (h *HTMLScanner) Name() string {
	return "html"
}

// TopPlayers fetches the category page and extracts up to limit ranked rows.
func (h *HTMLScanner) TopPlayers(ctx context.Context, category Category, limit int) ([]domain.Player, error) {
	if category.URL == "" {
		return nil, fmt.Errorf("category %s has no page URL", category.Name)
	}

	doc, err := h.fetchDocument(ctx, category.URL)
	if err != nil {
		return nil, fmt.Errorf("category %s: %w", category.Name, err)
	}

	return extractPlayers(doc, category.Name, limit), nil
}

func (h *HTMLScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("leaderboard page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func extractPlayers(doc *goquery.Document, category string, limit int) []domain.Player {
	var players []domain.Player

	doc.Find("table tbody tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		if limit > 0 && len(players) >= limit {
			return false
		}

		player, ok := parseRow(row, category)
		if !ok {
			return true
		}

		players = append(players, player)
		return true
	})

	return players
}

func parseRow(row *goquery.Selection, category string) (domain.Player, bool) {
	name := strings.TrimSpace(row.Find("a.user-link").First().Text())
	if name == "" {
		name = strings.TrimSpace(row.Find("td.player").First().Text())
	}
	if name == "" {
		return domain.Player{}, false
	}

	title, handle := splitTitle(name)

	ratingText := strings.TrimSpace(row.Find("td.rating").First().Text())
	if ratingText == "" {
		// Fall back to the last cell; most standings tables end with the
		// rating column.
		ratingText = strings.TrimSpace(row.Find("td").Last().Text())
	}
	rating, err := strconv.Atoi(strings.ReplaceAll(ratingText, ",", ""))
	if err != nil {
		return domain.Player{}, false
	}

	return domain.Player{
		Handle:   handle,
		Title:    title,
		Rating:   rating,
		Category: category,
		Source:   domain.PlayerSourceLive,
	}, true
}

// splitTitle peels a leading chess title off a rendered player name.
func splitTitle(name string) (title, handle string) {
	parts := strings.Fields(name)
	if len(parts) >= 2 {
		if _, ok := knownTitles[parts[0]]; ok {
			return parts[0], strings.Join(parts[1:], " ")
		}
	}
	return "", name
}
