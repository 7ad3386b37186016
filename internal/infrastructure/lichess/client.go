// Package lichess implements the upstream game-export and leaderboard API
// client. Games arrive as NDJSON, one game per line; the leaderboard is plain
// JSON. Explicit 429 responses surface as *ratelimit.LimitError so callers
// can raise the cooldown barrier instead of treating them as failures.
package lichess

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"GameHarvester/internal/domain"
	"GameHarvester/internal/leaderboard"
	"GameHarvester/internal/ports"
	"GameHarvester/internal/ratelimit"
)

// mateScale collapses mate-in-N verdicts onto the centipawn axis the way
// engines report them: a forced mate dominates any material count.
const mateScale = 10000

// maxLineBytes bounds one NDJSON line; long classical games with full
// analysis stay well under this.
const maxLineBytes = 1 << 20

// Config carries the client tunables.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// DefaultRetryAfter is assumed when a 429 carries no Retry-After header.
	DefaultRetryAfter time.Duration
}

// Client talks to a Lichess-style export API.
type Client struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

var (
	_ ports.GameSource    = (*Client)(nil)
	_ leaderboard.Scanner = (*Client)(nil)
)

// NewClient builds the API client.
func NewClient(cfg Config, log *slog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: log,
	}
}

// Name identifies the client as a leaderboard strategy inside the registry.
func (c *Client) Name() string {
	return "lichess"
}

// GamesByPlayer pulls up to max games the player finished inside [since,
// until), newest first, with moves and upstream analysis attached.
func (c *Client) GamesByPlayer(ctx context.Context, handle string, since, until time.Time, max int) ([]domain.Game, error) {
	endpoint := fmt.Sprintf("%s/api/games/user/%s", strings.TrimSuffix(c.cfg.BaseURL, "/"), url.PathEscape(handle))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	query := req.URL.Query()
	query.Set("since", strconv.FormatInt(since.UnixMilli(), 10))
	query.Set("until", strconv.FormatInt(until.UnixMilli(), 10))
	query.Set("max", strconv.Itoa(max))
	query.Set("moves", "true")
	query.Set("evals", "true")
	req.URL.RawQuery = query.Encode()

	req.Header.Set("Accept", "application/x-ndjson")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request games for %s: %w", handle, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &ratelimit.LimitError{RetryAfter: c.retryAfter(resp)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("games endpoint returned %s for %s", resp.Status, handle)
	}

	return c.decodeGames(resp, handle), nil
}

// TopPlayers asks the leaderboard endpoint for the top entries of a category.
func (c *Client) TopPlayers(ctx context.Context, category leaderboard.Category, limit int) ([]domain.Player, error) {
	endpoint := fmt.Sprintf("%s/api/player/top/%d/%s",
		strings.TrimSuffix(c.cfg.BaseURL, "/"), limit, url.PathEscape(category.Name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request top players: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &ratelimit.LimitError{RetryAfter: c.retryAfter(resp)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("leaderboard endpoint returned %s", resp.Status)
	}

	var payload struct {
		Users []struct {
			Username string                    `json:"username"`
			Title    string                    `json:"title"`
			Perfs    map[string]struct{ Rating int } `json:"perfs"`
		} `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode leaderboard: %w", err)
	}

	players := make([]domain.Player, 0, len(payload.Users))
	for _, u := range payload.Users {
		if u.Username == "" {
			continue
		}
		players = append(players, domain.Player{
			Handle:   u.Username,
			Title:    u.Title,
			Rating:   u.Perfs[category.Name].Rating,
			Category: category.Name,
			Source:   domain.PlayerSourceLive,
		})
	}
	return players, nil
}

// retryAfter reads the advertised reset hint, falling back to the configured
// default when the header is missing or unparseable.
func (c *Client) retryAfter(resp *http.Response) time.Duration {
	if raw := resp.Header.Get("Retry-After"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return c.cfg.DefaultRetryAfter
}

type gameLine struct {
	ID        string `json:"id"`
	Speed     string `json:"speed"`
	CreatedAt int64  `json:"createdAt"`
	Players   struct {
		White struct {
			User struct {
				Name string `json:"name"`
			} `json:"user"`
		} `json:"white"`
		Black struct {
			User struct {
				Name string `json:"name"`
			} `json:"user"`
		} `json:"black"`
	} `json:"players"`
	Moves    string `json:"moves"`
	Analysis []struct {
		Eval *int `json:"eval"`
		Mate *int `json:"mate"`
	} `json:"analysis"`
}

// decodeGames scans the NDJSON body. Malformed lines are skipped; losing one
// game is cheaper than failing the player.
func (c *Client) decodeGames(resp *http.Response, handle string) []domain.Game {
	var games []domain.Game

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var raw gameLine
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			c.logger.Debug("skipping malformed game line", "player", handle, "error", err)
			continue
		}
		if raw.ID == "" {
			c.logger.Debug("skipping game line without id", "player", handle)
			continue
		}

		games = append(games, domain.Game{
			ID:       raw.ID,
			Handle:   handle,
			White:    raw.Players.White.User.Name,
			Black:    raw.Players.Black.User.Name,
			Speed:    raw.Speed,
			PlayedAt: time.UnixMilli(raw.CreatedAt).UTC(),
			Plies:    len(strings.Fields(raw.Moves)),
			Eval:     evaluation(raw),
		})
	}
	if err := scanner.Err(); err != nil {
		c.logger.Warn("game stream ended early", "player", handle, "error", err)
	}

	return games
}

// evaluation derives the final-position verdict from the analysis tail. Depth
// is the number of analyzed plies behind it.
func evaluation(raw gameLine) *domain.Evaluation {
	if len(raw.Analysis) == 0 {
		return nil
	}

	last := raw.Analysis[len(raw.Analysis)-1]
	eval := &domain.Evaluation{Depth: len(raw.Analysis)}
	switch {
	case last.Mate != nil:
		if *last.Mate >= 0 {
			eval.Score = mateScale - *last.Mate
		} else {
			eval.Score = -mateScale - *last.Mate
		}
	case last.Eval != nil:
		eval.Score = *last.Eval
	default:
		return nil
	}
	return eval
}
