package state

import (
	"context"
	"fmt"
	"time"

	"github.com/vantagefps/vantage/pkg/config"
	"github.com/vantagefps/vantage/pkg/mmr"

	"github.com/go-redis/redis/v9"
	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
)

const (
	SESSION_PREFIX       = "session-"
	KEY_TOKEN_TO_PLAYER  = SESSION_PREFIX + "token-%s"
	KEY_PLAYER_TO_RATING = "rating-%s"

	SESSION_TTL = 24 * time.Hour
)

const Nil = redis.Nil

// StateService resolves session tokens and tracks player ratings. When
// Redis is disabled (or unreachable) everything falls back to process
// memory, which is enough for a single-node deployment.
type StateService struct {
	client        *redis.Client
	defaultRating int

	mutex    deadlock.Mutex
	sessions map[string]string
	ratings  map[string]int
}

func NewStateService(settings config.RedisSettings, defaultRating int) *StateService {
	service := &StateService{
		defaultRating: defaultRating,
		sessions:      make(map[string]string),
		ratings:       make(map[string]int),
	}

	if settings.Enabled {
		service.client = redis.NewClient(&redis.Options{
			Addr:     settings.Address,
			Password: settings.Password,
			DB:       settings.DB,
		})
	}

	return service
}

// ResolvePlayerForToken maps a session token to a player id. Unknown
// tokens mint a fresh identity rather than failing, so players without
// a persistent account can still join.
func (s *StateService) ResolvePlayerForToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return uuid.New().String(), nil
	}

	if s.client != nil {
		key := fmt.Sprintf(KEY_TOKEN_TO_PLAYER, token)
		result, err := s.client.Get(ctx, key).Result()
		if err == nil {
			return result, nil
		}
		if err != Nil {
			return "", err
		}

		player := uuid.New().String()
		if err := s.client.Set(ctx, key, player, SESSION_TTL).Err(); err != nil {
			return "", err
		}
		return player, nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if player, ok := s.sessions[token]; ok {
		return player, nil
	}

	player := uuid.New().String()
	s.sessions[token] = player
	return player, nil
}

func (s *StateService) GetRating(ctx context.Context, player string) (int, error) {
	if s.client != nil {
		result, err := s.client.Get(ctx, fmt.Sprintf(KEY_PLAYER_TO_RATING, player)).Int()
		if err == Nil {
			return s.defaultRating, nil
		}
		if err != nil {
			return s.defaultRating, err
		}
		return result, nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if rating, ok := s.ratings[player]; ok {
		return rating, nil
	}
	return s.defaultRating, nil
}

func (s *StateService) SetRating(ctx context.Context, player string, rating int) error {
	if rating < 0 {
		rating = 0
	}

	if s.client != nil {
		return s.client.Set(ctx, fmt.Sprintf(KEY_PLAYER_TO_RATING, player), rating, 0).Err()
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.ratings[player] = rating
	return nil
}

// ApplyMatchResult adjusts the rating of every listed player according
// to the outcome of a finished match.
func (s *StateService) ApplyMatchResult(ctx context.Context, winners []string, losers []string) error {
	elo := mmr.NewElo()

	winnerRatings := make([]int, len(winners))
	for i, player := range winners {
		rating, err := s.GetRating(ctx, player)
		if err != nil {
			return err
		}
		winnerRatings[i] = rating
	}

	loserRatings := make([]int, len(losers))
	for i, player := range losers {
		rating, err := s.GetRating(ctx, player)
		if err != nil {
			return err
		}
		loserRatings[i] = rating
	}

	winnerOutcomes, loserOutcomes := elo.TeamOutcome(winnerRatings, loserRatings)

	for i, player := range winners {
		if err := s.SetRating(ctx, player, winnerOutcomes[i].Rating); err != nil {
			return err
		}
	}
	for i, player := range losers {
		if err := s.SetRating(ctx, player, loserOutcomes[i].Rating); err != nil {
			return err
		}
	}

	return nil
}
