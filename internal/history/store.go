package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	ws "github.com/pollwave/pollwave/pkg/http/ws"
)

const historyKey = "pollwave:history"

const defaultLimit = 50

// Record is the archived snapshot of one closed poll.
type Record struct {
	QuestionNumber int               `json:"questionNumber"`
	Question       string            `json:"question"`
	Results        []ws.OptionResult `json:"results"`
	TotalStudents  int               `json:"totalStudents"`
	TotalAnswers   int               `json:"totalAnswers"`
	Trigger        string            `json:"trigger"`
	ClosedAt       time.Time         `json:"closedAt"`
}

// Store keeps a bounded, newest-first list of closed-poll results in Redis.
// This is an audit trail for teachers, not session durability: live session
// state stays in memory and is gone after a restart.
type Store struct {
	client *redis.Client
	limit  int64
	logger zerolog.Logger
}

// NewStore creates a history store trimmed to the given number of records.
func NewStore(client *redis.Client, limit int, logger zerolog.Logger) *Store {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Store{client: client, limit: int64(limit), logger: logger}
}

// Save prepends a record and trims the list to the configured bound.
func (s *Store) Save(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, historyKey, data)
	pipe.LTrim(ctx, historyKey, 0, s.limit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store record: %w", err)
	}
	return nil
}

// Recent returns archived results, newest first.
func (s *Store) Recent(ctx context.Context) ([]Record, error) {
	raw, err := s.client.LRange(ctx, historyKey, 0, s.limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	records := make([]Record, 0, len(raw))
	for _, item := range raw {
		var rec Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			s.logger.Warn().Err(err).Msg("skip corrupted history record")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
