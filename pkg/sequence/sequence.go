// Package sequence hands out fresh identifiers for new rows.
package sequence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hearc-ig/guideresto/pkg/database"
)

// Sequence names, one identifier space per entity type.
// Likes and comments share seq_evaluations.
const (
	Cities             = "seq_cities"
	RestaurantTypes    = "seq_restaurant_types"
	EvaluationCriteria = "seq_evaluation_criteria"
	Restaurants        = "seq_restaurants"
	Evaluations        = "seq_evaluations"
	Grades             = "seq_grades"
)

// Source produces the next unused identifier of a sequence.
// Collision-freedom is the source's responsibility.
type Source interface {
	NextID(ctx context.Context, sequence string) (int64, error)
}

// PostgresSource reads database sequences with nextval on the session found in ctx.
type PostgresSource struct{}

// NewPostgresSource creates a Source backed by PostgreSQL sequences.
func NewPostgresSource() *PostgresSource {
	return &PostgresSource{}
}

// NextID returns nextval(sequence).
func (s *PostgresSource) NextID(ctx context.Context, sequence string) (int64, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return 0, err
	}

	var id int64
	if err := q.QueryRow(ctx, "SELECT nextval($1::regclass)", sequence).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read sequence %s: %w", sequence, err)
	}
	return id, nil
}

// RedisSource increments one counter key per sequence.
// It is useful when several databases must share an identifier space.
type RedisSource struct {
	client    redis.Cmdable
	keyPrefix string
}

// NewRedisSource creates a Source backed by Redis INCR.
func NewRedisSource(client redis.Cmdable, keyPrefix string) *RedisSource {
	return &RedisSource{client: client, keyPrefix: keyPrefix}
}

// NextID returns INCR <prefix><sequence>.
func (s *RedisSource) NextID(ctx context.Context, sequence string) (int64, error) {
	id, err := s.client.Incr(ctx, s.keyPrefix+sequence).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence %s: %w", sequence, err)
	}
	return id, nil
}

var (
	_ Source = (*PostgresSource)(nil)
	_ Source = (*RedisSource)(nil)
)
