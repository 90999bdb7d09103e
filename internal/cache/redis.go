// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Rdb is the global Redis client. Connect it once at application startup;
// when it stays nil the event log is disabled and publishing is a no-op.
var Rdb *redis.Client

// DefaultQueueName is the Redis list (queue) name for lobby event records.
var DefaultQueueName = "lobby_events"

// Lobby event types pushed to the queue.
const (
	EventLobbyCreated = "lobby_created"
	EventPlayerJoined = "player_joined"
	EventPlayerLeft   = "player_left"
	EventReadyToggled = "ready_toggled"
	EventPlayerKicked = "player_kicked"
	EventHostPromoted = "host_promoted"
	EventGameStarted  = "game_started"
)

// LobbyEventRecord is the minimal record downstream consumers (analytics,
// history) need about a lobby mutation.
type LobbyEventRecord struct {
	LobbyID     int64                  `json:"lobby_id"`
	Code        string                 `json:"code"`
	ActorUserID uuid.UUID              `json:"actor_user_id"`
	EventType   string                 `json:"event_type"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	Timestamp   int64                  `json:"timestamp"`
}

// ConnectRedis initializes the global Redis client with environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	Rdb = client
	return nil
}

// PublishLobbyEvent serializes the record and pushes it onto the event
// queue. Best-effort: a nil client means events are disabled.
func PublishLobbyEvent(ctx context.Context, record LobbyEventRecord) error {
	if Rdb == nil {
		return nil
	}

	if record.Timestamp == 0 {
		record.Timestamp = time.Now().Unix()
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal LobbyEventRecord: %w", err)
	}

	queueName := getEnv("LOBBY_EVENT_QUEUE_NAME", DefaultQueueName)
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
