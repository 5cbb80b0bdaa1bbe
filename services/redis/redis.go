package redis

import (
	redis_models "Skirmish/models/redis"
	redis_utils "Skirmish/services/redis/utils"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Mirror keys expire on their own if the server dies without cleaning up.
const sessionTTL = 24 * time.Hour

// RedisClient handles Redis operations
type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisClient creates a new Redis client instance
func NewRedisClient(addr string, db int) *RedisClient {
	var client *redis.Client
	if addr != "localhost:6379" {
		log.Println("Connecting to remote Redis...")
		opt, err := redis.ParseURL(addr)
		if err != nil {
			panic("Error parsing Redis URL")
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		})
	}
	return &RedisClient{
		client: client,
		ctx:    context.Background(),
	}
}

// SaveSessionState stores the published mirror of a running session
// Key format: "session:{codeName}"
// TTL: 24 hours
func (rc *RedisClient) SaveSessionState(state *redis_models.SessionState) error {
	key := redis_utils.FormatSessionKey(state.CodeName)
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("error marshaling session state: %v", err)
	}
	return rc.client.Set(rc.ctx, key, data, sessionTTL).Err()
}

// GetSessionState retrieves the mirrored state of a session
// Key format: "session:{codeName}"
func (rc *RedisClient) GetSessionState(codeName string) (*redis_models.SessionState, error) {
	key := redis_utils.FormatSessionKey(codeName)
	data, err := rc.client.Get(rc.ctx, key).Bytes()
	if err != nil {
		return nil, fmt.Errorf("error getting session state: %v", err)
	}

	var state redis_models.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("error unmarshaling session state: %v", err)
	}
	return &state, nil
}

// DeleteSessionState removes a session mirror and its slot advertisement
func (rc *RedisClient) DeleteSessionState(codeName string) error {
	pipe := rc.client.Pipeline()
	pipe.Del(rc.ctx, redis_utils.FormatSessionKey(codeName))
	pipe.Del(rc.ctx, redis_utils.FormatArenaSlotsKey(codeName))

	if _, err := pipe.Exec(rc.ctx); err != nil {
		return fmt.Errorf("error deleting session state: %v", err)
	}
	return nil
}

// SaveArenaSlots publishes the advertised slot counts for this server
// Key format: "arena:{codeName}:slots"
func (rc *RedisClient) SaveArenaSlots(slots *redis_models.ArenaSlots) error {
	key := redis_utils.FormatArenaSlotsKey(slots.CodeName)
	data, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("error marshaling arena slots: %v", err)
	}
	return rc.client.Set(rc.ctx, key, data, sessionTTL).Err()
}

// GetArenaSlots retrieves the advertised slot counts
// Key format: "arena:{codeName}:slots"
func (rc *RedisClient) GetArenaSlots(codeName string) (*redis_models.ArenaSlots, error) {
	key := redis_utils.FormatArenaSlotsKey(codeName)
	data, err := rc.client.Get(rc.ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting arena slots: %v", err)
	}

	var slots redis_models.ArenaSlots
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, fmt.Errorf("error unmarshaling arena slots: %v", err)
	}
	return &slots, nil
}

// SavePlayerPresence stores one participant's presence for direct lookups
// Key format: "player:{username}:presence"
func (rc *RedisClient) SavePlayerPresence(presence *redis_models.ParticipantPresence) error {
	key := redis_utils.FormatPresenceKey(presence.Username)
	data, err := json.Marshal(presence)
	if err != nil {
		return fmt.Errorf("error marshaling player presence: %v", err)
	}
	return rc.client.Set(rc.ctx, key, data, sessionTTL).Err()
}

// GetPlayerPresence retrieves one participant's presence, nil when absent
func (rc *RedisClient) GetPlayerPresence(username string) (*redis_models.ParticipantPresence, error) {
	key := redis_utils.FormatPresenceKey(username)
	data, err := rc.client.Get(rc.ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting player presence: %v", err)
	}

	var presence redis_models.ParticipantPresence
	if err := json.Unmarshal(data, &presence); err != nil {
		return nil, fmt.Errorf("error unmarshaling player presence: %v", err)
	}
	return &presence, nil
}

// DeletePlayerPresence removes one participant's presence key
func (rc *RedisClient) DeletePlayerPresence(username string) error {
	key := redis_utils.FormatPresenceKey(username)
	if err := rc.client.Del(rc.ctx, key).Err(); err != nil {
		return fmt.Errorf("error deleting player presence: %v", err)
	}
	return nil
}
