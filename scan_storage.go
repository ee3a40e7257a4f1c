package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-passport-scanner/document/mrz"

	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("scan session not found")

// Should be safe to use concurrently. Every implementation is a one-shot latch
// per session: once an accepted verdict is stored it is never replaced.
type ScanStorage interface {
	// Creates a pending session. Starting an existing session again
	// does not clear its accepted verdict.
	StartSession(sessionId string) error

	// Offers a freshly computed verdict to the session latch and returns the
	// verdict the session now holds. latched is true when that verdict is an
	// accepted one. Returns ErrSessionNotFound for unknown sessions.
	KeepVerdict(sessionId string, verdict mrz.Verdict) (held mrz.Verdict, latched bool, err error)

	// Returns the accepted verdict of the session, if any.
	RetrieveAccepted(sessionId string) (verdict mrz.Verdict, latched bool, err error)

	// Removes the session. The session not being there is an error.
	RemoveSession(sessionId string) error
}

// ------------------------------------------------------------------------------

type InMemoryScanStorage struct {
	sessions map[string]*mrz.Latch
	mutex    sync.Mutex
}

func NewInMemoryScanStorage() *InMemoryScanStorage {
	return &InMemoryScanStorage{
		sessions: make(map[string]*mrz.Latch),
	}
}

func (s *InMemoryScanStorage) latch(sessionId string) (*mrz.Latch, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	latch, ok := s.sessions[sessionId]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionId)
	}
	return latch, nil
}

func (s *InMemoryScanStorage) StartSession(sessionId string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.sessions[sessionId]; !ok {
		s.sessions[sessionId] = &mrz.Latch{}
	}
	return nil
}

func (s *InMemoryScanStorage) KeepVerdict(sessionId string, verdict mrz.Verdict) (mrz.Verdict, bool, error) {
	latch, err := s.latch(sessionId)
	if err != nil {
		return verdict, false, err
	}
	held := latch.Keep(verdict)
	return held, held.Accepted(), nil
}

func (s *InMemoryScanStorage) RetrieveAccepted(sessionId string) (mrz.Verdict, bool, error) {
	latch, err := s.latch(sessionId)
	if err != nil {
		return mrz.Verdict{}, false, err
	}
	verdict, ok := latch.Accepted()
	return verdict, ok, nil
}

func (s *InMemoryScanStorage) RemoveSession(sessionId string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.sessions[sessionId]; ok {
		delete(s.sessions, sessionId)
		return nil
	}
	return fmt.Errorf("failed to remove session %s, because it wasn't there: %w", sessionId, ErrSessionNotFound)
}

// ------------------------------------------------------------------------------

const Timeout time.Duration = 24 * time.Hour

const pendingValue = "pending"

// keepScript stores the verdict only while the session exists and nothing was
// accepted yet. The accepted key inherits the remaining TTL of the session key.
// Returns -1 for a missing session, 1 when stored and 0 when a verdict was already held.
var keepScript = redis.NewScript(`
local ttl = redis.call('PTTL', KEYS[1])
if ttl == -2 then
	return -1
end
local stored
if ttl > 0 then
	stored = redis.call('SET', KEYS[2], ARGV[1], 'NX', 'PX', ttl)
else
	stored = redis.call('SET', KEYS[2], ARGV[1], 'NX')
end
if stored then
	return 1
end
return 0
`)

type RedisScanStorage struct {
	client    *redis.Client
	namespace string
}

func NewRedisScanStorage(client *redis.Client, namespace string) *RedisScanStorage {
	return &RedisScanStorage{client: client, namespace: namespace}
}

func sessionKey(namespace, sessionId string) string {
	return fmt.Sprintf("%s:scan:%s", namespace, sessionId)
}

func acceptedKey(namespace, sessionId string) string {
	return fmt.Sprintf("%s:scan:%s:accepted", namespace, sessionId)
}

func (s *RedisScanStorage) StartSession(sessionId string) error {
	ctx := context.Background()
	return s.client.SetNX(ctx, sessionKey(s.namespace, sessionId), pendingValue, Timeout).Err()
}

func (s *RedisScanStorage) requireSession(ctx context.Context, sessionId string) error {
	n, err := s.client.Exists(ctx, sessionKey(s.namespace, sessionId)).Result()
	if err != nil {
		return fmt.Errorf("failed to look up session %s: %w", sessionId, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionId)
	}
	return nil
}

func (s *RedisScanStorage) KeepVerdict(sessionId string, verdict mrz.Verdict) (mrz.Verdict, bool, error) {
	ctx := context.Background()
	if !verdict.Accepted() {
		held, latched, err := s.RetrieveAccepted(sessionId)
		if err != nil || !latched {
			return verdict, false, err
		}
		return held, true, nil
	}

	payload, err := json.Marshal(verdict)
	if err != nil {
		return verdict, false, fmt.Errorf("failed to marshal verdict: %w", err)
	}

	keys := []string{sessionKey(s.namespace, sessionId), acceptedKey(s.namespace, sessionId)}
	result, err := keepScript.Run(ctx, s.client, keys, string(payload)).Int()
	if err != nil {
		return verdict, false, fmt.Errorf("failed to store verdict: %w", err)
	}

	switch result {
	case -1:
		return verdict, false, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionId)
	case 1:
		return verdict, true, nil
	}

	held, latched, err := s.retrieveAccepted(ctx, sessionId)
	if err != nil || !latched {
		return verdict, false, err
	}
	return held, true, nil
}

func (s *RedisScanStorage) RetrieveAccepted(sessionId string) (mrz.Verdict, bool, error) {
	ctx := context.Background()
	if err := s.requireSession(ctx, sessionId); err != nil {
		return mrz.Verdict{}, false, err
	}
	return s.retrieveAccepted(ctx, sessionId)
}

func (s *RedisScanStorage) retrieveAccepted(ctx context.Context, sessionId string) (mrz.Verdict, bool, error) {
	payload, err := s.client.Get(ctx, acceptedKey(s.namespace, sessionId)).Bytes()
	if errors.Is(err, redis.Nil) {
		return mrz.Verdict{}, false, nil
	}
	if err != nil {
		return mrz.Verdict{}, false, fmt.Errorf("failed to retrieve verdict: %w", err)
	}

	var verdict mrz.Verdict
	if err := json.Unmarshal(payload, &verdict); err != nil {
		return mrz.Verdict{}, false, fmt.Errorf("failed to unmarshal verdict: %w", err)
	}
	return verdict, true, nil
}

func (s *RedisScanStorage) RemoveSession(sessionId string) error {
	ctx := context.Background()
	removed, err := s.client.Del(ctx, sessionKey(s.namespace, sessionId), acceptedKey(s.namespace, sessionId)).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return fmt.Errorf("failed to remove session %s, because it wasn't there: %w", sessionId, ErrSessionNotFound)
	}
	return nil
}
