package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// UserSession is a persisted authentication session: one authenticated GitHub
// user with an optionally selected repository.
type UserSession struct {
	ID           string    `json:"id"`
	Credential   string    `json:"credential"`
	Username     string    `json:"username"`
	Repository   string    `json:"repository,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}

// Message is one chat history entry. The agent core never reads these; they
// exist so the transport layer can replay a conversation.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists user sessions and chat history in an embedded badger
// database. All methods are safe for concurrent use.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenStore opens (or creates) the badger database at dir. Sessions idle for
// longer than ttl are removed by the expiry sweep.
func OpenStore(dir string, ttl time.Duration) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // badger's own logging is too chatty for this service
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	return &Store{db: db, ttl: ttl}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func sessionKey(id string) []byte {
	return []byte("session/" + id)
}

func messageKey(sessionID string, createdAt time.Time, id string) []byte {
	// Timestamp prefix keeps messages in insertion order under badger's
	// lexicographic iteration
	return []byte(fmt.Sprintf("chat/%s/%s/%s", sessionID, createdAt.UTC().Format(time.RFC3339Nano), id))
}

// Create stores a new session for an authenticated user and returns it.
func (s *Store) Create(credential string, username string) (*UserSession, error) {
	now := time.Now().UTC()
	sess := &UserSession{
		ID:           uuid.New().String(),
		Credential:   credential,
		Username:     username,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	if err := s.putSession(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get returns the session with the given ID, or ErrNotFound.
func (s *Store) Get(id string) (*UserSession, error) {
	var sess UserSession
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &sess, nil
}

// SelectRepository records the repository a session operates on and refreshes
// its activity timestamp.
func (s *Store) SelectRepository(id string, repository string) (*UserSession, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	sess.Repository = repository
	sess.LastActiveAt = time.Now().UTC()
	if err := s.putSession(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Touch refreshes a session's activity timestamp.
func (s *Store) Touch(id string) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	sess.LastActiveAt = time.Now().UTC()
	return s.putSession(sess)
}

func (s *Store) putSession(sess *UserSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey(sess.ID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// AppendMessage adds one chat history entry for a session.
func (s *Store) AppendMessage(sessionID string, role string, content string) error {
	msg := Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(sessionID, msg.CreatedAt, msg.ID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}
	return nil
}

// History returns a session's chat messages in insertion order.
func (s *Store) History(sessionID string) ([]Message, error) {
	var messages []Message
	prefix := []byte("chat/" + sessionID + "/")
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var msg Message
				if err := json.Unmarshal(val, &msg); err != nil {
					return err
				}
				messages = append(messages, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	return messages, nil
}

// RunExpirySweep removes idle sessions every interval until ctx is cancelled.
func (s *Store) RunExpirySweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.deleteExpired(); err != nil {
				log.Printf("Session expiry sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("Expired %d idle session(s)", n)
			}
		}
	}
}

func (s *Store) deleteExpired() (int, error) {
	cutoff := time.Now().UTC().Add(-s.ttl)
	var expired [][]byte

	prefix := []byte("session/")
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var sess UserSession
				if err := json.Unmarshal(val, &sess); err != nil {
					return err
				}
				if sess.LastActiveAt.Before(cutoff) {
					expired = append(expired, item.KeyCopy(nil))
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, key := range expired {
		err := s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key)
		})
		if err != nil {
			return 0, err
		}
	}
	return len(expired), nil
}
