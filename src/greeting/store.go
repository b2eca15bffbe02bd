package greeting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"linebot_responder/src/model"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ErrReplyNotFound means the lookup ran but no greeting with that name has a reply
var ErrReplyNotFound = errors.New("no reply found")

const (
	// Labels cannot be query parameters, so the label is fixed here
	allGreetingsQuery = `
		MATCH (n:Greeting)
		RETURN n.name AS name, n.msg_reply AS reply`

	replyByNameQuery = `
		MATCH (n:Greeting)
		WHERE n.name = $name
		RETURN n.msg_reply AS reply
		LIMIT 1`

	upsertGreetingQuery = `
		MERGE (n:Greeting {name: $name})
		SET n.msg_reply = $reply`
)

// Store reads greeting phrases and replies from Neo4j
type Store struct {
	driver       neo4j.DriverWithContext
	database     string
	queryTimeout time.Duration
}

// NewStore creates the driver and verifies the server is reachable
func NewStore(ctx context.Context, config model.Neo4jConfig) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(config.URI, neo4j.BasicAuth(config.Username, config.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("error creating neo4j driver: %w", err)
	}

	store := &Store{
		driver:       driver,
		database:     config.Database,
		queryTimeout: config.QueryTimeout,
	}

	if err := store.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}
	return store, nil
}

// VerifyConnectivity checks the server can be reached with the configured credentials
func (s *Store) VerifyConnectivity(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("neo4j unreachable: %w", err)
	}
	return nil
}

// Close releases the driver's connection pool
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

// FetchAllGreetings returns every greeting node with a non-null name
func (s *Store) FetchAllGreetings(ctx context.Context) ([]model.GreetingEntry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, allGreetingsQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("error querying greetings: %w", err)
	}

	var entries []model.GreetingEntry
	for result.Next(ctx) {
		record := result.Record()
		name, isNil, err := neo4j.GetRecordValue[string](record, "name")
		if err != nil || isNil {
			continue
		}
		reply, _, _ := neo4j.GetRecordValue[string](record, "reply")
		entries = append(entries, model.GreetingEntry{Name: name, Reply: reply})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("error reading greetings: %w", err)
	}
	return entries, nil
}

// FetchAllGreetingNames returns the deduplicated greeting names, first occurrence order
func (s *Store) FetchAllGreetingNames(ctx context.Context) ([]string, error) {
	entries, err := s.FetchAllGreetings(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return DedupeNames(names), nil
}

// FetchReplyByName returns the stored reply for an exact name match.
// ErrReplyNotFound is returned when nothing matched; any other error is a query failure.
func (s *Store) FetchReplyByName(ctx context.Context, name string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, replyByNameQuery, map[string]any{"name": name})
	if err != nil {
		return "", fmt.Errorf("error querying reply for %q: %w", name, err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return "", fmt.Errorf("error reading reply for %q: %w", name, err)
		}
		return "", fmt.Errorf("%w: %q", ErrReplyNotFound, name)
	}

	reply, isNil, err := neo4j.GetRecordValue[string](result.Record(), "reply")
	if err != nil {
		return "", fmt.Errorf("error reading reply for %q: %w", name, err)
	}
	if isNil {
		return "", fmt.Errorf("%w: %q", ErrReplyNotFound, name)
	}
	return reply, nil
}

// UpsertGreetings creates or updates greeting nodes by name
func (s *Store) UpsertGreetings(ctx context.Context, entries []model.GreetingEntry) (int, error) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	written := 0
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		qctx, cancel := s.withTimeout(ctx)
		result, err := session.Run(qctx, upsertGreetingQuery, map[string]any{"name": e.Name, "reply": e.Reply})
		if err == nil {
			_, err = result.Consume(qctx)
		}
		cancel()
		if err != nil {
			return written, fmt.Errorf("error upserting greeting %q: %w", e.Name, err)
		}
		written++
	}
	return written, nil
}

// DedupeNames drops empty and repeated names, keeping first occurrence order
func DedupeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
