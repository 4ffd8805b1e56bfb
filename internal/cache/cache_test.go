package cache

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"nexus/internal/api"
	"nexus/internal/kanban/models"
)

type stubBackend struct {
	metadataFn func(ctx context.Context, boardID string) (models.Board, error)
	detailsFn  func(ctx context.Context, boardID string) (api.BoardDetails, error)
}

func (s *stubBackend) GetBoardMetadata(ctx context.Context, boardID string) (models.Board, error) {
	if s.metadataFn == nil {
		return models.Board{}, errors.New("unexpected GetBoardMetadata call")
	}
	return s.metadataFn(ctx, boardID)
}

func (s *stubBackend) GetBoardDetails(ctx context.Context, boardID string) (api.BoardDetails, error) {
	if s.detailsFn == nil {
		return api.BoardDetails{}, errors.New("unexpected GetBoardDetails call")
	}
	return s.detailsFn(ctx, boardID)
}

func startRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestDetailsMissThenHit(t *testing.T) {
	_, client := startRedis(t)
	ctx := context.Background()
	expected := api.BoardDetails{
		ID:    "b1",
		Lists: []models.List{{ID: "A", BoardID: "b1", Name: "To Do", Position: 10}},
		Cards: []models.Card{{ID: "1", BoardID: "b1", ListID: "A", Title: "one", Position: 10, Labels: []models.LabelRef{}, MemberIDs: []string{}}},
	}

	var calls int
	c := New(&stubBackend{detailsFn: func(context.Context, string) (api.BoardDetails, error) {
		calls++
		return expected, nil
	}}, client, time.Minute)

	for i := 0; i < 2; i++ {
		got, err := c.GetBoardDetails(ctx, "b1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, expected) {
			t.Errorf("expected %+v, got %+v", expected, got)
		}
	}
	if calls != 1 {
		t.Errorf("expected one backend call, got %d", calls)
	}
}

func TestInvalidate(t *testing.T) {
	mr, client := startRedis(t)
	ctx := context.Background()

	var calls int
	c := New(&stubBackend{metadataFn: func(context.Context, string) (models.Board, error) {
		calls++
		return models.Board{ID: "b1", Name: "Roadmap"}, nil
	}}, client, time.Minute)

	_, _ = c.GetBoardMetadata(ctx, "b1")
	if !mr.Exists(metadataKey("b1")) {
		t.Fatal("expected metadata cached")
	}
	if err := c.Invalidate(ctx, "b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mr.Exists(metadataKey("b1")) {
		t.Error("expected metadata evicted")
	}
	_, _ = c.GetBoardMetadata(ctx, "b1")
	if calls != 2 {
		t.Errorf("expected refetch after invalidation, got %d calls", calls)
	}
}

func TestEntriesExpire(t *testing.T) {
	mr, client := startRedis(t)
	c := New(&stubBackend{metadataFn: func(context.Context, string) (models.Board, error) {
		return models.Board{ID: "b1"}, nil
	}}, client, 30*time.Second)

	_, _ = c.GetBoardMetadata(context.Background(), "b1")
	mr.FastForward(31 * time.Second)
	if mr.Exists(metadataKey("b1")) {
		t.Error("expected entry to expire")
	}
}

func TestCorruptEntryFallsBack(t *testing.T) {
	mr, client := startRedis(t)
	if err := mr.Set(metadataKey("b1"), "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	c := New(&stubBackend{metadataFn: func(context.Context, string) (models.Board, error) {
		return models.Board{ID: "b1", Name: "fresh"}, nil
	}}, client, time.Minute)

	got, err := c.GetBoardMetadata(context.Background(), "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "fresh" {
		t.Errorf("expected backend value, got %+v", got)
	}
}

func TestBackendErrorNotCached(t *testing.T) {
	mr, client := startRedis(t)
	c := New(&stubBackend{detailsFn: func(context.Context, string) (api.BoardDetails, error) {
		return api.BoardDetails{}, errors.New("down")
	}}, client, time.Minute)

	if _, err := c.GetBoardDetails(context.Background(), "b1"); err == nil {
		t.Fatal("expected error")
	}
	if mr.Exists(detailsKey("b1")) {
		t.Error("expected nothing cached")
	}
}

func TestNilClientPassesThrough(t *testing.T) {
	var calls int
	c := New(&stubBackend{metadataFn: func(context.Context, string) (models.Board, error) {
		calls++
		return models.Board{ID: "b1"}, nil
	}}, nil, time.Minute)

	_, _ = c.GetBoardMetadata(context.Background(), "b1")
	_, _ = c.GetBoardMetadata(context.Background(), "b1")
	if calls != 2 {
		t.Errorf("expected every call to reach the backend, got %d", calls)
	}
	if err := c.Invalidate(context.Background(), "b1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
