package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"messenger/infrastructure"
	"messenger/internal/database"
)

func newTestService(t *testing.T) (*Service, Repository) {
	t.Helper()
	db := database.NewTestDatabase(t, &Channel{}, &Admin{}, &Subscription{})
	repo := NewRepository(db.DB)
	svc := NewService(repo, zerolog.Nop())
	svc.now = func() time.Time { return time.UnixMilli(50) }
	return svc, repo
}

func assertCountMatchesEdges(t *testing.T, svc *Service, repo Repository, channelID string) {
	t.Helper()
	c, err := repo.Get(context.Background(), channelID)
	if err != nil {
		t.Fatal(err)
	}
	edges, err := repo.CountSubscriptions(context.Background(), channelID)
	if err != nil {
		t.Fatal(err)
	}
	if c.SubscriberCount != edges {
		t.Fatalf("subscriber_count = %d, subscriptions = %d", c.SubscriberCount, edges)
	}
}

func TestCreateNewsChannel(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, "alice", CreateInput{Name: "News", Username: "news", IsPublic: true})
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Create(ctx, "bob", CreateInput{Name: "More news", Username: "news", IsPublic: true})
	if !IsUsernameTaken(err) || !errors.Is(err, infrastructure.ErrConflict) {
		t.Fatalf("duplicate username: %v", err)
	}

	v, err := svc.Get(ctx, "alice", id)
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsAdmin || !v.IsSubscribed || v.SubscriberCount != 1 {
		t.Fatalf("unexpected view %+v", v)
	}
	if len(v.Admins) != 1 || v.Admins[0] != "alice" {
		t.Fatalf("admins = %v", v.Admins)
	}
	assertCountMatchesEdges(t, svc, repo, id)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Create(context.Background(), "alice", CreateInput{Name: "x"}); !errors.Is(err, infrastructure.ErrInvalidInput) {
		t.Fatalf("missing username: %v", err)
	}
}

func TestSubscribeIsIdempotent(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, "alice", CreateInput{Name: "News", Username: "news", IsPublic: true})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := svc.Subscribe(ctx, "bob", id); err != nil {
			t.Fatal(err)
		}
	}
	assertCountMatchesEdges(t, svc, repo, id)

	v, err := svc.Get(ctx, "bob", id)
	if err != nil {
		t.Fatal(err)
	}
	if v.SubscriberCount != 2 || !v.IsSubscribed || v.IsAdmin {
		t.Fatalf("unexpected view %+v", v)
	}

	for i := 0; i < 3; i++ {
		if err := svc.Unsubscribe(ctx, "bob", id); err != nil {
			t.Fatal(err)
		}
	}
	assertCountMatchesEdges(t, svc, repo, id)

	if err := svc.Subscribe(ctx, "bob", "missing"); !errors.Is(err, infrastructure.ErrNotFound) {
		t.Fatalf("missing channel: %v", err)
	}
}

func TestSubscriberCountUnderConcurrency(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, "owner", CreateInput{Name: "Busy", Username: "busy", IsPublic: true})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		user := fmt.Sprintf("user-%d", i%10)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%4 == 3 {
				errs <- svc.Unsubscribe(ctx, user, id)
				return
			}
			errs <- svc.Subscribe(ctx, user, id)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	assertCountMatchesEdges(t, svc, repo, id)
}

func TestCreatorUnsubscribeKeepsAdmin(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, "alice", CreateInput{Name: "News", Username: "news"})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Unsubscribe(ctx, "alice", id); err != nil {
		t.Fatal(err)
	}
	v, err := svc.Get(ctx, "alice", id)
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsAdmin || v.IsSubscribed || v.SubscriberCount != 0 {
		t.Fatalf("unexpected view %+v", v)
	}
	assertCountMatchesEdges(t, svc, repo, id)

	ok, err := svc.CanRead(ctx, id, "alice")
	if err != nil || !ok {
		t.Fatalf("admin should read private channel: %v, %v", ok, err)
	}
	ok, err = svc.CanRead(ctx, id, "stranger")
	if err != nil || ok {
		t.Fatalf("stranger read private channel: %v, %v", ok, err)
	}
}

func TestSearchPublic(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "a", CreateInput{Name: "Daily News", Username: "daily", IsPublic: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, "a", CreateInput{Name: "Secret", Username: "secret_news", IsPublic: false}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 25; i++ {
		if _, err := svc.Create(ctx, "a", CreateInput{Name: "Feed", Username: fmt.Sprintf("newsfeed%d", i), IsPublic: true}); err != nil {
			t.Fatal(err)
		}
	}

	found, err := svc.SearchPublic(ctx, "NEWS")
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != infrastructure.SearchLimit {
		t.Fatalf("got %d results, want %d", len(found), infrastructure.SearchLimit)
	}
	for _, c := range found {
		if !c.IsPublic {
			t.Fatalf("private channel %s in results", c.Username)
		}
	}

	empty, err := svc.SearchPublic(ctx, " ")
	if err != nil || len(empty) != 0 {
		t.Fatalf("blank query: %v, %d", err, len(empty))
	}
}

func TestListMine(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	own, err := svc.Create(ctx, "alice", CreateInput{Name: "Mine", Username: "mine", IsPublic: true})
	if err != nil {
		t.Fatal(err)
	}
	other, err := svc.Create(ctx, "bob", CreateInput{Name: "Bob's", Username: "bobs", IsPublic: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, "bob", CreateInput{Name: "Unrelated", Username: "unrelated", IsPublic: true}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Subscribe(ctx, "alice", other); err != nil {
		t.Fatal(err)
	}
	db := repo.(*repository).db
	if err := repo.RecordMessage(db, other, 1000, "latest"); err != nil {
		t.Fatal(err)
	}

	list, err := svc.ListMine(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d channels, want 2", len(list))
	}
	if list[0].ID != other || list[0].IsAdmin {
		t.Fatalf("first = %+v", list[0])
	}
	if list[1].ID != own || !list[1].IsAdmin {
		t.Fatalf("second = %+v", list[1])
	}
}

func TestNewChannelListsFirst(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	older, err := svc.Create(ctx, "alice", CreateInput{Name: "Older", Username: "older", IsPublic: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.RecordMessage(repo.(*repository).db, older, 1_500, "post"); err != nil {
		t.Fatal(err)
	}

	svc.now = func() time.Time { return time.UnixMilli(2_000) }
	fresh, err := svc.Create(ctx, "alice", CreateInput{Name: "Fresh", Username: "fresh", IsPublic: true})
	if err != nil {
		t.Fatal(err)
	}

	list, err := svc.ListMine(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != fresh || list[0].LastMessageAt != 2_000 {
		t.Fatalf("fresh channel should list first: %+v", list)
	}
}
