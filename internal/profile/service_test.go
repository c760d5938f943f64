package profile

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
	"messenger/internal/storage"
)

func newTestService(t *testing.T) (*Service, *storage.Memory) {
	t.Helper()
	db := database.NewTestDatabase(t, &Profile{})
	objects := storage.NewMemory("http://files")
	svc := NewService(NewRepository(db.DB), objects, zerolog.Nop())
	svc.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	return svc, objects
}

func strPtr(s string) *string { return &s }

func TestGetOrCreateDefaults(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.GetOrCreate(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != DefaultName || !p.IsOnline || p.LastSeen != 1_700_000_000_000 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
	if p.PhoneVerified == nil || *p.PhoneVerified {
		t.Fatal("phone should start unverified")
	}

	again, err := svc.GetOrCreate(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != p.ID {
		t.Fatalf("second call created a new profile: %s != %s", again.ID, p.ID)
	}
}

func TestGetOrCreateRequiresCaller(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.GetOrCreate(context.Background(), ""); !errors.Is(err, infrastructure.ErrNotAuthenticated) {
		t.Fatalf("got %v", err)
	}
}

func TestGetOrCreateConcurrent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	const n = 8
	ids := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := svc.GetOrCreate(ctx, "same-user")
			errs[i] = err
			if p != nil {
				ids[i] = p.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("call %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("call %d returned %s, want %s", i, ids[i], ids[0])
		}
	}
}

func TestUpdate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// no profile yet: silently ignored
	if err := svc.Update(ctx, "u1", UpdateInput{Name: strPtr("Ann")}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetMine(ctx, "u1"); !errors.Is(err, infrastructure.ErrNotFound) {
		t.Fatalf("update must not create a profile: %v", err)
	}

	if _, err := svc.GetOrCreate(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Update(ctx, "u1", UpdateInput{Name: strPtr("Ann"), Username: strPtr("ann")}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Update(ctx, "u1", UpdateInput{Bio: strPtr("hi")}); err != nil {
		t.Fatal(err)
	}

	v, err := svc.GetMine(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if v.Name != "Ann" || v.Username == nil || *v.Username != "ann" || v.Bio == nil || *v.Bio != "hi" {
		t.Fatalf("unexpected profile: %+v", v.Profile)
	}

	if err := svc.Update(ctx, "u1", UpdateInput{Name: strPtr("  ")}); !errors.Is(err, infrastructure.ErrInvalidInput) {
		t.Fatalf("blank name: %v", err)
	}

	// an update counts as activity
	if err := svc.SetPresence(ctx, "u1", false); err != nil {
		t.Fatal(err)
	}
	svc.now = func() time.Time { return time.UnixMilli(1_900_000_000_000) }
	if err := svc.Update(ctx, "u1", UpdateInput{Bio: strPtr("back")}); err != nil {
		t.Fatal(err)
	}
	v, err = svc.GetMine(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsOnline || v.LastSeen != 1_900_000_000_000 || *v.Bio != "back" {
		t.Fatalf("update should refresh presence: online=%v last_seen=%d", v.IsOnline, v.LastSeen)
	}
}

func TestSetPresence(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.GetOrCreate(ctx, "u1"); err != nil {
		t.Fatal(err)
	}

	svc.now = func() time.Time { return time.UnixMilli(1_800_000_000_000) }
	if err := svc.SetPresence(ctx, "u1", false); err != nil {
		t.Fatal(err)
	}
	v, err := svc.GetMine(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if v.IsOnline || v.LastSeen != 1_800_000_000_000 {
		t.Fatalf("presence not updated: online=%v lastSeen=%d", v.IsOnline, v.LastSeen)
	}
}

func TestSearch(t *testing.T) {
	svc, objects := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("user-%02d", i)
		if _, err := svc.GetOrCreate(ctx, id); err != nil {
			t.Fatal(err)
		}
		if err := svc.Update(ctx, id, UpdateInput{Name: strPtr(fmt.Sprintf("Alice %d", i))}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.GetOrCreate(ctx, "bob"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Update(ctx, "bob", UpdateInput{Name: strPtr("Robert"), Username: strPtr("Bobby_100%")}); err != nil {
		t.Fatal(err)
	}
	objects.Put("bob-avatar")
	if err := svc.UpdateAvatar(ctx, "bob", "bob-avatar"); err != nil {
		t.Fatal(err)
	}

	empty, err := svc.Search(ctx, "user-00", "   ")
	if err != nil || len(empty) != 0 {
		t.Fatalf("blank query: %v, %d results", err, len(empty))
	}

	alices, err := svc.Search(ctx, "user-00", "ALICE")
	if err != nil {
		t.Fatal(err)
	}
	if len(alices) != infrastructure.SearchLimit {
		t.Fatalf("got %d results, want %d", len(alices), infrastructure.SearchLimit)
	}
	for _, a := range alices {
		if a.UserID == "user-00" {
			t.Fatal("caller included in results")
		}
	}

	bobs, err := svc.Search(ctx, "user-00", "y_100%")
	if err != nil {
		t.Fatal(err)
	}
	if len(bobs) != 1 || bobs[0].UserID != "bob" {
		t.Fatalf("username search returned %+v", bobs)
	}
	if bobs[0].AvatarURL == nil || *bobs[0].AvatarURL != "http://files/objects/bob-avatar" {
		t.Fatalf("avatar url = %v", bobs[0].AvatarURL)
	}

	// wildcards are literal
	if none, _ := svc.Search(ctx, "user-00", "%"); len(none) != 1 {
		t.Fatalf("%% should only match bob, got %d", len(none))
	}
}

func TestAvatarLifecycle(t *testing.T) {
	svc, objects := newTestService(t)
	ctx := context.Background()

	if err := svc.UpdateAvatar(ctx, "u1", "a1"); !errors.Is(err, infrastructure.ErrNotFound) {
		t.Fatalf("no profile: %v", err)
	}
	if _, err := svc.GetOrCreate(ctx, "u1"); err != nil {
		t.Fatal(err)
	}

	target, err := svc.GenerateUploadURL(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.UpdateAvatar(ctx, "u1", target.Ref); err != nil {
		t.Fatal(err)
	}
	objects.Put("a2")
	if err := svc.UpdateAvatar(ctx, "u1", "a2"); err != nil {
		t.Fatal(err)
	}
	if d := objects.Deleted(); len(d) != 1 || d[0] != target.Ref {
		t.Fatalf("deleted = %v, want [%s]", d, target.Ref)
	}

	v, err := svc.GetMine(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if v.AvatarURL == nil || *v.AvatarURL != "http://files/objects/a2" {
		t.Fatalf("avatar url = %v", v.AvatarURL)
	}

	if err := svc.RemoveAvatar(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	v, err = svc.GetMine(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if v.AvatarRef != nil || v.AvatarURL != nil {
		t.Fatalf("avatar not cleared: %+v", v)
	}
	if d := objects.Deleted(); len(d) != 2 || d[1] != "a2" {
		t.Fatalf("deleted = %v", d)
	}

	if err := svc.UpdateAvatar(ctx, "u1", " "); !errors.Is(err, infrastructure.ErrInvalidInput) {
		t.Fatalf("blank ref: %v", err)
	}
}
