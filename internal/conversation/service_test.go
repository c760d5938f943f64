package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"messenger/infrastructure"
	"messenger/internal/database"
	"messenger/internal/profile"
	"messenger/internal/storage"
)

type fixture struct {
	db       *gorm.DB
	repo     Repository
	svc      *Service
	profiles *profile.Service
	clock    int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := database.NewTestDatabase(t, &profile.Profile{}, &Conversation{}, &Group{}, &GroupMember{})
	profiles := profile.NewService(profile.NewRepository(db.DB), storage.NewMemory("http://files"), zerolog.Nop())
	repo := NewRepository(db.DB)
	f := &fixture{
		db:       db.DB,
		repo:     repo,
		svc:      NewService(repo, profiles, zerolog.Nop()),
		profiles: profiles,
		clock:    50,
	}
	f.svc.now = func() time.Time { return time.UnixMilli(f.clock) }
	return f
}

func TestGetOrCreateDirectIsSymmetric(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ab, err := f.svc.GetOrCreateDirect(ctx, "alice", "bob")
	if err != nil {
		t.Fatal(err)
	}
	ba, err := f.svc.GetOrCreateDirect(ctx, "bob", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if ab != ba {
		t.Fatalf("got %s and %s for the same pair", ab, ba)
	}

	var n int64
	f.db.Model(&Conversation{}).Count(&n)
	if n != 1 {
		t.Fatalf("stored %d conversations, want 1", n)
	}
}

func TestGetOrCreateDirectConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 10
	ids := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			caller, other := "alice", "bob"
			if i%2 == 1 {
				caller, other = other, caller
			}
			ids[i], errs[i] = f.svc.GetOrCreateDirect(ctx, caller, other)
		}(i)
	}
	wg.Wait()

	for i := range ids {
		if errs[i] != nil {
			t.Fatalf("call %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("call %d returned %s, want %s", i, ids[i], ids[0])
		}
	}
}

func TestGetOrCreateDirectValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.GetOrCreateDirect(ctx, "alice", "alice"); !errors.Is(err, infrastructure.ErrInvalidInput) {
		t.Fatalf("self conversation: %v", err)
	}
	if _, err := f.svc.GetOrCreateDirect(ctx, "", "bob"); !errors.Is(err, infrastructure.ErrNotAuthenticated) {
		t.Fatalf("no caller: %v", err)
	}
}

func TestListMineOrdersByLastMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.profiles.GetOrCreate(ctx, "bob"); err != nil {
		t.Fatal(err)
	}
	withBob, err := f.svc.GetOrCreateDirect(ctx, "alice", "bob")
	if err != nil {
		t.Fatal(err)
	}
	withCarol, err := f.svc.GetOrCreateDirect(ctx, "carol", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.GetOrCreateDirect(ctx, "bob", "carol"); err != nil {
		t.Fatal(err)
	}

	if err := f.repo.RecordDirectMessage(f.db, withBob, 100, "old"); err != nil {
		t.Fatal(err)
	}
	if err := f.repo.RecordDirectMessage(f.db, withCarol, 200, "new"); err != nil {
		t.Fatal(err)
	}

	list, err := f.svc.ListMine(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d conversations, want 2", len(list))
	}
	if list[0].ID != withCarol || list[1].ID != withBob {
		t.Fatalf("wrong order: %s, %s", list[0].ID, list[1].ID)
	}
	if list[0].OtherUser != nil {
		t.Fatal("carol has no profile, other user should be nil")
	}
	if list[1].OtherUser == nil || list[1].OtherUser.UserID != "bob" {
		t.Fatalf("other user = %+v", list[1].OtherUser)
	}
	if list[1].UnreadCount != 0 || list[1].LastMessagePreview == nil || *list[1].LastMessagePreview != "old" {
		t.Fatalf("unexpected summary %+v", list[1])
	}
}

func TestGetHiddenFromOutsiders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.GetOrCreateDirect(ctx, "alice", "bob")
	if err != nil {
		t.Fatal(err)
	}
	c, err := f.svc.Get(ctx, "bob", id)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.ParticipantIDs) != 2 {
		t.Fatalf("participants = %v", c.ParticipantIDs)
	}
	if _, err := f.svc.Get(ctx, "mallory", id); !errors.Is(err, infrastructure.ErrNotFound) {
		t.Fatalf("outsider: %v", err)
	}
	ok, err := f.svc.IsParticipant(ctx, id, "mallory")
	if err != nil || ok {
		t.Fatalf("IsParticipant(mallory) = %v, %v", ok, err)
	}
}

func TestCreateGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.CreateGroup(ctx, "alice", CreateGroupInput{
		Name:      "  Friends ",
		MemberIDs: []string{"bob", "alice", "", "carol", "bob"},
	})
	if err != nil {
		t.Fatal(err)
	}
	g, err := f.svc.GetGroup(ctx, "carol", id)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"alice", "bob", "carol"}
	if len(g.Members) != len(want) {
		t.Fatalf("members = %v, want %v", g.Members, want)
	}
	for i := range want {
		if g.Members[i] != want[i] {
			t.Fatalf("members = %v, want %v", g.Members, want)
		}
	}
	if len(g.Admins) != 1 || g.Admins[0] != "alice" || g.Name != "Friends" || g.MemberCount != 3 {
		t.Fatalf("unexpected group %+v", g)
	}

	if _, err := f.svc.GetGroup(ctx, "mallory", id); !errors.Is(err, infrastructure.ErrNotFound) {
		t.Fatalf("non-member: %v", err)
	}
	if _, err := f.svc.CreateGroup(ctx, "alice", CreateGroupInput{Name: " "}); !errors.Is(err, infrastructure.ErrInvalidInput) {
		t.Fatalf("blank name: %v", err)
	}
}

func TestAddMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.CreateGroup(ctx, "alice", CreateGroupInput{Name: "g", MemberIDs: []string{"bob"}})
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.AddMember(ctx, "bob", id, "carol"); !errors.Is(err, infrastructure.ErrForbidden) {
		t.Fatalf("non-admin add: %v", err)
	}
	if err := f.svc.AddMember(ctx, "alice", "missing", "carol"); !errors.Is(err, infrastructure.ErrNotFound) {
		t.Fatalf("missing group: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := f.svc.AddMember(ctx, "alice", id, "carol"); err != nil {
			t.Fatal(err)
		}
	}

	g, err := f.svc.GetGroup(ctx, "alice", id)
	if err != nil {
		t.Fatal(err)
	}
	if g.MemberCount != 3 || g.Members[2] != "carol" {
		t.Fatalf("members = %v", g.Members)
	}
	ok, err := f.svc.IsGroupMember(ctx, id, "carol")
	if err != nil || !ok {
		t.Fatalf("IsGroupMember(carol) = %v, %v", ok, err)
	}
}

func TestLeaveGroupPromotesEarliestMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.CreateGroup(ctx, "alice", CreateGroupInput{Name: "g", MemberIDs: []string{"bob", "carol"}})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.svc.LeaveGroup(ctx, "alice", id); err != nil {
		t.Fatal(err)
	}

	g, err := f.svc.GetGroup(ctx, "bob", id)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Admins) != 1 || g.Admins[0] != "bob" {
		t.Fatalf("admins = %v, want [bob]", g.Admins)
	}
	if g.IsMember("alice") {
		t.Fatal("alice still a member")
	}

	// a non-admin leaving does not change admins
	if err := f.svc.LeaveGroup(ctx, "carol", id); err != nil {
		t.Fatal(err)
	}
	g, err = f.svc.GetGroup(ctx, "bob", id)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Admins) != 1 || g.Admins[0] != "bob" || g.MemberCount != 1 {
		t.Fatalf("unexpected group %+v", g)
	}
}

func TestLeaveGroupDeletesEmptyGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.CreateGroup(ctx, "alice", CreateGroupInput{Name: "solo"})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.svc.LeaveGroup(ctx, "mallory", id); err != nil {
		t.Fatalf("non-member leave: %v", err)
	}
	if err := f.svc.LeaveGroup(ctx, "alice", id); err != nil {
		t.Fatal(err)
	}
	if _, err := f.repo.GetGroup(ctx, id); !errors.Is(err, infrastructure.ErrNotFound) {
		t.Fatalf("group should be gone: %v", err)
	}
	if err := f.svc.LeaveGroup(ctx, "alice", id); err != nil {
		t.Fatalf("leaving a deleted group: %v", err)
	}

	var n int64
	f.db.Model(&GroupMember{}).Where("group_id = ?", id).Count(&n)
	if n != 0 {
		t.Fatalf("%d membership rows left behind", n)
	}
}

func TestListMyGroups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateGroup(ctx, "alice", CreateGroupInput{Name: "first", MemberIDs: []string{"bob"}})
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.CreateGroup(ctx, "bob", CreateGroupInput{Name: "second", MemberIDs: []string{"alice"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.CreateGroup(ctx, "carol", CreateGroupInput{Name: "other"}); err != nil {
		t.Fatal(err)
	}
	if err := f.repo.RecordGroupMessage(f.db, first, 500, "hi"); err != nil {
		t.Fatal(err)
	}

	groups, err := f.svc.ListMyGroups(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 || groups[0].ID != first || groups[1].ID != second {
		t.Fatalf("unexpected groups %+v", groups)
	}
	if groups[1].MemberCount != 2 || groups[1].Admins[0] != "bob" {
		t.Fatalf("unexpected second group %+v", groups[1])
	}
}

func TestNewChatsListFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.clock = 1_000
	withBob, err := f.svc.GetOrCreateDirect(ctx, "alice", "bob")
	if err != nil {
		t.Fatal(err)
	}
	oldGroup, err := f.svc.CreateGroup(ctx, "alice", CreateGroupInput{Name: "old"})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.repo.RecordDirectMessage(f.db, withBob, 1_500, "hi"); err != nil {
		t.Fatal(err)
	}
	if err := f.repo.RecordGroupMessage(f.db, oldGroup, 1_500, "hi"); err != nil {
		t.Fatal(err)
	}

	f.clock = 2_000
	withCarol, err := f.svc.GetOrCreateDirect(ctx, "carol", "alice")
	if err != nil {
		t.Fatal(err)
	}
	newGroup, err := f.svc.CreateGroup(ctx, "alice", CreateGroupInput{Name: "new"})
	if err != nil {
		t.Fatal(err)
	}

	convs, err := f.svc.ListMine(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 2 || convs[0].ID != withCarol || convs[0].LastMessageAt != 2_000 {
		t.Fatalf("fresh conversation should list first: %+v", convs)
	}

	// Reopening an existing conversation keeps its timestamp.
	f.clock = 3_000
	if _, err := f.svc.GetOrCreateDirect(ctx, "bob", "alice"); err != nil {
		t.Fatal(err)
	}
	c, err := f.repo.GetDirect(ctx, withBob)
	if err != nil {
		t.Fatal(err)
	}
	if c.LastMessageAt != 1_500 {
		t.Fatalf("last_message_at = %d, want 1500", c.LastMessageAt)
	}

	groups, err := f.svc.ListMyGroups(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 || groups[0].ID != newGroup || groups[0].LastMessageAt != 2_000 {
		t.Fatalf("fresh group should list first: %+v", groups)
	}
}

func TestPlanLeave(t *testing.T) {
	members := []*GroupMember{
		{UserID: "a", Position: 0, IsAdmin: true},
		{UserID: "b", Position: 1},
		{UserID: "c", Position: 2, IsAdmin: true},
	}

	if p := planLeave(members, "x"); p.member {
		t.Fatal("outsider treated as member")
	}
	if p := planLeave(members, "a"); p.promote != "" || p.deleteGroup {
		t.Fatalf("another admin remains, got %+v", p)
	}
	if p := planLeave(members[:2], "a"); p.promote != "b" {
		t.Fatalf("promote = %q, want b", p.promote)
	}
	if p := planLeave(members[:1], "a"); !p.deleteGroup {
		t.Fatal("last member leaving should delete the group")
	}
}
