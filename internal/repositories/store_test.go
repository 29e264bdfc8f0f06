package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// one connection keeps the in-memory database alive and shared
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(db)
}

func seedUsers(t *testing.T, s *Store, names ...string) []uint {
	t.Helper()
	ids := make([]uint, 0, len(names))
	for _, n := range names {
		u := &models.User{Username: n, Email: n + "@example.com"}
		if err := s.Users.CreateUser(context.Background(), u); err != nil {
			t.Fatalf("create user %s: %v", n, err)
		}
		ids = append(ids, u.ID)
	}
	return ids
}

func TestCreateFollowDuplicateIsTranslated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedUsers(t, s, "alice", "bob")

	if err := s.Follows.CreateFollow(ctx, &models.Follow{FollowerID: ids[0], FolloweeID: ids[1]}); err != nil {
		t.Fatalf("first follow: %v", err)
	}
	err := s.Follows.CreateFollow(ctx, &models.Follow{FollowerID: ids[0], FolloweeID: ids[1]})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if err := s.Follows.DeleteFollow(ctx, ids[0], ids[1]); err != nil {
		t.Fatalf("delete follow: %v", err)
	}
	if err := s.Follows.DeleteFollow(ctx, ids[0], ids[1]); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestLikeUniquePerUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedUsers(t, s, "alice", "bob")

	post := &models.Post{AuthorID: ids[0], Title: "t", Content: "c"}
	if err := s.Posts.CreatePost(ctx, post); err != nil {
		t.Fatalf("create post: %v", err)
	}
	if err := s.Likes.CreateLike(ctx, &models.Like{PostID: post.ID, UserID: ids[1]}); err != nil {
		t.Fatalf("like: %v", err)
	}
	if err := s.Likes.CreateLike(ctx, &models.Like{PostID: post.ID, UserID: ids[1]}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	view, err := s.Posts.GetPostView(ctx, post.ID, ids[1])
	if err != nil {
		t.Fatalf("post view: %v", err)
	}
	if view.LikesCount != 1 || view.CommentsCount != 0 || !view.IsLiked {
		t.Fatalf("unexpected counters: %+v", view)
	}
	view, _ = s.Posts.GetPostView(ctx, post.ID, ids[0])
	if view.IsLiked {
		t.Fatalf("author did not like the post")
	}
}

func TestListPostsKeysetWithTies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedUsers(t, s, "alice")

	// five posts, three of them sharing one timestamp
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	stamps := []time.Time{base, base.Add(time.Second), base.Add(time.Second), base.Add(time.Second), base.Add(2 * time.Second)}
	for _, ts := range stamps {
		p := &models.Post{AuthorID: ids[0], Title: "t", Content: "c", CreatedAt: ts, UpdatedAt: ts}
		if err := s.Posts.CreatePost(ctx, p); err != nil {
			t.Fatalf("create post: %v", err)
		}
	}

	var seen []uint
	var after *Cursor
	for i := 0; i < 10; i++ {
		rows, err := s.Posts.ListPosts(ctx, PostQuery{AuthorID: ids[0], After: after, Limit: 2})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		more := len(rows) > 2
		if more {
			rows = rows[:2]
		}
		for _, p := range rows {
			seen = append(seen, p.ID)
		}
		if !more {
			break
		}
		last := rows[len(rows)-1]
		after = &Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	want := []uint{5, 4, 3, 2, 1}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, seen)
		}
	}
}

func TestListPostsFolloweesAndSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedUsers(t, s, "alice", "bob", "carol")
	alice, bob, carol := ids[0], ids[1], ids[2]

	if err := s.Follows.CreateFollow(ctx, &models.Follow{FollowerID: alice, FolloweeID: bob}); err != nil {
		t.Fatalf("follow: %v", err)
	}
	for _, p := range []*models.Post{
		{AuthorID: bob, Title: "Gopher news", Content: "channels"},
		{AuthorID: carol, Title: "Rust", Content: "lifetimes"},
		{AuthorID: alice, Title: "own", Content: "post"},
	} {
		if err := s.Posts.CreatePost(ctx, p); err != nil {
			t.Fatalf("create post: %v", err)
		}
	}

	feed, err := s.Posts.ListPosts(ctx, PostQuery{FolloweesOf: alice, ViewerID: alice, Limit: 10})
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(feed) != 1 || feed[0].AuthorID != bob {
		t.Fatalf("feed should only hold bob's post, got %+v", feed)
	}

	found, err := s.Posts.ListPosts(ctx, PostQuery{Search: "GOPHER", Limit: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].Title != "Gopher news" {
		t.Fatalf("unexpected search result %+v", found)
	}
}

func TestTransactionRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedUsers(t, s, "alice", "bob")

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx *Store) error {
		if err := tx.Follows.CreateFollow(ctx, &models.Follow{FollowerID: ids[0], FolloweeID: ids[1]}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	ok, err := s.Follows.IsFollowing(ctx, ids[0], ids[1])
	if err != nil || ok {
		t.Fatalf("follow should have been rolled back, ok=%v err=%v", ok, err)
	}
}

func TestNotificationMarkAsReadOnlyOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedUsers(t, s, "alice", "bob")

	n := &models.Notification{RecipientID: ids[0], ActorID: ids[1], Verb: "started following you", Type: models.NotificationTypeFollow}
	if err := s.Notifications.CreateNotification(ctx, n); err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if c, _ := s.Notifications.GetUnreadCount(ctx, ids[0]); c != 1 {
		t.Fatalf("expected 1 unread, got %d", c)
	}
	if err := s.Notifications.MarkAsRead(ctx, n.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := s.Notifications.MarkAsRead(ctx, n.ID); err != nil {
		t.Fatalf("mark read twice: %v", err)
	}
	if c, _ := s.Notifications.GetUnreadCount(ctx, ids[0]); c != 0 {
		t.Fatalf("expected 0 unread, got %d", c)
	}
	if updated, _ := s.Notifications.MarkAllAsRead(ctx, ids[0]); updated != 0 {
		t.Fatalf("nothing left to mark, got %d", updated)
	}
}

func TestLinkFirebaseUID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedUsers(t, s, "alice", "bob")

	if err := s.Users.LinkFirebaseUID(ctx, ids[0], "uid-1"); err != nil {
		t.Fatalf("link: %v", err)
	}
	u, err := s.Users.GetUserByFirebaseUID(ctx, "uid-1")
	if err != nil || u.ID != ids[0] {
		t.Fatalf("lookup by uid: %v %v", u, err)
	}
	if err := s.Users.LinkFirebaseUID(ctx, ids[1], "uid-1"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for a uid already linked, got %v", err)
	}
	if err := s.Users.LinkFirebaseUID(ctx, 999, "uid-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
