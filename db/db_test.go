package db

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/recomendo/recomendo/domain"
	_ "modernc.org/sqlite"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *DB {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	db := &DB{db: sqlDB}

	if err := db.CreateDB(); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return db
}

// createTestUser is a helper to create a user row
func createTestUser(t *testing.T, db *DB, username, email string) *domain.User {
	err, user := db.CreateUser(username, email, "$2a$10$hash")
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func TestCreateAndReadUser(t *testing.T) {
	db := setupTestDB(t)
	defer db.db.Close()

	created := createTestUser(t, db, "alice", "alice@example.com")

	err, user := db.ReadUserById(created.Id)
	if err != nil {
		t.Fatalf("ReadUserById failed: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Expected Username alice, got %s", user.Username)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Expected Email alice@example.com, got %s", user.Email)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	defer db.db.Close()

	createTestUser(t, db, "alice", "alice@example.com")

	err, _ := db.CreateUser("alice2", "alice@example.com", "$2a$10$hash")
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}
}

func TestReadUserByIdNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.db.Close()

	err, user := db.ReadUserById(9999)
	if err != sql.ErrNoRows {
		t.Errorf("Expected sql.ErrNoRows, got %v", err)
	}
	if user != nil {
		t.Errorf("Expected nil user, got %v", user)
	}
}

func TestTokenRoundtrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.db.Close()

	created := createTestUser(t, db, "alice", "alice@example.com")

	if err := db.CreateToken("tok-123", created.Id); err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	err, user := db.ReadUserByToken("tok-123")
	if err != nil {
		t.Fatalf("ReadUserByToken failed: %v", err)
	}
	if user.Id != created.Id {
		t.Errorf("Expected user %d, got %d", created.Id, user.Id)
	}

	if err := db.DeleteTokensByUser(created.Id); err != nil {
		t.Fatalf("DeleteTokensByUser failed: %v", err)
	}
	err, _ = db.ReadUserByToken("tok-123")
	if err != sql.ErrNoRows {
		t.Errorf("Expected sql.ErrNoRows after delete, got %v", err)
	}
}

func TestFollowsAndFriends(t *testing.T) {
	db := setupTestDB(t)
	defer db.db.Close()

	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")
	carol := createTestUser(t, db, "carol", "carol@example.com")

	// alice follows bob and carol, only bob follows back
	if err := db.CreateFollow(alice.Id, bob.Id); err != nil {
		t.Fatalf("CreateFollow failed: %v", err)
	}
	if err := db.CreateFollow(alice.Id, carol.Id); err != nil {
		t.Fatalf("CreateFollow failed: %v", err)
	}
	if err := db.CreateFollow(bob.Id, alice.Id); err != nil {
		t.Fatalf("CreateFollow failed: %v", err)
	}

	err, followings := db.ReadFollowings(alice.Id)
	if err != nil {
		t.Fatalf("ReadFollowings failed: %v", err)
	}
	if len(*followings) != 2 {
		t.Errorf("Expected 2 followings, got %d", len(*followings))
	}

	err, followers := db.ReadFollowers(alice.Id)
	if err != nil {
		t.Fatalf("ReadFollowers failed: %v", err)
	}
	if len(*followers) != 1 || (*followers)[0].Id != bob.Id {
		t.Errorf("Expected bob as the only follower, got %v", *followers)
	}

	err, friends := db.ReadFriends(alice.Id)
	if err != nil {
		t.Fatalf("ReadFriends failed: %v", err)
	}
	if len(*friends) != 1 || (*friends)[0].Id != bob.Id {
		t.Errorf("Expected bob as the only friend, got %v", *friends)
	}

	err, following := db.IsFollowing(alice.Id, bob.Id)
	if err != nil || !following {
		t.Errorf("Expected alice to follow bob, err=%v following=%v", err, following)
	}

	if err := db.DeleteFollow(alice.Id, bob.Id); err != nil {
		t.Fatalf("DeleteFollow failed: %v", err)
	}
	err, friends = db.ReadFriends(alice.Id)
	if err != nil {
		t.Fatalf("ReadFriends failed: %v", err)
	}
	if len(*friends) != 0 {
		t.Errorf("Expected no friends after unfollow, got %d", len(*friends))
	}
}

func TestCreateFollowDuplicate(t *testing.T) {
	db := setupTestDB(t)
	defer db.db.Close()

	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")

	if err := db.CreateFollow(alice.Id, bob.Id); err != nil {
		t.Fatalf("CreateFollow failed: %v", err)
	}
	if err := db.CreateFollow(alice.Id, bob.Id); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}
}

func TestMediaSearchAndAggregates(t *testing.T) {
	db := setupTestDB(t)
	defer db.db.Close()

	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")

	err, mediaId := db.CreateMedia(domain.MediaBook, "Solaris", 1961, "Stanislaw Lem", "")
	if err != nil {
		t.Fatalf("CreateMedia failed: %v", err)
	}
	err, _ = db.CreateMedia(domain.MediaFilm, "Solaris", 1972, "Andrei Tarkovsky", "")
	if err != nil {
		t.Fatalf("CreateMedia failed: %v", err)
	}

	// ratings from both users, comment from one
	if err := db.UpsertRating(mediaId, alice.Id, 4); err != nil {
		t.Fatalf("UpsertRating failed: %v", err)
	}
	if err := db.UpsertRating(mediaId, bob.Id, 2); err != nil {
		t.Fatalf("UpsertRating failed: %v", err)
	}
	if err, _ := db.CreateComment(mediaId, alice.Id, "a classic"); err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}

	err, results := db.SearchMedia("solaris", "", 50)
	if err != nil {
		t.Fatalf("SearchMedia failed: %v", err)
	}
	if len(*results) != 2 {
		t.Fatalf("Expected 2 search results, got %d", len(*results))
	}

	err, typed := db.SearchMedia("solaris", "book", 50)
	if err != nil {
		t.Fatalf("SearchMedia failed: %v", err)
	}
	if len(*typed) != 1 || (*typed)[0].ItemType != domain.MediaBook {
		t.Fatalf("Expected only the book, got %v", *typed)
	}

	book := (*typed)[0]
	if book.AvgRating != 3.0 {
		t.Errorf("Expected AvgRating 3.0, got %f", book.AvgRating)
	}
	if book.RatingCount != 2 {
		t.Errorf("Expected RatingCount 2, got %d", book.RatingCount)
	}
	if book.CommentCount != 1 {
		t.Errorf("Expected CommentCount 1, got %d", book.CommentCount)
	}
}

func TestUpsertRatingReplacesScore(t *testing.T) {
	db := setupTestDB(t)
	defer db.db.Close()

	alice := createTestUser(t, db, "alice", "alice@example.com")
	err, mediaId := db.CreateMedia(domain.MediaGame, "Outer Wilds", 2019, "Mobius Digital", "")
	if err != nil {
		t.Fatalf("CreateMedia failed: %v", err)
	}

	if err := db.UpsertRating(mediaId, alice.Id, 2); err != nil {
		t.Fatalf("UpsertRating failed: %v", err)
	}
	if err := db.UpsertRating(mediaId, alice.Id, 5); err != nil {
		t.Fatalf("UpsertRating failed: %v", err)
	}

	err, media := db.ReadMediaById(mediaId)
	if err != nil {
		t.Fatalf("ReadMediaById failed: %v", err)
	}
	if media.RatingCount != 1 {
		t.Errorf("Expected a single rating, got %d", media.RatingCount)
	}
	if media.AvgRating != 5.0 {
		t.Errorf("Expected replaced score 5.0, got %f", media.AvgRating)
	}
}

func TestComments(t *testing.T) {
	db := setupTestDB(t)
	defer db.db.Close()

	alice := createTestUser(t, db, "alice", "alice@example.com")
	err, mediaId := db.CreateMedia(domain.MediaFilm, "Stalker", 1979, "Andrei Tarkovsky", "")
	if err != nil {
		t.Fatalf("CreateMedia failed: %v", err)
	}

	err, comment := db.CreateComment(mediaId, alice.Id, "slow but worth it")
	if err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}
	if comment.User.Username != "alice" {
		t.Errorf("Expected comment author alice, got %s", comment.User.Username)
	}

	err, comments := db.ReadComments(mediaId)
	if err != nil {
		t.Fatalf("ReadComments failed: %v", err)
	}
	if len(*comments) != 1 || (*comments)[0].Content != "slow but worth it" {
		t.Errorf("Unexpected comments: %v", *comments)
	}
}

func TestRecommendations(t *testing.T) {
	db := setupTestDB(t)
	defer db.db.Close()

	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")

	err, mediaId := db.CreateMedia(domain.MediaBook, "Blindsight", 2006, "Peter Watts", "")
	if err != nil {
		t.Fatalf("CreateMedia failed: %v", err)
	}

	if err := db.CreateRecommendation(mediaId, alice.Id, bob.Id); err != nil {
		t.Fatalf("CreateRecommendation failed: %v", err)
	}

	// same triple again is a duplicate
	if err := db.CreateRecommendation(mediaId, alice.Id, bob.Id); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}

	err, sent := db.ReadRecommendations(alice.Id, "sent")
	if err != nil {
		t.Fatalf("ReadRecommendations sent failed: %v", err)
	}
	if len(*sent) != 1 {
		t.Fatalf("Expected 1 sent recommendation, got %d", len(*sent))
	}
	if (*sent)[0].User.Id != bob.Id {
		t.Errorf("Expected counterpart bob, got %d", (*sent)[0].User.Id)
	}
	if (*sent)[0].Media.Name != "Blindsight" {
		t.Errorf("Expected media Blindsight, got %s", (*sent)[0].Media.Name)
	}

	err, received := db.ReadRecommendations(bob.Id, "received")
	if err != nil {
		t.Fatalf("ReadRecommendations received failed: %v", err)
	}
	if len(*received) != 1 || (*received)[0].User.Id != alice.Id {
		t.Errorf("Expected 1 received recommendation from alice, got %v", *received)
	}
}

func TestDeleteRecommendationOwnerOnly(t *testing.T) {
	db := setupTestDB(t)
	defer db.db.Close()

	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")

	err, mediaId := db.CreateMedia(domain.MediaBook, "Blindsight", 2006, "Peter Watts", "")
	if err != nil {
		t.Fatalf("CreateMedia failed: %v", err)
	}
	if err := db.CreateRecommendation(mediaId, alice.Id, bob.Id); err != nil {
		t.Fatalf("CreateRecommendation failed: %v", err)
	}

	err, sent := db.ReadRecommendations(alice.Id, "sent")
	if err != nil {
		t.Fatalf("ReadRecommendations failed: %v", err)
	}
	recId := (*sent)[0].Id

	// bob doesn't own it
	err, deleted := db.DeleteRecommendation(recId, bob.Id)
	if err != nil {
		t.Fatalf("DeleteRecommendation failed: %v", err)
	}
	if deleted {
		t.Errorf("Expected no deletion for non-owner")
	}

	err, deleted = db.DeleteRecommendation(recId, alice.Id)
	if err != nil {
		t.Fatalf("DeleteRecommendation failed: %v", err)
	}
	if !deleted {
		t.Errorf("Expected deletion for owner")
	}
}

func TestFeedEvents(t *testing.T) {
	db := setupTestDB(t)
	defer db.db.Close()

	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")

	details := domain.FollowEventDetails{
		FollowedUser: domain.BriefUser{Id: bob.Id, Username: bob.Username},
	}
	if err := db.CreateFeedEvent(domain.FeedFollow, alice.Id, details); err != nil {
		t.Fatalf("CreateFeedEvent failed: %v", err)
	}

	err, items := db.ReadFeed(50)
	if err != nil {
		t.Fatalf("ReadFeed failed: %v", err)
	}
	if len(*items) != 1 {
		t.Fatalf("Expected 1 feed item, got %d", len(*items))
	}

	item := (*items)[0]
	if item.Type != domain.FeedFollow {
		t.Errorf("Expected type follow, got %s", item.Type)
	}
	if item.Actor.Id != alice.Id {
		t.Errorf("Expected actor alice, got %d", item.Actor.Id)
	}

	_, follow, err := item.DecodeDetails()
	if err != nil {
		t.Fatalf("DecodeDetails failed: %v", err)
	}
	if follow == nil || follow.FollowedUser.Id != bob.Id {
		t.Errorf("Expected followed user bob, got %v", follow)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	db := setupTestDB(t)
	defer db.db.Close()

	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")

	err, mediaId := db.CreateMedia(domain.MediaBook, "Solaris", 1961, "Stanislaw Lem", "")
	if err != nil {
		t.Fatalf("CreateMedia failed: %v", err)
	}
	if err := db.CreateToken("tok-1", alice.Id); err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	if err := db.CreateFollow(alice.Id, bob.Id); err != nil {
		t.Fatalf("CreateFollow failed: %v", err)
	}
	if err := db.CreateRecommendation(mediaId, alice.Id, bob.Id); err != nil {
		t.Fatalf("CreateRecommendation failed: %v", err)
	}

	if err := db.DeleteUser(alice.Id); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	err, _ = db.ReadUserById(alice.Id)
	if err != sql.ErrNoRows {
		t.Errorf("Expected user gone, got %v", err)
	}
	err, _ = db.ReadUserByToken("tok-1")
	if err != sql.ErrNoRows {
		t.Errorf("Expected token gone, got %v", err)
	}
	err, followers := db.ReadFollowers(bob.Id)
	if err != nil {
		t.Fatalf("ReadFollowers failed: %v", err)
	}
	if len(*followers) != 0 {
		t.Errorf("Expected follow rows gone, got %d", len(*followers))
	}
	err, received := db.ReadRecommendations(bob.Id, "received")
	if err != nil {
		t.Fatalf("ReadRecommendations failed: %v", err)
	}
	if len(*received) != 0 {
		t.Errorf("Expected recommendations gone, got %d", len(*received))
	}
}

func TestMigrationsSeedOnce(t *testing.T) {
	db := setupTestDB(t)
	defer db.db.Close()

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	err, top := db.ReadTopMedia(100)
	if err != nil {
		t.Fatalf("ReadTopMedia failed: %v", err)
	}
	seeded := len(*top)
	if seeded == 0 {
		t.Fatalf("Expected seeded catalog, got none")
	}

	// second run must not seed again
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	err, top = db.ReadTopMedia(100)
	if err != nil {
		t.Fatalf("ReadTopMedia failed: %v", err)
	}
	if len(*top) != seeded {
		t.Errorf("Expected %d entries after second run, got %d", seeded, len(*top))
	}
}
