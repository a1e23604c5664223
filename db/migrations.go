package db

import (
	"database/sql"
	"log"
	"time"

	"github.com/recomendo/recomendo/domain"
)

const (
	sqlCreateUsersIndices = `
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
		CREATE INDEX IF NOT EXISTS idx_tokens_user_id ON tokens(user_id);
	`

	sqlCreateFollowsIndices = `
		CREATE INDEX IF NOT EXISTS idx_follows_follower_id ON follows(follower_id);
		CREATE INDEX IF NOT EXISTS idx_follows_following_id ON follows(following_id);
	`

	sqlCreateMediaIndices = `
		CREATE INDEX IF NOT EXISTS idx_media_name ON media(name);
		CREATE INDEX IF NOT EXISTS idx_ratings_media_id ON ratings(media_id);
		CREATE INDEX IF NOT EXISTS idx_comments_media_id ON comments(media_id);
	`

	sqlCreateRecsIndices = `
		CREATE INDEX IF NOT EXISTS idx_recs_from_user_id ON recommendations(from_user_id);
		CREATE INDEX IF NOT EXISTS idx_recs_to_user_id ON recommendations(to_user_id);
		CREATE INDEX IF NOT EXISTS idx_feed_events_created_at ON feed_events(created_at);
	`

	sqlCountMedia = `SELECT COUNT(*) FROM media`
)

type seedMedia struct {
	itemType domain.MediaType
	name     string
	year     int
	author   string
}

// starterCatalog gives a fresh instance something to search against
// before users start adding their own entries.
var starterCatalog = []seedMedia{
	{domain.MediaBook, "Solaris", 1961, "Stanislaw Lem"},
	{domain.MediaBook, "The Left Hand of Darkness", 1969, "Ursula K. Le Guin"},
	{domain.MediaBook, "Blindsight", 2006, "Peter Watts"},
	{domain.MediaFilm, "Stalker", 1979, "Andrei Tarkovsky"},
	{domain.MediaFilm, "Paprika", 2006, "Satoshi Kon"},
	{domain.MediaFilm, "The Thing", 1982, "John Carpenter"},
	{domain.MediaAnime, "Cowboy Bebop", 1998, "Shinichiro Watanabe"},
	{domain.MediaAnime, "Mushishi", 2005, "Hiroshi Nagahama"},
	{domain.MediaSeries, "The Wire", 2002, "David Simon"},
	{domain.MediaSeries, "Twin Peaks", 1990, "David Lynch"},
	{domain.MediaGame, "Outer Wilds", 2019, "Mobius Digital"},
	{domain.MediaGame, "Disco Elysium", 2019, "ZA/UM"},
}

// RunMigrations creates indices and seeds the starter media catalog the
// first time the database comes up. Safe to call on every start.
func (db *DB) RunMigrations() error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		for _, stmt := range []string{
			sqlCreateUsersIndices,
			sqlCreateFollowsIndices,
			sqlCreateMediaIndices,
			sqlCreateRecsIndices,
		} {
			if _, err := tx.Exec(stmt); err != nil {
				log.Printf("Warning: Failed to create indices: %v", err)
			}
		}

		var count int64
		if err := tx.QueryRow(sqlCountMedia).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		log.Printf("Seeding media catalog with %d starter entries", len(starterCatalog))
		for _, entry := range starterCatalog {
			if _, err := tx.Exec(sqlInsertMedia, string(entry.itemType), entry.name, entry.year, entry.author, "", time.Now()); err != nil {
				return err
			}
		}
		return nil
	})
}
