package db

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/recomendo/recomendo/domain"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// DB is the storage behind the embedded backend.
type DB struct {
	db *sql.DB
}

var (
	dbInstance *DB
	dbOnce     sync.Once
)

const (
	//Users
	sqlCreateUsersTable = `CREATE TABLE IF NOT EXISTS users(
                        id INTEGER PRIMARY KEY AUTOINCREMENT,
                        user_name varchar(100) UNIQUE NOT NULL,
                        email varchar(255) UNIQUE NOT NULL,
                        password_hash varchar(255) NOT NULL,
                        avatar_url text,
                        created_at timestamp default current_timestamp
                        )`
	sqlInsertUser         = `INSERT INTO users(user_name, email, password_hash, created_at) VALUES (?, ?, ?, ?)`
	sqlSelectUserById     = `SELECT id, user_name, email, COALESCE(avatar_url, ''), created_at FROM users WHERE id = ?`
	sqlSelectAuthByEmail  = `SELECT id, password_hash FROM users WHERE email = ?`
	sqlSelectHashById     = `SELECT password_hash FROM users WHERE id = ?`
	sqlUpdateUserName     = `UPDATE users SET user_name = ? WHERE id = ?`
	sqlUpdatePasswordHash = `UPDATE users SET password_hash = ? WHERE id = ?`
	sqlUpdateAvatarUrl    = `UPDATE users SET avatar_url = ? WHERE id = ?`
	sqlDeleteUser         = `DELETE FROM users WHERE id = ?`
	sqlSelectNewestUsers  = `SELECT id, user_name, email, COALESCE(avatar_url, ''), created_at FROM users ORDER BY created_at DESC, id DESC LIMIT ?`
	sqlSelectSuggested    = `SELECT u.id, u.user_name, u.email, COALESCE(u.avatar_url, ''), u.created_at FROM users u
                        WHERE u.id != ?
                          AND NOT EXISTS (SELECT 1 FROM follows f WHERE f.follower_id = ? AND f.following_id = u.id)
                        ORDER BY (SELECT COUNT(*) FROM follows f2 WHERE f2.following_id = u.id) DESC, u.id
                        LIMIT ?`
	sqlSelectTopRecommend = `SELECT u.id, u.user_name, u.email, COALESCE(u.avatar_url, ''), u.created_at FROM users u
                        INNER JOIN recommendations r ON r.from_user_id = u.id
                        GROUP BY u.id
                        ORDER BY COUNT(r.id) DESC
                        LIMIT ?`

	//Tokens
	sqlCreateTokensTable = `CREATE TABLE IF NOT EXISTS tokens(
                        token varchar(100) NOT NULL PRIMARY KEY,
                        user_id INTEGER NOT NULL,
                        created_at timestamp default current_timestamp
                        )`
	sqlInsertToken       = `INSERT INTO tokens(token, user_id, created_at) VALUES (?, ?, ?)`
	sqlSelectUserByToken = `SELECT u.id, u.user_name, u.email, COALESCE(u.avatar_url, ''), u.created_at FROM users u
                        INNER JOIN tokens t ON t.user_id = u.id
                        WHERE t.token = ?`
	sqlDeleteTokensByUser = `DELETE FROM tokens WHERE user_id = ?`

	//Follows
	sqlCreateFollowsTable = `CREATE TABLE IF NOT EXISTS follows(
                        follower_id INTEGER NOT NULL,
                        following_id INTEGER NOT NULL,
                        created_at timestamp default current_timestamp,
                        PRIMARY KEY (follower_id, following_id)
                        )`
	sqlInsertFollow      = `INSERT INTO follows(follower_id, following_id, created_at) VALUES (?, ?, ?)`
	sqlDeleteFollow      = `DELETE FROM follows WHERE follower_id = ? AND following_id = ?`
	sqlSelectIsFollowing = `SELECT COUNT(*) FROM follows WHERE follower_id = ? AND following_id = ?`
	sqlSelectFollowers   = `SELECT u.id, u.user_name, u.email, COALESCE(u.avatar_url, ''), u.created_at FROM users u
                        INNER JOIN follows f ON f.follower_id = u.id
                        WHERE f.following_id = ?
                        ORDER BY f.created_at DESC`
	sqlSelectFollowings = `SELECT u.id, u.user_name, u.email, COALESCE(u.avatar_url, ''), u.created_at FROM users u
                        INNER JOIN follows f ON f.following_id = u.id
                        WHERE f.follower_id = ?
                        ORDER BY f.created_at DESC`
	sqlSelectFriends = `SELECT u.id, u.user_name, u.email, COALESCE(u.avatar_url, ''), u.created_at FROM users u
                        WHERE EXISTS (SELECT 1 FROM follows f WHERE f.follower_id = ? AND f.following_id = u.id)
                          AND EXISTS (SELECT 1 FROM follows f WHERE f.follower_id = u.id AND f.following_id = ?)
                        ORDER BY u.user_name`
)

const (
	//Media
	sqlCreateMediaTable = `CREATE TABLE IF NOT EXISTS media(
                        id INTEGER PRIMARY KEY AUTOINCREMENT,
                        item_type varchar(20) NOT NULL,
                        name varchar(255) NOT NULL,
                        year int,
                        author varchar(255),
                        external_link text,
                        created_at timestamp default current_timestamp
                        )`
	sqlInsertMedia = `INSERT INTO media(item_type, name, year, author, external_link, created_at) VALUES (?, ?, ?, ?, ?, ?)`

	// mediaColumns computes the server-authoritative aggregates at read time.
	mediaColumns = `m.id, m.item_type, m.name, m.year, COALESCE(m.author, ''), COALESCE(m.external_link, ''), m.created_at,
                        (SELECT COUNT(*) FROM recommendations r WHERE r.media_id = m.id),
                        COALESCE((SELECT AVG(rt.score) FROM ratings rt WHERE rt.media_id = m.id), 0),
                        (SELECT COUNT(*) FROM ratings rt WHERE rt.media_id = m.id),
                        (SELECT COUNT(*) FROM comments c WHERE c.media_id = m.id)`

	sqlSelectMediaById = `SELECT ` + mediaColumns + ` FROM media m WHERE m.id = ?`
	sqlSearchMedia     = `SELECT ` + mediaColumns + ` FROM media m
                        WHERE m.name LIKE '%' || ? || '%' AND (? = '' OR m.item_type = ?)
                        ORDER BY m.name
                        LIMIT ?`
	sqlSelectTopMedia = `SELECT ` + mediaColumns + ` FROM media m
                        ORDER BY (SELECT COUNT(*) FROM recommendations r WHERE r.media_id = m.id) DESC,
                                 (SELECT COALESCE(AVG(rt.score), 0) FROM ratings rt WHERE rt.media_id = m.id) DESC,
                                 m.name
                        LIMIT ?`

	//Ratings: one per (media, user), last write wins
	sqlCreateRatingsTable = `CREATE TABLE IF NOT EXISTS ratings(
                        media_id INTEGER NOT NULL,
                        user_id INTEGER NOT NULL,
                        score int NOT NULL,
                        created_at timestamp default current_timestamp,
                        PRIMARY KEY (media_id, user_id)
                        )`
	sqlUpsertRating = `INSERT INTO ratings(media_id, user_id, score, created_at) VALUES (?, ?, ?, ?)
                        ON CONFLICT(media_id, user_id) DO UPDATE SET score = excluded.score, created_at = excluded.created_at`

	//Comments
	sqlCreateCommentsTable = `CREATE TABLE IF NOT EXISTS comments(
                        id INTEGER PRIMARY KEY AUTOINCREMENT,
                        media_id INTEGER NOT NULL,
                        user_id INTEGER NOT NULL,
                        content text NOT NULL,
                        created_at timestamp default current_timestamp
                        )`
	sqlInsertComment  = `INSERT INTO comments(media_id, user_id, content, created_at) VALUES (?, ?, ?, ?)`
	sqlSelectComments = `SELECT c.id, c.content, c.created_at, u.id, u.user_name, u.email, COALESCE(u.avatar_url, ''), u.created_at
                        FROM comments c
                        INNER JOIN users u ON u.id = c.user_id
                        WHERE c.media_id = ?
                        ORDER BY c.created_at ASC, c.id ASC`
	sqlSelectCommentById = `SELECT c.id, c.content, c.created_at, u.id, u.user_name, u.email, COALESCE(u.avatar_url, ''), u.created_at
                        FROM comments c
                        INNER JOIN users u ON u.id = c.user_id
                        WHERE c.id = ?`

	//Recommendations: unique per (media, sender, recipient)
	sqlCreateRecsTable = `CREATE TABLE IF NOT EXISTS recommendations(
                        id INTEGER PRIMARY KEY AUTOINCREMENT,
                        media_id INTEGER NOT NULL,
                        from_user_id INTEGER NOT NULL,
                        to_user_id INTEGER NOT NULL,
                        created_at timestamp default current_timestamp,
                        UNIQUE (media_id, from_user_id, to_user_id)
                        )`
	sqlInsertRec        = `INSERT INTO recommendations(media_id, from_user_id, to_user_id, created_at) VALUES (?, ?, ?, ?)`
	sqlDeleteRecByOwner = `DELETE FROM recommendations WHERE id = ? AND from_user_id = ?`
	sqlSelectRecsSent   = `SELECT r.id, r.created_at, u.id, u.user_name, u.created_at, ` + mediaColumns + `
                        FROM recommendations r
                        INNER JOIN media m ON m.id = r.media_id
                        INNER JOIN users u ON u.id = r.to_user_id
                        WHERE r.from_user_id = ?
                        ORDER BY r.created_at DESC`
	sqlSelectRecsReceived = `SELECT r.id, r.created_at, u.id, u.user_name, u.created_at, ` + mediaColumns + `
                        FROM recommendations r
                        INNER JOIN media m ON m.id = r.media_id
                        INNER JOIN users u ON u.id = r.from_user_id
                        WHERE r.to_user_id = ?
                        ORDER BY r.created_at DESC`

	//Feed
	sqlCreateFeedTable = `CREATE TABLE IF NOT EXISTS feed_events(
                        id INTEGER PRIMARY KEY AUTOINCREMENT,
                        event_type varchar(20) NOT NULL,
                        actor_id INTEGER NOT NULL,
                        details text NOT NULL,
                        created_at timestamp default current_timestamp
                        )`
	sqlInsertFeedEvent = `INSERT INTO feed_events(event_type, actor_id, details, created_at) VALUES (?, ?, ?, ?)`
	sqlSelectFeed      = `SELECT e.event_type, e.created_at, e.details, u.id, u.user_name, u.email, COALESCE(u.avatar_url, ''), u.created_at
                        FROM feed_events e
                        INNER JOIN users u ON u.id = e.actor_id
                        ORDER BY e.created_at DESC, e.id DESC
                        LIMIT ?`
)

// UserAuth is the credential row consulted on login and password change.
type UserAuth struct {
	Id           int64
	PasswordHash string
}

func GetDB() *DB {
	dbOnce.Do(func() {
		instance, err := Connect("database.db")
		if err != nil {
			panic(err)
		}
		dbInstance = instance
	})

	return dbInstance
}

// Connect opens (and initializes) a database at the given path. Use
// ":memory:" for throwaway instances.
func Connect(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Configure connection pool for concurrent access. A ":memory:"
	// database exists per connection, so it must stay on a single one.
	if path == ":memory:" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	var journalMode string
	if err := sqlDB.QueryRow("PRAGMA journal_mode=WAL").Scan(&journalMode); err != nil {
		log.Printf("Warning: Failed to enable WAL mode: %v", err)
	} else {
		log.Printf("Database journal mode: %s", journalMode)
	}

	sqlDB.Exec("PRAGMA synchronous = NORMAL")
	sqlDB.Exec("PRAGMA busy_timeout = 5000")
	sqlDB.Exec("PRAGMA foreign_keys = ON")

	instance := &DB{db: sqlDB}
	if err := instance.CreateDB(); err != nil {
		return nil, err
	}

	return instance, nil
}

// CreateDB creates the schema.
func (db *DB) CreateDB() error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		for _, stmt := range []string{
			sqlCreateUsersTable,
			sqlCreateTokensTable,
			sqlCreateFollowsTable,
			sqlCreateMediaTable,
			sqlCreateRatingsTable,
			sqlCreateCommentsTable,
			sqlCreateRecsTable,
			sqlCreateFeedTable,
		} {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

// wrapTransaction runs the given function within a transaction.
func (db *DB) wrapTransaction(f func(tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("error starting transaction: %s", err)
		return err
	}
	for {
		err = f(tx)
		if err != nil {
			serr, ok := err.(*sqlite.Error)
			if ok && serr.Code() == sqlitelib.SQLITE_BUSY {
				continue
			}
			tx.Rollback()
			return err
		}
		err = tx.Commit()
		if err != nil {
			log.Printf("error committing transaction: %s", err)
			return err
		}
		break
	}
	return nil
}

func scanUser(row interface{ Scan(...any) error }) (error, *domain.User) {
	var user domain.User
	err := row.Scan(&user.Id, &user.Username, &user.Email, &user.AvatarUrl, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return err, nil
	}
	return err, &user
}

func (db *DB) readUserList(query string, args ...any) (error, *[]domain.User) {
	rows, err := db.db.Query(query, args...)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var users []domain.User

	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.Id, &user.Username, &user.Email, &user.AvatarUrl, &user.CreatedAt); err != nil {
			return err, &users
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return err, &users
	}

	return nil, &users
}
