package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/recomendo/recomendo/domain"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// ErrDuplicate marks a unique-constraint violation (user already exists,
// follow edge already present, recommendation triple already sent).
var ErrDuplicate = errors.New("already exists")

func duplicateOr(err error) error {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() {
		case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return ErrDuplicate
		}
	}
	return err
}

func (db *DB) CreateUser(username, email, passwordHash string) (error, *domain.User) {
	var id int64
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(sqlInsertUser, username, email, passwordHash, time.Now())
		if err != nil {
			return duplicateOr(err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return err, nil
	}
	return db.ReadUserById(id)
}

func (db *DB) ReadUserById(id int64) (error, *domain.User) {
	return scanUser(db.db.QueryRow(sqlSelectUserById, id))
}

func (db *DB) ReadUserAuthByEmail(email string) (error, *UserAuth) {
	var auth UserAuth
	err := db.db.QueryRow(sqlSelectAuthByEmail, email).Scan(&auth.Id, &auth.PasswordHash)
	if err == sql.ErrNoRows {
		return err, nil
	}
	return err, &auth
}

func (db *DB) ReadPasswordHashById(id int64) (error, string) {
	var hash string
	err := db.db.QueryRow(sqlSelectHashById, id).Scan(&hash)
	return err, hash
}

func (db *DB) UpdateUserName(id int64, username string) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpdateUserName, username, id)
		return duplicateOr(err)
	})
}

func (db *DB) UpdatePasswordHash(id int64, hash string) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpdatePasswordHash, hash, id)
		return err
	})
}

func (db *DB) UpdateAvatarUrl(id int64, url string) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpdateAvatarUrl, url, id)
		return err
	})
}

// DeleteUser removes the account and everything keyed on it.
func (db *DB) DeleteUser(id int64) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM tokens WHERE user_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM follows WHERE follower_id = ? OR following_id = ?`, id, id); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM recommendations WHERE from_user_id = ? OR to_user_id = ?`, id, id); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM ratings WHERE user_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM comments WHERE user_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM feed_events WHERE actor_id = ?`, id); err != nil {
			return err
		}
		_, err := tx.Exec(sqlDeleteUser, id)
		return err
	})
}

func (db *DB) CreateToken(token string, userId int64) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlInsertToken, token, userId, time.Now())
		return err
	})
}

func (db *DB) ReadUserByToken(token string) (error, *domain.User) {
	return scanUser(db.db.QueryRow(sqlSelectUserByToken, token))
}

func (db *DB) DeleteTokensByUser(userId int64) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlDeleteTokensByUser, userId)
		return err
	})
}

func (db *DB) CreateFollow(followerId, followingId int64) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlInsertFollow, followerId, followingId, time.Now())
		return duplicateOr(err)
	})
}

func (db *DB) DeleteFollow(followerId, followingId int64) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlDeleteFollow, followerId, followingId)
		return err
	})
}

func (db *DB) IsFollowing(followerId, followingId int64) (error, bool) {
	var count int
	err := db.db.QueryRow(sqlSelectIsFollowing, followerId, followingId).Scan(&count)
	return err, count > 0
}

func (db *DB) ReadFollowers(userId int64) (error, *[]domain.User) {
	return db.readUserList(sqlSelectFollowers, userId)
}

func (db *DB) ReadFollowings(userId int64) (error, *[]domain.User) {
	return db.readUserList(sqlSelectFollowings, userId)
}

// ReadFriends returns the mutual-follow projection for one user.
func (db *DB) ReadFriends(userId int64) (error, *[]domain.User) {
	return db.readUserList(sqlSelectFriends, userId, userId)
}

func (db *DB) ReadNewestUsers(limit int) (error, *[]domain.User) {
	return db.readUserList(sqlSelectNewestUsers, limit)
}

func (db *DB) ReadSuggestedUsers(forUser int64, limit int) (error, *[]domain.User) {
	return db.readUserList(sqlSelectSuggested, forUser, forUser, limit)
}

func (db *DB) ReadTopRecommenders(limit int) (error, *[]domain.User) {
	return db.readUserList(sqlSelectTopRecommend, limit)
}
