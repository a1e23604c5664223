package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/recomendo/recomendo/domain"
)

func scanMediaColumns(row interface{ Scan(...any) error }, media *domain.MediaItem) error {
	return row.Scan(
		&media.Id, &media.ItemType, &media.Name, &media.Year, &media.Author,
		&media.ExternalLink, &media.CreatedAt,
		&media.RecommendationCount, &media.AvgRating, &media.RatingCount, &media.CommentCount,
	)
}

func (db *DB) readMediaList(query string, args ...any) (error, *[]domain.MediaItem) {
	rows, err := db.db.Query(query, args...)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var items []domain.MediaItem

	for rows.Next() {
		var media domain.MediaItem
		if err := scanMediaColumns(rows, &media); err != nil {
			return err, &items
		}
		items = append(items, media)
	}
	if err = rows.Err(); err != nil {
		return err, &items
	}

	return nil, &items
}

func (db *DB) CreateMedia(itemType domain.MediaType, name string, year int, author, externalLink string) (error, int64) {
	var id int64
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(sqlInsertMedia, string(itemType), name, year, author, externalLink, time.Now())
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return err, id
}

func (db *DB) ReadMediaById(id int64) (error, *domain.MediaItem) {
	var media domain.MediaItem
	err := scanMediaColumns(db.db.QueryRow(sqlSelectMediaById, id), &media)
	if err == sql.ErrNoRows {
		return err, nil
	}
	return err, &media
}

func (db *DB) SearchMedia(name string, itemType string, limit int) (error, *[]domain.MediaItem) {
	return db.readMediaList(sqlSearchMedia, name, itemType, itemType, limit)
}

func (db *DB) ReadTopMedia(limit int) (error, *[]domain.MediaItem) {
	return db.readMediaList(sqlSelectTopMedia, limit)
}

// UpsertRating stores one score per (media, user); a later write replaces
// the earlier one.
func (db *DB) UpsertRating(mediaId, userId int64, score int) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpsertRating, mediaId, userId, score, time.Now())
		return err
	})
}

func (db *DB) CreateComment(mediaId, userId int64, content string) (error, *domain.Comment) {
	var id int64
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(sqlInsertComment, mediaId, userId, content, time.Now())
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return err, nil
	}

	var comment domain.Comment
	row := db.db.QueryRow(sqlSelectCommentById, id)
	err = row.Scan(&comment.Id, &comment.Content, &comment.CreatedAt,
		&comment.User.Id, &comment.User.Username, &comment.User.Email, &comment.User.AvatarUrl, &comment.User.CreatedAt)
	if err != nil {
		return err, nil
	}
	return nil, &comment
}

func (db *DB) ReadComments(mediaId int64) (error, *[]domain.Comment) {
	rows, err := db.db.Query(sqlSelectComments, mediaId)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var comments []domain.Comment

	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(&comment.Id, &comment.Content, &comment.CreatedAt,
			&comment.User.Id, &comment.User.Username, &comment.User.Email, &comment.User.AvatarUrl, &comment.User.CreatedAt); err != nil {
			return err, &comments
		}
		comments = append(comments, comment)
	}
	if err = rows.Err(); err != nil {
		return err, &comments
	}

	return nil, &comments
}

// CreateRecommendation inserts the (media, sender, recipient) triple.
// Returns ErrDuplicate when the triple was already sent.
func (db *DB) CreateRecommendation(mediaId, fromUserId, toUserId int64) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlInsertRec, mediaId, fromUserId, toUserId, time.Now())
		return duplicateOr(err)
	})
}

// DeleteRecommendation removes one recommendation, but only for its owner.
// Reports whether a row was actually deleted.
func (db *DB) DeleteRecommendation(id, ownerId int64) (error, bool) {
	var deleted bool
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(sqlDeleteRecByOwner, id, ownerId)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		deleted = n > 0
		return err
	})
	return err, deleted
}

func (db *DB) ReadRecommendations(userId int64, direction string) (error, *[]domain.RecommendationDetails) {
	query := sqlSelectRecsReceived
	if direction == "sent" {
		query = sqlSelectRecsSent
	}

	rows, err := db.db.Query(query, userId)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var recs []domain.RecommendationDetails

	for rows.Next() {
		var rec domain.RecommendationDetails
		if err := rows.Scan(&rec.Id, &rec.CreatedAt,
			&rec.User.Id, &rec.User.Username, &rec.User.CreatedAt,
			&rec.Media.Id, &rec.Media.ItemType, &rec.Media.Name, &rec.Media.Year, &rec.Media.Author,
			&rec.Media.ExternalLink, &rec.Media.CreatedAt,
			&rec.Media.RecommendationCount, &rec.Media.AvgRating, &rec.Media.RatingCount, &rec.Media.CommentCount); err != nil {
			return err, &recs
		}
		recs = append(recs, rec)
	}
	if err = rows.Err(); err != nil {
		return err, &recs
	}

	return nil, &recs
}

// CreateFeedEvent appends one event; details must be a JSON-encodable
// payload matching the event type.
func (db *DB) CreateFeedEvent(eventType string, actorId int64, details any) error {
	buf, err := json.Marshal(details)
	if err != nil {
		return err
	}
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlInsertFeedEvent, eventType, actorId, string(buf), time.Now())
		return err
	})
}

func (db *DB) ReadFeed(limit int) (error, *[]domain.FeedItem) {
	rows, err := db.db.Query(sqlSelectFeed, limit)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var items []domain.FeedItem

	for rows.Next() {
		var item domain.FeedItem
		var details string
		if err := rows.Scan(&item.Type, &item.CreatedAt, &details,
			&item.Actor.Id, &item.Actor.Username, &item.Actor.Email, &item.Actor.AvatarUrl, &item.Actor.CreatedAt); err != nil {
			return err, &items
		}
		item.Details = json.RawMessage(details)
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return err, &items
	}

	return nil, &items
}
