package web

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/feeds"
	"github.com/recomendo/recomendo/db"
	"github.com/recomendo/recomendo/util"
)

// GetRSS renders the activity feed as an RSS document.
func GetRSS(conf *util.AppConfig, database *db.DB) (string, error) {
	err, items := database.ReadFeed(feedLimit)
	if err != nil {
		log.Println("Could not get feed events!", err)
		return "", errors.New("error retrieving feed events")
	}

	link := fmt.Sprintf("http://%s:%d/feed.rss", conf.Conf.Host, conf.Conf.HttpPort)

	feed := &feeds.Feed{
		Title:       "Recomendo Activity",
		Link:        &feeds.Link{Href: link},
		Description: "recommendations and follows across recomendo",
		Author:      &feeds.Author{Name: "everyone", Email: "everyone@recomendo"},
		Created:     time.Now(),
	}

	var feedItems []*feeds.Item
	for _, item := range *items {
		rec, follow, err := item.DecodeDetails()
		if err != nil {
			continue
		}

		var title, content string
		switch {
		case rec != nil:
			title = fmt.Sprintf("%s recommended %s", item.Actor.Username, rec.Media.Name)
			content = fmt.Sprintf("%s recommended %s to %s", item.Actor.Username, rec.Media.Name, rec.Recipient.Username)
		case follow != nil:
			title = fmt.Sprintf("%s followed %s", item.Actor.Username, follow.FollowedUser.Username)
			content = title
		default:
			continue
		}

		email := fmt.Sprintf("%s@recomendo", item.Actor.Username)
		feedItems = append(feedItems,
			&feeds.Item{
				Id:      fmt.Sprintf("%s-%d", item.Type, item.CreatedAt.UnixNano()),
				Title:   title,
				Link:    &feeds.Link{Href: link},
				Content: content,
				Author:  &feeds.Author{Name: item.Actor.Username, Email: email},
				Created: item.CreatedAt,
			})
	}

	feed.Items = feedItems
	return feed.ToRss()
}
