package store

import (
	"strconv"
	"strings"
)

// Key addresses one cached view. Keys are hierarchical so that a whole
// family can be invalidated by prefix, e.g. K("followers") matches
// K("followers", "3").
type Key []string

func K(parts ...string) Key {
	return Key(parts)
}

func (k Key) String() string {
	return strings.Join(k, "/")
}

func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Canonical keys for every server view the client caches. Search results
// key by the literal query string, so racing responses for superseded
// input land in their own slots instead of clobbering the newest one.

func MeKey() Key                      { return K("me") }
func MyFollowingsKey() Key            { return K("myFollowings") }
func MyFriendsKey() Key               { return K("myFriends") }
func UserKey(userId int64) Key        { return K("users", itoa(userId)) }
func FollowersKey(id int64) Key       { return K("followers", itoa(id)) }
func FollowingsKey(id int64) Key      { return K("followings", itoa(id)) }
func FriendsKey(id int64) Key         { return K("friends", itoa(id)) }
func SuggestedUsersKey() Key          { return K("suggestedUsers") }
func NewestUsersKey() Key             { return K("newestUsers") }
func TopRecommendersKey() Key         { return K("topRecommenders") }
func TopMediaKey() Key                { return K("topMedia") }
func MediaSearchKey(query string) Key { return K("mediaSearch", query) }

// MediaSearchPrefix matches every cached search result.
func MediaSearchPrefix() Key        { return K("mediaSearch") }
func CommentsKey(mediaId int64) Key { return K("comments", itoa(mediaId)) }
func FeedKey() Key                  { return K("feed") }

func RecommendationsKey(userId int64, direction string) Key {
	return K("recommendations", itoa(userId), direction)
}

// RecommendationsOfKey matches both directions for one user.
func RecommendationsOfKey(userId int64) Key {
	return K("recommendations", itoa(userId))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
