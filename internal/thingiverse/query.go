package thingiverse

import "fmt"

// Query builders for the listing endpoints. Each returns the path the
// Things call appends pagination parameters to. Paths are kept in decoded
// form; percent-encoding happens when the request URL is rendered.

// SearchQuery lists things matching a search term.
func SearchQuery(term string) string {
	return "search/" + term
}

// LikesQuery lists things a user has liked.
func LikesQuery(user string) string {
	return fmt.Sprintf("users/%s/likes", user)
}

// ThingsByUserQuery lists things a user has published.
func ThingsByUserQuery(user string) string {
	return fmt.Sprintf("users/%s/things", user)
}

// MakesQuery lists things a user has made (copies).
func MakesQuery(user string) string {
	return fmt.Sprintf("users/%s/copies", user)
}

// CollectionsQuery lists a user's collections.
func CollectionsQuery(user string) string {
	return fmt.Sprintf("users/%s/collections", user)
}

// CollectionThingsQuery lists the things inside one of a user's collections.
func CollectionThingsQuery(user string, collectionID int) string {
	return fmt.Sprintf("users/%s/collections/%d/things", user, collectionID)
}

// PopularQuery lists the most popular things.
func PopularQuery() string { return "popular" }

// FeaturedQuery lists the staff-featured things.
func FeaturedQuery() string { return "featured" }

// NewestQuery lists the newest things.
func NewestQuery() string { return "newest" }
