package web

import (
	"encoding/json"
	"fmt"
	"time"
)

const publicAudience = "https://www.w3.org/ns/activitystreams#Public"

// GetOutbox renders the outbox as an OrderedCollection of the locally created
// Create activities, each item re-addressed under the actor's post URL space.
func GetOutbox(app *App) ([]byte, error) {
	actor := app.Conf.ActorIRI()

	posts, err := app.DB.ReadAllPosts()
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(posts))
	for _, post := range posts {
		var contents map[string]any
		if err := json.Unmarshal([]byte(post.Contents), &contents); err != nil {
			continue
		}
		if contents["type"] != "Create" {
			continue
		}

		contents["id"] = fmt.Sprintf("%s/posts/%s", actor, post.Id)
		contents["actor"] = actor
		contents["published"] = post.CreatedAt.UTC().Format(time.RFC3339)
		contents["to"] = []string{publicAudience}
		contents["cc"] = []string{}
		items = append(items, contents)
	}

	return json.Marshal(map[string]any{
		"@context":     "https://www.w3.org/ns/activitystreams",
		"id":           fmt.Sprintf("%s/outbox", actor),
		"type":         "OrderedCollection",
		"totalItems":   len(items),
		"orderedItems": items,
	})
}

// GetFollowers renders the followers collection: a page-less summary, or the
// single OrderedCollectionPage of follower actor URIs when page is set.
func GetFollowers(app *App, page string) ([]byte, error) {
	followers, err := app.DB.ReadAllFollowers()
	if err != nil {
		return nil, err
	}

	actors := make([]string, 0, len(followers))
	for _, follower := range followers {
		actors = append(actors, follower.Actor)
	}

	return collection(fmt.Sprintf("%s/followers", app.Conf.ActorIRI()), actors, page)
}

// GetFollowing renders the following collection the same way.
func GetFollowing(app *App, page string) ([]byte, error) {
	following, err := app.DB.ReadAllFollowing()
	if err != nil {
		return nil, err
	}

	actors := make([]string, 0, len(following))
	for _, follow := range following {
		actors = append(actors, follow.Actor)
	}

	return collection(fmt.Sprintf("%s/following", app.Conf.ActorIRI()), actors, page)
}

func collection(id string, items []string, page string) ([]byte, error) {
	if page == "" {
		return json.Marshal(map[string]any{
			"@context":   "https://www.w3.org/ns/activitystreams",
			"id":         id,
			"type":       "OrderedCollection",
			"totalItems": len(items),
			"first":      fmt.Sprintf("%s?page=1", id),
		})
	}

	return json.Marshal(map[string]any{
		"@context":     "https://www.w3.org/ns/activitystreams",
		"id":           fmt.Sprintf("%s?page=%s", id, page),
		"type":         "OrderedCollectionPage",
		"partOf":       id,
		"totalItems":   len(items),
		"orderedItems": items,
	})
}
