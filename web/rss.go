package web

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/feeds"
)

// GetRSS renders the local actor's Create posts as an RSS feed.
func GetRSS(app *App) (string, error) {
	posts, err := app.DB.ReadAllPosts()
	if err != nil {
		return "", err
	}

	account := app.Conf.Conf.Account
	link := fmt.Sprintf("%s/feed", app.Conf.BaseURL())

	feed := &feeds.Feed{
		Title:       fmt.Sprintf("%s@%s", account, app.Conf.Conf.Domain),
		Link:        &feeds.Link{Href: link},
		Description: fmt.Sprintf("posts by %s", account),
		Author:      &feeds.Author{Name: account},
		Created:     time.Now(),
	}

	var feedItems []*feeds.Item
	for _, post := range posts {
		var contents map[string]any
		if err := json.Unmarshal([]byte(post.Contents), &contents); err != nil {
			continue
		}
		if contents["type"] != "Create" {
			continue
		}

		content := post.Contents
		if obj, ok := contents["object"].(map[string]any); ok {
			if text, ok := obj["content"].(string); ok {
				content = text
			}
		}

		feedItems = append(feedItems,
			&feeds.Item{
				Id:      post.Id.String(),
				Title:   post.CreatedAt.Format(time.RFC1123),
				Link:    &feeds.Link{Href: fmt.Sprintf("%s/posts/%s", app.Conf.ActorIRI(), post.Id)},
				Content: content,
				Author:  &feeds.Author{Name: account},
				Created: post.CreatedAt,
			})
	}

	feed.Items = feedItems
	return feed.ToRss()
}
