package web

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleWebhook wraps an arbitrary JSON payload into a Note and publishes it
// like an admin create. The URL path segment is the shared secret; an unset
// secret disables the endpoint entirely.
func HandleWebhook(c *gin.Context, app *App) {
	secret := app.Conf.Conf.WebhookSecret
	if secret == "" || !safeCompare(c.Param("secret"), secret) {
		c.Status(http.StatusNotFound)
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	object := map[string]any{
		"type":      "Note",
		"mediaType": "application/json",
		"content":   string(body),
	}

	if err := PublishObject(app, object); err != nil {
		log.Printf("Webhook: Failed to publish: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Status(http.StatusNoContent)
}
