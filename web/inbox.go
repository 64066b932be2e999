package web

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleInbox authenticates an inbound activity and hands it to the
// relationship state machine. Every verification failure produces the same
// generic rejection: the response never reveals which check failed.
func HandleInbox(c *gin.Context, app *App) {
	body, err := c.GetRawData()
	if err != nil {
		log.Printf("Inbox: Failed to read body: %v", err)
		c.Status(http.StatusBadRequest)
		return
	}

	sender, err := app.Verifier.Verify(c.Request, body)
	if err != nil {
		log.Printf("Inbox: Verification failed: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := app.Relationships.HandleActivity(c.Request.Context(), sender, body); err != nil {
		log.Printf("Inbox: Failed to process activity: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Status(http.StatusNoContent)
}
