package api

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/haimn/showerparty/internal/domain"
	"github.com/haimn/showerparty/internal/realtime"
)

// streamBuffer bounds how far a slow SSE client may lag before updates
// are dropped for it.
const streamBuffer = 16

// stream serves a live feed over server-sent events. The path parameter is
// either an activity name or a game session code; each message's SSE event
// name carries the update kind and its data the JSON payload.
func (a *API) stream(c *gin.Context) {
	target := c.Param("activity")

	var channel string
	if activity := domain.ActivityType(strings.ToLower(target)); activity.Valid() {
		channel = a.streams.ActivityChannelName(activity)
	} else if looksLikeSessionCode(target) {
		channel = a.streams.GameChannelName(strings.ToUpper(target))
	} else {
		badRequest(c, "unknown stream: "+target)
		return
	}

	updates := make(chan realtime.Notification, streamBuffer)
	sub := a.streams.Subscribe(c.Request.Context(), channel, func(n realtime.Notification) {
		select {
		case updates <- n:
		default:
			// Slow consumer; it will catch up on the next update.
		}
	})
	defer sub.Close()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		select {
		case n := <-updates:
			c.SSEvent(n.Event, n.Data)
			return true
		case <-sub.Done():
			return false
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func looksLikeSessionCode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range strings.ToUpper(s) {
		if (r < 'A' || r > 'Z') && (r < '2' || r > '9') {
			return false
		}
	}
	return true
}
