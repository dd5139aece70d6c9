package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tableside/internal/domain"
)

var allTopics = []string{domain.TopicTables, domain.TopicMenuItems, domain.TopicOrders}

// handleEvents streams broadcast events over SSE. Subscription starts at
// connect time: there is no replay, and a client that reconnects must
// reconcile from /cashier/session before trusting the stream again.
func (s *Server) handleEvents(c *gin.Context) {
	topics := allTopics
	if q := c.Query("topics"); q != "" {
		topics = topics[:0:0]
		for _, t := range strings.Split(q, ",") {
			t = strings.TrimSpace(t)
			switch t {
			case domain.TopicTables, domain.TopicMenuItems, domain.TopicOrders:
				topics = append(topics, t)
			case "":
			default:
				respondErr(c, domain.Validationf("unknown topic %q", t))
				return
			}
		}
		if len(topics) == 0 {
			respondErr(c, domain.Validationf("no valid topics requested"))
			return
		}
	}

	merged := make(chan topicEvent, 16)
	done := c.Request.Context().Done()
	for _, topic := range topics {
		sub, err := s.bus.Subscribe(topic)
		if err != nil {
			respondErr(c, domain.Infra("subscribe", err))
			return
		}
		defer sub.Close()
		go func(topic string, ch <-chan domain.Event) {
			for {
				select {
				case <-done:
					return
				case ev, ok := <-ch:
					if !ok {
						return
					}
					select {
					case merged <- topicEvent{topic: topic, ev: ev}:
					case <-done:
						return
					}
				}
			}
		}(topic, sub.C)
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	flusher, _ := c.Writer.(http.Flusher)
	for {
		select {
		case <-done:
			return
		case te := <-merged:
			payload, err := json.Marshal(te.ev)
			if err != nil {
				s.log.Fail("event_encode", err, "type", string(te.ev.Type))
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", te.topic, payload)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

type topicEvent struct {
	topic string
	ev    domain.Event
}
