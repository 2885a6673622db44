package helpers

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const countersKey = "reply_counters"

type replyCounters struct {
	messages atomic.Int32
	media    atomic.Int32
}

// ResetCounters attaches fresh reply counters to the update context.
func ResetCounters(c tele.Context) {
	if c == nil {
		return
	}
	c.Set(countersKey, &replyCounters{})
}

// Counters reports how many text and media replies were queued for the update.
func Counters(c tele.Context) (messages, media int) {
	rc := countersFrom(c)
	if rc == nil {
		return 0, 0
	}
	return int(rc.messages.Load()), int(rc.media.Load())
}

func countersFrom(c tele.Context) *replyCounters {
	if c == nil {
		return nil
	}
	rc, _ := c.Get(countersKey).(*replyCounters)
	return rc
}

func countReply(c tele.Context, isMedia bool) {
	rc := countersFrom(c)
	if rc == nil {
		return
	}
	if isMedia {
		rc.media.Add(1)
		return
	}
	rc.messages.Add(1)
}
