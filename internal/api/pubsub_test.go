package api_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joyboxhq/funnel/internal/api"
	"github.com/joyboxhq/funnel/internal/domain"
	"github.com/joyboxhq/funnel/internal/event"
)

func TestAPI_EventFanOut(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	r := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = r.Close() })

	eb := event.NewBus()

	api.New(api.Config{
		Engine:       gin.New(),
		EventBus:     eb,
		Redis:        r,
		PubsubPrefix: "test",
	})

	sub := r.Subscribe(ctx, "test:results", "test:waitlist", "test:notifications")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err, "subscription should be confirmed before publishing")

	eb.Publish(ctx, domain.EventResultRecorded{
		Result: domain.QuizResult{
			ResultID:    "r1",
			Personality: domain.PersonalityCuriousBuilder,
			Pincode:     "560034",
		},
	})
	eb.Publish(ctx, domain.EventWaitlistJoined{
		Entry: domain.WaitlistEntry{
			EntryID:      "w1",
			Pincode:      "110001",
			ReferralCode: "JOYABCDEF123",
		},
	})
	eb.Publish(ctx, domain.EventNotificationSent{
		ResultID:  "r1",
		Recipient: "9876543210",
	})
	eb.Stop()

	got := make(map[string]api.Notification)
	for i := 0; i < 3; i++ {
		select {
		case msg := <-sub.Channel():
			var n api.Notification
			require.NoError(t, json.Unmarshal([]byte(msg.Payload), &n))
			got[msg.Channel] = n
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for fan-out messages")
		}
	}

	require.Len(t, got, 3)
	assert.Equal(t, domain.EventNameResultRecorded, got["test:results"].Event)
	assert.Equal(t, domain.EventNameWaitlistJoined, got["test:waitlist"].Event)
	assert.Equal(t, domain.EventNameNotificationSent, got["test:notifications"].Event)

	lead, ok := got["test:waitlist"].Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "w1", lead["entry_id"])
	assert.NotContains(t, lead, "phone", "contact details stay off the wire")
}
