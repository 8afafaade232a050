package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/joyboxhq/funnel/internal/domain"
)

type (
	Notification struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}

	RecordedResult struct {
		ResultID    string                 `json:"result_id"`
		Personality domain.PersonalityType `json:"personality"`
		Pincode     string                 `json:"pincode"`
	}

	WaitlistLead struct {
		EntryID      string `json:"entry_id"`
		Pincode      string `json:"pincode"`
		ReferralCode string `json:"referral_code"`
	}

	SentNotification struct {
		ResultID string `json:"result_id"`
	}
)

// PublishResultRecorded fans a recorded result out to the admin dashboard
// channel. Scores and contact details stay out of the payload; subscribers
// fetch the full result over the API if they need it.
func (a *API) PublishResultRecorded(ctx context.Context, e domain.EventResultRecorded) error {
	return a.publishNotification(ctx, "results", e.Name(), RecordedResult{
		ResultID:    e.Result.ResultID,
		Personality: e.Result.Personality,
		Pincode:     e.Result.Pincode,
	})
}

// PublishWaitlistJoined announces a new lead on the waitlist channel. Name and
// phone stay off the wire.
func (a *API) PublishWaitlistJoined(ctx context.Context, e domain.EventWaitlistJoined) error {
	return a.publishNotification(ctx, "waitlist", e.Name(), WaitlistLead{
		EntryID:      e.Entry.EntryID,
		Pincode:      e.Entry.Pincode,
		ReferralCode: e.Entry.ReferralCode,
	})
}

// PublishNotificationSent announces a delivered parent notification, so the
// dashboard can show outbox progress without polling the table.
func (a *API) PublishNotificationSent(ctx context.Context, e domain.EventNotificationSent) error {
	return a.publishNotification(ctx, "notifications", e.Name(), SentNotification{
		ResultID: e.ResultID,
	})
}

func (a *API) publishNotification(ctx context.Context, channel, event string, data any) error {
	n := Notification{
		Event: event,
		Data:  data,
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", event, err)
	}

	return a.redis.Publish(ctx, fmt.Sprintf("%s:%s", a.prefix, channel), b).Err()
}
