package domain

const (
	EventNameResultRecorded   = "result.recorded"
	EventNameWaitlistJoined   = "waitlist.joined"
	EventNameNotificationSent = "notification.sent"
)

type EventResultRecorded struct {
	Result QuizResult
}

func (EventResultRecorded) Name() string { return EventNameResultRecorded }

type EventWaitlistJoined struct {
	Entry WaitlistEntry
}

func (EventWaitlistJoined) Name() string { return EventNameWaitlistJoined }

type EventNotificationSent struct {
	ResultID  string
	Recipient string
}

func (EventNotificationSent) Name() string { return EventNameNotificationSent }
