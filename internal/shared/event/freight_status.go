package event

import "time"

const FreightRequestStatusChangedDestination string = "freight_request_status_changed"
const FreightRequestStatusChangedConsumerNotification string = "freight_request_status_changed_notification"

type FreightRequestStatusChangedMessage struct {
	RequestID   int64     `json:"request_id,string"`
	UserID      int64     `json:"user_id,string"`
	PhoneNumber string    `json:"phone_number"`
	OldStatus   string    `json:"old_status"`
	NewStatus   string    `json:"new_status"`
	ChangedAt   time.Time `json:"changed_at"`
}
