package event

const AuthOTPDeliveryDestination string = "auth_otp_delivery"
const AuthOTPDeliveryConsumerNotification string = "auth_otp_delivery_notification"

// AuthOTPDeliveryMessage asks the notification module to text a code.
type AuthOTPDeliveryMessage struct {
	PhoneNumber string `json:"phone_number"`
	OTPCode     string `json:"otp_code"`
}
