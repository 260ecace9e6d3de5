package domain

import (
	"encoding/json"
	"fmt"
)

// NotificationTypeWeatherAlert tags weather-alert fan-out payloads so the
// downstream executor can route them.
const NotificationTypeWeatherAlert = "WEATHER_ALERT"

// Notification is the payload handed to the notification executor for one
// user. Data carries the triggering alert's property bag unchanged.
type Notification struct {
	UserID           string          `json:"userId"`
	Email            string          `json:"email"`
	PhoneNumber      string          `json:"phoneNumber,omitempty"`
	NotificationType string          `json:"notificationType"`
	Data             AlertProperties `json:"data"`
}

// NewWeatherAlertNotification assembles the dispatch payload for a user
// affected by an alert.
func NewWeatherAlertNotification(user User, props AlertProperties) Notification {
	return Notification{
		UserID:           user.ID,
		Email:            user.Email,
		PhoneNumber:      user.PhoneNumber,
		NotificationType: NotificationTypeWeatherAlert,
		Data:             props,
	}
}

// Marshal serializes the notification for the executor.
func (n Notification) Marshal() ([]byte, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("serialize notification for user %s: %w", n.UserID, err)
	}
	return data, nil
}
