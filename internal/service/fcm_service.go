package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMService delivers push notifications through Firebase Cloud Messaging.
// A nil *FCMService is valid and sends nothing.
type FCMService struct {
	client messagingClient
}

type messagingClient interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

// NewFCMService returns nil when Firebase is not configured or fails to start.
func NewFCMService(ctx context.Context, serviceAccountPath string) *FCMService {
	if serviceAccountPath == "" {
		return nil
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		log.Printf("[FCM] init app: %v", err)
		return nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		log.Printf("[FCM] messaging client: %v", err)
		return nil
	}
	return &FCMService{client: client}
}

// SendToUser pushes a notification to one device. Data values are flattened
// to strings as FCM requires.
func (s *FCMService) SendToUser(ctx context.Context, deviceToken, notifType, title, body string, data map[string]interface{}) error {
	if s == nil || s.client == nil || deviceToken == "" {
		return nil
	}
	_, err := s.client.Send(ctx, buildMessage(deviceToken, notifType, title, body, data))
	if err != nil {
		log.Printf("[FCM] send %s: %v", notifType, err)
		return err
	}
	return nil
}

func buildMessage(token, notifType, title, body string, data map[string]interface{}) *messaging.Message {
	flat := map[string]string{"type": notifType}
	for k, v := range data {
		switch val := v.(type) {
		case string:
			flat[k] = val
		case uint, int, int64, uint64:
			flat[k] = fmt.Sprintf("%d", val)
		case float64:
			flat[k] = fmt.Sprintf("%g", val)
		default:
			b, _ := json.Marshal(v)
			flat[k] = string(b)
		}
	}
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: flat,
		Android: &messaging.AndroidConfig{
			Priority:     "high",
			Notification: &messaging.AndroidNotification{Sound: "default"},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{Aps: &messaging.Aps{Sound: "default"}},
		},
	}
}
