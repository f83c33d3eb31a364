package fcm

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

const androidPriorityHigh = "high"

// multicaster is the part of *messaging.Client the client depends on
type multicaster interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Client wraps Firebase Cloud Messaging functionality
type Client struct {
	messagingClient multicaster
}

// NewClient creates a new FCM client using the provided credentials file
func NewClient(credentialsFile string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return newClient(context.Background(), nil, opts...)
}

func newClient(ctx context.Context, config *firebase.Config, opts ...option.ClientOption) (*Client, error) {
	app, err := firebase.NewApp(ctx, config, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	log.Println("[FCM] Client initialized successfully")
	return &Client{
		messagingClient: messagingClient,
	}, nil
}

// NotificationData contains the data to send in a push notification
type NotificationData struct {
	Title       string
	Body        string
	DeeplinkURI string            // Optional in-app destination
	ImageURL    string            // Optional notification image
	Data        map[string]string // Extra data payload
}

// CreateAndroidPushMessage builds a message that renders both when the app is
// force-closed and when it is running. Icon and channel come from the app manifest.
func CreateAndroidPushMessage(title, body, deeplinkURI, imageURL string) *messaging.Message {
	return &messaging.Message{
		Data:    messageData(NotificationData{Title: title, Body: body, DeeplinkURI: deeplinkURI, ImageURL: imageURL}),
		Android: androidConfig(title, body, imageURL),
	}
}

func messageData(n NotificationData) map[string]string {
	data := make(map[string]string, len(n.Data)+4)
	for k, v := range n.Data {
		data[k] = v
	}
	data["title"] = n.Title
	data["body"] = n.Body
	if n.ImageURL != "" {
		data["attachmentUrl"] = n.ImageURL
	}
	if n.DeeplinkURI != "" {
		data["deeplink_uri"] = n.DeeplinkURI
	}
	return data
}

func androidConfig(title, body, imageURL string) *messaging.AndroidConfig {
	return &messaging.AndroidConfig{
		Priority: androidPriorityHigh,
		Notification: &messaging.AndroidNotification{
			Title:    title,
			Body:     body,
			ImageURL: imageURL,
		},
	}
}

// SendResult reports how FCM answered one multicast
type SendResult struct {
	Delivered    int
	FailedTokens []string // every token FCM did not accept
	StaleTokens  []string // subset of FailedTokens FCM reported as no longer registered
}

// isStaleTokenError reports whether FCM rejected the registration itself.
// Quota, unavailable and internal errors leave the token usable.
func isStaleTokenError(err error) bool {
	return messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err)
}

// SendToDevices hands one multicast message to FCM.
func (c *Client) SendToDevices(ctx context.Context, tokens []string, notification NotificationData) (*SendResult, error) {
	result := &SendResult{}
	if len(tokens) == 0 {
		return result, nil
	}

	message := &messaging.MulticastMessage{
		Tokens:  tokens,
		Data:    messageData(notification),
		Android: androidConfig(notification.Title, notification.Body, notification.ImageURL),
	}

	response, err := c.messagingClient.SendEachForMulticast(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("failed to send FCM multicast message: %w", err)
	}

	log.Printf("[FCM] Multicast sent: %d success, %d failures", response.SuccessCount, response.FailureCount)

	for i, resp := range response.Responses {
		if i >= len(tokens) {
			break
		}
		if resp.Success {
			result.Delivered++
			continue
		}
		result.FailedTokens = append(result.FailedTokens, tokens[i])
		if isStaleTokenError(resp.Error) {
			result.StaleTokens = append(result.StaleTokens, tokens[i])
			log.Printf("[FCM] Token %s is no longer registered: %v", redact(tokens[i]), resp.Error)
		} else {
			log.Printf("[FCM] Failed to send to token %s: %v", redact(tokens[i]), resp.Error)
		}
	}

	return result, nil
}

// redact keeps a short prefix of a token for logs
func redact(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "..."
}
