package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPSender relays notifications to the external push service over HTTP.
type HTTPSender struct {
	endpoint string
	client   *http.Client
}

func NewHTTPSender(endpoint string) *HTTPSender {
	return &HTTPSender{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type pushRequest struct {
	UserID       *string      `json:"userId,omitempty"`
	AnonymousID  *string      `json:"anonymousUserId,omitempty"`
	Notification Notification `json:"notification"`
}

func (s *HTTPSender) SendToUser(userID, anonymousID *string, n Notification) (Result, error) {
	body, err := json.Marshal(pushRequest{UserID: userID, AnonymousID: anonymousID, Notification: n})
	if err != nil {
		return Result{}, err
	}

	resp, err := s.client.Post(s.endpoint+"/notifications/send", "application/json", bytes.NewReader(body))
	if err != nil {
		return Result{Failed: 1}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return Result{Failed: 1}, fmt.Errorf("push relay returned status %d", resp.StatusCode)
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		// Relay accepted the notification but returned an unexpected
		// body; count it as sent.
		return Result{Sent: 1}, nil
	}
	return res, nil
}

// NoopSender drops every notification; used when no relay is configured
// and in tests.
type NoopSender struct{}

func (NoopSender) SendToUser(userID, anonymousID *string, n Notification) (Result, error) {
	return Result{}, nil
}
