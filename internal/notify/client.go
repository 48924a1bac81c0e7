package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"qrattend/internal/model"
	"qrattend/internal/queue"
)

// Notification is the webhook body for one accepted scan.
type Notification struct {
	Event       string       `json:"event"`
	RecordID    string       `json:"record_id"`
	StudentID   string       `json:"student_id"`
	StudentName string       `json:"student_name"`
	RollNumber  string       `json:"roll_number"`
	Status      model.Status `json:"status"`
	Date        string       `json:"date"`
	Timestamp   time.Time    `json:"timestamp"`
	Message     string       `json:"message"`
}

// NotificationFor builds the webhook body, e.g. "Alice Johnson marked as late".
func NotificationFor(rec model.AttendanceRecord) Notification {
	return Notification{
		Event:       queue.TypeAttendanceMarked,
		RecordID:    rec.ID,
		StudentID:   rec.StudentID,
		StudentName: rec.StudentName,
		RollNumber:  rec.RollNumber,
		Status:      rec.Status,
		Date:        rec.Date,
		Timestamp:   rec.Timestamp,
		Message:     fmt.Sprintf("%s marked as %s", rec.StudentName, rec.Status),
	}
}

// Client posts attendance notifications to a webhook.
type Client struct {
	URL  string
	HTTP *http.Client
	Skip bool
}

// New creates a client; an empty url puts it in skip mode, where
// notifications are only logged.
func New(url string) *Client {
	return &Client{
		URL:  url,
		Skip: url == "",
		HTTP: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send delivers one notification.
func (c *Client) Send(ctx context.Context, n Notification) error {
	if c.Skip {
		log.Printf("notify: %s (%s)", n.Message, n.RecordID)
		return nil
	}

	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook error %s: %s", resp.Status, string(bodyBytes))
	}
	return nil
}

// ResultObserver counts delivery results.
type ResultObserver interface {
	ObserveNotification(result string)
}

// Run consumes marked-attendance events until msgs closes. Failed
// deliveries are logged and dropped.
func Run(ctx context.Context, msgs <-chan queue.Message, c *Client, obs ResultObserver) {
	for msg := range msgs {
		if msg.Type != queue.TypeAttendanceMarked {
			continue
		}
		var rec model.AttendanceRecord
		if err := json.Unmarshal(msg.Body, &rec); err != nil {
			log.Printf("notify: bad event body: %v", err)
			observe(obs, "invalid")
			continue
		}
		if err := c.Send(ctx, NotificationFor(rec)); err != nil {
			log.Printf("notify: record %s failed: %v", rec.ID, err)
			observe(obs, "failed")
			continue
		}
		observe(obs, "sent")
	}
}

func observe(obs ResultObserver, result string) {
	if obs != nil {
		obs.ObserveNotification(result)
	}
}
