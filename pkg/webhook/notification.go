package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/paygate/pkg/domain"
)

type notificationBody struct {
	ID          json.Number                `json:"id"`
	Type        string                     `json:"type"`
	Topic       string                     `json:"topic"`
	Action      string                     `json:"action"`
	UserID      json.Number                `json:"user_id"`
	DateCreated string                     `json:"date_created"`
	Data        map[string]json.RawMessage `json:"data"`
}

// ParseNotification decodes a notification body. Query parameters
// ("data.id", "type") fill gaps left by older notification formats.
func ParseNotification(raw []byte, query map[string]string) (domain.WebhookNotification, error) {
	var n domain.WebhookNotification
	var body notificationBody
	if len(bytes.TrimSpace(raw)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			return n, &domain.ValidationError{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
		}
	}

	n.ID = body.ID.String()
	n.Type = firstNonEmpty(body.Type, body.Topic, query["type"], query["topic"])
	n.Action = body.Action
	n.UserID = body.UserID.String()
	if t, err := time.Parse(time.RFC3339, body.DateCreated); err == nil {
		n.CreatedAt = t
	}
	if id, ok := body.Data["id"]; ok {
		n.ResourceID = strings.Trim(strings.TrimSpace(string(id)), `"`)
	}
	if n.ResourceID == "" {
		n.ResourceID = firstNonEmpty(query["data.id"], query["id"])
	}
	return n, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
