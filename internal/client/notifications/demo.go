package notifications

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/homeshare/internal/api"
	"github.com/dmitrijs2005/homeshare/internal/client/failure"
	"github.com/dmitrijs2005/homeshare/internal/client/models"
)

// DefaultDemoCount is used when SeedDemo is asked for zero notifications.
const DefaultDemoCount = 5

var demoTypes = []string{
	models.NotificationBooking,
	models.NotificationInvitation,
	models.NotificationProperty,
	models.NotificationMessage,
}

var demoMessages = map[string][]string{
	models.NotificationBooking: {
		"Your booking request has been approved",
		"Your booking request is pending review",
		"A guest has requested to book your property",
		"Your upcoming stay is in 2 days",
		"Your booking has been confirmed",
	},
	models.NotificationInvitation: {
		"You received a new invitation to collaborate",
		"Your invitation has been accepted",
		"Someone invited you to manage their property",
		"New family member added to your circle",
		"An invitation is pending your response",
	},
	models.NotificationProperty: {
		"Your property listing has been published",
		"Your property has a new review",
		"Property price updated successfully",
		"Property details have been updated",
		"New property availability dates added",
	},
	models.NotificationMessage: {
		"You have a new message from a guest",
		"Property owner sent you a message",
		"New message regarding your upcoming stay",
		"Message received about your property",
		"New communication from support team",
	},
}

// Rand is the subset of *math/rand/v2.Rand used by SeedDemo.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// SeedDemo inserts count random notifications for userID, about 30% of
// them already read, and returns the stored records. The owner column is
// stamped by the server from the caller's token and is never sent.
func SeedDemo(ctx context.Context, ins Inserter, userID string, count int, rnd Rand) ([]models.Notification, error) {
	if userID == "" {
		return nil, nil
	}
	if count <= 0 {
		count = DefaultDemoCount
	}

	records := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		typ := demoTypes[rnd.IntN(len(demoTypes))]
		msgs := demoMessages[typ]
		records = append(records, map[string]any{
			"type":       typ,
			"message":    msgs[rnd.IntN(len(msgs))],
			"is_read":    rnd.Float64() > 0.7,
			"related_id": nil,
		})
	}

	rows, err := ins.Insert(ctx, &api.InsertRequest{Table: table, Records: records})
	if err != nil {
		return nil, failure.Mutation("create demo notifications", err)
	}

	out := make([]models.Notification, 0, len(rows))
	for _, raw := range rows {
		var n models.Notification
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
