package service

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"schoolleave/internal/model"
	"schoolleave/internal/repository"
)

// Event topics pushed to connected clients.
const (
	TopicLeaveSubmitted    = "leave.submitted"
	TopicLeaveDecided      = "leave.decided"
	TopicLeaveDeleted      = "leave.deleted"
	TopicLeaveResolved     = "leave.resolved"
	TopicLeavePendingCount = "leave.pending_count"
)

// Publisher delivers an event to the connected clients for which visible
// returns true. A nil visible reaches everyone.
type Publisher interface {
	Publish(topic string, payload any, visible func(model.Identity) bool)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any, func(model.Identity) bool) {}

// writeAudit records one audit row using whatever transaction ctx carries.
func writeAudit(ctx context.Context, repo repository.AuditRepository, actor *model.Identity, action, entityID, entityName string, details map[string]any) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}
	entry := &model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    datatypes.JSON(raw),
	}
	if actor != nil && actor.ID != 0 {
		id := actor.ID
		entry.UserID = &id
		entry.Actor = actor.Username
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
