package service

import (
	"context"
	"strconv"

	"schoolleave/internal/model"
	"schoolleave/internal/repository"
)

type AuditLogResponse struct {
	ID         uint   `json:"id"`
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, filter repository.AuditFilter, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// GetAuditLogs returns one page of the trail, newest first.
func (s *auditService) GetAuditLogs(ctx context.Context, filter repository.AuditFilter, page, limit int) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, toAuditResponse(l))
	}
	return res, total, nil
}

func toAuditResponse(l model.AuditLog) AuditLogResponse {
	username := "System"
	userID := ""
	switch {
	case l.User != nil:
		username = l.User.StudentID
	case l.Actor != "":
		username = l.Actor
	}
	if l.UserID != nil {
		userID = strconv.FormatUint(uint64(*l.UserID), 10)
	}

	return AuditLogResponse{
		ID:         l.ID,
		UserID:     userID,
		Username:   username,
		Action:     l.Action,
		EntityID:   l.EntityID,
		EntityName: l.EntityName,
		Details:    string(l.Details),
		CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
