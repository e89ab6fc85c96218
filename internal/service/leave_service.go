package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"schoolleave/internal/metrics"
	"schoolleave/internal/model"
	"schoolleave/internal/repository"
	"schoolleave/internal/scope"
)

// MaxAttachmentSize bounds one inline attachment.
const MaxAttachmentSize = 5 << 20

// --- DTOs ---

type SubmitLeaveRequest struct {
	FullName    string             `json:"fullName" binding:"required"`
	StudentID   string             `json:"studentId" binding:"required"`
	Grade       string             `json:"grade"`
	Classroom   string             `json:"classroom"`
	Department  string             `json:"department"`
	LeaveType   model.LeaveType    `json:"leaveType" binding:"required"`
	LeaveDate   string             `json:"leaveDate" binding:"required"`
	StartTime   string             `json:"startTime"`
	EndTime     string             `json:"endTime"`
	ParentPhone string             `json:"parentPhone"`
	Notes       string             `json:"notes"`
	Attachments []model.Attachment `json:"attachment"`
}

type RejectLeaveRequest struct {
	Reason string `json:"rejectReason" binding:"required"`
}

type BulkDeleteRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}

// --- Interface ---

// LeaveService runs the leave workflow. Every read is narrowed by the caller's
// role before it leaves the service.
type LeaveService interface {
	Submit(ctx context.Context, actor model.Identity, req SubmitLeaveRequest) (*model.LeaveForm, error)
	List(ctx context.Context, actor model.Identity, criteria scope.Criteria) ([]model.LeaveForm, error)
	Queue(ctx context.Context, actor model.Identity, criteria scope.Criteria) ([]model.LeaveForm, error)
	Grouped(ctx context.Context, actor model.Identity, criteria scope.Criteria) ([]scope.MonthGroup, error)
	Get(ctx context.Context, actor model.Identity, id uint) (*model.LeaveForm, error)
	Approve(ctx context.Context, actor model.Identity, id uint) (*model.LeaveForm, error)
	Reject(ctx context.Context, actor model.Identity, id uint, reason string) (*model.LeaveForm, error)
	Delete(ctx context.Context, actor model.Identity, id uint) error
	DeleteMany(ctx context.Context, actor model.Identity, ids []uint) (int, error)
	Summary(ctx context.Context, actor model.Identity) (*model.LeaveSummary, error)
	PendingCount(ctx context.Context) (int, error)
}

type leaveService struct {
	repo      repository.LeaveRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	list      scope.Policy
	queue     scope.Policy
	publisher Publisher
	metrics   metrics.Recorder
	now       func() time.Time
}

// LeavePolicies holds the teacher rules for the list and the approval queue.
type LeavePolicies struct {
	List  scope.Policy
	Queue scope.Policy
}

func NewLeaveService(
	repo repository.LeaveRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	policies LeavePolicies,
	publisher Publisher,
	rec metrics.Recorder,
) LeaveService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &leaveService{
		repo:      repo,
		auditRepo: auditRepo,
		txManager: txManager,
		list:      policies.List,
		queue:     policies.Queue,
		publisher: publisher,
		metrics:   rec,
		now:       time.Now,
	}
}

// --- Implementation ---

func (s *leaveService) Submit(ctx context.Context, actor model.Identity, req SubmitLeaveRequest) (*model.LeaveForm, error) {
	if err := validateSubmission(actor, &req); err != nil {
		return nil, err
	}

	form := &model.LeaveForm{
		FullName:    strings.TrimSpace(req.FullName),
		StudentID:   req.StudentID,
		Grade:       req.Grade,
		Classroom:   req.Classroom,
		Department:  req.Department,
		LeaveType:   req.LeaveType,
		LeaveDate:   req.LeaveDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		ParentPhone: req.ParentPhone,
		Notes:       req.Notes,
		Status:      model.LeavePending,
		Attachments: req.Attachments,
	}
	// Students inherit their own scoping fields when the form leaves them blank.
	if actor.Role == model.RoleStudent {
		if form.Department == "" {
			form.Department = actor.Department
		}
		if form.Classroom == "" {
			form.Classroom = actor.Classroom
		}
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		_, err := s.repo.FindDuplicate(txCtx, form.FullName, form.LeaveDate)
		if err == nil {
			return ErrDuplicateLeave
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check duplicate leave: %w", err)
		}

		if err := s.repo.Create(txCtx, form); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateLeave
			}
			return fmt.Errorf("failed to create leave form: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, &actor, model.ActionSubmitLeave, idString(form.ID), form.FullName, map[string]any{
			"student_id": form.StudentID,
			"leave_type": form.LeaveType,
			"leave_date": form.LeaveDate,
		})
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "leave form submitted", "leave_id", form.ID, "student_id", form.StudentID)
	s.publishForm(TopicLeaveSubmitted, form)
	return form, nil
}

func validateSubmission(actor model.Identity, req *SubmitLeaveRequest) error {
	if strings.TrimSpace(req.FullName) == "" || strings.TrimSpace(req.StudentID) == "" {
		return fmt.Errorf("%w: full name and student id are required", ErrInvalidInput)
	}
	if actor.Role == model.RoleStudent && req.StudentID != actor.Username {
		return fmt.Errorf("%w: students may only submit leave for their own student id", ErrInvalidInput)
	}
	if !req.LeaveType.Valid() {
		return fmt.Errorf("%w: unknown leave type %q", ErrInvalidInput, req.LeaveType)
	}
	if err := model.ValidateDate(req.LeaveDate); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if (req.StartTime == "") != (req.EndTime == "") {
		return fmt.Errorf("%w: start and end time must be given together", ErrInvalidInput)
	}
	if req.StartTime != "" {
		for _, clock := range []string{req.StartTime, req.EndTime} {
			if err := model.ValidateClock(clock); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
		}
		if req.StartTime >= req.EndTime {
			return fmt.Errorf("%w: start time must be before end time", ErrInvalidInput)
		}
	}
	for i := range req.Attachments {
		if err := checkAttachment(&req.Attachments[i]); err != nil {
			return err
		}
	}
	return nil
}

// checkAttachment validates the variant and, for inline content, that the
// bytes really are what the declared type says.
func checkAttachment(a *model.Attachment) error {
	a.ID, a.LeaveFormID = 0, 0
	if err := a.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if a.Kind != model.AttachmentInline {
		return nil
	}
	if len(a.Data) > MaxAttachmentSize {
		return fmt.Errorf("%w: attachment %s exceeds %d bytes", ErrInvalidInput, a.Name, MaxAttachmentSize)
	}
	if detected := mimetype.Detect(a.Data); !detected.Is(a.MimeType) {
		return fmt.Errorf("%w: attachment %s is %s, declared %s", ErrUnsupportedFile, a.Name, detected.String(), a.MimeType)
	}
	return nil
}

func (s *leaveService) List(ctx context.Context, actor model.Identity, criteria scope.Criteria) ([]model.LeaveForm, error) {
	return s.filtered(ctx, s.list, actor, criteria)
}

func (s *leaveService) Queue(ctx context.Context, actor model.Identity, criteria scope.Criteria) ([]model.LeaveForm, error) {
	return s.filtered(ctx, s.queue, actor, criteria)
}

func (s *leaveService) Grouped(ctx context.Context, actor model.Identity, criteria scope.Criteria) ([]scope.MonthGroup, error) {
	forms, err := s.List(ctx, actor, criteria)
	if err != nil {
		return nil, err
	}
	return scope.GroupByMonth(forms), nil
}

func (s *leaveService) filtered(ctx context.Context, policy scope.Policy, actor model.Identity, criteria scope.Criteria) ([]model.LeaveForm, error) {
	if err := criteria.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	forms, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave forms: %w", err)
	}
	return policy.Filter(&actor, forms, criteria), nil
}

// visible is the union of the list and queue rules.
func (s *leaveService) visible(actor *model.Identity, form *model.LeaveForm) bool {
	return s.list.Visible(actor, form) || s.queue.Visible(actor, form)
}

func (s *leaveService) Get(ctx context.Context, actor model.Identity, id uint) (*model.LeaveForm, error) {
	form, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	// Out-of-scope forms are reported as missing so their existence does not leak.
	if !s.visible(&actor, form) {
		return nil, ErrLeaveNotFound
	}
	return form, nil
}

func (s *leaveService) find(ctx context.Context, id uint) (*model.LeaveForm, error) {
	form, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLeaveNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load leave form: %w", err)
	}
	return form, nil
}

func (s *leaveService) Approve(ctx context.Context, actor model.Identity, id uint) (*model.LeaveForm, error) {
	return s.decide(ctx, actor, id, model.LeaveApproved, "")
}

func (s *leaveService) Reject(ctx context.Context, actor model.Identity, id uint, reason string) (*model.LeaveForm, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: a reject reason is required", ErrInvalidInput)
	}
	return s.decide(ctx, actor, id, model.LeaveRejected, reason)
}

func (s *leaveService) decide(ctx context.Context, actor model.Identity, id uint, status model.LeaveStatus, reason string) (*model.LeaveForm, error) {
	var form *model.LeaveForm
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		if form, err = s.find(txCtx, id); err != nil {
			return err
		}
		if !s.queue.Visible(&actor, form) {
			return ErrLeaveNotFound
		}
		if form.Status != model.LeavePending {
			return ErrLeaveNotPending
		}

		now := s.now()
		decider := actor.ID
		form.Status = status
		form.RejectReason = reason // approving clears any earlier reason
		form.DecidedBy = &decider
		form.DecidedAt = &now
		if err := form.CheckDecision(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}

		if err := s.repo.Update(txCtx, form); err != nil {
			return fmt.Errorf("failed to update leave form: %w", err)
		}

		action := model.ActionApproveLeave
		details := map[string]any{"student_id": form.StudentID}
		if status == model.LeaveRejected {
			action = model.ActionRejectLeave
			details["reject_reason"] = reason
		}
		return writeAudit(txCtx, s.auditRepo, &actor, action, idString(form.ID), form.FullName, details)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLeaveDecision(string(status))
	slog.InfoContext(ctx, "leave form decided", "leave_id", form.ID, "status", string(status), "decided_by", actor.ID)
	s.publishForm(TopicLeaveDecided, form)
	return form, nil
}

func (s *leaveService) Delete(ctx context.Context, actor model.Identity, id uint) error {
	_, err := s.DeleteMany(ctx, actor, []uint{id})
	return err
}

// DeleteMany removes every listed form or none of them.
func (s *leaveService) DeleteMany(ctx context.Context, actor model.Identity, ids []uint) (int, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: no leave forms selected", ErrInvalidInput)
	}
	ids = uniqueIDs(ids)

	var deleted []model.LeaveForm
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		forms, err := s.repo.FindByIDs(txCtx, ids)
		if err != nil {
			return fmt.Errorf("failed to load leave forms: %w", err)
		}
		if len(forms) != len(ids) {
			return ErrLeaveNotFound
		}
		for i := range forms {
			if !s.visible(&actor, &forms[i]) {
				return ErrLeaveNotFound
			}
		}

		for _, form := range forms {
			if err := s.repo.Delete(txCtx, form.ID); err != nil {
				return fmt.Errorf("failed to delete leave form %d: %w", form.ID, err)
			}
			if err := writeAudit(txCtx, s.auditRepo, &actor, model.ActionDeleteLeave, idString(form.ID), form.FullName, map[string]any{
				"student_id": form.StudentID,
				"status":     form.Status,
			}); err != nil {
				return err
			}
		}
		deleted = forms
		return nil
	})
	if err != nil {
		return 0, err
	}

	for i := range deleted {
		s.publishForm(TopicLeaveDeleted, &deleted[i])
	}
	slog.InfoContext(ctx, "leave forms deleted", "count", len(deleted), "deleted_by", actor.ID)
	return len(deleted), nil
}

// Summary counts the caller's approved leave by type.
func (s *leaveService) Summary(ctx context.Context, actor model.Identity) (*model.LeaveSummary, error) {
	forms, err := s.List(ctx, actor, scope.Criteria{})
	if err != nil {
		return nil, err
	}
	return summarize(forms), nil
}

func summarize(forms []model.LeaveForm) *model.LeaveSummary {
	summary := &model.LeaveSummary{
		ByStatus:     map[model.LeaveStatus]int{},
		ByType:       make([]model.LeaveTypeCount, 0, len(model.LeaveTypes)),
		MostFrequent: []model.LeaveType{},
	}
	counts := map[model.LeaveType]int{}
	for _, f := range forms {
		summary.ByStatus[f.Status]++
		if f.Status == model.LeaveApproved {
			counts[f.LeaveType]++
			summary.Total++
		}
	}

	hundred := decimal.NewFromInt(100)
	for _, t := range model.LeaveTypes {
		n := counts[t]
		share := decimal.Zero
		if summary.Total > 0 {
			share = decimal.NewFromInt(int64(n)).Mul(hundred).Div(decimal.NewFromInt(int64(summary.Total))).Round(2)
		}
		summary.ByType = append(summary.ByType, model.LeaveTypeCount{LeaveType: t, Count: n, Share: share})

		if n == 0 {
			continue
		}
		switch {
		case n > summary.MostFrequentN:
			summary.MostFrequentN = n
			summary.MostFrequent = []model.LeaveType{t}
		case n == summary.MostFrequentN:
			summary.MostFrequent = append(summary.MostFrequent, t)
		}
	}
	return summary
}

func (s *leaveService) PendingCount(ctx context.Context) (int, error) {
	n, err := s.repo.CountByStatus(ctx, model.LeavePending)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending leave forms: %w", err)
	}
	return int(n), nil
}

// publishForm notifies everyone allowed to see the form. The payload leaves
// attachments out.
func (s *leaveService) publishForm(topic string, form *model.LeaveForm) {
	payload := map[string]any{
		"id":         form.ID,
		"fullName":   form.FullName,
		"studentId":  form.StudentID,
		"department": form.Department,
		"classroom":  form.Classroom,
		"leaveType":  form.LeaveType,
		"leaveDate":  form.LeaveDate,
		"status":     form.Status,
	}
	snapshot := *form
	s.publisher.Publish(topic, payload, func(id model.Identity) bool {
		return s.visible(&id, &snapshot)
	})
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
