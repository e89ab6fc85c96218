package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"schoolleave/internal/model"
)

// Remote reads accounts from an external REST collection at {baseURL}/users.
// The collection is fetched whole on every lookup. Requests are not retried.
type Remote struct {
	client *resty.Client
}

// NewRemote creates a directory client bounded by timeout.
func NewRemote(baseURL string, timeout time.Duration) *Remote {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	return &Remote{client: client}
}

// remoteUser is the wire shape of one directory entry. Password carries a bcrypt digest.
type remoteUser struct {
	ID         flexID `json:"id"`
	FullName   string `json:"fullName"`
	StudentID  string `json:"studentId"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	Classroom  string `json:"classroom"`
	Department string `json:"department"`
	Grade      string `json:"grade"`
}

// flexID accepts ids encoded either as numbers or numeric strings.
type flexID uint

func (f *flexID) UnmarshalJSON(b []byte) error {
	var n uint64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexID(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("invalid id %s", b)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", s)
	}
	*f = flexID(n)
	return nil
}

func (d *Remote) Lookup(ctx context.Context, studentID string) (*model.User, error) {
	var users []remoteUser
	resp, err := d.client.R().
		SetContext(ctx).
		SetResult(&users).
		Get("/users")
	if err != nil {
		return nil, fmt.Errorf("failed to reach directory: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("directory responded with status %d", resp.StatusCode())
	}

	for _, u := range users {
		if u.StudentID == studentID {
			return &model.User{
				ID:         uint(u.ID),
				FullName:   u.FullName,
				StudentID:  u.StudentID,
				Password:   u.Password,
				Role:       model.Role(u.Role),
				Classroom:  u.Classroom,
				Department: u.Department,
				Grade:      u.Grade,
			}, nil
		}
	}
	return nil, ErrNotFound
}
