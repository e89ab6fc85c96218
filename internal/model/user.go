package model

import "time"

// User is a directory account. StudentID is the identifier typed at login.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FullName     string    `gorm:"type:varchar(255);not null" json:"fullName"`
	StudentID    string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"studentId"`
	Password     string    `gorm:"type:varchar(255);not null" json:"-"` // bcrypt digest
	Role         Role      `gorm:"type:varchar(20);not null;index" json:"role"`
	Nickname     string    `gorm:"type:varchar(100)" json:"nickname,omitempty"`
	Birthday     string    `gorm:"type:varchar(20)" json:"birthday,omitempty"`
	Nationality  string    `gorm:"type:varchar(100)" json:"nationality,omitempty"`
	Religion     string    `gorm:"type:varchar(100)" json:"religion,omitempty"`
	BloodType    string    `gorm:"type:varchar(5)" json:"bloodType,omitempty"`
	Weight       string    `gorm:"type:varchar(10)" json:"weight,omitempty"`
	Height       string    `gorm:"type:varchar(10)" json:"height,omitempty"`
	PhoneNumber  string    `gorm:"type:varchar(20)" json:"phoneNumber,omitempty"`
	Grade        string    `gorm:"type:varchar(50)" json:"grade,omitempty"`
	Department   string    `gorm:"type:varchar(255);index" json:"department,omitempty"`
	Classroom    string    `gorm:"type:varchar(50)" json:"classroom,omitempty"`
	RollNumber   string    `gorm:"type:varchar(20)" json:"rollNumber,omitempty"`
	AcademicYear string    `gorm:"type:varchar(20)" json:"academicYear,omitempty"`
	PhotoURL     string    `gorm:"type:varchar(500)" json:"photoUrl,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Identity is the authenticated principal held by a session.
type Identity struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	Role       Role   `json:"role"`
	Classroom  string `json:"classroom,omitempty"`
	Department string `json:"department,omitempty"`
}

// Identity returns the minimal principal derived from the account.
func (u *User) Identity() Identity {
	return Identity{
		ID:         u.ID,
		Username:   u.StudentID,
		Role:       u.Role,
		Classroom:  u.Classroom,
		Department: u.Department,
	}
}
