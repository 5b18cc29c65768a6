package models

import "time"

type User struct {
	BaseModel
	Email                string `gorm:"uniqueIndex;not null"`
	NotificationsEnabled bool   `gorm:"default:true;not null"`
	UnsubscribeToken     string `gorm:"index"`

	// Relations
	Preference *UserPreference `gorm:"foreignKey:UserID"`
	CVs        []CV            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	UserJobs   []UserJob       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// CV holds one uploaded resume. The extraction pipeline always works on
// the most recent row per user; keywords are recomputed per run and never
// persisted.
type CV struct {
	BaseModel
	UserID   string `gorm:"not null;index"`
	Filename string `gorm:"not null"`
	Text     string `gorm:"type:text"`
}

type UserPreference struct {
	BaseModel
	UserID                string `gorm:"not null;uniqueIndex"`
	Role                  string
	Location              string
	ContractType          string
	SalaryMin             *int
	MustKeywords          string `gorm:"type:text"` // comma-separated
	AvoidKeywords         string `gorm:"type:text"` // comma-separated
	NotificationFrequency string `gorm:"type:varchar(20);default:'every_3_days';not null"`
	SendEmptyDigest       bool   `gorm:"default:true;not null"`
	MaxJobs               int    `gorm:"default:5;not null"`
	LastSearchAt          *time.Time
	LastEmailAt           *time.Time
}
