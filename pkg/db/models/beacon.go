package models

import "time"

// Beacon represents an implant session running on a host
type Beacon struct {
	ID         string `gorm:"primaryKey;type:text"`
	CampaignID string `gorm:"type:text;not null;index"`
	HostID     string `gorm:"type:text;not null;index"`
	Name       string `gorm:"type:text;not null"`
	Hidden     bool   `gorm:"default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Beacon) TableName() string {
	return "beacons"
}
