package models

import (
	"time"
)

// Tag represents a campaign-wide label attached to annotations
type Tag struct {
	ID         string `gorm:"primaryKey;type:text"`
	CampaignID string `gorm:"type:text;not null;index:idx_campaign_tag,unique"`
	Text       string `gorm:"type:text;not null;index:idx_campaign_tag,unique"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Tag) TableName() string {
	return "tags"
}
