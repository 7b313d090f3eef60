package models

import "time"

// Annotation is a user-authored comment attached to a command group
type Annotation struct {
	ID             string `gorm:"primaryKey;type:text"`
	CampaignID     string `gorm:"type:text;not null;index"`
	CommandGroupID string `gorm:"type:text;not null;index"`
	Text           string `gorm:"type:text"`
	Favorite       bool   `gorm:"default:false"`
	User           string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships
	Tags []Tag `gorm:"many2many:annotation_tags"`
}

func (Annotation) TableName() string {
	return "annotations"
}

// TagTexts returns the text of every attached tag
func (a *Annotation) TagTexts() []string {
	texts := make([]string, 0, len(a.Tags))
	for _, t := range a.Tags {
		texts = append(texts, t.Text)
	}
	return texts
}
