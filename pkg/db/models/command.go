package models

import "time"

// Command represents a single operator command issued through a beacon
type Command struct {
	ID          string `gorm:"primaryKey;type:text"`
	CampaignID  string `gorm:"type:text;not null;index"`
	BeaconID    string `gorm:"type:text;not null;index"`
	OperatorID  string `gorm:"type:text;index"`
	CommandType string `gorm:"type:text;index"`
	Input       string `gorm:"type:text"`
	Hidden      bool   `gorm:"default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Command) TableName() string {
	return "commands"
}

// CommandGroup is a set of commands annotated as one unit
type CommandGroup struct {
	ID         string `gorm:"primaryKey;type:text"`
	CampaignID string `gorm:"type:text;not null;index"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships
	Commands    []Command    `gorm:"many2many:command_group_commands"`
	Annotations []Annotation `gorm:"foreignKey:CommandGroupID"`
}

func (CommandGroup) TableName() string {
	return "command_groups"
}

// CommandIDs returns the ids of the grouped commands in stored order
func (cg *CommandGroup) CommandIDs() []string {
	ids := make([]string, 0, len(cg.Commands))
	for _, c := range cg.Commands {
		ids = append(ids, c.ID)
	}
	return ids
}
