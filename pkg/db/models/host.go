package models

import (
	"time"

	"github.com/google/uuid"
)

// Host represents a machine observed during a campaign
type Host struct {
	ID         string `gorm:"primaryKey;type:text"`
	CampaignID string `gorm:"type:text;not null;index"`
	Name       string `gorm:"type:text;not null"`
	Hidden     bool   `gorm:"default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Host) TableName() string {
	return "hosts"
}

// NewHost creates a host with a generated id
func NewHost(campaignID, name string) *Host {
	return &Host{
		ID:         uuid.NewString(),
		CampaignID: campaignID,
		Name:       name,
	}
}

// HostMeta associates an optional os, ip and type with a host.
// No two rows may share the same (os, ip, host) triple; the index enforcing
// this is created by migration 2 since it is built over COALESCE expressions.
type HostMeta struct {
	// Generated independently of the natural key
	ID   string  `gorm:"primaryKey;type:text"`
	OS   *string `gorm:"column:os;type:text"`
	IP   *string `gorm:"column:ip;type:text"`
	Type *string `gorm:"column:type;type:text"`

	HostID string `gorm:"type:text;not null;index"`

	// Relationships
	Host *Host `gorm:"foreignKey:HostID;references:ID;constraint:OnDelete:CASCADE"`
}

func (HostMeta) TableName() string {
	return "host_meta"
}

// NewHostMeta creates a HostMeta for the given host. os and ip are only
// assigned when provided, so omitted fields stay NULL instead of "".
func NewHostMeta(host *Host, os, ip *string) *HostMeta {
	meta := &HostMeta{
		ID:     uuid.NewString(),
		HostID: host.ID,
		Host:   host,
	}
	if os != nil && *os != "" {
		meta.OS = os
	}
	if ip != nil && *ip != "" {
		meta.IP = ip
	}
	return meta
}
