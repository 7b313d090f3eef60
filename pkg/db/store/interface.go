package store

import (
	"context"

	"github.com/mwantia/goreview/pkg/db/models"
)

// MetadataStore defines the interface for database operations
type MetadataStore interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	Health(ctx context.Context) error

	// Host operations
	CreateHost(ctx context.Context, host *models.Host) error
	GetHost(ctx context.Context, id string) (*models.Host, error)
	ListHosts(ctx context.Context, campaignID string) ([]models.Host, error)
	DeleteHost(ctx context.Context, id string) error

	// Host metadata operations
	CreateHostMeta(ctx context.Context, meta *models.HostMeta) error
	ListHostMeta(ctx context.Context, hostID string) ([]models.HostMeta, error)

	// Beacon operations
	CreateBeacon(ctx context.Context, beacon *models.Beacon) error
	ListBeacons(ctx context.Context, campaignID string, hidden bool) ([]models.Beacon, error)

	// Command operations
	CreateCommand(ctx context.Context, command *models.Command) error
	ListCommands(ctx context.Context, campaignID string, ids []string, hidden bool) ([]models.Command, error)

	// Command group operations
	CreateCommandGroup(ctx context.Context, campaignID string, commandIDs []string, annotation *models.Annotation, tags []string) (*models.CommandGroup, error)
	GetCommandGroup(ctx context.Context, id string) (*models.CommandGroup, error)
	ListCommandGroups(ctx context.Context, filter CommandGroupFilter) ([]models.CommandGroup, error)
	AddCommandToGroup(ctx context.Context, groupID, commandID string) (*models.CommandGroup, error)

	// Annotation operations
	CreateAnnotation(ctx context.Context, annotation *models.Annotation, tags []string) error
	GetAnnotation(ctx context.Context, id string) (*models.Annotation, error)
	UpdateAnnotation(ctx context.Context, id string, update AnnotationUpdate) (*models.Annotation, error)
	DeleteAnnotation(ctx context.Context, campaignID, id string) (*DeletedAnnotation, error)

	// Tag operations
	ListTags(ctx context.Context, campaignID string) ([]models.Tag, error)
}

// CommandGroupFilter narrows ListCommandGroups; empty fields match anything
type CommandGroupFilter struct {
	CampaignID  string
	BeaconID    string
	OperatorID  string
	HostID      string
	CommandType string
}

// AnnotationUpdate describes the mutable fields of an annotation.
// A nil Favorite or an empty User leaves the stored value untouched.
type AnnotationUpdate struct {
	Text     string
	Favorite *bool
	User     string
	Tags     []string
}

// DeletedAnnotation is returned after deleting an annotation
type DeletedAnnotation struct {
	ID             string
	CommandGroupID string
	// GroupDeleted is set when the owning group lost its last annotation
	GroupDeleted bool
}
