package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/mwantia/goreview/pkg/db/migrations"
	"github.com/mwantia/goreview/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLiteStore implements MetadataStore using SQLite
type SQLiteStore struct {
	db   *gorm.DB
	path string
}

// DB returns the underlying GORM database instance
func (s *SQLiteStore) DB() *gorm.DB {
	return s.db
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path         string
	MaxOpenConns int
	LogLevel     logger.LogLevel
}

// NewSQLiteStore creates a new SQLite-backed metadata store
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	// Default to silent logging
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Silent
	}

	db, err := gorm.Open(sqlite.Open(dsn(cfg.Path)), &gorm.Config{
		Logger:         logger.Default.LogMode(cfg.LogLevel),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	return &SQLiteStore{
		db:   db,
		path: cfg.Path,
	}, nil
}

// dsn enables foreign keys, which host_meta cascades rely on
func dsn(path string) string {
	if strings.Contains(path, "_pragma=foreign_keys") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)"
}

// Connect initializes the database connection
func (s *SQLiteStore) Connect(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(1) // SQLite only supports 1 writer
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

// Migrate runs all pending versioned migrations
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return migrations.NewMigrator(s.db).Migrate(ctx)
}

// Health checks database connectivity
func (s *SQLiteStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Host operations

func (s *SQLiteStore) CreateHost(ctx context.Context, host *models.Host) error {
	if host.ID == "" {
		host.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(host).Error
}

func (s *SQLiteStore) GetHost(ctx context.Context, id string) (*models.Host, error) {
	var host models.Host
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&host).Error
	if err != nil {
		return nil, err
	}
	return &host, nil
}

func (s *SQLiteStore) ListHosts(ctx context.Context, campaignID string) ([]models.Host, error) {
	var hosts []models.Host
	err := s.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Order("name").Find(&hosts).Error
	return hosts, err
}

// DeleteHost removes the host; its host_meta rows go with it via ON DELETE CASCADE
func (s *SQLiteStore) DeleteHost(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.Host{}, "id = ?", id).Error
}

// Host metadata operations

// CreateHostMeta inserts the record as-is. Duplicate (os, ip, host) triples
// are rejected by the database index, not checked here.
func (s *SQLiteStore) CreateHostMeta(ctx context.Context, meta *models.HostMeta) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(meta).Error
}

func (s *SQLiteStore) ListHostMeta(ctx context.Context, hostID string) ([]models.HostMeta, error) {
	var metas []models.HostMeta
	err := s.db.WithContext(ctx).Where("host_id = ?", hostID).Find(&metas).Error
	return metas, err
}

// Beacon operations

func (s *SQLiteStore) CreateBeacon(ctx context.Context, beacon *models.Beacon) error {
	if beacon.ID == "" {
		beacon.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(beacon).Error
}

func (s *SQLiteStore) ListBeacons(ctx context.Context, campaignID string, hidden bool) ([]models.Beacon, error) {
	var beacons []models.Beacon
	query := s.db.WithContext(ctx).Where("campaign_id = ?", campaignID)
	if !hidden {
		query = query.Where("hidden = ?", false)
	}
	err := query.Order("name").Find(&beacons).Error
	return beacons, err
}

// Command operations

func (s *SQLiteStore) CreateCommand(ctx context.Context, command *models.Command) error {
	if command.ID == "" {
		command.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(command).Error
}

func (s *SQLiteStore) ListCommands(ctx context.Context, campaignID string, ids []string, hidden bool) ([]models.Command, error) {
	var commands []models.Command
	query := s.db.WithContext(ctx).Where("campaign_id = ?", campaignID)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	if !hidden {
		query = query.Where("hidden = ?", false)
	}
	err := query.Order("id").Find(&commands).Error
	return commands, err
}

// Command group operations

// CreateCommandGroup groups the commands and, when annotation is not nil,
// attaches it to the new group within the same transaction.
func (s *SQLiteStore) CreateCommandGroup(ctx context.Context, campaignID string, commandIDs []string, annotation *models.Annotation, tags []string) (*models.CommandGroup, error) {
	group := &models.CommandGroup{
		ID:         uuid.NewString(),
		CampaignID: campaignID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commands, err := findCommands(tx, campaignID, commandIDs)
		if err != nil {
			return err
		}
		group.Commands = commands
		if err := tx.Create(group).Error; err != nil {
			return err
		}

		if annotation == nil {
			return nil
		}
		annotation.CampaignID = campaignID
		annotation.CommandGroupID = group.ID
		return createAnnotation(tx, annotation, tags)
	})
	if err != nil {
		return nil, err
	}

	return s.GetCommandGroup(ctx, group.ID)
}

func (s *SQLiteStore) GetCommandGroup(ctx context.Context, id string) (*models.CommandGroup, error) {
	var group models.CommandGroup
	err := s.db.WithContext(ctx).
		Preload("Commands", orderByID("commands")).
		Preload("Annotations").
		Preload("Annotations.Tags").
		Where("id = ?", id).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (s *SQLiteStore) ListCommandGroups(ctx context.Context, filter CommandGroupFilter) ([]models.CommandGroup, error) {
	var groups []models.CommandGroup
	query := s.db.WithContext(ctx).
		Preload("Commands", orderByID("commands")).
		Preload("Annotations").
		Preload("Annotations.Tags").
		Where("command_groups.campaign_id = ?", filter.CampaignID)

	if filter.BeaconID != "" || filter.OperatorID != "" || filter.HostID != "" || filter.CommandType != "" {
		sub := s.db.Table("command_group_commands").
			Select("command_group_commands.command_group_id").
			Joins("JOIN commands ON commands.id = command_group_commands.command_id")
		if filter.BeaconID != "" {
			sub = sub.Where("commands.beacon_id = ?", filter.BeaconID)
		}
		if filter.OperatorID != "" {
			sub = sub.Where("commands.operator_id = ?", filter.OperatorID)
		}
		if filter.CommandType != "" {
			sub = sub.Where("commands.command_type = ?", filter.CommandType)
		}
		if filter.HostID != "" {
			sub = sub.Joins("JOIN beacons ON beacons.id = commands.beacon_id").
				Where("beacons.host_id = ?", filter.HostID)
		}
		query = query.Where("command_groups.id IN (?)", sub)
	}

	err := query.Order("command_groups.created_at").Find(&groups).Error
	return groups, err
}

func (s *SQLiteStore) AddCommandToGroup(ctx context.Context, groupID, commandID string) (*models.CommandGroup, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.CommandGroup
		if err := tx.Where("id = ?", groupID).First(&group).Error; err != nil {
			return fmt.Errorf("failed to find command group '%s': %w", groupID, err)
		}

		commands, err := findCommands(tx, group.CampaignID, []string{commandID})
		if err != nil {
			return err
		}

		return tx.Model(&group).Association("Commands").Append(commands)
	})
	if err != nil {
		return nil, err
	}

	return s.GetCommandGroup(ctx, groupID)
}

// Annotation operations

func (s *SQLiteStore) CreateAnnotation(ctx context.Context, annotation *models.Annotation, tags []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.CommandGroup
		if err := tx.Where("id = ? AND campaign_id = ?", annotation.CommandGroupID, annotation.CampaignID).First(&group).Error; err != nil {
			return fmt.Errorf("failed to find command group '%s': %w", annotation.CommandGroupID, err)
		}

		return createAnnotation(tx, annotation, tags)
	})
}

func (s *SQLiteStore) GetAnnotation(ctx context.Context, id string) (*models.Annotation, error) {
	var annotation models.Annotation
	err := s.db.WithContext(ctx).Preload("Tags").Where("id = ?", id).First(&annotation).Error
	if err != nil {
		return nil, err
	}
	return &annotation, nil
}

func (s *SQLiteStore) UpdateAnnotation(ctx context.Context, id string, update AnnotationUpdate) (*models.Annotation, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var annotation models.Annotation
		if err := tx.Where("id = ?", id).First(&annotation).Error; err != nil {
			return fmt.Errorf("failed to find annotation '%s': %w", id, err)
		}

		values := map[string]any{
			"text": update.Text,
		}
		if update.Favorite != nil {
			values["favorite"] = *update.Favorite
		}
		if update.User != "" {
			values["user"] = update.User
		}

		if err := tx.Model(&annotation).Updates(values).Error; err != nil {
			return err
		}

		resolved, err := resolveTags(tx, annotation.CampaignID, update.Tags)
		if err != nil {
			return err
		}

		return tx.Model(&annotation).Association("Tags").Replace(resolved)
	})
	if err != nil {
		return nil, err
	}

	return s.GetAnnotation(ctx, id)
}

// DeleteAnnotation removes the annotation and, when it was the last one of
// its command group, the group as well.
func (s *SQLiteStore) DeleteAnnotation(ctx context.Context, campaignID, id string) (*DeletedAnnotation, error) {
	deleted := &DeletedAnnotation{ID: id}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var annotation models.Annotation
		if err := tx.Where("id = ? AND campaign_id = ?", id, campaignID).First(&annotation).Error; err != nil {
			return fmt.Errorf("failed to find annotation '%s': %w", id, err)
		}
		deleted.CommandGroupID = annotation.CommandGroupID

		if err := tx.Model(&annotation).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Delete(&annotation).Error; err != nil {
			return err
		}

		var remaining int64
		if err := tx.Model(&models.Annotation{}).Where("command_group_id = ?", annotation.CommandGroupID).Count(&remaining).Error; err != nil {
			return err
		}
		if remaining > 0 {
			return nil
		}

		group := models.CommandGroup{ID: annotation.CommandGroupID}
		if err := tx.Model(&group).Association("Commands").Clear(); err != nil {
			return err
		}
		if err := tx.Delete(&group).Error; err != nil {
			return err
		}

		deleted.GroupDeleted = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}

// Tag operations

func (s *SQLiteStore) ListTags(ctx context.Context, campaignID string) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Order("text").Find(&tags).Error
	return tags, err
}

func createAnnotation(tx *gorm.DB, annotation *models.Annotation, tags []string) error {
	if annotation.ID == "" {
		annotation.ID = uuid.NewString()
	}

	resolved, err := resolveTags(tx, annotation.CampaignID, tags)
	if err != nil {
		return err
	}

	annotation.Tags = resolved
	return tx.Create(annotation).Error
}

func findCommands(tx *gorm.DB, campaignID string, ids []string) ([]models.Command, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return nil, fmt.Errorf("at least one command is required")
	}

	var commands []models.Command
	if err := tx.Where("campaign_id = ? AND id IN ?", campaignID, unique).Find(&commands).Error; err != nil {
		return nil, err
	}
	if len(commands) != len(unique) {
		return nil, fmt.Errorf("found %d of %d commands: %w", len(commands), len(unique), gorm.ErrRecordNotFound)
	}

	return commands, nil
}

// resolveTags finds or creates one tag per distinct text within the campaign
func resolveTags(tx *gorm.DB, campaignID string, texts []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(texts))
	for _, text := range dedupe(texts) {
		var tag models.Tag
		err := tx.Where(models.Tag{CampaignID: campaignID, Text: text}).
			Attrs(models.Tag{ID: uuid.NewString()}).
			FirstOrCreate(&tag).Error
		if err != nil {
			return nil, fmt.Errorf("failed to resolve tag '%s': %w", text, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}

func orderByID(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".id")
	}
}
