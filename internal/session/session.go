package session

import (
	"context"
	"fmt"

	"github.com/mwantia/goreview/pkg/campaign"
	"github.com/mwantia/goreview/pkg/comment"
	"github.com/mwantia/goreview/pkg/db/store"
	"github.com/mwantia/goreview/pkg/graph"
	"github.com/mwantia/goreview/pkg/log"

	config "github.com/mwantia/goreview/internal/config/server"
)

var _ comment.Client = (*graph.Client)(nil)

// Session bundles the store, graph client and campaign context one process
// works against
type Session struct {
	Config   *config.BaseServerConfig
	Log      log.LoggerService
	Store    store.MetadataStore
	Client   *graph.Client
	Campaign *campaign.Campaign
}

// Open connects and migrates the configured metadata store
func Open(ctx context.Context, cfg *config.BaseServerConfig, logger log.LoggerService) (*Session, error) {
	s, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := s.Connect(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to connect metadata store: %w", err)
	}

	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to migrate metadata store: %w", err)
	}

	logger.Debug("Opened metadata store '%s'", cfg.Metadata.SQLite.Path)

	return &Session{
		Config:   cfg,
		Log:      logger,
		Store:    s,
		Client:   graph.NewClient(s, logger),
		Campaign: campaign.New(cfg.Campaign),
	}, nil
}

func openStore(cfg *config.BaseServerConfig) (store.MetadataStore, error) {
	switch cfg.Metadata.Type {
	case "sqlite":
		s, err := store.NewSQLiteStore(store.SQLiteConfig{
			Path: cfg.Metadata.SQLite.Path,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported metadata store type '%s'", cfg.Metadata.Type)
	}
}

// Load warms the object graph with the campaign's tags and command groups
func (s *Session) Load(ctx context.Context) error {
	if _, err := s.Client.QueryTags(ctx, s.Campaign.ID); err != nil {
		return err
	}
	if _, err := s.Client.QueryCommandGroups(ctx, s.Campaign.CommandGroupsQuery()); err != nil {
		return err
	}
	return nil
}

func (s *Session) Settings() comment.Settings {
	return comment.Settings{
		User:         s.Config.Auth.User,
		ShowHidden:   s.Config.Settings.ShowHidden,
		BlueTeam:     s.Config.Settings.BlueTeam,
		Presentation: s.Config.Settings.Presentation,
	}
}

// Editor opens a comment editor within the session's campaign
func (s *Session) Editor(props comment.Props) *comment.Editor {
	return comment.NewEditor(s.Client, s.Campaign, s.Settings(), s.Log, props)
}

// EditAnnotation opens an editor on an existing annotation from the graph
func (s *Session) EditAnnotation(ctx context.Context, id string) (*comment.Editor, error) {
	a, err := s.Store.GetAnnotation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find annotation '%s': %w", id, err)
	}
	if a.CampaignID != s.Campaign.ID {
		return nil, fmt.Errorf("annotation '%s' does not belong to campaign '%s'", id, s.Campaign.ID)
	}

	group, err := s.Store.GetCommandGroup(ctx, a.CommandGroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to find command group '%s': %w", a.CommandGroupID, err)
	}
	s.Client.Cache().PutCommandGroup(group)

	annotation, _ := s.Client.Cache().Annotation(id)
	node, _ := s.Client.Cache().CommandGroup(group.ID)

	return s.Editor(comment.Props{
		CommandGroupID: group.ID,
		CommandGroup:   &node,
		Annotation:     &annotation,
	}), nil
}

func (s *Session) Close() error {
	return s.Store.Close()
}
