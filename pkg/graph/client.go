package graph

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mwantia/goreview/pkg/db/models"
	"github.com/mwantia/goreview/pkg/db/store"
	"github.com/mwantia/goreview/pkg/log"
)

// Client executes campaign mutations and queries against the metadata store
// and reflects every result into the shared Cache.
type Client struct {
	store    store.MetadataStore
	cache    *Cache
	queries  *QueryCache
	validate *validator.Validate
	log      log.LoggerService
}

func NewClient(s store.MetadataStore, logger log.LoggerService) *Client {
	return &Client{
		store:    s,
		cache:    NewCache(),
		queries:  NewQueryCache(),
		validate: validator.New(),
		log:      logger.Named("graph"),
	}
}

func (c *Client) Cache() *Cache {
	return c.cache
}

func (c *Client) Queries() *QueryCache {
	return c.queries
}

type DeleteAnnotationInput struct {
	CampaignID   string `validate:"required"`
	AnnotationID string `validate:"required"`
}

type DeleteAnnotationResult struct {
	ID             string
	CommandGroupID string
}

type AddCommandGroupAnnotationInput struct {
	CampaignID string   `validate:"required"`
	CommandIDs []string `validate:"required,min=1,dive,required"`
	Favorite   *bool
	Text       string
	Tags       []string
	User       string
}

type UpdateAnnotationInput struct {
	CampaignID   string `validate:"required"`
	AnnotationID string `validate:"required"`
	Favorite     *bool
	Tags         []string
	Text         string
	User         string
}

type AddAnnotationToCommandGroupInput struct {
	CampaignID     string `validate:"required"`
	CommandGroupID string `validate:"required"`
	Favorite       *bool
	Text           string
	Tags           []string
	User           string
}

type AddCommandToCommandGroupInput struct {
	CampaignID     string `validate:"required"`
	CommandID      string `validate:"required"`
	CommandGroupID string `validate:"required"`
}

type CommandsQuery struct {
	CampaignID string `validate:"required"`
	CommandIDs []string
	Hidden     bool
}

type BeaconsQuery struct {
	CampaignID string `validate:"required"`
	Hidden     bool
}

type CommandGroupsQuery struct {
	CampaignID    string `validate:"required"`
	BeaconID      string
	OperatorID    string
	HostID        string
	CommandTypeID string
}

// Key returns the QueryCache key for the query
func (q CommandGroupsQuery) Key() QueryKey {
	return QueryKey{"commandGroups", q.CampaignID, q.BeaconID, q.OperatorID, q.HostID, q.CommandTypeID}
}

func (c *Client) MutateDeleteAnnotation(ctx context.Context, input DeleteAnnotationInput) (*DeleteAnnotationResult, error) {
	if err := c.check("deleteAnnotation", input); err != nil {
		return nil, err
	}

	deleted, err := c.store.DeleteAnnotation(ctx, input.CampaignID, input.AnnotationID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete annotation '%s': %w", input.AnnotationID, err)
	}

	c.log.Debug("Deleted annotation '%s' (group '%s', group deleted: %t)", deleted.ID, deleted.CommandGroupID, deleted.GroupDeleted)
	return &DeleteAnnotationResult{
		ID:             deleted.ID,
		CommandGroupID: deleted.CommandGroupID,
	}, nil
}

func (c *Client) MutateAddCommandGroupAnnotation(ctx context.Context, input AddCommandGroupAnnotationInput) (*models.CommandGroup, error) {
	if err := c.check("addCommandGroupAnnotation", input); err != nil {
		return nil, err
	}

	annotation := &models.Annotation{
		Text:     input.Text,
		Favorite: deref(input.Favorite),
		User:     input.User,
	}
	group, err := c.store.CreateCommandGroup(ctx, input.CampaignID, input.CommandIDs, annotation, input.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to create command group annotation: %w", err)
	}

	c.cache.PutCommandGroup(group)
	c.log.Debug("Created annotation '%s' on new group '%s' with %d commands", annotation.ID, group.ID, len(group.Commands))
	return group, nil
}

func (c *Client) MutateUpdateAnnotation(ctx context.Context, input UpdateAnnotationInput) (*models.Annotation, error) {
	if err := c.check("updateAnnotation", input); err != nil {
		return nil, err
	}

	annotation, err := c.store.UpdateAnnotation(ctx, input.AnnotationID, store.AnnotationUpdate{
		Text:     input.Text,
		Favorite: input.Favorite,
		User:     input.User,
		Tags:     input.Tags,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update annotation '%s': %w", input.AnnotationID, err)
	}

	c.cache.PutAnnotation(annotation, nil)
	c.log.Debug("Updated annotation '%s'", annotation.ID)
	return annotation, nil
}

func (c *Client) MutateAddAnnotationToCommandGroup(ctx context.Context, input AddAnnotationToCommandGroupInput) (*models.Annotation, error) {
	if err := c.check("addAnnotationToCommandGroup", input); err != nil {
		return nil, err
	}

	annotation := &models.Annotation{
		CampaignID:     input.CampaignID,
		CommandGroupID: input.CommandGroupID,
		Text:           input.Text,
		Favorite:       deref(input.Favorite),
		User:           input.User,
	}
	if err := c.store.CreateAnnotation(ctx, annotation, input.Tags); err != nil {
		return nil, fmt.Errorf("failed to add annotation to command group '%s': %w", input.CommandGroupID, err)
	}

	group, err := c.store.GetCommandGroup(ctx, input.CommandGroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload command group '%s': %w", input.CommandGroupID, err)
	}

	c.cache.PutCommandGroup(group)
	c.log.Debug("Added annotation '%s' to group '%s'", annotation.ID, group.ID)
	return annotation, nil
}

func (c *Client) MutateAddCommandToCommandGroup(ctx context.Context, input AddCommandToCommandGroupInput) (*models.CommandGroup, error) {
	if err := c.check("addCommandToCommandGroup", input); err != nil {
		return nil, err
	}

	group, err := c.store.AddCommandToGroup(ctx, input.CommandGroupID, input.CommandID)
	if err != nil {
		return nil, fmt.Errorf("failed to add command '%s' to group '%s': %w", input.CommandID, input.CommandGroupID, err)
	}

	c.cache.PutCommandGroup(group)
	c.log.Debug("Added command '%s' to group '%s'", input.CommandID, group.ID)
	return group, nil
}

func (c *Client) QueryCommands(ctx context.Context, query CommandsQuery) ([]models.Command, error) {
	if err := c.check("commands", query); err != nil {
		return nil, err
	}

	commands, err := c.store.ListCommands(ctx, query.CampaignID, query.CommandIDs, query.Hidden)
	if err != nil {
		return nil, fmt.Errorf("failed to query commands: %w", err)
	}

	c.cache.PutCommands(commands)
	return commands, nil
}

func (c *Client) QueryBeacons(ctx context.Context, query BeaconsQuery) ([]models.Beacon, error) {
	if err := c.check("beacons", query); err != nil {
		return nil, err
	}

	beacons, err := c.store.ListBeacons(ctx, query.CampaignID, query.Hidden)
	if err != nil {
		return nil, fmt.Errorf("failed to query beacons: %w", err)
	}

	c.cache.PutBeacons(beacons)
	return beacons, nil
}

// QueryTags loads every tag known to the campaign into the cache
func (c *Client) QueryTags(ctx context.Context, campaignID string) ([]models.Tag, error) {
	if campaignID == "" {
		return nil, fmt.Errorf("invalid tags input: campaign id is required")
	}

	tags, err := c.store.ListTags(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}

	c.cache.PutTags(tags)
	return tags, nil
}

// QueryCommandGroups is memoized under query.Key() until invalidated
func (c *Client) QueryCommandGroups(ctx context.Context, query CommandGroupsQuery) ([]models.CommandGroup, error) {
	if err := c.check("commandGroups", query); err != nil {
		return nil, err
	}

	value, err := c.queries.Fetch(ctx, query.Key(), func(ctx context.Context) (any, error) {
		groups, err := c.store.ListCommandGroups(ctx, store.CommandGroupFilter{
			CampaignID:  query.CampaignID,
			BeaconID:    query.BeaconID,
			OperatorID:  query.OperatorID,
			HostID:      query.HostID,
			CommandType: query.CommandTypeID,
		})
		if err != nil {
			return nil, err
		}
		for i := range groups {
			c.cache.PutCommandGroup(&groups[i])
		}
		return groups, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query command groups: %w", err)
	}

	return value.([]models.CommandGroup), nil
}

func (c *Client) check(operation string, input any) error {
	if err := c.validate.Struct(input); err != nil {
		return fmt.Errorf("invalid %s input: %w", operation, err)
	}
	return nil
}

func deref(b *bool) bool {
	return b != nil && *b
}
