// Package comment implements the edit session of a single campaign comment.
//
// An Editor holds the transient state of one annotation, either a new one or
// an existing one, and submits it through one of three mutations:
//   - a new command group annotation when no group exists yet
//   - an update of the existing annotation while editing, or for a
//     favorite-only change
//   - a new annotation on the existing command group otherwise
//
// An Editor is meant to be driven from a single goroutine and supports at
// most one in-flight submission. Loading reflects a running submission but
// does not prevent a second one.
package comment

import (
	"context"
	"slices"

	"github.com/mwantia/goreview/pkg/campaign"
	"github.com/mwantia/goreview/pkg/db/models"
	"github.com/mwantia/goreview/pkg/graph"
	"github.com/mwantia/goreview/pkg/log"
)

// Client is the mutation and query surface the editor talks to
type Client interface {
	MutateDeleteAnnotation(ctx context.Context, input graph.DeleteAnnotationInput) (*graph.DeleteAnnotationResult, error)
	MutateAddCommandGroupAnnotation(ctx context.Context, input graph.AddCommandGroupAnnotationInput) (*models.CommandGroup, error)
	MutateUpdateAnnotation(ctx context.Context, input graph.UpdateAnnotationInput) (*models.Annotation, error)
	MutateAddAnnotationToCommandGroup(ctx context.Context, input graph.AddAnnotationToCommandGroupInput) (*models.Annotation, error)
	MutateAddCommandToCommandGroup(ctx context.Context, input graph.AddCommandToCommandGroupInput) (*models.CommandGroup, error)

	QueryCommands(ctx context.Context, query graph.CommandsQuery) ([]models.Command, error)
	QueryBeacons(ctx context.Context, query graph.BeaconsQuery) ([]models.Beacon, error)

	Cache() *graph.Cache
	Queries() *graph.QueryCache
}

// Settings carries who is editing and how the campaign is being viewed
type Settings struct {
	User         string
	ShowHidden   bool
	BlueTeam     bool
	Presentation bool
}

// Props are the inputs of an editor, as handed down by whoever opens it
type Props struct {
	CommandID      string
	CommandGroupID string
	CommandGroup   *graph.CommandGroupNode
	Annotation     *graph.AnnotationNode
	NewComment     bool

	Cancel func()
	Reply  func()

	IsAddingCommandToComment bool
	IsFullList               bool
}

type Editor struct {
	client   Client
	campaign *campaign.Campaign
	settings Settings
	log      log.LoggerService
	props    Props

	EditMode               bool
	Text                   string
	Tags                   []string
	Favorite               *bool
	DeleteAnnotationPrompt bool
	TagQuery               string
	Loading                bool
}

func NewEditor(client Client, c *campaign.Campaign, settings Settings, logger log.LoggerService, props Props) *Editor {
	e := &Editor{
		client:   client,
		campaign: c,
		settings: settings,
		log:      logger.Named("comment"),
		props:    props,
		EditMode: props.NewComment,
		Tags:     []string{},
	}

	if props.Annotation != nil {
		e.Text = props.Annotation.Text
		if props.Annotation.Favorite != nil {
			favorite := *props.Annotation.Favorite
			e.Favorite = &favorite
		}
	}

	e.SyncTags()
	return e
}

// SyncTags resets the working tags to DefaultTags while the annotation
// still exists. Call it whenever the annotation's tags change upstream.
func (e *Editor) SyncTags() {
	snap := e.client.Cache().Snapshot()
	if e.annotation(snap) != nil {
		e.Tags = e.defaultTags(snap)
	}
}

// SetNewComment follows the parent toggling the new comment flag
func (e *Editor) SetNewComment(v bool) {
	e.props.NewComment = v
	e.EditMode = v
}

func (e *Editor) Edit() {
	e.EditMode = true
}

func (e *Editor) PromptDelete(v bool) {
	e.DeleteAnnotationPrompt = v
}

func (e *Editor) SetTagQuery(query string) {
	e.TagQuery = query
}

func (e *Editor) HandleTagsChange(value string) {
	e.TagQuery = ""
	if !slices.Contains(e.Tags, value) {
		e.Tags = append(e.Tags, value)
	}
}

func (e *Editor) HandleTagsRemove(value string) {
	if i := slices.Index(e.Tags, value); i >= 0 {
		e.Tags = slices.Delete(e.Tags, i, i+1)
	}
}

func (e *Editor) HandleTextChange(text string) {
	e.Text = text
}

// ToggleFavorite flips the flag. Outside of edit mode the change is
// persisted right away as a favorite-only update.
func (e *Editor) ToggleFavorite(ctx context.Context) error {
	favorite := e.Favorite == nil || !*e.Favorite
	e.Favorite = &favorite

	if !e.EditMode {
		return e.SubmitAnnotation(ctx, true)
	}
	return nil
}

// DeleteAnnotation only acts once the delete prompt was confirmed
func (e *Editor) DeleteAnnotation(ctx context.Context) error {
	if !e.DeleteAnnotationPrompt || e.props.Annotation == nil || e.props.Annotation.ID == "" {
		return nil
	}

	result, err := e.client.MutateDeleteAnnotation(ctx, graph.DeleteAnnotationInput{
		CampaignID:   e.campaign.ID,
		AnnotationID: e.props.Annotation.ID,
	})
	if err != nil {
		e.log.Error("Failed to delete annotation '%s': %v", e.props.Annotation.ID, err)
		return err
	}

	e.DeleteAnnotationPrompt = false
	e.Refetch(ctx)

	cache := e.client.Cache()
	cache.RemoveAnnotation(result.ID)
	// Drop the group once it has no annotations left
	if result.CommandGroupID != "" {
		group, ok := cache.CommandGroup(result.CommandGroupID)
		if !ok || len(group.AnnotationIDs) == 0 {
			cache.RemoveCommandGroup(result.CommandGroupID)
		}
	}

	if _, err := e.client.QueryBeacons(ctx, graph.BeaconsQuery{
		CampaignID: e.campaign.ID,
		Hidden:     e.settings.ShowHidden,
	}); err != nil {
		e.log.Warn("Failed to refresh beacons: %v", err)
	}

	return nil
}

// CancelAnnotationEdit restores the original text and tags, leaves edit mode
// and clears the campaign's comment selection
func (e *Editor) CancelAnnotationEdit() {
	e.Text = ""
	if e.props.Annotation != nil {
		e.Text = e.props.Annotation.Text
	}
	e.Tags = e.DefaultTags()
	e.EditMode = false
	e.Loading = false

	e.campaign.Comments.ClearSelectedCommand()
	e.campaign.Comments.SetNewGroupComment(false)
	e.campaign.Comments.SetGroupSelect(false)

	if e.props.Cancel != nil {
		e.props.Cancel()
	}
}

// SubmitAnnotation persists the edit session. Whatever the outcome, the
// commands are refetched and the editor is reset; a mutation error is logged
// and then returned.
func (e *Editor) SubmitAnnotation(ctx context.Context, favoriteOnly bool) error {
	e.Loading = true

	var err error
	switch {
	case e.CommandGroupID() == "" && !favoriteOnly:
		_, err = e.client.MutateAddCommandGroupAnnotation(ctx, graph.AddCommandGroupAnnotationInput{
			CampaignID: e.campaign.ID,
			CommandIDs: e.CommandIDs(),
			Favorite:   e.Favorite,
			Text:       e.Text,
			Tags:       slices.Clone(e.Tags),
			User:       e.settings.User,
		})
	case (e.EditMode || favoriteOnly) && e.props.Annotation != nil:
		user := e.settings.User
		if favoriteOnly {
			user = ""
		}
		_, err = e.client.MutateUpdateAnnotation(ctx, graph.UpdateAnnotationInput{
			CampaignID:   e.campaign.ID,
			AnnotationID: e.props.Annotation.ID,
			Favorite:     e.Favorite,
			Tags:         slices.Clone(e.Tags),
			Text:         e.Text,
			User:         user,
		})
	default:
		_, err = e.client.MutateAddAnnotationToCommandGroup(ctx, graph.AddAnnotationToCommandGroupInput{
			CampaignID:     e.campaign.ID,
			CommandGroupID: e.CommandGroupID(),
			Favorite:       e.Favorite,
			Text:           e.Text,
			Tags:           slices.Clone(e.Tags),
			User:           e.settings.User,
		})
	}
	if err != nil {
		e.log.Error("Failed to submit annotation: %v", err)
	}

	e.Refetch(ctx)
	e.CancelAnnotationEdit()
	return err
}

// AddCommandToAnnotation adds the editor's command to its group, then refetches
func (e *Editor) AddCommandToAnnotation(ctx context.Context) error {
	var err error

	groupID := e.CommandGroupID()
	if groupID != "" && e.props.CommandID != "" && e.campaign.ID != "" {
		_, err = e.client.MutateAddCommandToCommandGroup(ctx, graph.AddCommandToCommandGroupInput{
			CampaignID:     e.campaign.ID,
			CommandID:      e.props.CommandID,
			CommandGroupID: groupID,
		})
		if err != nil {
			e.log.Error("Failed to add command '%s' to group '%s': %v", e.props.CommandID, groupID, err)
		}
	}

	e.Refetch(ctx)
	return err
}

// Refetch reloads the editor's commands and invalidates the command group
// query of the current selection. Failures are logged, not returned.
func (e *Editor) Refetch(ctx context.Context) {
	if _, err := e.client.QueryCommands(ctx, graph.CommandsQuery{
		CampaignID: e.campaign.ID,
		CommandIDs: e.CommandIDs(),
		Hidden:     e.settings.ShowHidden,
	}); err != nil {
		e.log.Warn("Failed to refetch commands: %v", err)
	}

	key := e.campaign.CommandGroupsQuery().Key()
	if n := e.client.Queries().InvalidateQueries(graph.MatchKey(key)); n > 0 {
		e.log.Debug("Invalidated %d queries for '%s'", n, key)
	}
}

// OpenCommentGroup focuses the campaign on this editor's command group
func (e *Editor) OpenCommentGroup() {
	if id := e.CommandGroupID(); id != "" {
		e.campaign.Comments.SetSelectedCommentGroup(id)
	}
}
