package campaign

import (
	"sync"

	"github.com/mwantia/goreview/pkg/graph"
)

// Campaign is the UI context shared by every comment editor of one campaign
type Campaign struct {
	ID string

	Comments    *CommentStore
	Interaction *InteractionState

	mutex  sync.RWMutex
	staged map[string]*StagedCommandGroup
}

func New(id string) *Campaign {
	return &Campaign{
		ID:          id,
		Comments:    NewCommentStore(),
		Interaction: &InteractionState{},
		staged:      make(map[string]*StagedCommandGroup),
	}
}

// StagedCommandGroup is an in-flight version of a command group that has not
// been written back to the object graph yet
type StagedCommandGroup struct {
	Current *graph.CommandGroupNode
}

// StageCommandGroup records the current in-flight version of a group
func (c *Campaign) StageCommandGroup(group graph.CommandGroupNode) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.staged[group.ID] = &StagedCommandGroup{Current: &group}
}

func (c *Campaign) UnstageCommandGroup(id string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.staged, id)
}

// CurrentCommandGroup returns the current version of a staged group, if any
func (c *Campaign) CurrentCommandGroup(id string) (*graph.CommandGroupNode, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	staged, ok := c.staged[id]
	if !ok || staged.Current == nil {
		return nil, false
	}
	current := *staged.Current
	return &current, true
}

// CommandGroupsQuery is the command group query for the current selection
func (c *Campaign) CommandGroupsQuery() graph.CommandGroupsQuery {
	sel := c.Interaction.Snapshot()
	return graph.CommandGroupsQuery{
		CampaignID:    c.ID,
		BeaconID:      sel.BeaconID,
		OperatorID:    sel.OperatorID,
		HostID:        sel.HostID,
		CommandTypeID: sel.CommandTypeID,
	}
}

// InteractionState tracks what the user currently has selected
type InteractionState struct {
	mutex sync.RWMutex
	sel   Selection
}

type Selection struct {
	BeaconID      string
	OperatorID    string
	HostID        string
	CommandTypeID string
}

func (is *InteractionState) Select(sel Selection) {
	is.mutex.Lock()
	defer is.mutex.Unlock()

	is.sel = sel
}

func (is *InteractionState) Snapshot() Selection {
	is.mutex.RLock()
	defer is.mutex.RUnlock()

	return is.sel
}
