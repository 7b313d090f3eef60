package campaign

import (
	"slices"
	"sync"
)

// CommentStore holds the comment-related selection state of a campaign.
// Selected commands keep their insertion order.
type CommentStore struct {
	mutex sync.RWMutex

	selected             []string
	newGroupComment      bool
	groupSelect          bool
	selectedCommentGroup string
}

func NewCommentStore() *CommentStore {
	return &CommentStore{}
}

func (cs *CommentStore) SelectCommand(id string) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	if !slices.Contains(cs.selected, id) {
		cs.selected = append(cs.selected, id)
	}
}

func (cs *CommentStore) UnselectCommand(id string) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	if i := slices.Index(cs.selected, id); i >= 0 {
		cs.selected = slices.Delete(cs.selected, i, i+1)
	}
}

// SelectedCommands returns a copy of the active multi-command selection
func (cs *CommentStore) SelectedCommands() []string {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	return slices.Clone(cs.selected)
}

func (cs *CommentStore) ClearSelectedCommand() {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.selected = nil
}

func (cs *CommentStore) SetNewGroupComment(v bool) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.newGroupComment = v
}

func (cs *CommentStore) NewGroupComment() bool {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	return cs.newGroupComment
}

func (cs *CommentStore) SetGroupSelect(v bool) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.groupSelect = v
}

func (cs *CommentStore) GroupSelect() bool {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	return cs.groupSelect
}

func (cs *CommentStore) SetSelectedCommentGroup(id string) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.selectedCommentGroup = id
}

func (cs *CommentStore) SelectedCommentGroup() string {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	return cs.selectedCommentGroup
}
