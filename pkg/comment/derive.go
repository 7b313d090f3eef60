package comment

import (
	"slices"

	"github.com/mwantia/goreview/pkg/graph"
)

// Derived values are recomputed from a fresh cache snapshot on every call.

// CommandIDs resolves the commands a new annotation attaches to. An active
// multi-command selection always wins over the attached group, annotation or
// single command.
func (e *Editor) CommandIDs() []string {
	if selected := e.campaign.Comments.SelectedCommands(); len(selected) > 0 {
		return selected
	}
	switch {
	case e.props.CommandGroup != nil:
		return slices.Clone(e.props.CommandGroup.CommandIDs)
	case e.props.Annotation != nil:
		return slices.Clone(e.props.Annotation.CommandIDs)
	case e.props.CommandID != "":
		return []string{e.props.CommandID}
	default:
		return []string{}
	}
}

func (e *Editor) CommandGroupID() string {
	if e.props.CommandGroup != nil {
		return e.props.CommandGroup.ID
	}
	return e.props.CommandGroupID
}

// CommandGroup resolves the group from the props, the cache, or the staged
// in-flight version, in that order
func (e *Editor) CommandGroup() *graph.CommandGroupNode {
	return e.commandGroup(e.client.Cache().Snapshot())
}

func (e *Editor) CurrentCommandIDs() []string {
	snap := e.client.Cache().Snapshot()
	if group := e.commandGroup(snap); group != nil {
		return slices.Clone(group.CommandIDs)
	}
	if annotation := e.annotation(snap); annotation != nil {
		return slices.Clone(annotation.CommandIDs)
	}
	return nil
}

// Annotation returns the live cached annotation, nil once it is gone
func (e *Editor) Annotation() *graph.AnnotationNode {
	return e.annotation(e.client.Cache().Snapshot())
}

// DefaultTags is the tag baseline restored on cancel
func (e *Editor) DefaultTags() []string {
	return e.defaultTags(e.client.Cache().Snapshot())
}

// AutoTags suggests every known campaign tag and technique not yet selected
func (e *Editor) AutoTags() []string {
	snap := e.client.Cache().Snapshot()

	known := make([]string, 0, len(snap.Tags))
	for _, t := range snap.Tags {
		known = append(known, t.Text)
	}
	return suggest(e.Tags, known, Techniques)
}

func (e *Editor) commandGroup(snap graph.Snapshot) *graph.CommandGroupNode {
	if e.props.CommandGroup != nil {
		return e.props.CommandGroup
	}

	id := e.CommandGroupID()
	if id == "" {
		return nil
	}
	if group, ok := snap.CommandGroups[id]; ok {
		return &group
	}
	if current, ok := e.campaign.CurrentCommandGroup(id); ok {
		return current
	}
	return nil
}

func (e *Editor) annotation(snap graph.Snapshot) *graph.AnnotationNode {
	if e.props.Annotation == nil {
		return nil
	}
	if annotation, ok := snap.Annotations[e.props.Annotation.ID]; ok {
		return &annotation
	}
	return nil
}

func (e *Editor) defaultTags(snap graph.Snapshot) []string {
	annotation := e.annotation(snap)
	if annotation == nil {
		return []string{}
	}

	tags := make([]string, 0, len(annotation.TagIDs))
	for _, id := range annotation.TagIDs {
		// Tags missing from the graph are skipped
		if tag, ok := snap.Tags[id]; ok {
			tags = append(tags, tag.Text)
		}
	}
	return tags
}
