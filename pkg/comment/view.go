package comment

import (
	"fmt"
	"slices"
)

// View is what the comment box may show and allow for the current viewer
type View struct {
	ShowEditButtons              bool
	AllowReply                   bool
	AllowEdit                    bool
	AllowFavorite                bool
	IsGrouped                    bool
	ShowGroupLink                bool
	IsCurrentCommandInAnnotation bool
}

func (e *Editor) View() View {
	isRedTeam := !e.settings.BlueTeam
	presentation := e.settings.Presentation
	isGrouped := len(e.CurrentCommandIDs()) > 1

	author := ""
	if e.props.Annotation != nil {
		author = e.props.Annotation.User
	}

	inAnnotation := e.props.CommandID != "" && e.props.CommandGroup != nil &&
		slices.Contains(e.props.CommandGroup.CommandIDs, e.props.CommandID)

	return View{
		ShowEditButtons:              !presentation && isRedTeam,
		AllowReply:                   e.props.IsFullList && isRedTeam,
		AllowEdit:                    (author == "" || author == e.settings.User) && !e.props.IsAddingCommandToComment && isRedTeam,
		AllowFavorite:                isRedTeam && !presentation,
		IsGrouped:                    isGrouped,
		ShowGroupLink:                isGrouped && !e.props.IsFullList && !presentation && !e.props.IsAddingCommandToComment && isRedTeam,
		IsCurrentCommandInAnnotation: inAnnotation,
	}
}

// Header is the author of an existing comment, or a new comment label
func (e *Editor) Header() string {
	if e.props.Annotation != nil {
		return e.props.Annotation.User
	}
	if n := len(e.CommandIDs()); n > 1 {
		return fmt.Sprintf("New Comment on %d Commands", n)
	}
	return "New Comment"
}

// GroupLink labels the link to the other commands of a grouped comment
func (e *Editor) GroupLink() string {
	return fmt.Sprintf("+%d Commands", len(e.CurrentCommandIDs())-1)
}

// Reply forwards to the parent's reply handler when replies are allowed
func (e *Editor) Reply() {
	if e.View().AllowReply && e.props.Reply != nil {
		e.props.Reply()
	}
}
