package client

import (
	"fmt"
	"strings"

	"github.com/mwantia/goreview/internal/session"
	"github.com/mwantia/goreview/pkg/comment"
	"github.com/spf13/cobra"
)

func NewCommentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comment",
		Aliases: []string{"comments"},
		Short:   "Manage campaign comments",
		Long:    "List, add, edit, favorite and delete comments attached to commands or command groups.",
	}

	cmd.AddCommand(NewCommentListCommand())
	cmd.AddCommand(NewCommentAddCommand())
	cmd.AddCommand(NewCommentEditCommand())
	cmd.AddCommand(NewCommentFavoriteCommand())
	cmd.AddCommand(NewCommentDeleteCommand())
	cmd.AddCommand(NewCommentAttachCommand())
	cmd.AddCommand(NewCommentTagsCommand())

	return cmd
}

func NewCommentListCommand() *cobra.Command {
	var favorites bool

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List comments",
		Long:  "List the command groups of the campaign together with their comments.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.Load(cmd.Context()); err != nil {
				return err
			}

			groups, err := sess.Client.QueryCommandGroups(cmd.Context(), sess.Campaign.CommandGroupsQuery())
			if err != nil {
				return err
			}
			snap := sess.Client.Cache().Snapshot()

			out := cmd.OutOrStdout()
			for _, g := range groups {
				node := snap.CommandGroups[g.ID]
				fmt.Fprintf(out, "%s (%d commands)\n", g.ID, len(node.CommandIDs))

				for _, id := range node.AnnotationIDs {
					annotation := snap.Annotations[id]
					if favorites && (annotation.Favorite == nil || !*annotation.Favorite) {
						continue
					}

					editor := sess.Editor(comment.Props{
						CommandGroup: &node,
						Annotation:   &annotation,
					})
					printComment(cmd, editor, id)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&favorites, "favorites", "f", false, "Only list favorite comments")

	return cmd
}

func NewCommentAddCommand() *cobra.Command {
	var commands []string
	var tags []string
	var group string
	var text string
	var favorite bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a comment",
		Long: `Add a comment to one or more commands, or to an existing command group.

Passing several --command flags comments on all of them as a new group.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if group == "" && len(commands) == 0 {
				return fmt.Errorf("either --group or at least one --command is required")
			}

			sess, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			props := comment.Props{
				CommandGroupID: group,
				NewComment:     true,
			}
			if len(commands) == 1 {
				props.CommandID = commands[0]
			} else {
				for _, id := range commands {
					sess.Campaign.Comments.SelectCommand(id)
				}
			}

			editor := sess.Editor(props)
			editor.HandleTextChange(text)
			for _, tag := range tags {
				editor.HandleTagsChange(tag)
			}
			if favorite {
				if err := editor.ToggleFavorite(cmd.Context()); err != nil {
					return err
				}
			}

			if err := editor.SubmitAnnotation(cmd.Context(), false); err != nil {
				return fmt.Errorf("failed to add comment: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Comment added")
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&commands, "command", "c", nil, "Command ids to comment on")
	cmd.Flags().StringVarP(&group, "group", "g", "", "Existing command group to comment on")
	cmd.Flags().StringVarP(&text, "text", "t", "", "Comment text")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tags to attach")
	cmd.Flags().BoolVar(&favorite, "favorite", false, "Mark the comment as favorite")

	return cmd
}

func NewCommentEditCommand() *cobra.Command {
	var addTags []string
	var removeTags []string
	var text string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a comment",
		Long:  "Edit the text and tags of an existing comment.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			editor, err := editableComment(cmd, sess, args[0])
			if err != nil {
				return err
			}

			editor.Edit()
			if cmd.Flags().Changed("text") {
				editor.HandleTextChange(text)
			}
			for _, tag := range removeTags {
				editor.HandleTagsRemove(tag)
			}
			for _, tag := range addTags {
				editor.HandleTagsChange(tag)
			}

			if err := editor.SubmitAnnotation(cmd.Context(), false); err != nil {
				return fmt.Errorf("failed to edit comment: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Comment updated")
			return nil
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "New comment text")
	cmd.Flags().StringSliceVar(&addTags, "tag", nil, "Tags to add")
	cmd.Flags().StringSliceVar(&removeTags, "untag", nil, "Tags to remove")

	return cmd
}

func NewCommentFavoriteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorite <id>",
		Short: "Toggle the favorite flag of a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			editor, err := sess.EditAnnotation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !editor.View().AllowFavorite {
				return fmt.Errorf("favorites cannot be changed in this view")
			}

			if err := editor.ToggleFavorite(cmd.Context()); err != nil {
				return fmt.Errorf("failed to toggle favorite: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Favorite: %t\n", *editor.Favorite)
			return nil
		},
	}

	return cmd
}

func NewCommentDeleteCommand() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a comment",
		Long:  "Delete a comment. The command group is removed as well once it has no comments left (needs confirmation).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			editor, err := editableComment(cmd, sess, args[0])
			if err != nil {
				return err
			}

			editor.PromptDelete(confirm)
			if !confirm {
				fmt.Fprintln(cmd.OutOrStdout(), "Are you sure you want to delete this comment? Re-run with --confirm")
				return nil
			}

			if err := editor.DeleteAnnotation(cmd.Context()); err != nil {
				return fmt.Errorf("failed to delete comment: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Comment deleted")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&confirm, "confirm", "c", false, "Confirms the deletion of the comment")

	return cmd
}

func NewCommentAttachCommand() *cobra.Command {
	var group string
	var command string

	cmd := &cobra.Command{
		Use:   "attach",
		Short: "Add a command to a commented group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.Load(cmd.Context()); err != nil {
				return err
			}

			node, ok := sess.Client.Cache().CommandGroup(group)
			if !ok {
				return fmt.Errorf("command group '%s' not found", group)
			}

			editor := sess.Editor(comment.Props{
				CommandID:                command,
				CommandGroupID:           group,
				CommandGroup:             &node,
				IsAddingCommandToComment: true,
			})
			if editor.View().IsCurrentCommandInAnnotation {
				fmt.Fprintln(cmd.OutOrStdout(), "Added")
				return nil
			}

			if err := editor.AddCommandToAnnotation(cmd.Context()); err != nil {
				return fmt.Errorf("failed to add command: %w", err)
			}

			updated, _ := sess.Client.Cache().CommandGroup(group)
			fmt.Fprintf(cmd.OutOrStdout(), "%d Commands\n", len(updated.CommandIDs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "Command group to extend")
	cmd.Flags().StringVarP(&command, "command", "c", "", "Command to add")
	cmd.MarkFlagRequired("group")
	cmd.MarkFlagRequired("command")

	return cmd
}

func NewCommentTagsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags [query]",
		Short: "List tag suggestions",
		Long:  "List known campaign tags and technique labels, optionally filtered by query.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			if _, err := sess.Client.QueryTags(cmd.Context(), sess.Campaign.ID); err != nil {
				return err
			}

			editor := sess.Editor(comment.Props{NewComment: true})
			if len(args) > 0 {
				editor.SetTagQuery(args[0])
			}

			for _, tag := range editor.AutoTags() {
				if comment.FilterTags(editor.TagQuery, tag, false) {
					fmt.Fprintf(cmd.OutOrStdout(), "#%s\n", tag)
				}
			}
			return nil
		},
	}

	return cmd
}

// editableComment opens the comment and checks the current user may edit it
func editableComment(cmd *cobra.Command, sess *session.Session, id string) (*comment.Editor, error) {
	editor, err := sess.EditAnnotation(cmd.Context(), id)
	if err != nil {
		return nil, err
	}

	view := editor.View()
	if !view.ShowEditButtons || !view.AllowEdit {
		return nil, fmt.Errorf("comment '%s' cannot be edited by '%s'", id, sess.Config.Auth.User)
	}
	return editor, nil
}

func printComment(cmd *cobra.Command, editor *comment.Editor, id string) {
	out := cmd.OutOrStdout()

	marker := " "
	if editor.Favorite != nil && *editor.Favorite {
		marker = "*"
	}
	fmt.Fprintf(out, "  %s %s [%s]\n", marker, editor.Header(), id)

	if editor.Text != "" {
		for _, line := range strings.Split(editor.Text, "\n") {
			fmt.Fprintf(out, "      %s\n", line)
		}
	}

	if len(editor.Tags) == 0 {
		fmt.Fprintln(out, "      No Tags")
	} else {
		fmt.Fprintf(out, "      #%s\n", strings.Join(editor.Tags, " #"))
	}

	if view := editor.View(); view.ShowGroupLink {
		fmt.Fprintf(out, "      %s\n", editor.GroupLink())
	}
}
