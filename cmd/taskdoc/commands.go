package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/taskdoc/internal/doctree"
	"github.com/dgallion1/taskdoc/internal/engine"
	"github.com/dgallion1/taskdoc/internal/linkpath"
)

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every task as an indented tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.files.Read(a.file)
			if err != nil {
				return err
			}
			nodes, err := engine.ListTasks(text)
			if err != nil {
				return err
			}
			if ok, err := a.structured(nodes); ok {
				return err
			}
			for _, n := range nodes {
				a.printf("%s%s%s %s\n", strings.Repeat("  ", n.Level), n.ID, statusTag(n.Status), n.Title)
			}
			return nil
		},
	}
}

func statusTag(s doctree.Status) string {
	switch s {
	case doctree.StatusCompleted:
		return " [x]"
	case doctree.StatusInProgress:
		return " [~]"
	}
	return ""
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a task heading, its own body and its children",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.files.Read(a.file)
			if err != nil {
				return err
			}
			d, err := engine.Task(text, args[0])
			if err != nil {
				return err
			}
			if ok, err := a.structured(d); ok {
				return err
			}
			a.printf("%s\n", d.Heading)
			if d.Body != "" {
				a.printf("\n%s\n", d.Body)
			}
			if len(d.ChildIDs) > 0 {
				a.printf("\nsubtasks: %s\n", strings.Join(d.ChildIDs, ", "))
			}
			return nil
		},
	}
}

// apply runs op against the file and prints the id it touched.
func (a *app) apply(cmd *cobra.Command, op engine.Operation) error {
	res, err := a.files.Apply(cmd.Context(), a.file, op)
	if err != nil {
		return err
	}
	if ok, err := a.structured(map[string]string{"id": res.ID, "op": string(op.Kind)}); ok {
		return err
	}
	a.printf("%s\n", res.ID)
	return nil
}

func (a *app) addCmd() *cobra.Command {
	var id, body string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Append a new top-level task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.apply(cmd, engine.Operation{Kind: engine.OpInsertMain, NewID: id, Title: args[0], Body: body})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Identifier to use instead of the next free one")
	cmd.Flags().StringVar(&body, "body", "", "Body text (defaults to the placeholder)")
	return cmd
}

func (a *app) addSubCmd() *cobra.Command {
	var id, body string
	cmd := &cobra.Command{
		Use:   "add-sub <parent> <title>",
		Short: "Insert a subtask as the first child of parent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.apply(cmd, engine.Operation{Kind: engine.OpInsertSubtask, ID: args[0], NewID: id, Title: args[1], Body: body})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Identifier to use instead of the next free one")
	cmd.Flags().StringVar(&body, "body", "", "Body text (defaults to the placeholder)")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a task and all of its subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.apply(cmd, engine.Operation{Kind: engine.OpDelete, ID: args[0]})
		},
	}
}

func (a *app) setBodyCmd() *cobra.Command {
	var body string
	cmd := &cobra.Command{
		Use:   "set-body <id>",
		Short: "Replace a task's own body, keeping its subtasks",
		Long:  "Replace a task's own body. Without --body the new body is read from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("body") {
				data, err := io.ReadAll(a.stdin)
				if err != nil {
					return fmt.Errorf("reading body from stdin: %w", err)
				}
				body = string(data)
			}
			return a.apply(cmd, engine.Operation{Kind: engine.OpReplaceBody, ID: args[0], Body: body})
		},
	}
	cmd.Flags().StringVar(&body, "body", "", "New body text")
	return cmd
}

func (a *app) statusCmd(use, short string, status doctree.Status) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.apply(cmd, engine.Operation{Kind: engine.OpSetStatus, ID: args[0], Status: status})
		},
	}
}

func (a *app) nextIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next-id [parent]",
		Short: "Print the next free top-level id, or the next child id of parent",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.files.Read(a.file)
			if err != nil {
				return err
			}
			var id string
			if len(args) == 0 {
				id, err = engine.NextMainID(text, a.files.Options().Prefix)
			} else {
				id, err = engine.NextSubID(text, args[0])
			}
			if err != nil {
				return err
			}
			a.printf("%s\n", id)
			return nil
		},
	}
}

func (a *app) linksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "links <id>",
		Short: "List the links in a task's own body with resolved paths",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.files.Read(a.file)
			if err != nil {
				return err
			}
			links, err := engine.TaskLinks(text, args[0], a.file, a.cfg.RootPath)
			if err != nil {
				return err
			}
			if ok, err := a.structured(links); ok {
				return err
			}
			for _, l := range links {
				switch {
				case l.External:
					a.printf("%s\t(external)\n", l.Target)
				case l.Relative != "":
					a.printf("%s\t%s\n", l.Target, l.Relative)
				default:
					a.printf("%s\t%s\n", l.Target, l.Absolute)
				}
			}
			return nil
		},
	}
}

func (a *app) resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <href>",
		Short: "Normalize a link target as written in the document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			href := args[0]
			if linkpath.IsExternal(href) {
				a.printf("%s\n", href)
				return nil
			}
			if a.cfg.RootPath != "" {
				a.printf("%s\n", linkpath.ResolveRelative(href, a.file, a.cfg.RootPath))
				return nil
			}
			a.printf("%s\n", linkpath.ResolveAbsolute(href, a.file))
			return nil
		},
	}
}
