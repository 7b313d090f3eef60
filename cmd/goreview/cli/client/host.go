package client

import (
	"errors"
	"fmt"

	"github.com/mwantia/goreview/pkg/db/models"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func NewHostCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "host",
		Aliases: []string{"hosts"},
		Short:   "Manage campaign hosts",
		Long:    "List, create or remove hosts and record their os and ip metadata.",
	}

	cmd.AddCommand(NewHostListCommand())
	cmd.AddCommand(NewHostAddCommand())
	cmd.AddCommand(NewHostMetaCommand())
	cmd.AddCommand(NewHostRemoveCommand())

	return cmd
}

func NewHostListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List hosts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			hosts, err := sess.Store.ListHosts(cmd.Context(), sess.Campaign.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, h := range hosts {
				fmt.Fprintf(out, "%s %s\n", h.ID, h.Name)

				metas, err := sess.Store.ListHostMeta(cmd.Context(), h.ID)
				if err != nil {
					return err
				}
				for _, m := range metas {
					fmt.Fprintf(out, "  os=%s ip=%s type=%s\n", value(m.OS), value(m.IP), value(m.Type))
				}
			}
			return nil
		},
	}

	return cmd
}

func NewHostAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			host := models.NewHost(sess.Campaign.ID, args[0])
			if err := sess.Store.CreateHost(cmd.Context(), host); err != nil {
				return fmt.Errorf("failed to create host: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), host.ID)
			return nil
		},
	}

	return cmd
}

func NewHostMetaCommand() *cobra.Command {
	var os, ip, kind string

	cmd := &cobra.Command{
		Use:   "meta <host>",
		Short: "Record host metadata",
		Long:  "Record an os, ip and type for a host. Each (os, ip) pair can only be recorded once per host.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			host, err := sess.Store.GetHost(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to find host '%s': %w", args[0], err)
			}

			meta := models.NewHostMeta(host, optional(os), optional(ip))
			meta.Type = optional(kind)

			if err := sess.Store.CreateHostMeta(cmd.Context(), meta); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return fmt.Errorf("host '%s' already has this os and ip recorded: %w", host.Name, err)
				}
				return fmt.Errorf("failed to create host metadata: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), meta.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&os, "os", "", "Operating system name")
	cmd.Flags().StringVar(&ip, "ip", "", "IP address")
	cmd.Flags().StringVar(&kind, "type", "", "Host type")

	return cmd
}

func NewHostRemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <host>",
		Short: "Remove a host and its metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			return sess.Store.DeleteHost(cmd.Context(), args[0])
		},
	}

	return cmd
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func value(v *string) string {
	if v == nil {
		return "-"
	}
	return *v
}
