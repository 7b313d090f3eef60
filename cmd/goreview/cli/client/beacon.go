package client

import (
	"fmt"

	"github.com/mwantia/goreview/pkg/db/models"
	"github.com/spf13/cobra"
)

func NewBeaconCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "beacon",
		Short: "Manage beacons and their commands",
	}

	cmd.AddCommand(NewBeaconAddCommand())
	cmd.AddCommand(NewBeaconCommandAddCommand())

	return cmd
}

func NewBeaconAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <host> <name>",
		Short: "Create a beacon on a host",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			beacon := &models.Beacon{
				CampaignID: sess.Campaign.ID,
				HostID:     args[0],
				Name:       args[1],
			}
			if err := sess.Store.CreateBeacon(cmd.Context(), beacon); err != nil {
				return fmt.Errorf("failed to create beacon: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), beacon.ID)
			return nil
		},
	}

	return cmd
}

func NewBeaconCommandAddCommand() *cobra.Command {
	var operator, kind string

	cmd := &cobra.Command{
		Use:   "exec <beacon> <input>",
		Short: "Record a command run through a beacon",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			command := &models.Command{
				CampaignID:  sess.Campaign.ID,
				BeaconID:    args[0],
				OperatorID:  operator,
				CommandType: kind,
				Input:       args[1],
			}
			if err := sess.Store.CreateCommand(cmd.Context(), command); err != nil {
				return fmt.Errorf("failed to record command: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), command.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&operator, "operator", "", "Operator who ran the command")
	cmd.Flags().StringVar(&kind, "type", "", "Command type")

	return cmd
}
