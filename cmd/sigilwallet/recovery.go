package main

import "github.com/spf13/cobra"

var recoveryCmd = &cobra.Command{
	Use:   "recovery",
	Short: "Inspect or supply the in-memory recovery share",
}

var recoveryGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the recovery share held for the active user, if any",
	RunE: func(cmd *cobra.Command, _ []string) error {
		share, ok, err := core.GetRecoveryShare(cmd.Context())
		if err != nil {
			return err
		}
		if !ok {
			cmd.Println("No recovery share is currently held for this user.")
			return nil
		}
		cmd.Println(share)
		return nil
	},
}

var recoverySetCmd = &cobra.Command{
	Use:   "set [share]",
	Short: "Supply a recovery share obtained out of band",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := core.SetRecoveryShare(cmd.Context(), args[0]); err != nil {
			return err
		}
		cmd.Println("Recovery share accepted.")
		return nil
	},
}

//nolint:gochecknoinits // cobra CLI pattern requires init for flag/command registration
func init() {
	recoveryCmd.AddCommand(recoveryGetCmd, recoverySetCmd)
	rootCmd.AddCommand(recoveryCmd)
}
