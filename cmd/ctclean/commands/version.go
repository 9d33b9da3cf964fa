package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/ctclean/internal/output"
	"github.com/jmylchreest/ctclean/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format == "" || format == string(output.FormatText) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full("ctclean"))
			return nil
		}
		return output.WriteValue(cmd.OutOrStdout(), output.Format(format), version.Get())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().String("format", "text", "output format: text, json, yaml")
	rootCmd.Version = version.String()
	rootCmd.SetVersionTemplate(version.Full("ctclean") + "\n")
}
