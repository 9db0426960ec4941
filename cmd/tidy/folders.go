package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "Show folder structures",
	Long: `Folder structures are placeholder patterns for a destination directory,
such as {year}/{month}. Rules may name one; 'tidy preview --folder-structure'
applies one to every file.`,
}

var foldersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List folder structures",
	Args:  cobra.NoArgs,
	RunE:  runFoldersList,
}

func init() {
	foldersCmd.AddCommand(foldersListCmd)
	rootCmd.AddCommand(foldersCmd)
}

func runFoldersList(cmd *cobra.Command, _ []string) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DEFAULT\tENABLED\tNAME\tPATTERN\tID")
	for _, f := range cfg.FolderStructures {
		mark := ""
		if f.ID == cfg.Preferences.DefaultFolderStructureID {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%t\t%s\t%s\t%s\n", mark, f.Enabled, f.Name, f.Pattern, f.ID)
	}
	return tw.Flush()
}
