package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/suPer8Hu/recruiter-chat/internal/knowledge"
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage the knowledge base document",
}

var kbLoadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Replace the stored knowledge base with a markdown file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		gdb, err := open()
		if err != nil {
			return err
		}
		kb, err := knowledge.NewRepo(gdb).Save(cmd.Context(), string(b))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "knowledge base saved (%d bytes, updated %s)\n", len(kb.Content), kb.UpdatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

var kbShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored knowledge base",
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, err := open()
		if err != nil {
			return err
		}
		kb, err := knowledge.NewRepo(gdb).Current(cmd.Context())
		if err != nil {
			return err
		}
		if kb == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "no knowledge base stored")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), kb.Content)
		return nil
	},
}

func init() {
	kbCmd.AddCommand(kbLoadCmd, kbShowCmd)
}
