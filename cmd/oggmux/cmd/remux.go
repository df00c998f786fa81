/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oggmux/oggmux/pkg/mux"
)

// remuxCmd represents the remux command
var remuxCmd = &cobra.Command{
	Use:   "remux <file>",
	Short: "Re-paginate a stream, discarding garbage and torn packets",
	Long: `Decode every recoverable packet from a possibly damaged stream and
write it back out on fresh pages with clean sequence numbering.

Example:
  oggmux remux damaged.ogg --output repaired.ogg`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		data, err := readInput(args[0])
		if err != nil {
			fmt.Printf("Error reading input: %v\n", err)
			return
		}

		out, stats, err := mux.Remux(data)
		if err != nil {
			fmt.Printf("Error remuxing: %v\n", err)
			return
		}

		if err := os.WriteFile(output, out, 0644); err != nil {
			fmt.Printf("Error writing output: %v\n", err)
			return
		}

		fmt.Printf("%d pages in, %d packets rewritten, %d bytes skipped, %d gaps\n",
			stats.PagesRead, stats.Packets, stats.BytesSkipped, stats.Gaps)
	},
}

func init() {
	rootCmd.AddCommand(remuxCmd)
	remuxCmd.Flags().StringP("output", "o", "remuxed.ogg", "Output file")
}
