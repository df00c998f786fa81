/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oggmux/oggmux/pkg/index"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index <file>",
	Short: "Build a persistent seek index over a stream",
	Long: `Scan a physical stream and record, for every page that carries a
granule position, the byte offset where that page begins. The index
persists in a local database so later seeks need no rescan.

Examples:
  oggmux index capture.ogg --index-dir ./index
  oggmux index capture.ogg --index-dir ./index --seek-serial 0x1a2b --seek-granule 48000`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		indexDir, _ := cmd.Flags().GetString("index-dir")
		seekSerial, _ := cmd.Flags().GetUint32("seek-serial")
		seekGranule, _ := cmd.Flags().GetInt64("seek-granule")

		f, err := os.Open(args[0])
		if err != nil {
			fmt.Printf("Error opening input: %v\n", err)
			return
		}
		defer f.Close()

		ix, err := index.Open(indexDir)
		if err != nil {
			fmt.Printf("Error opening index: %v\n", err)
			return
		}
		defer ix.Close()

		stats, err := ix.IndexStream(f)
		if err != nil {
			fmt.Printf("Error indexing: %v\n", err)
			return
		}
		fmt.Printf("%d pages indexed, %d without granule, %d bytes skipped\n",
			stats.PagesIndexed, stats.PagesSkipped, stats.BytesSkipped)

		if cmd.Flags().Changed("seek-granule") {
			entry, err := ix.Seek(seekSerial, seekGranule)
			if err != nil {
				fmt.Printf("Seek failed: %v\n", err)
				return
			}
			fmt.Printf("seek %#x@%d -> offset %d (page %d, granule %d)\n",
				seekSerial, seekGranule, entry.Offset, entry.PageSequence, entry.GranulePos)
		}
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().String("index-dir", "./index", "Index database directory")
	indexCmd.Flags().Uint32("seek-serial", 0, "Serial number to seek within")
	indexCmd.Flags().Int64("seek-granule", 0, "Granule position to seek to")
}
