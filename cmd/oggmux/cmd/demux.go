/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oggmux/oggmux/pkg/mux"
)

// demuxCmd represents the demux command
var demuxCmd = &cobra.Command{
	Use:   "demux <file>",
	Short: "Extract each logical stream's packets to separate files",
	Long: `Demultiplex a physical stream and write the concatenated packet
payloads of each logical stream to <out-dir>/<serial>.raw.

Example:
  oggmux demux capture.ogg --out-dir ./streams`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		outDir, _ := cmd.Flags().GetString("out-dir")

		data, err := readInput(args[0])
		if err != nil {
			fmt.Printf("Error reading input: %v\n", err)
			return
		}
		if err := os.MkdirAll(outDir, 0755); err != nil {
			fmt.Printf("Error creating output dir: %v\n", err)
			return
		}

		d := mux.NewDemuxer()
		d.Feed(data)

		files := map[uint32]*os.File{}
		counts := map[uint32]int64{}
		defer func() {
			for _, f := range files {
				f.Close()
			}
		}()

		for {
			serial, pkt, ok := d.NextPacket()
			if !ok {
				break
			}
			f, open := files[serial]
			if !open {
				name := filepath.Join(outDir, fmt.Sprintf("%08x.raw", serial))
				f, err = os.Create(name)
				if err != nil {
					fmt.Printf("Error creating %s: %v\n", name, err)
					return
				}
				files[serial] = f
			}
			if _, err := f.Write(pkt.Data); err != nil {
				fmt.Printf("Error writing packet: %v\n", err)
				return
			}
			counts[serial]++
		}

		for _, serial := range d.Serials() {
			fmt.Printf("%#x: %d packets -> %s\n", serial, counts[serial],
				filepath.Join(outDir, fmt.Sprintf("%08x.raw", serial)))
		}
		if gaps := d.Gaps(); len(gaps) > 0 {
			for _, g := range gaps {
				fmt.Printf("sequence gap on %#x: expected %d, observed %d\n",
					g.Serial, g.Expected, g.Observed)
			}
		}
		if skipped := d.BytesSkipped(); skipped > 0 {
			fmt.Printf("%d bytes skipped\n", skipped)
		}
	},
}

func init() {
	rootCmd.AddCommand(demuxCmd)
	demuxCmd.Flags().StringP("out-dir", "o", ".", "Directory for extracted streams")
}
