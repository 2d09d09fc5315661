package main

import (
	"fmt"

	"github.com/chris/flightai/internal/brochure"
	"github.com/chris/flightai/internal/scrape"
	"github.com/spf13/cobra"
)

var brochureCmd = &cobra.Command{
	Use:   "brochure <company> <url>",
	Short: "Write a markdown brochure for a company from its website",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cfg)
		if err != nil {
			return err
		}
		stream, _ := cmd.Flags().GetBool("stream")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		gen := brochure.New(client, scrape.NewFetcher(timeout))

		var printed int
		for text, err := range gen.Generate(cmd.Context(), args[0], args[1], stream) {
			if err != nil {
				fmt.Println()
				return err
			}
			fmt.Print(text[printed:])
			printed = len(text)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(brochureCmd)
	brochureCmd.Flags().Bool("stream", false, "print the brochure as it is written")
	brochureCmd.Flags().Duration("timeout", 0, "per-page fetch timeout (default 30s)")
}
