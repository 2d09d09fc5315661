package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chris/flightai/internal/agent"
	"github.com/chris/flightai/internal/flight"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var airlineCmd = &cobra.Command{
	Use:   "airline",
	Short: "Talk to the FlightAI airline assistant",
	Long:  "Talk to the FlightAI airline assistant. Type \"clear\" to start over.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cfg)
		if err != nil {
			return err
		}
		engine, err := newEngine(cfg, client)
		if err != nil {
			return err
		}
		imageDir, _ := cmd.Flags().GetString("images")

		conv := agent.NewConversation(flight.SystemPrompt)
		return repl(os.Stdin, os.Stdout, "flightai> ", func(line string) error {
			if line == "clear" {
				conv.Clear()
				fmt.Println("Conversation cleared.")
				return nil
			}

			reply, err := engine.Respond(cmd.Context(), conv, line)
			if err != nil {
				return err
			}
			fmt.Println(reply.Text)

			for i, a := range reply.Artifacts {
				if a.Kind != "image" {
					continue
				}
				name := filepath.Join(imageDir, fmt.Sprintf("destination-%d-%d%s", conv.Len(), i, extension(a.MIMEType)))
				if err := os.WriteFile(name, a.Data, 0o644); err != nil {
					return fmt.Errorf("saving image: %w", err)
				}
				fmt.Printf("[image saved to %s, %s]\n", name, humanize.Bytes(uint64(len(a.Data))))
			}
			return nil
		})
	},
}

func extension(mime string) string {
	switch {
	case strings.HasSuffix(mime, "jpeg"):
		return ".jpg"
	case strings.HasSuffix(mime, "webp"):
		return ".webp"
	default:
		return ".png"
	}
}

func init() {
	rootCmd.AddCommand(airlineCmd)
	airlineCmd.Flags().String("images", ".", "directory for destination images")
}
