package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var speakCmd = &cobra.Command{
	Use:   "speak <text>",
	Short: "Synthesize speech to an mp3 file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		speaker := newSpeaker(cfg)
		if speaker == nil {
			return errors.New("speech needs OPENAI_API_KEY")
		}
		out, _ := cmd.Flags().GetString("out")

		audio, err := speaker.SynthesizeSpeech(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, audio.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Printf("wrote %s (%s)\n", out, humanize.Bytes(uint64(len(audio.Data))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(speakCmd)
	speakCmd.Flags().StringP("out", "o", "speech.mp3", "output file")
}
