package main

import (
	"fmt"
	"os"

	"github.com/chris/flightai/internal/chat"
	"github.com/chris/flightai/internal/llm"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the streaming chatbot",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cfg)
		if err != nil {
			return err
		}
		system, _ := cmd.Flags().GetString("system")
		bot := chat.New(client, system)

		var history []llm.Message
		return repl(os.Stdin, os.Stdout, "you> ", func(line string) error {
			var reply string
			var streamErr error
			for text, err := range bot.Stream(cmd.Context(), history, line) {
				if err != nil {
					streamErr = err
					break
				}
				fmt.Print(text[len(reply):])
				reply = text
			}
			fmt.Println()
			if streamErr != nil {
				return streamErr
			}
			history = append(history,
				llm.Message{Role: llm.RoleUser, Content: line},
				llm.Message{Role: llm.RoleAssistant, Content: reply},
			)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("system", chat.DefaultSystemPrompt, "system prompt")
}
