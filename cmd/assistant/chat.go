package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant from the terminal",
	Long: `Chat runs the full assistant in-process and opens an interactive
prompt. Replies stream as they are generated. Exit with Ctrl-D or /quit.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.close()

	if err := indexCatalog(ctx, d); err != nil {
		return err
	}

	sessionID, err := d.assistant.CreateSession(ctx)
	if err != nil {
		return err
	}

	rl := liner.NewLiner()
	defer rl.Close()
	rl.SetCtrlCAborts(true)

	fmt.Println("Assistant ready. Ask about plans in English or Roman Urdu.")
	fmt.Println("Ctrl-D or /quit to exit.")

	for {
		input, err := rl.Prompt("you> ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "/quit" || input == "/exit" {
			return nil
		}
		rl.AppendHistory(input)

		if err := streamReply(ctx, d, sessionID, input); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func streamReply(ctx context.Context, d *deps, sessionID, input string) error {
	stream, err := d.assistant.StreamMessage(ctx, sessionID, input)
	if err != nil {
		return err
	}
	defer stream.Close()

	fmt.Print("assistant> ")
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Println()
			return err
		}
		fmt.Print(chunk.Delta)
	}
	fmt.Print("\n\n")

	_, err = stream.Final(ctx)
	return err
}
