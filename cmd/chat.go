package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/bus"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/flow"
)

var chatScope string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run an interactive Lightning session in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("chat"); err != nil {
			return err
		}

		env, err := initLightning(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		messages, cancel := env.Emitter.Subscribe()
		defer cancel()
		go func() {
			for msg := range messages {
				printMessage(msg)
			}
		}()

		fmt.Println("Share your work email, website, or LinkedIn URL to begin. Type /quit to exit.")

		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			switch {
			case line == "":
				continue
			case line == "/quit":
				env.Flow.End(ctx, chatScope)
				return nil
			}

			if !env.Flow.Active(chatScope) {
				if err := env.Flow.Enter(ctx, chatScope, line); err != nil && !eris.Is(err, flow.ErrSessionActive) {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
				}
				continue
			}
			if err := env.Flow.Respond(ctx, chatScope, line); err != nil && !eris.Is(err, flow.ErrNoSession) {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
		}
		return scanner.Err()
	},
}

func printMessage(msg bus.ChatMessage) {
	prefix := "·"
	switch msg.Type {
	case bus.TypeError:
		prefix = "!"
	case bus.TypeQuestion:
		prefix = "?"
	case bus.TypeSummary, bus.TypeLeads:
		prefix = "»"
	}
	fmt.Printf("\n%s %s\n", prefix, msg.Content)
}

func init() {
	chatCmd.Flags().StringVar(&chatScope, "scope", "local", "session scope identifier")
	rootCmd.AddCommand(chatCmd)
}
