package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/leadpilot/internal/chat"
)

var (
	chatLanguage string
	chatReset    bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the website chat assistant from the terminal",
	Long: `Runs the website chat locally against the configured backend. The
transcript and captured lead are stored in the settings database and restored
on the next run. Type /quit to leave.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatLanguage, "language", "", "Reply language ("+strings.Join(chat.Languages, ", ")+")")
	chatCmd.Flags().BoolVar(&chatReset, "reset", false, "Discard the stored conversation first")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	persister := chat.NewSettingsPersister(a.settings)
	if chatReset {
		if err := a.settings.Delete(ctx, chat.StateKey(chat.DefaultConversationID)); err != nil {
			return err
		}
	}

	conv := chat.NewConversation(chat.Options{
		ID:          chat.DefaultConversationID,
		WorkspaceID: a.model.Active().ID,
		Backend:     a.apiClient(cfg, logger),
		Persister:   persister,
		Bus:         a.bus,
		Logger:      logger,
		State:       persister.LoadChatState(ctx, chat.DefaultConversationID),
	})
	if chatLanguage != "" {
		if err := conv.SetLanguage(ctx, chatLanguage); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for _, m := range conv.State().Messages {
		printChatMessage(out, m)
	}
	return chatLoop(ctx, conv, cmd.InOrStdin(), out)
}

func chatLoop(ctx context.Context, conv *chat.Conversation, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		switch {
		case text == "":
			continue
		case text == "/quit" || text == "/exit":
			return nil
		}

		turn, err := conv.Send(ctx, text)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		// The user message is already on screen.
		for _, m := range turn.Messages[1:] {
			printChatMessage(out, m)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func printChatMessage(w io.Writer, m chat.Message) {
	who := "assistant"
	if m.Role == chat.RoleUser {
		who = "you"
	}
	fmt.Fprintf(w, "[%s] %s\n", who, m.Content)
}
