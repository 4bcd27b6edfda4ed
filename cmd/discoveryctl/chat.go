package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mymichlin/discovery/internal/core"
)

func (a *app) chatCmd() *cobra.Command {
	chatCmd := &cobra.Command{
		Use:   "chat [TEXT]",
		Short: "Ask the assistant; without text prints the history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCore(cmd.Context(), func(c *core.Core) error {
				if len(args) == 0 {
					hist, err := c.Chat.History(cmd.Context())
					if err != nil {
						return err
					}
					for _, m := range hist {
						who := "assistant"
						if m.FromUser {
							who = "you"
						}
						_, _ = fmt.Fprintf(a.out, "%s: %s\n", who, m.Text)
					}
					return nil
				}
				reply, err := c.Chat.Send(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(a.out, reply.Text)
				return nil
			})
		},
	}
	chatCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCore(cmd.Context(), func(c *core.Core) error {
				return c.Chat.Clear(cmd.Context())
			})
		},
	})
	return chatCmd
}
