package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/erazemk/najdeno/internal/chat"
	"github.com/erazemk/najdeno/internal/dbx"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

func (c *cli) watchCmd() *cobra.Command {
	var (
		claimID int64
		email   string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the conversation on an accepted claim",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			database, err := c.openDB(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			viewer, err := store.GetUserByEmail(ctx, database, strings.ToLower(strings.TrimSpace(email)))
			if err != nil {
				return err
			}
			if viewer == nil {
				return fmt.Errorf("no user %s", email)
			}

			p := &chat.Poller{
				Channel:  chat.New(database),
				ClaimID:  claimID,
				ViewerID: viewer.ID,
				Interval: c.cfg.PollInterval,
			}
			names := &nameCache{db: database, names: map[int64]string{}}
			out := cmd.OutOrStdout()

			err = p.Run(ctx, func(msgs []model.Message) error {
				return printMessages(ctx, out, names, msgs)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().Int64Var(&claimID, "claim", 0, "claim ID")
	cmd.Flags().StringVar(&email, "user", "", "email of the owner or claimant watching")
	_ = cmd.MarkFlagRequired("claim")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

type nameCache struct {
	db    dbx.DBTX
	names map[int64]string
}

func (n *nameCache) get(ctx context.Context, id int64) (string, error) {
	if name, ok := n.names[id]; ok {
		return name, nil
	}
	u, err := store.GetUser(ctx, n.db, id)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("user %d", id)
	if u != nil {
		name = u.DisplayName
	}
	n.names[id] = name
	return name, nil
}

func printMessages(ctx context.Context, w io.Writer, names *nameCache, msgs []model.Message) error {
	for _, m := range msgs {
		name, err := names.get(ctx, m.SenderID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "[%s] %s: %s\n", m.CreatedAt.Local().Format("2006-01-02 15:04"), name, m.Body)
	}
	return nil
}
