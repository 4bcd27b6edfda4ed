package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mymichlin/discovery/internal/core"
	"github.com/mymichlin/discovery/internal/events"
	"github.com/mymichlin/discovery/internal/model"
	"github.com/mymichlin/discovery/internal/searchcache"
)

func (a *app) watchCmd() *cobra.Command {
	var (
		kinds    []string
		resolve  []string
		duration time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print change events, optionally while resolving categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			interests := make([]model.Kind, 0, len(kinds))
			for _, k := range kinds {
				interests = append(interests, model.Kind(strings.ToLower(k)))
			}
			ctx := cmd.Context()
			return a.withCore(ctx, func(c *core.Core) error {
				ch := events.NewChannel(256)
				sub, err := c.Notifier.Subscribe(ctx, ch, interests...)
				if err != nil {
					return err
				}
				defer sub.Close()

				for _, name := range resolve {
					if _, err := c.Cache.ResolveDefault(ctx, searchcache.Category(name)); err != nil {
						return err
					}
				}

				var timeout <-chan time.Time
				if duration > 0 {
					t := time.NewTimer(duration)
					defer t.Stop()
					timeout = t.C
				}
				for {
					select {
					case e := <-ch.Events():
						a.printEvent(e)
					case <-timeout:
						return a.drain(ch)
					case <-ctx.Done():
						return a.drain(ch)
					}
				}
			})
		},
	}
	cmd.Flags().StringSliceVarP(&kinds, "kind", "k", []string{string(model.KindAll)}, "Entity kinds to watch: user, restaurant, review, chat, all")
	cmd.Flags().StringSliceVar(&resolve, "resolve", nil, "Categories to resolve after subscribing")
	cmd.Flags().DurationVarP(&duration, "for", "d", 0, "Stop after this long (0 waits for interrupt)")
	return cmd
}

// drain prints what is still buffered before returning.
func (a *app) drain(ch *events.Channel) error {
	for {
		select {
		case e := <-ch.Events():
			a.printEvent(e)
		default:
			if n := ch.Dropped(); n > 0 {
				_, _ = fmt.Fprintf(a.out, "dropped %d events\n", n)
			}
			return nil
		}
	}
}

func (a *app) printEvent(e events.Event) {
	var ids []string
	switch e.Kind {
	case model.KindUser:
		if e.User != nil {
			ids = append(ids, e.User.Name)
		}
	case model.KindRestaurant:
		for _, r := range e.Restaurants {
			ids = append(ids, r.ID)
		}
	case model.KindReview:
		for _, r := range e.Reviews {
			ids = append(ids, r.ID)
		}
	case model.KindChat:
		for _, m := range e.Chats {
			ids = append(ids, m.ID)
		}
	}
	tag := ""
	if e.Replay {
		tag = " (replay)"
	}
	_, _ = fmt.Fprintf(a.out, "%s %s%s: %d [%s]\n", e.Kind, e.Change, tag, e.Len(), strings.Join(ids, ","))
}
