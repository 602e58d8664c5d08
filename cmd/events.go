/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/userdesk/apiserver/config"
	"github.com/userdesk/apiserver/internal/mq"
)

// eventsCmd represents the events command. It tails user lifecycle
// events from the configured broker and logs them until interrupted.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail user lifecycle events from the configured broker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		broker, err := mq.NewFromConfig(cmd.Context(), cfg.MQ)
		if err != nil {
			return err
		}
		defer func() {
			_ = broker.Close()
		}()

		log.Printf("listening on %s (backend %s)", mq.UserEventsChannel, cfg.MQ.Backend)
		return broker.Subscribe(cmd.Context(), mq.UserEventsChannel, logUserEvent)
	},
}

func logUserEvent(ctx context.Context, msg mq.Message) error {
	var event mq.UserEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		log.Printf("skip malformed event %s: %v", msg.ID, err)
		return nil
	}
	log.Printf("%s user=%d email=%s at=%s",
		event.Type, event.UserID, event.Email, event.OccurredAt.Format(time.RFC3339))
	return nil
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}
