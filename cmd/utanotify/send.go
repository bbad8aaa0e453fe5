package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/morrisonak/uta-notify-sub001/pkg/delivery"
	"github.com/morrisonak/uta-notify-sub001/pkg/message"
)

func newSendCommand(flags *rootFlags) *cobra.Command {
	var (
		channelName string
		content     string
		incidentID  string
		version     int
		recipients  []string
		routes      []string
		priority    string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Dispatch an alert over one channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseChannel(channelName)
			if err != nil {
				return err
			}

			a, err := buildApp(flags)
			if err != nil {
				return err
			}
			defer a.close()

			cfg := a.cfg.ChannelConfig(t)
			if cfg == nil && !a.cfg.TestMode {
				return fmt.Errorf("channel %s is not configured; pass --test-mode to simulate", t)
			}

			msg := message.New(incidentID, version, content)
			if len(routes) > 0 {
				msg = msg.WithMetadata("routes", routes)
			}
			if priority != "" {
				msg = msg.WithMetadata("priority", priority)
			}
			if err := msg.Validate(); err != nil {
				return err
			}

			d, err := a.tracker.Dispatch(cmd.Context(), t, msg, recipients, cfg)
			if err != nil {
				return err
			}

			switch d.Status {
			case delivery.StatusDelivered:
				fmt.Printf("delivered %s via %s (provider id %s)\n", d.ID, t, d.ProviderMessageID)
			case delivery.StatusPartial:
				fmt.Printf("partially delivered %s via %s: %s\n", d.ID, t, d.FailureReason)
			case delivery.StatusQueued:
				fmt.Printf("delivery %s failed, retry %d scheduled for %s: %s\n",
					d.ID, d.RetryCount, d.NextRetryAt.Format("15:04:05"), d.FailureReason)
			default:
				return fmt.Errorf("delivery %s failed permanently: %s", d.ID, d.FailureReason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&channelName, "channel", "", "channel to send on (email, sms, social, push, signage)")
	cmd.Flags().StringVarP(&content, "message", "m", "", "alert content")
	cmd.Flags().StringVar(&incidentID, "incident", "", "incident identifier")
	cmd.Flags().IntVar(&version, "version", 1, "incident version")
	cmd.Flags().StringSliceVar(&recipients, "to", nil, "recipient (repeatable)")
	cmd.Flags().StringSliceVar(&routes, "route", nil, "affected route code (repeatable)")
	cmd.Flags().StringVar(&priority, "priority", "", "alert priority (low, normal, high, critical)")
	_ = cmd.MarkFlagRequired("channel")
	_ = cmd.MarkFlagRequired("message")

	cmd.Example = strings.TrimSpace(`
  utanotify send --channel sms --message "Red Line delayed 20 min" --to +18015550100
  utanotify send --channel signage --message "Service resumed" --route 701 --priority high`)

	return cmd
}
