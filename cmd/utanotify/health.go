package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand(flags *rootFlags) *cobra.Command {
	var channelName string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe connectivity for configured channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(flags)
			if err != nil {
				return err
			}
			defer a.close()

			types := a.cfg.ConfiguredChannels()
			if channelName != "" {
				t, err := parseChannel(channelName)
				if err != nil {
					return err
				}
				types = types[:0]
				types = append(types, t)
			}
			if len(types) == 0 {
				return fmt.Errorf("no channels configured")
			}

			unhealthy := 0
			for _, t := range types {
				status := a.registry.TestConnection(cmd.Context(), t, a.cfg.ChannelConfig(t))
				if status.Healthy {
					fmt.Printf("%-8s healthy   %s\n", t, status.Message)
				} else {
					unhealthy++
					fmt.Printf("%-8s unhealthy %s\n", t, status.Message)
				}
			}
			if unhealthy > 0 {
				return fmt.Errorf("%d channel(s) unhealthy", unhealthy)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&channelName, "channel", "", "probe a single channel")
	return cmd
}
