package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCommand(flags *rootFlags) *cobra.Command {
	var (
		channelName string
		content     string
		format      bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check alert content against a channel's rules",
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

			result, err := a.registry.ValidateMessage(t, content)
			if err != nil {
				return err
			}

			if !result.Valid {
				for _, msg := range result.Errors {
					fmt.Printf("invalid: %s\n", msg)
				}
				return fmt.Errorf("content is not valid for channel %s", t)
			}

			fmt.Printf("content is valid for channel %s\n", t)
			if format {
				formatted, err := a.registry.FormatMessage(t, content)
				if err != nil {
					return err
				}
				fmt.Printf("formatted:\n%s\n", formatted)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&channelName, "channel", "", "channel to validate against")
	cmd.Flags().StringVarP(&content, "message", "m", "", "alert content")
	cmd.Flags().BoolVar(&format, "format", false, "also print the channel-formatted content")
	_ = cmd.MarkFlagRequired("channel")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}
