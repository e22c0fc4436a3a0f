package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/iliyamo/quiz-api/internal/mail"
	"github.com/iliyamo/quiz-api/internal/queue"
)

func newWorkerCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Deliver queued emails over SMTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sender, err := mail.NewSender(a.cfg.Mail, a.log)
			if err != nil {
				return err
			}
			c := queue.NewConsumer(a.cfg.RabbitURL, a.cfg.EmailQueue, sender.Send, a.log)
			a.log.Info("email worker started")
			if err := c.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
