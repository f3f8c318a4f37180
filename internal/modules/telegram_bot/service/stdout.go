package service

import (
	"context"

	"go.uber.org/zap"
)

// Stdout: уведомления в лог, когда Telegram не настроен.
type Stdout struct {
	log *zap.Logger
}

func NewStdout(log *zap.Logger) *Stdout {
	return &Stdout{log: log.Named("notify")}
}

func (s *Stdout) Notify(_ context.Context, text string) bool {
	s.log.Info(text)
	return true
}
