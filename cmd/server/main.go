package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"limitbook/internal/engine"
	"limitbook/internal/wire"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	eng := engine.New("VOC", "MSFT")
	srv := wire.New("0.0.0.0", 9001, eng)

	go func() {
		if err := srv.Run(ctx); err != nil {
			log.Error().Err(err).Msg("wire server stopped")
			os.Exit(1)
		}
	}()

	<-ctx.Done()
}
