package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/urfave/cli/v2"

	"github.com/photon-storage/go-common/log"

	"github.com/photon-storage/idea-market/cmd"
	"github.com/photon-storage/idea-market/cmd/runtime/version"
	"github.com/photon-storage/idea-market/config"
	"github.com/photon-storage/idea-market/database"
	"github.com/photon-storage/idea-market/relay"
)

func main() {
	app := cli.App{
		Name:    "idea-market-relay",
		Usage:   "publishes committed market events to a redis stream",
		Action:  exec,
		Version: version.Get(),
		Flags:   append([]cli.Flag{cmd.ConfigPathFlag}, cmd.LogFlags...),
		Before:  cmd.InitLog,
	}

	if err := app.Run(os.Args); err != nil {
		log.Error("running relay application failed", "error", err)
	}
}

func exec(ctx *cli.Context) error {
	cfg := &config.RelayConfig{}
	if err := config.Load(ctx.String(cmd.ConfigPathFlag.Name), cfg); err != nil {
		log.Fatal("fail on read config", "error", err)
	}

	db, err := database.Open(cfg.MySQL, cfg.SQLitePath)
	if err != nil {
		log.Fatal("initialize db error", "error", err)
	}

	publisher, err := relay.NewRedisPublisher(cfg.RedisURL, cfg.Stream)
	if err != nil {
		log.Fatal("initialize redis publisher error", "error", err)
	}
	defer publisher.Close()

	if err := publisher.Ping(ctx.Context); err != nil {
		log.Fatal("redis is unreachable", "error", err)
	}

	r, err := relay.New(
		ctx.Context,
		cfg.RefreshInterval,
		cfg.BatchSize,
		db,
		publisher,
		clock.New(),
	)
	if err != nil {
		log.Fatal("initialize relay error", "error", err)
	}

	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		<-sigc
		log.Info("Got interrupt, shutting down...")

		go r.Stop()
		for i := 10; i > 0; i-- {
			<-sigc
			if i > 1 {
				log.Info("Already shutting down, interrupt more to panic", "times", i-1)
			}
		}
		panic("Panic closing the relay service")
	}()
	r.Run()
	return nil
}
