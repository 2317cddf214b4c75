package main

import (
	"os"

	"github.com/benbjohnson/clock"
	"github.com/urfave/cli/v2"

	"github.com/photon-storage/go-common/log"

	"github.com/photon-storage/idea-market/api/server"
	"github.com/photon-storage/idea-market/api/service"
	"github.com/photon-storage/idea-market/cmd"
	"github.com/photon-storage/idea-market/cmd/runtime/version"
	"github.com/photon-storage/idea-market/config"
	"github.com/photon-storage/idea-market/database"
)

func main() {
	app := cli.App{
		Name:    "idea-market-api",
		Usage:   "serves the idea market over http",
		Action:  exec,
		Version: version.Get(),
		Flags:   append([]cli.Flag{cmd.ConfigPathFlag}, cmd.LogFlags...),
		Before:  cmd.InitLog,
	}

	if err := app.Run(os.Args); err != nil {
		log.Error("running api application failed", "error", err)
	}
}

func exec(ctx *cli.Context) error {
	cfg := &config.APIConfig{}
	if err := config.Load(ctx.String(cmd.ConfigPathFlag.Name), cfg); err != nil {
		log.Fatal("reading api config failed", "error", err)
	}

	db, err := database.Open(cfg.MySQL, cfg.SQLitePath)
	if err != nil {
		log.Fatal("initialize db error", "error", err)
	}

	server.New(
		cfg.Port,
		service.New(db, clock.New(), cfg.AssetDecimals),
		[]byte(cfg.JWTSecret),
		cfg.CORSOrigins,
	).Run()
	return nil
}
