package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/photon-storage/go-common/log"

	"github.com/photon-storage/idea-market/api/auth"
	"github.com/photon-storage/idea-market/cmd"
	"github.com/photon-storage/idea-market/cmd/runtime/version"
	"github.com/photon-storage/idea-market/config"
	"github.com/photon-storage/idea-market/database"
	"github.com/photon-storage/idea-market/database/mysql"
)

var (
	addrFlag = &cli.StringFlag{
		Name:     "addr",
		Usage:    "Base58 principal the token is issued for",
		Required: true,
	}

	ttlFlag = &cli.DurationFlag{
		Name:  "ttl",
		Usage: "Token lifetime",
		Value: 24 * time.Hour,
	}
)

func main() {
	app := cli.App{
		Name:    "idea-market-admin",
		Usage:   "operational tasks for the idea market",
		Version: version.Get(),
		Flags:   append([]cli.Flag{cmd.ConfigPathFlag}, cmd.LogFlags...),
		Before:  cmd.InitLog,
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "create or update the database schema",
				Action: migrate,
			},
			{
				Name:   "token",
				Usage:  "issue a bearer token for a principal",
				Flags:  []cli.Flag{addrFlag, ttlFlag},
				Action: token,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error("running admin application failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(ctx *cli.Context) (*config.APIConfig, error) {
	cfg := &config.APIConfig{}
	if err := config.Load(ctx.String(cmd.ConfigPathFlag.Name), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func migrate(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.MySQL, cfg.SQLitePath)
	if err != nil {
		return err
	}
	if cfg.SQLitePath == "" {
		if err := mysql.Migrate(db); err != nil {
			return err
		}
	}

	log.Info("schema migrated")
	return nil
}

func token(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	addr := ctx.String(addrFlag.Name)
	if raw, err := base58.Decode(addr); err != nil || len(raw) != 32 {
		return errors.Errorf("invalid principal %q", addr)
	}

	tok, err := auth.Issue([]byte(cfg.JWTSecret), addr, ctx.Duration(ttlFlag.Name), time.Now())
	if err != nil {
		return err
	}

	fmt.Println(tok)
	return nil
}
