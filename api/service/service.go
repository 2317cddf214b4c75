package service

import (
	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/photon-storage/idea-market/api/util"
	"github.com/photon-storage/idea-market/market"
)

// Service defines an instance of service that handles third-party requests.
type Service struct {
	market   *market.Market
	db       *gorm.DB
	clock    clock.Clock
	decimals uint8
}

// New creates a new service instance. Writes go through the market,
// list reads query db directly.
func New(db *gorm.DB, clk clock.Clock, decimals uint8) *Service {
	return &Service{
		market:   market.New(db, clk),
		db:       db,
		clock:    clk,
		decimals: decimals,
	}
}

func (s *Service) amount(v uint64) string {
	return util.FormatAmount(v, s.decimals)
}

type pingResp struct {
	Pong string `json:"pong"`
}

func (s *Service) Ping(_ *gin.Context) (*pingResp, error) {
	return &pingResp{Pong: "pong"}, nil
}
