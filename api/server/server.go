package server

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/photon-storage/go-common/log"

	"github.com/photon-storage/idea-market/api/auth"
	"github.com/photon-storage/idea-market/api/service"
)

// Server defines an instance of a server that handles the requests of
// the third-party application.
type Server struct {
	port   int
	engine *gin.Engine
}

// New returns a new instance of the server. Write routes require a
// bearer token signed with secret.
func New(
	port int,
	svc *service.Service,
	secret []byte,
	corsOrigins []string,
) *Server {
	if err := service.RegisterValidations(); err != nil {
		log.Fatal("register request validations failed", "error", err)
	}

	server := &Server{
		port:   port,
		engine: gin.Default(),
	}

	server.engine.Use(corsHandler(corsOrigins))
	server.registerRouter(svc, secret)
	return server
}

func corsHandler(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}

	return cors.New(cfg)
}

func (s *Server) registerRouter(svc *service.Service, secret []byte) {
	s.engine.Use(handleError())
	g := s.engine.Group("market/v1")

	g.GET("ping", s.handle(svc.Ping))
	g.GET("config", s.handle(svc.Config))
	g.GET("ideas", s.handle(svc.Ideas))
	g.GET("idea", s.handle(svc.Idea))
	g.GET("stake", s.handle(svc.StakePosition))
	g.GET("proposals", s.handle(svc.Proposals))
	g.GET("proposal", s.handle(svc.Proposal))
	g.GET("vote", s.handle(svc.Vote))
	g.GET("escrow", s.handle(svc.Escrow))
	g.GET("reputation", s.handle(svc.Reputation))
	g.GET("balance", s.handle(svc.Balance))

	w := g.Group("", auth.Middleware(secret))
	w.POST("config/init", s.handle(svc.InitConfig))
	w.POST("config/committee", s.handle(svc.SetCommittee))
	w.POST("ideas", s.handle(svc.CreateIdea))
	w.POST("ideas/voting", s.handle(svc.StartVoting))
	w.POST("ideas/stake", s.handle(svc.Stake))
	w.POST("ideas/refund", s.handle(svc.RefundStake))
	w.POST("ideas/finalize", s.handle(svc.FinalizeWinner))
	w.POST("proposals", s.handle(svc.SubmitProposal))
	w.POST("votes", s.handle(svc.CastVote))
	w.POST("milestones/proof", s.handle(svc.SubmitMilestoneProof))
	w.POST("milestones/approve", s.handle(svc.ApproveAndRelease))
	w.POST("deposits", s.handle(svc.Deposit))
	w.POST("deposits/native", s.handle(svc.DepositNative))
}

// Run the server
func (s *Server) Run() {
	if err := s.engine.Run(fmt.Sprintf(":%d", s.port)); err != nil {
		log.Error("run the server failed", "error", err)
		os.Exit(1)
	}
}
