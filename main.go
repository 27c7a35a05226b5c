package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/crestline-lending/income-engine/client"
	"github.com/crestline-lending/income-engine/config"
	"github.com/crestline-lending/income-engine/extract"
	"github.com/crestline-lending/income-engine/handler"
	"github.com/crestline-lending/income-engine/service"
	"github.com/crestline-lending/income-engine/store"
)

func main() {
	cfg := config.LoadConfig()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	db, err := store.New(cfg.DatabaseDSN, cfg.FileStoreDir, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}

	tesseractClient := client.NewTesseractClient(cfg.TesseractDataPath, log)
	pdfProcessor := extract.NewPDFProcessor()

	pipeline := service.NewPipeline(db, pdfProcessor, tesseractClient, log)

	// Documents stuck in processing past the timeout are swept to failed so a
	// crashed extraction goroutine cannot block qualification forever.
	sweeper := cron.New()
	if _, err := sweeper.AddFunc("@every "+cfg.SweepInterval.String(), func() {
		pipeline.SweepStale(context.Background(), cfg.ProcessingTimeout)
	}); err != nil {
		log.WithError(err).Fatal("failed to schedule stale-document sweep")
	}
	sweeper.Start()
	defer sweeper.Stop()

	documentHandler := handler.NewDocumentHandler(pipeline, db, cfg.MaxFileSize, log)
	calculationHandler := handler.NewCalculationHandler(pipeline, db, log)

	router := gin.Default()
	router.MaxMultipartMemory = 32 << 20

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "Income Qualification Engine",
		})
	})

	api := router.Group("/api/v1")
	{
		borrowers := api.Group("/borrowers/:borrowerID")
		{
			borrowers.POST("/documents", documentHandler.Upload)
			borrowers.GET("/documents", documentHandler.List)
			borrowers.POST("/qualify", calculationHandler.Qualify)
			borrowers.GET("/calculations", calculationHandler.List)
		}

		documents := api.Group("/documents/:documentID")
		{
			documents.GET("", documentHandler.Get)
			documents.DELETE("", documentHandler.Delete)
			documents.POST("/reprocess", documentHandler.Reprocess)
		}

		calculations := api.Group("/calculations/:calculationID")
		{
			calculations.GET("", calculationHandler.Get)
			calculations.GET("/worksheet", calculationHandler.Worksheet)
		}
	}

	log.WithField("port", cfg.ServerPort).Info("starting income qualification engine")
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
}
