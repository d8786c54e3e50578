package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobmarket/config"
	"jobmarket/internal/database"
	"jobmarket/internal/router"
	"jobmarket/internal/service"
	"jobmarket/internal/ws"
	"jobmarket/pkg/cloudinary"
	"jobmarket/pkg/mailer"
	"jobmarket/pkg/payment"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	database.SeedAdmin(db, &cfg.Platform)
	if err := database.SeedSettings(db, &cfg.Platform); err != nil {
		log.Fatalf("seed settings: %v", err)
	}

	cloud, err := cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
	if err != nil {
		log.Fatalf("cloudinary: %v", err)
	}

	ctx := context.Background()
	deps := router.Deps{
		Cloud:   cloud,
		Gateway: payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret),
		Hub:     ws.NewHub(),
	}
	if cfg.Mail.FromAddress != "" {
		m, err := mailer.NewSESMailer(ctx, cfg.Mail.Region, cfg.Mail.FromAddress)
		if err != nil {
			log.Printf("[mail] receipts and reset codes disabled: %v", err)
		} else {
			deps.Mailer = m
		}
	}
	if fcm := service.NewFCMService(ctx, cfg.Firebase.ServiceAccountPath); fcm != nil {
		deps.Pusher = fcm
	}

	engine := router.Setup(cfg, db, deps)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	fmt.Println("server stopped")
}
