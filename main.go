package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/udonthavemotion/BRISClothing/config"
	"github.com/udonthavemotion/BRISClothing/lib/myhttpclient"
	"github.com/udonthavemotion/BRISClothing/lib/mytime"
	"github.com/udonthavemotion/BRISClothing/services/checkoutstripe"
	"github.com/udonthavemotion/BRISClothing/services/crmrelay"
	"github.com/udonthavemotion/BRISClothing/services/orderbackup"
	"github.com/udonthavemotion/BRISClothing/services/orderview"
)

func main() {
	c := context.Background()

	// Local development convenience, a missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %s", err)
	}

	nower := mytime.RealNower{}

	orderStore, err := orderbackup.NewFileStore(cfg.BackupDir, nower)
	if err != nil {
		log.Fatalf("Error creating order backup store: %s", err)
	}

	router := mux.NewRouter()

	checkoutService, err := checkoutstripe.NewWebService(checkoutstripe.Config{
		APIKey:            cfg.StripeSecretKey,
		WebhookSecret:     cfg.StripeWebhookSecret,
		StorefrontBaseURL: cfg.StorefrontBaseURL,
		LineItemMode:      cfg.CheckoutLineItems,
	}, checkoutstripe.NewPayer(), orderStore, nower, cfg.AllowedOrigins)
	if err != nil {
		log.Fatalf("Error creating checkout service: %s", err)
	}
	err = checkoutService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering checkout endpoints: %s", err)
	}

	crmService := crmrelay.NewWebService(cfg.GHLWebhookURL, myhttpclient.New(), nower, cfg.AllowedOrigins)
	err = crmService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering crm relay endpoints: %s", err)
	}

	orderviewService := orderview.NewWebService(orderStore, nower)
	err = orderviewService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering order view endpoints: %s", err)
	}

	startWebServerBlocking(router, cfg.Port)
}

func startWebServerBlocking(router *mux.Router, port string) {
	log.Printf("Starting webserver on port %s (try http://localhost:%s)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%s", port), router)
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}
