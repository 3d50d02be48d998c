package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kasseapparat/internal/api"
	"kasseapparat/internal/auth"
	"kasseapparat/internal/config"
	"kasseapparat/internal/database"
	"kasseapparat/internal/handlers"
	"kasseapparat/internal/middleware"
	"kasseapparat/internal/repositories"
	"kasseapparat/internal/services"
	"kasseapparat/internal/ws"

	"github.com/go-chi/chi/v5"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Remote API client with a self-refreshing bearer session
	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout)
	tokens := auth.NewTokenProvider(func(ctx context.Context) (*auth.Session, error) {
		return client.RefreshSession(ctx, cfg.API.RefreshToken)
	})
	client.UseTokens(tokens)

	// Local purchase history cache
	var store services.HistoryStore
	db, err := database.NewConnection(cfg.Cache.Path)
	if err != nil {
		log.Printf("Warning: failed to open purchase cache: %v", err)
		log.Println("Continuing without a local purchase cache...")
	} else {
		defer db.Close()
		if err := database.NewMigrator(db.DB).RunMigrations(); err != nil {
			log.Fatal("Failed to migrate purchase cache:", err)
		}
		store = repositories.NewPurchaseHistoryRepository(db.DB)
	}

	// Services
	history := services.NewHistoryService(client, store)
	products := services.NewProductService(client)
	dialer := ws.NewDialer(cfg.API.SocketURL, tokens, cfg.Checkout.ConnectTimeout)
	checkout := services.NewCheckoutService(
		client,
		services.DialerFunc(func(ctx context.Context, purchaseID int) (services.ConfirmationStream, error) {
			return dialer.Dial(ctx, purchaseID)
		}),
		history,
		products,
		services.CheckoutConfig{
			ConfirmationTimeout: cfg.Checkout.ConfirmationTimeout,
			GracePeriod:         cfg.Checkout.GracePeriod,
			ReaderID:            cfg.API.ReaderID,
		},
	)
	guestlist := services.NewGuestlistService(client, checkout)

	// Seed local state; the till stays usable on cached data when the
	// network is down.
	if err := history.LoadFromCache(); err != nil {
		log.Printf("Warning: failed to load purchase cache: %v", err)
	}
	startupCtx, cancel := context.WithTimeout(context.Background(), cfg.API.Timeout)
	if err := products.Refresh(startupCtx); err != nil {
		log.Printf("Warning: failed to fetch products: %v", err)
	}
	if err := history.Reload(startupCtx); err != nil {
		log.Printf("Warning: failed to fetch purchase history: %v", err)
	}
	cancel()

	// Handlers
	cartHandler := handlers.NewCartHandler(checkout, products)
	checkoutHandler := handlers.NewCheckoutHandler(checkout)
	catalogHandler := handlers.NewCatalogHandler(products, guestlist)
	historyHandler := handlers.NewHistoryHandler(checkout, history)

	r := chi.NewRouter()
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.CORSMiddleware([]string{"*"}))

	r.Get("/cart", cartHandler.GetCart)
	r.Post("/cart/items", cartHandler.AddItem)
	r.Delete("/cart/items/{productID}", cartHandler.RemoveItem)
	r.Delete("/cart", cartHandler.ClearCart)

	r.Post("/checkout", checkoutHandler.Checkout)
	r.Post("/checkout/cancel", checkoutHandler.Cancel)
	r.Get("/checkout", checkoutHandler.Status)

	r.Get("/products", catalogHandler.ListProducts)
	r.Post("/products/refresh", catalogHandler.RefreshProducts)
	r.Get("/guestlist", catalogHandler.SearchGuestlist)

	r.Get("/purchases", historyHandler.ListPurchases)
	r.Post("/purchases/reload", historyHandler.ReloadPurchases)
	r.Post("/purchases/{purchaseID}/refund", historyHandler.RefundPurchase)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	server := &http.Server{
		Addr:    addr,
		Handler: r,
		// No write timeout: the checkout endpoint legitimately blocks for
		// up to the confirmation timeout.
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Kasseapparat till listening on http://%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed:", err)
		}
	}()

	// Graceful shutdown; a checkout in flight gets the confirmation
	// timeout to resolve before the context is pulled.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: shutdown did not complete cleanly: %v", err)
	}
}
