package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pleb-devs/pleb-wallet-backend/controllers"
	"github.com/pleb-devs/pleb-wallet-backend/cursor"
	"github.com/pleb-devs/pleb-wallet-backend/db"
	"github.com/pleb-devs/pleb-wallet-backend/db/migrations"
	"github.com/pleb-devs/pleb-wallet-backend/ledger"
	"github.com/pleb-devs/pleb-wallet-backend/lib/logging"
	"github.com/pleb-devs/pleb-wallet-backend/lib/service"
	"github.com/pleb-devs/pleb-wallet-backend/lnd"
	"github.com/pleb-devs/pleb-wallet-backend/rabbitmq"
	"github.com/uptrace/bun/migrate"
)

func main() {

	c := &service.Config{}

	// Load configuration from environment variables
	err := godotenv.Load(".env")
	if err != nil {
		fmt.Println("Failed to load .env file")
	}
	err = envconfig.Process("", c)
	if err != nil {
		log.Fatalf("Error loading environment variables: %v", err)
	}

	// Setup logging to STDOUT or a configured log file
	logger := logging.Logger(c.LogFilePath)

	// Open a DB connection based on the configured DATABASE_URI
	dbConn, err := db.Open(c)
	if err != nil {
		logger.Fatalf("Error initializing db connection: %v", err)
	}
	defer dbConn.Close()

	// Migrate the DB
	startupCtx := context.Background()
	migrator := migrate.NewMigrator(dbConn, migrations.Migrations)
	err = migrator.Init(startupCtx)
	if err != nil {
		logger.Fatalf("Error initializing db migrator: %v", err)
	}
	_, err = migrator.Migrate(startupCtx)
	if err != nil {
		logger.Fatalf("Error migrating database: %v", err)
	}

	// Setup exception tracking with Sentry if configured
	// sentry init needs to happen before the echo middlewares are added
	if c.SentryDSN != "" {
		if err = sentry.Init(sentry.ClientOptions{
			Dsn: c.SentryDSN,
		}); err != nil {
			logger.Errorf("sentry init error: %v", err)
		}
	}

	// Init new LND client
	lndCfg, err := lnd.LoadConfig()
	if err != nil {
		logger.Fatalf("Error loading LND config: %v", err)
	}
	lndClient, err := initLNDClient(lndCfg, startupCtx)
	if err != nil {
		logger.Fatalf("Error initializing the LND connection: %v", err)
	}
	defer lndClient.Close()
	logger.Infof("Connected to LND: %s", lndClient.GetMainPubkey())

	// Open the bbolt file holding the subscription resume point
	cursorStore, err := cursor.OpenBoltStore(c.CursorFilePath)
	if err != nil {
		logger.Fatalf("Error opening cursor store at %s: %v", c.CursorFilePath, err)
	}
	defer cursorStore.Close()

	// If no RABBITMQ_URI was provided we will not attempt to create a client
	// and the subscription runs over the LND gRPC stream.
	var rabbitmqClient rabbitmq.Client
	if c.RabbitMQUri != "" {
		rabbitmqClient, err = rabbitmq.Dial(c.RabbitMQUri,
			rabbitmq.WithLogger(logger),
			rabbitmq.WithLndInvoiceExchange(c.RabbitMQLndInvoiceExchange),
			rabbitmq.WithLndInvoiceConsumerQueueName(c.RabbitMQInvoiceConsumerQueueName),
		)
		if err != nil {
			logger.Fatal(err)
		}

		// close the connection gently at the end of the runtime
		defer rabbitmqClient.Close()
	}

	svc := &service.WalletService{
		Config:         c,
		DB:             dbConn,
		Ledger:         ledger.NewBunStore(dbConn),
		CursorStore:    cursorStore,
		LndClient:      lndClient,
		Logger:         logger,
		InvoicePubSub:  service.NewPubsub(),
		RabbitMQClient: rabbitmqClient,
	}

	// init echo server
	e := initEcho(c, logger)

	logMw := createLoggingMiddleware(logger)
	// strict rate limit for requests that hit the node
	strictRateLimitMw := createRateLimitMiddleware(c.StrictRateLimit, c.BurstRateLimit)
	cacheClient := createCacheClient()

	addInvoiceCtrl := controllers.NewAddInvoiceController(svc)
	payInvoiceCtrl := controllers.NewPayInvoiceController(svc)
	balanceCtrl := controllers.NewBalanceController(svc)
	getInfoCtrl := controllers.NewGetInfoController(svc)
	invoicesCtrl := controllers.NewInvoicesController(svc)

	e.POST("/addinvoice", addInvoiceCtrl.AddInvoice, strictRateLimitMw, logMw)
	e.POST("/payinvoice", payInvoiceCtrl.PayInvoice, strictRateLimitMw, logMw)
	e.GET("/balance", balanceCtrl.Balance, logMw)
	e.GET("/getinfo", getInfoCtrl.GetInfo, cacheClient.Middleware(), logMw)
	e.GET("/invoices", invoicesCtrl.Invoices, logMw)

	// Start Prometheus server if necessary
	if svc.Config.EnablePrometheus {
		go startPrometheusEcho(logger, svc, e)
	}

	backgroundCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Consume LND invoice updates in the background
	sub := svc.StartSubscription(backgroundCtx)

	// Start server
	go func() {
		if err := e.Start(fmt.Sprintf(":%v", c.Port)); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	<-backgroundCtx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Fatal(err)
	}
	// Wait for the settlement consumer to release the stream so the cursor
	// file is not left mid-write.
	if err := sub.Stop(10 * time.Second); err != nil {
		svc.Logger.Fatal(err)
	}
	svc.Logger.Info("Wallet backend exiting gracefully. Goodbye.")
}
