// Package main is the message-selection service.
//
// Defaults come from NUDGE_* environment variables, which can be
// set in a .env file.  Flags override them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Comcast/nudge/core"
	"github.com/Comcast/nudge/interpreters"
	"github.com/Comcast/nudge/interpreters/goja"
	"github.com/Comcast/nudge/service"
	"github.com/Comcast/nudge/sio"
	"github.com/Comcast/nudge/storage"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := service.ConfigFromEnv()

	var (
		addr            = flag.String("h", cfg.Addr, "HTTP service address")
		catalogFile     = flag.String("catalog", cfg.CatalogFile, "catalog filename")
		catalogWatch    = flag.Bool("catalog-watch", cfg.CatalogWatch, "reload the catalog file when it changes")
		catalogURL      = flag.String("catalog-url", cfg.CatalogURL, "catalog URL (polled)")
		catalogInterval = flag.Duration("catalog-interval", cfg.CatalogInterval, "catalog URL poll interval (0 to disable)")
		broker          = flag.String("mqtt", cfg.MQTTBroker, "optional MQTT broker (e.g. tcp://localhost)")
		port            = flag.Int("mqtt-port", cfg.MQTTPort, "MQTT broker port")
		clientId        = flag.String("mqtt-client-id", cfg.MQTTClientId, "MQTT client id")
		catalogTopic    = flag.String("catalog-topic", cfg.CatalogTopic, "MQTT catalog topic (TOPIC:QOS)")
		exposureTopic   = flag.String("exposure-topic", cfg.ExposureTopic, "MQTT exposure topic (TOPIC:QOS)")
		storeKind       = flag.String("store", cfg.StoreKind, "metadata store: "+strings.Join(storage.Kinds, ", "))
		storePath       = flag.String("store-path", cfg.StorePath, "metadata store file or directory")
		interpreter     = flag.String("i", cfg.Interpreter, "trigger interpreter")
		libDir          = flag.String("libs", cfg.LibDir, "optional directory of JavaScript trigger libraries")
		websockets      = flag.Bool("w", cfg.Websockets, "serve websockets at /ws/api")
		debug           = flag.Bool("debug", false, "development logging")
	)

	flag.Parse()

	var (
		logger *zap.Logger
		err    error
	)
	if *debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	holder := sio.NewHolder(nil)

	var (
		couplings []sio.Couplings
		exposures = sio.MultiExposures{&sio.LoggingExposures{Logger: logger}}
	)

	if *catalogFile != "" {
		couplings = append(couplings, sio.NewFileCouplings(*catalogFile, *catalogWatch, holder, logger))
	}
	if *catalogURL != "" {
		c, err := sio.NewHTTPCouplings(*catalogURL, *catalogInterval, holder, logger)
		if err != nil {
			logger.Fatal("HTTP couplings", zap.Error(err))
		}
		couplings = append(couplings, c)
	}
	if *broker != "" {
		o := sio.DefaultMQTTOptions()
		o.Broker = *broker
		o.Port = *port
		o.ClientId = *clientId
		o.CatalogTopic = *catalogTopic
		o.ExposureTopic = *exposureTopic
		c, err := sio.NewMQTTCouplings(o, holder, logger)
		if err != nil {
			logger.Fatal("MQTT couplings", zap.Error(err))
		}
		couplings = append(couplings, c)
		exposures = append(exposures, c)
	}
	if len(couplings) == 0 {
		logger.Warn("no catalog source configured")
	}

	for _, c := range couplings {
		if err := c.Start(ctx); err != nil {
			logger.Fatal("couplings start", zap.Error(err))
		}
		defer c.Stop(context.Background())
	}

	platforms := interpreters.Standard()
	platform, have := platforms[*interpreter]
	if !have {
		logger.Fatal("unknown interpreter", zap.String("interpreter", *interpreter))
	}
	if g, is := platform.(*goja.Interpreter); is {
		g.Logger = logger
		if *libDir != "" {
			names, err := filepath.Glob(filepath.Join(*libDir, "*.js"))
			if err != nil {
				logger.Fatal("libraries", zap.Error(err))
			}
			for _, name := range names {
				g.Libraries = append(g.Libraries, filepath.Base(name))
			}
			g.LibraryProvider = goja.MakeFileLibraryProvider(*libDir)
		}
	}

	store, err := storage.Open(ctx, *storeKind, *storePath)
	if err != nil {
		logger.Fatal("storage", zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Error("storage close", zap.Error(err))
		}
	}()

	m := core.NewMessaging(holder, store, platform, exposures)
	m.Logger = logger

	s := service.NewService(m, logger)
	s.Websockets = *websockets

	if err = s.ListenAndServe(ctx, *addr); err != nil {
		logger.Error("service", zap.Error(err))
	}

	logger.Info("nudged terminating")
}
