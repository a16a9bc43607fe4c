package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/studiocraft/storefront/config"
	"github.com/studiocraft/storefront/internal/adminapi"
	"github.com/studiocraft/storefront/internal/app"
	"github.com/studiocraft/storefront/internal/shopapi"
	"github.com/studiocraft/storefront/internal/webserver"
)

var (
	h         = flag.Bool("h", false, "help usage")
	showVer   = flag.Bool("v", false, "show version")
	conffile  = flag.String("c", "", "config yaml file")
	dev       = flag.Bool("dev", false, "run develop mode")
	initDb    = flag.Bool("initdb", false, "drop all tables and create them again")
	seed      = flag.Bool("seed", false, "seed default settings and demo catalog, then exit")
	printConf = flag.Bool("printconf", false, "print the effective configuration")
)

const version = "1.0.0"

func printHelp() {
	if *h {
		ustr := fmt.Sprintf("storefront version: %s, Usage: storefront -h\nOptions:", version)
		_, _ = fmt.Fprintln(os.Stderr, ustr)
		flag.PrintDefaults()
		os.Exit(0)
	}
}

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())
	flag.Parse()

	if *showVer {
		fmt.Println(version)
		os.Exit(0)
	}

	printHelp()

	cfg := config.LoadConfig(*conffile)
	if *dev {
		cfg.System.Debug = true
		cfg.Logger.Mode = "development"
	}

	if *printConf {
		fmt.Printf("%+v\n", *cfg)
		os.Exit(0)
	}

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initDb {
		application.InitDb()
		application.SeedDefaults()
		zap.S().Info("database initialized")
		return
	}

	if *seed {
		application.SeedDefaults()
		zap.S().Info("default settings and demo catalog seeded")
		return
	}

	webserver.Init(application)
	adminapi.Init()
	shopapi.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application.StartBackgroundJobs(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := webserver.Listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.S().Info("shutting down web server")
		sctx, cancel := context.WithTimeout(context.Background(), webserver.ShutdownTimeout)
		defer cancel()
		return webserver.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		zap.S().Errorf("storefront stopped: %v", err)
		application.Release()
		os.Exit(1)
	}
}
