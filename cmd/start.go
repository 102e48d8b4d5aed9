package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"dirsync/core/config"
	"dirsync/core/database"
	"dirsync/core/directory"
	"dirsync/core/loader"
	"dirsync/core/logger"
	"dirsync/core/middleware/auth"
	"dirsync/core/middleware/rayid"
	"dirsync/core/reconcile"
	"dirsync/core/script"
	"dirsync/core/storage"
	"dirsync/core/syncoptions"
	"dirsync/feature/audit"
	"dirsync/feature/sync"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the dirsync server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Initialize Storage
		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			logg.Fatal("Failed to create storage client", zap.Error(err))
		}

		if cfg.Sync.Audit || cfg.Sync.TaskSource == syncoptions.TaskSourceStorage {
			if err := storage.EnsureBucket(cmd.Context(), store, cfg.Storage.Bucket, cfg.Storage.Region, logg); err != nil {
				logg.Fatal("Storage bucket unavailable", zap.Error(err))
			}
		}

		// 4. Task policies
		taskLoader, err := cfg.Sync.NewLoader(store, cfg.Storage.Bucket)
		if err != nil {
			logg.Fatal("Failed to configure task loader", zap.Error(err))
		}
		tasks := syncoptions.NewStore(taskLoader, cfg.Sync.CacheTTL())
		reconciler := reconcile.New(script.NewCUE(), logg, reconcile.WithPeopleContainer(cfg.Sync.PeopleContainer))

		opts := []sync.ServiceOption{sync.WithApply(cfg.Server.AllowsApply())}
		if cfg.Sync.Audit {
			opts = append(opts, sync.WithAudit(audit.NewWriter(store, cfg.Storage.Bucket, cfg.Sync.AuditPrefix, logg)))
		}

		// 5. Connectors (Optional)
		// Without both the source database and the directory, only previews are served.
		db, dbErr := database.Connect(cfg.Database)
		if dbErr != nil {
			logg.Warn("Optional database connection failed", zap.Error(dbErr))
		}
		dir, dirErr := directory.Dial(cfg.Directory, logg)
		if dirErr != nil {
			logg.Warn("Optional directory connection failed", zap.Error(dirErr))
		} else {
			defer dir.Close()
		}
		if dbErr == nil && dirErr == nil {
			opts = append(opts, sync.WithConnectors(sync.SQLSources(db), dir))
			logg.Info("Connected to source database and directory", zap.String("base_dn", cfg.Directory.BaseDN))
		}

		// 6. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// 7. Initialize Feature Loader
		mgr := loader.NewManager()
		mgr.Register(sync.NewFeature(sync.NewService(tasks, reconciler, logg, opts...)))

		// RayID must be first to trace everything
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// 8. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 9. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port), zap.String("mode", cfg.Server.Mode))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 10. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
