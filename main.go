package main

import (
	"log"

	"pulse/config"
	"pulse/models"
	"pulse/routes"
	"pulse/store"
	"pulse/store/gormstore"
	"pulse/store/jsonstore"
	"pulse/store/redisstore"
	"pulse/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	stores, err := buildStores(cfg)
	if err != nil {
		log.Fatalf("failed to initialize %q backend: %v", cfg.Backend, err)
	}

	r := routes.SetupRouter(stores)

	utils.Sugar.Infof("Starting server on port %s (backend=%s, graceful)", cfg.AppPort, cfg.Backend)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

// buildStores selects and wires the persistence backend.
func buildStores(cfg config.AppConfig) (*store.Stores, error) {
	policy := store.MediaPolicy(cfg.MediaPolicy)

	switch cfg.Backend {
	case "mysql", "sqlite":
		db := config.InitDatabase(&models.User{}, &models.Post{}, &models.Comment{}, &models.Like{})
		sink, err := store.NewDiskSink(cfg.UploadDir)
		if err != nil {
			return nil, err
		}
		s := gormstore.New(db, sink, policy)
		return &store.Stores{Identity: s, Content: s, Interactions: s, Media: sink}, nil

	case "redis":
		rdb := utils.GetRedis()
		sink := redisstore.NewBlobSink(rdb)
		s := redisstore.New(rdb, sink, policy)
		return &store.Stores{Identity: s, Content: s, Interactions: s, Media: sink}, nil

	default: // "file"
		js, err := jsonstore.Open(cfg.DataFile)
		if err != nil {
			return nil, err
		}
		sink, err := store.NewDiskSink(cfg.UploadDir)
		if err != nil {
			return nil, err
		}
		content := jsonstore.NewContentStore(js, sink, policy)
		return &store.Stores{Identity: js, Content: content, Interactions: js, Media: sink}, nil
	}
}
