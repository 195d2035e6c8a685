// team/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ftotnem/GO-TEAMS/shared/api"
	"github.com/Ftotnem/GO-TEAMS/shared/cluster"
	"github.com/Ftotnem/GO-TEAMS/shared/config"
	mongodbu "github.com/Ftotnem/GO-TEAMS/shared/mongodb"
	redisu "github.com/Ftotnem/GO-TEAMS/shared/redis"
	"github.com/Ftotnem/GO-TEAMS/shared/registry"
	teamapi "github.com/Ftotnem/GO-TEAMS/team/api"
	"github.com/Ftotnem/GO-TEAMS/team/lock"
	"github.com/Ftotnem/GO-TEAMS/team/reconciler"
	"github.com/Ftotnem/GO-TEAMS/team/service"
	"github.com/Ftotnem/GO-TEAMS/team/store"
	"github.com/redis/go-redis/v9"
)

const serviceType = "team-service"

// openStores connects the configured backend. The returned func releases its connections.
func openStores(cfg *config.TeamServiceConfig) (store.PlayerStore, store.TeamStore, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		log.Println("WARN: Using in-memory stores. Data will not survive a restart.")
		return store.NewMemoryPlayerStore(), store.NewMemoryTeamStore(), func() {}, nil

	case config.StorePostgres:
		db, err := store.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				if err := sqlDB.Close(); err != nil {
					log.Printf("ERROR: Failed to close PostgreSQL pool: %v", err)
				}
			}
			log.Println("INFO: Disconnected from PostgreSQL.")
		}
		return store.NewPostgresPlayerStore(db), store.NewPostgresTeamStore(db), closeDB, nil

	default:
		mongoClient, err := mongodbu.NewClient(context.Background(), cfg.MongoDBConnStr, cfg.MongoDBDatabase)
		if err != nil {
			return nil, nil, nil, err
		}
		closeMongo := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mongoClient.Disconnect(ctx); err != nil {
				log.Printf("ERROR: Failed to disconnect from MongoDB: %v", err)
			}
		}

		playerStore := store.NewMongoPlayerStore(mongoClient.Collection(cfg.MongoDBPlayersCollection))
		teamStore := store.NewMongoTeamStore(mongoClient.Collection(cfg.MongoDBTeamCollection))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := playerStore.EnsureIndexes(ctx); err != nil {
			closeMongo()
			return nil, nil, nil, fmt.Errorf("failed to ensure player indexes: %w", err)
		}
		if err := teamStore.EnsureIndexes(ctx); err != nil {
			closeMongo()
			return nil, nil, nil, fmt.Errorf("failed to ensure team indexes: %w", err)
		}
		return playerStore, teamStore, closeMongo, nil
	}
}

func main() {
	// --- 1. Load Configuration ---
	cfg, err := config.LoadTeamServiceConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// --- 2. Connect to the Store Backend ---
	playerStore, teamStore, closeStores, err := openStores(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s stores: %v", cfg.StoreBackend, err)
	}
	defer closeStores()

	// --- 3. Connect to Redis (lock backend and registry only) ---
	var redisClient redis.UniversalClient
	if cfg.NeedsRedis() {
		redisClient, err = redisu.NewRedisClient(cfg.RedisAddrs, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("ERROR: Error closing Redis client: %v", err)
			}
		}()
	}

	// --- 4. Initialize the Lock Manager ---
	var locker lock.Locker
	if cfg.LockBackend == config.LockRedis {
		locker = lock.NewRedis(redisClient, cfg.LockTTL)
		log.Printf("INFO: Using Redis locks (ttl %v).", cfg.LockTTL)
	} else {
		locker = lock.NewLocal()
		log.Println("INFO: Using in-process locks. Run a single instance or switch TEAM_LOCK_BACKEND to redis.")
	}

	// --- 5. Initialize Business Logic Services ---
	issuer, err := service.NewTokenIssuerWithDigest(cfg.TokenDigest)
	if err != nil {
		log.Fatalf("Failed to initialize token issuer: %v", err)
	}
	playerService := service.NewPlayerService(playerStore, issuer, locker, cfg.LockWaitTimeout)
	teamService := service.NewTeamService(teamStore, playerStore, locker, nil, service.TeamServiceOptions{
		LockWait:     cfg.LockWaitTimeout,
		CreationCost: cfg.TeamCreationCost,
		SampleLimit:  cfg.TeamSampleLimit,
	})

	// --- 6. Seed Demo Data ---
	if cfg.SeedDemoData {
		seedCtx, seedCancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := service.NewSeeder(teamStore, playerStore, issuer, nil).SeedDemoData(seedCtx, service.DefaultSeedTeams, 10)
		seedCancel()
		if err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
	}

	// --- 7. Register with the Service Registry ---
	var assigner reconciler.Assigner
	if cfg.RegistryEnabled {
		registrar := registry.NewServiceRegistrar(redisClient, serviceType, &cfg.CommonConfig)
		registrar.Start()
		defer registrar.Stop()

		assignmentManager := cluster.NewServiceAssignmentManager(
			registry.NewRegistryClient(redisClient, cfg.HeartbeatTTL),
			registrar,
			cfg.HeartbeatInterval,
		)
		go assignmentManager.Start()
		defer assignmentManager.Stop()
		assigner = assignmentManager
	}

	// --- 8. Start the Reconciler ---
	if cfg.ReconcileInterval > 0 {
		rec := reconciler.NewReconciler(teamStore, playerStore, locker, assigner, cfg.ReconcileInterval, cfg.LockWaitTimeout)
		go rec.Start()
		defer rec.Stop()
	} else {
		log.Println("INFO: Reconciler disabled (RECONCILE_INTERVAL=0).")
	}

	// --- 9. Setup HTTP Server and Register Routes ---
	baseServer := api.NewBaseServer(cfg.ListenAddr, log.Default())
	teamapi.NewTeamAPIHandlers(playerService, teamService).RegisterRoutes(baseServer.Router)

	// --- 10. Start HTTP Server ---
	go func() {
		if err := baseServer.Start(); err != nil {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// --- 11. Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := baseServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: HTTP server graceful shutdown failed: %v", err)
	}
	log.Println("INFO: Server gracefully stopped.")
}
