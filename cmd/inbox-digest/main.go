package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mikey/inbox-digest/internal/core"
	"github.com/mikey/inbox-digest/internal/di"
	"go.uber.org/zap"
)

var (
	userID  = flag.String("user", "", "User ID to sync")
	archive = flag.String("archive", "", "Archive a message instead of syncing (provider:messageID)")
)

func main() {
	flag.Parse()

	if *userID == "" {
		fmt.Println("Usage: inbox-digest -user <user-id> [-archive provider:messageID]")
		os.Exit(1)
	}

	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	syncService *core.SyncService,
	modelClient core.ModelClient,
	cacheRepo core.CacheRepository,
	userStore core.UserStore,
) error {
	defer logger.Sync()
	defer shutdown(logger, modelClient, cacheRepo, userStore)

	ctx := context.Background()

	if *archive != "" {
		provider, messageID, ok := strings.Cut(*archive, ":")
		if !ok {
			return fmt.Errorf("invalid archive target %q, expected provider:messageID", *archive)
		}
		if !syncService.ArchiveEmail(ctx, *userID, core.Provider(provider), messageID) {
			return fmt.Errorf("failed to archive message %s on %s", messageID, provider)
		}
		logger.Info("Message archived",
			zap.String("provider", provider),
			zap.String("message_id", messageID))
		return nil
	}

	digest, err := syncService.SyncOnOpen(ctx, *userID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(digest)
}

// shutdown closes any resources that need closing
func shutdown(
	logger *zap.Logger,
	modelClient core.ModelClient,
	cacheRepo core.CacheRepository,
	userStore core.UserStore,
) {
	if closer, ok := modelClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close model client", zap.Error(err))
		}
	}

	if stopper, ok := cacheRepo.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	if err := userStore.Close(); err != nil {
		logger.Error("Failed to close user store", zap.Error(err))
	}
}
