package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/yoyow-org/yoyow-core-sub001/config"
	"github.com/yoyow-org/yoyow-core-sub001/crypto"
	"github.com/yoyow-org/yoyow-core-sub001/observability/logging"
	"github.com/yoyow-org/yoyow-core-sub001/storage"
)

const witnessSigningKeyEnv = "YOYOW_WITNESS_KEY"

func main() {
	configFile := flag.String("config", "./config.toml", "path to the node configuration file")
	genesisFile := flag.String("genesis", "", "path to the genesis manifest (YAML), read once on a fresh data directory")
	env := flag.String("env", "", "deployment environment name, attached to every log line")
	flag.Parse()

	logger := logging.Setup("yoyow-node", *env)
	slog.SetDefault(logger)

	if err := run(logger, *configFile, *genesisFile); err != nil {
		logger.Error("yoyow-node exited with error", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, configFile, genesisFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var manifest *config.GenesisManifest
	if strings.TrimSpace(genesisFile) != "" {
		manifest, err = config.LoadGenesisManifest(genesisFile)
		if err != nil {
			return fmt.Errorf("load genesis manifest: %w", err)
		}
	}

	witnessKey, err := loadWitnessKey(cfg)
	if err != nil {
		return fmt.Errorf("load witness signing key: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("prepare data directory: %w", err)
	}
	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	node, err := NewNode(db, witnessKey, manifest, logger)
	if err != nil {
		return fmt.Errorf("wire node: %w", err)
	}

	logger.Info("yoyow-node ready",
		"data_dir", cfg.DataDir,
		"witness_address", witnessKey.PubKey().Address().String(),
		"mempool_max_bytes", node.Mempool.MaxBytes())

	// Block production, P2P transaction/block propagation, and the RPC
	// query layer are external collaborators this binary does not
	// implement (spec.md §1); Node.SubmitTransaction/Node.ApplyBlock is the
	// surface such a collaborator drives. With none wired in yet, the
	// process simply holds the store open until asked to stop.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logger.Info("yoyow-node shutting down")
	return nil
}

// loadWitnessKey decodes cfg.WitnessSigningKey (a hex-encoded secp256k1
// private key, config.Load's own default generates one). When the
// YOYOW_WITNESS_KEY environment variable is set, it takes precedence over
// the config value, so a deployment can supply the key out of band.
func loadWitnessKey(cfg *config.Config) (*crypto.PrivateKey, error) {
	raw := strings.TrimSpace(cfg.WitnessSigningKey)
	if env := strings.TrimSpace(os.Getenv(witnessSigningKeyEnv)); env != "" {
		raw = env
	}
	if raw == "" {
		return nil, fmt.Errorf("no witness signing key configured")
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode witness signing key: %w", err)
	}
	return crypto.PrivateKeyFromBytes(b)
}
