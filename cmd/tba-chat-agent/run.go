package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantumauth-io/quantum-go-utils/log"

	clientconfig "github.com/quantumauth-io/tba-chat-agent/cmd/tba-chat-agent/config"
	"github.com/quantumauth-io/tba-chat-agent/internal/agent"
	"github.com/quantumauth-io/tba-chat-agent/internal/assets"
	"github.com/quantumauth-io/tba-chat-agent/internal/calls"
	"github.com/quantumauth-io/tba-chat-agent/internal/chains"
	"github.com/quantumauth-io/tba-chat-agent/internal/constants"
	statushttp "github.com/quantumauth-io/tba-chat-agent/internal/http"
	"github.com/quantumauth-io/tba-chat-agent/internal/identity"
	"github.com/quantumauth-io/tba-chat-agent/internal/messaging"
	"github.com/quantumauth-io/tba-chat-agent/internal/networks"
	"github.com/quantumauth-io/tba-chat-agent/internal/router"
	"github.com/quantumauth-io/tba-chat-agent/internal/securefile"
)

func runAgent(cmd *cobra.Command, _ []string) error {
	log.Info("tba-chat-agent",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := clientconfig.LoadDotEnv(envFile); err != nil {
		log.Fatal("failed to read env file", "path", envFile, "error", err)
	}
	cfg, err := clientconfig.Load()
	if err != nil {
		log.Fatal("failed to parse config", "error", err)
	}
	env, err := clientconfig.LoadEnv()
	if err != nil {
		log.Fatal("failed to read environment", "error", err)
	}
	if err = cfg.ApplyEnvironment(env.MessagingEnv); err != nil {
		log.Fatal("invalid messaging environment", "error", err)
	}

	registry := networks.Default()
	network, err := registry.ResolveNetwork(env.NetworkID)
	if err != nil {
		log.Fatal("unsupported network", "network", env.NetworkID, "error", err)
	}

	wallet, err := identity.ParseWalletKey(env.WalletKey)
	if err != nil {
		log.Fatal("invalid wallet key", "error", err)
	}
	agentAddress := wallet.Address().Hex()

	chainSvc, err := chains.NewChainService(cfg.ChainConfig())
	if err != nil {
		log.Fatal("failed to init chain service", "error", err)
	}
	defer chainSvc.Close()

	chainClient, err := chainSvc.ClientForNetwork(ctx, network.ID)
	if err != nil {
		log.Fatal("failed to connect to network", "network", network.ID, "error", err)
	}

	builder := calls.NewBuilder(registry, calls.Options{
		Presentation: calls.Presentation{
			Hostname:   cfg.Agent.Hostname,
			Title:      cfg.Agent.Title,
			FaviconURL: cfg.Agent.FaviconURL,
		},
		PaymasterURL: cfg.Paymaster.URL,
	})

	commands, err := router.New(router.Config{
		Registry:     registry,
		Network:      network,
		Builder:      builder,
		Balances:     assets.NewService(network, chainClient),
		AgentAddress: agentAddress,
		Options: router.Options{
			AgentName:       cfg.Agent.Name,
			ChatURL:         cfg.Agent.ChatURL,
			SponsorFees:     cfg.Agent.SponsorFees,
			IncludeMetadata: cfg.Agent.IncludeMetadata,
		},
	})
	if err != nil {
		log.Fatal("failed to init command router", "error", err)
	}

	statePath, err := resolveStatePath(cfg.State.Dir, env.MessagingEnv)
	if err != nil {
		log.Fatal("failed to resolve state path", "error", err)
	}

	msgClient, err := messaging.NewClient(messaging.Config{
		URL:               cfg.Relay.URL,
		Env:               env.MessagingEnv,
		SendRatePerSecond: cfg.Relay.SendRatePerSecond,
		InboxCacheTTL:     cfg.Relay.InboxCacheTTL(),
	}, wallet, messaging.NewStateStore(statePath, env.EncryptionKey))
	if err != nil {
		log.Fatal("failed to init messaging client", "error", err)
	}
	defer msgClient.Close()

	a, err := agent.New(agent.Config{
		Relay:     agent.NewRelay(msgClient),
		Commands:  commands,
		Registry:  registry,
		Network:   network,
		Reconnect: cfg.Reconnect,
	})
	if err != nil {
		log.Fatal("failed to init agent", "error", err)
	}

	var server *statushttp.Server
	if cfg.Status.Enabled {
		h := statushttp.NewHandler(a, chainClient, registry, network, agentAddress)
		server = statushttp.NewServer(cfg.Status.Host, cfg.Status.Port, statushttp.NewRouter(h, cfg.Status.AllowedOrigins))
		server.Start()
	}

	log.Info("agent started",
		"address", agentAddress,
		"network", network.ID,
		"env", env.MessagingEnv,
		"state", statePath,
	)

	runErr := a.Run(ctx)

	log.Info("shutting down")
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}
	return runErr
}

func resolveStatePath(dir, env string) (string, error) {
	if dir != "" {
		return filepath.Join(dir, env, constants.StateFile), nil
	}
	candidates, err := securefile.StatePathCandidates(constants.AppName, env, constants.StateFile)
	if err != nil {
		return "", err
	}
	return candidates[0], nil
}
