package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	x402gate "github.com/vitwit/x402gate"
	"github.com/vitwit/x402gate/catalog"
	"github.com/vitwit/x402gate/clients"
	"github.com/vitwit/x402gate/config"
	"github.com/vitwit/x402gate/logger"
	"github.com/vitwit/x402gate/metrics"
	"github.com/vitwit/x402gate/server"
	"github.com/vitwit/x402gate/types"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatal(err)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zl, err := logger.NewZapLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer zl.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	evm, err := clients.NewEVMClient(cfg.Chain)
	if err != nil {
		return err
	}
	if err := evm.CheckChainID(ctx); err != nil {
		evm.Close()
		return fmt.Errorf("check chain: %w", err)
	}

	token := evm.Token(cfg.Chain.Token.TokenAddress())
	if cfg.Chain.Token.VerifyDecimals {
		if err := checkDecimals(ctx, token, cfg.Chain.Token); err != nil {
			evm.Close()
			return err
		}
	}

	opts := []x402gate.Option{x402gate.WithLogger(zl)}
	serverOpts := []server.Option{
		server.WithLogger(zl),
		server.WithTokenStatus(clients.NewStatusReader(token, cfg.Chain.Token.Decimals)),
	}
	if cfg.EnableMetrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		rec, err := metrics.NewPrometheusRecorder(reg)
		if err != nil {
			evm.Close()
			return fmt.Errorf("init metrics: %w", err)
		}
		opts = append(opts, x402gate.WithMetrics(rec))
		serverOpts = append(serverOpts, server.WithMetricsGatherer(reg))
	}

	gate, err := x402gate.New(cfg, evm, opts...)
	if err != nil {
		evm.Close()
		return fmt.Errorf("init gate: %w", err)
	}
	defer gate.Close()

	zl.Info("payment gate ready", map[string]any{
		"network":      cfg.Chain.Network.String(),
		"chain_id":     cfg.Chain.ChainID,
		"token":        token.Address().Hex(),
		"recipient":    cfg.Recipient,
		"match_policy": string(gate.Policy()),
	})

	srv := server.New(gate, catalog.NewStaticCatalog(nil, nil), serverOpts...)
	return srv.Run(ctx)
}

func checkDecimals(ctx context.Context, token *clients.TokenReader, info types.TokenInfo) error {
	onChain, err := token.Decimals(ctx)
	if err != nil {
		return fmt.Errorf("read token decimals: %w", err)
	}
	if int(onChain) != info.Decimals {
		return types.NewError(
			types.ErrConfigError,
			fmt.Sprintf("token %s has %d decimals, configured %d", token.Address().Hex(), onChain, info.Decimals),
		)
	}
	return nil
}
