// Command unlock fetches the payment requirement for a resource and, given
// the hash of a transfer already sent, retries until the gate releases the
// content. It never signs or sends transactions.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/vitwit/x402gate/clients"
	"github.com/vitwit/x402gate/logger"
	"github.com/vitwit/x402gate/retry"
	"github.com/vitwit/x402gate/types"
)

func main() {
	defaults := types.DefaultConfig().Retry
	var (
		baseURL  = flag.String("url", "http://localhost:3000", "gate base URL")
		kind     = flag.String("type", string(types.ResourceMystery), "content type")
		txHash   = flag.String("tx", "", "payment transaction hash")
		attempts = flag.Int("attempts", defaults.MaxAttempts, "verification attempts")
		base     = flag.Duration("base-delay", defaults.BaseDelay, "delay step between attempts")
		maxDelay = flag.Duration("max-delay", defaults.MaxDelay, "longest delay between attempts")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	policy := retry.FromConfig(types.RetryConfig{MaxAttempts: *attempts, BaseDelay: *base, MaxDelay: *maxDelay})
	if err := run(*baseURL, *kind, *txHash, policy, *verbose); err != nil {
		log.Fatal(err)
	}
}

func run(baseURL, kind, txHash string, policy retry.Policy, verbose bool) error {
	level := "info"
	if verbose {
		level = "debug"
	}
	zl, err := logger.NewZapLogger(level)
	if err != nil {
		return err
	}
	defer zl.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := clients.NewContentClient(baseURL,
		clients.WithRetryPolicy(policy),
		clients.WithContentLogger(zl),
	)

	req, err := client.Requirement(ctx, kind)
	if err != nil {
		return fmt.Errorf("fetch requirement: %w", err)
	}

	if txHash == "" {
		fmt.Printf("Send %s %s (%s minimal units) of token %s to %s on %s, then rerun with -tx.\n",
			req.Amount, req.TokenSymbol, req.AmountWei, req.Token, req.Recipient, req.Network)
		return nil
	}

	start := time.Now()
	content, err := client.Unlock(ctx, kind, types.PaymentProof{
		TxHash:  txHash,
		Network: req.Network,
		Amount:  req.Amount,
	})
	if err != nil {
		return fmt.Errorf("unlock: %w", err)
	}

	zl.Info("content unlocked", map[string]any{"elapsed": time.Since(start).String()})

	var pretty any
	if err := json.Unmarshal(content, &pretty); err != nil {
		fmt.Println(string(content))
		return nil
	}
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
