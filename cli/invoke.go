package cli

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/spf13/cobra"

	bridge "github.com/ajitnk-lab/agentcore-bridge"
	"github.com/ajitnk-lab/agentcore-bridge/auth"
)

// NewInvokeCmd creates the "invoke" subcommand for one-shot invocations.
func NewInvokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoke <operation> [name=value ...]",
		Short: "Invoke one operation and print the response envelope",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runInvoke,
	}

	cmd.Flags().String("config", "", "Path to agentbridge.yaml")
	cmd.Flags().Duration("timeout", 60*time.Second, "Overall invocation timeout")

	return cmd
}

func runInvoke(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigFromFlags(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return exitError(exitConfig, "invalid config: %v", err)
	}

	req, err := parseInvocationArgs(args)
	if err != nil {
		return err
	}

	registry, err := cfg.BuildRegistry()
	if err != nil {
		return exitError(exitConfig, "building registry: %v", err)
	}

	manager, err := auth.NewManager(auth.ManagerConfig{
		TokenURL:     cfg.Identity.TokenURL,
		ClientID:     cfg.Identity.ClientID,
		ClientSecret: cfg.Identity.ClientSecret,
		Retry:        cfg.Identity.Retry,
	})
	if err != nil {
		return exitError(exitConfig, "building credential manager: %v", err)
	}

	gateway, err := bridge.NewGatewayClient(bridge.GatewayClientConfig{
		Endpoint: cfg.Gateway.Endpoint,
		Retry:    cfg.Gateway.Retry,
	})
	if err != nil {
		return exitError(exitConfig, "building gateway client: %v", err)
	}

	core, err := bridge.New(bridge.Config{
		Registry:    registry,
		Credentials: manager,
		Gateway:     gateway,
		TokenBudget: cfg.Identity.TokenTimeout,
		CallBudget:  cfg.Gateway.CallTimeout,
		Logger:      newLogger(cmd),
	})
	if err != nil {
		return exitError(exitRuntime, "building bridge: %v", err)
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	envelope := core.Invoke(ctx, req)

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(envelope); err != nil {
		return exitError(exitRuntime, "encoding response: %v", err)
	}

	if envelope.Response.Status != bridge.StatusOK {
		return exitError(exitInvocation, "invocation failed: %s", envelope.Response.Body)
	}
	return nil
}

// parseInvocationArgs turns "operation name=value ..." into a request.
func parseInvocationArgs(args []string) (bridge.InvocationRequest, error) {
	req := bridge.InvocationRequest{OperationID: args[0]}
	for _, raw := range args[1:] {
		name, value, found := strings.Cut(raw, "=")
		if !found || strings.TrimSpace(name) == "" {
			return bridge.InvocationRequest{}, exitError(exitConfig, "invalid parameter %q: want name=value", raw)
		}
		req.Parameters = append(req.Parameters, bridge.RawParameter{
			Name:  name,
			Value: value,
		})
	}
	return req, nil
}
