// Command flowgraph runs workflow documents from the command line and
// serves the HTTP API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tcmartin/flowgraph/pkg/api"
	"github.com/tcmartin/flowgraph/pkg/config"
	"github.com/tcmartin/flowgraph/pkg/engine"
	"github.com/tcmartin/flowgraph/pkg/flow"
	"github.com/tcmartin/flowgraph/pkg/loader"
	"github.com/tcmartin/flowgraph/pkg/nodes"
	"github.com/tcmartin/flowgraph/pkg/registry"
	"github.com/tcmartin/flowgraph/pkg/runtime"
	"github.com/tcmartin/flowgraph/pkg/scripting"
	"github.com/tcmartin/flowgraph/pkg/services"
	"github.com/tcmartin/flowgraph/pkg/storage"
)

var configPath string

func main() {
	// Missing .env is fine; environment variables still apply.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "flowgraph",
		Short: "Workflow execution engine",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	root.AddCommand(serveCommand())
	root.AddCommand(runCommand())
	root.AddCommand(validateCommand())
	root.AddCommand(nodesCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, if any, and applies env overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.FromEnv()
	return cfg, nil
}

// buildRegistry assembles the node registry with the built-in types.
func buildRegistry() (*registry.Registry, error) {
	reg := registry.New()
	deps := nodes.Deps{Script: scripting.NewScriptEngine()}
	if err := nodes.Register(reg, deps); err != nil {
		return nil, err
	}
	return reg, nil
}

// buildServices assembles the default capability bag: an in-memory vault,
// a net/http HTTP client and no AI provider.
func buildServices() flow.Services {
	return flow.Services{
		Vault: services.NewMemoryVault(),
		HTTP:  services.NewHTTPService(0),
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reg, err := buildRegistry()
			if err != nil {
				return err
			}

			provider, err := storage.NewProvider(cfg.Storage)
			if err != nil {
				return err
			}
			if err := provider.Initialize(); err != nil {
				return err
			}
			defer provider.Close()

			svc := runtime.NewService(reg, engine.Options{
				FanOutConcurrency: cfg.Engine.FanOutConcurrency,
			}, provider.ExecutionStore(), buildServices())

			server := api.NewServer(cfg, svc, reg)

			done := make(chan os.Signal, 1)
			signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-done
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = server.Stop(ctx)
			}()

			return server.Start()
		},
	}
}

func runCommand() *cobra.Command {
	var inputJSON string

	cmd := &cobra.Command{
		Use:   "run <workflow.yaml>",
		Short: "Run a workflow document to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reg, err := buildRegistry()
			if err != nil {
				return err
			}

			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			graph, meta, err := loader.NewLoader(reg).Parse(content)
			if err != nil {
				return err
			}

			var input map[string]interface{}
			if inputJSON != "" {
				if err := json.Unmarshal([]byte(inputJSON), &input); err != nil {
					return fmt.Errorf("invalid input JSON: %w", err)
				}
			}

			svc := runtime.NewService(reg, engine.Options{
				FanOutConcurrency: cfg.Engine.FanOutConcurrency,
			}, storage.NewMemoryExecutionStore(), buildServices())

			result, err := svc.ExecuteSync(cmd.Context(), graph, meta.Name, input)
			if result != nil {
				out := map[string]interface{}{
					"state":   result.State,
					"nodes":   result.NodeStates,
					"outputs": result.Outputs,
				}
				encoded, marshalErr := json.MarshalIndent(out, "", "  ")
				if marshalErr == nil {
					fmt.Println(string(encoded))
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&inputJSON, "input", "", "run input as a JSON object")
	return cmd
}

func validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <workflow.yaml>",
		Short: "Validate a workflow document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := buildRegistry()
			if err != nil {
				return err
			}
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := loader.NewLoader(reg).Validate(content); err != nil {
				return err
			}
			fmt.Println("workflow is valid")
			return nil
		},
	}
}

func nodesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "nodes",
		Short: "List the registered node types",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := buildRegistry()
			if err != nil {
				return err
			}
			for _, def := range reg.All() {
				fmt.Printf("%-14s %-16s %s\n", def.Type, def.Category, def.Name)
			}
			return nil
		},
	}
}
