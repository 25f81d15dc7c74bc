// Package cmd implements the routegate command line interface.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/routegate-ai/routegate/internal/agent"
	"github.com/routegate-ai/routegate/internal/audit"
	"github.com/routegate-ai/routegate/internal/config"
	"github.com/routegate-ai/routegate/internal/policy"
	"github.com/routegate-ai/routegate/internal/proposer"
	"github.com/routegate-ai/routegate/internal/provider"
	"github.com/routegate-ai/routegate/internal/route"
	"github.com/routegate-ai/routegate/internal/tools"
)

var (
	cfgFile      string
	userFlag     string
	roleFlag     string
	ticketFlag   string
	modelFlag    string
	providerFlag string

	// Package-level version info, set by Execute().
	appVersion string
	appCommit  string
	appDate    string
)

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date

	rootCmd := &cobra.Command{
		Use:           "routegate",
		Short:         "Policy-gated request router for service-desk automation",
		Long:          "routegate classifies requests, gates them against policy, and runs\napproved actions through an audited tool loop.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ~/.config/routegate/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "local", "acting user id")
	rootCmd.PersistentFlags().StringVarP(&roleFlag, "role", "r", "employee", "acting role")
	rootCmd.PersistentFlags().StringVarP(&ticketFlag, "ticket", "t", "", "ticket reference, e.g. T-100")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "override proposer model")
	rootCmd.PersistentFlags().StringVarP(&providerFlag, "provider", "p", "", "override proposer provider")

	// Subcommands
	rootCmd.AddCommand(newRouteCmd())
	rootCmd.AddCommand(newExecCmd())
	rootCmd.AddCommand(newAuditCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd(version, commit, date))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig loads configuration, applying CLI flag overrides.
func initConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if providerFlag != "" {
		cfg.Provider = providerFlag
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}

	return cfg
}

// app bundles the wired components behind one request pipeline.
type app struct {
	cfg      *config.Config
	sink     audit.Sink
	gate     *tools.Gate
	pipeline *agent.Pipeline
}

// buildApp wires the policy evaluator, audit sink, proposer, gate, and
// pipeline from configuration. The caller owns Close.
func buildApp(cfg *config.Config) (*app, error) {
	eval, err := policy.NewCasbinEvaluator(cfg.Policy.ModelPath, cfg.Policy.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	sink, err := audit.NewFileSink(cfg.Audit.Path)
	if err != nil {
		return nil, fmt.Errorf("open audit trail: %w", err)
	}

	pc := policy.NewClient(eval)
	registry := tools.DefaultRegistry()
	gate := tools.NewGate(registry, pc, sink)
	if cfg.Loop.ToolTimeoutSeconds > 0 {
		gate.SetTimeout(time.Duration(cfg.Loop.ToolTimeoutSeconds) * time.Second)
	}

	prop, err := buildProposer(cfg, registry)
	if err != nil {
		sink.Close()
		return nil, err
	}

	loop := agent.NewLoop(prop, gate, sink)
	if cfg.Loop.MaxIterations > 0 {
		loop.SetBudget(cfg.Loop.MaxIterations)
	}
	if cfg.Loop.ProposerTimeoutSeconds > 0 {
		loop.SetProposerTimeout(time.Duration(cfg.Loop.ProposerTimeoutSeconds) * time.Second)
	}

	synth := route.NewSynthesizer(pc, sink)
	return &app{
		cfg:      cfg,
		sink:     sink,
		gate:     gate,
		pipeline: agent.NewPipeline(prop, synth, loop),
	}, nil
}

func (a *app) Close() error { return a.sink.Close() }

// buildProposer creates the proposer selected by configuration. "rules"
// needs no API key; everything else is an LLM backend.
func buildProposer(cfg *config.Config, registry *tools.Registry) (proposer.Proposer, error) {
	name := cfg.Provider
	if name == "" || name == "rules" {
		return proposer.NewRuleProposer(), nil
	}

	pc := cfg.GetProviderConfig(name)
	if pc.APIKey == "" {
		return nil, fmt.Errorf(
			"API key not configured for provider %q.\n"+
				"Set it via:\n"+
				"  - config file: providers.%s.api_key\n"+
				"  - environment: LLM_API_KEY",
			name, name,
		)
	}

	model := cfg.Model
	if model == "" {
		model = pc.Model
	}

	var p provider.Provider
	switch name {
	case "anthropic":
		p = provider.NewAnthropicProvider(pc.APIKey, model)
	default:
		// All other providers use the OpenAI-compatible API.
		p = provider.NewOpenAIProvider(pc.APIKey, pc.BaseURL, model)
	}
	return proposer.NewLLMProposer(p, model, registry), nil
}

// request assembles the route.Request from global flags plus text.
func request(text string) route.Request {
	return route.Request{
		UserID:    userFlag,
		Role:      roleFlag,
		Text:      text,
		TicketRef: ticketFlag,
	}
}
