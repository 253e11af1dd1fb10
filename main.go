package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cclaw/pkg/agent"
	"cclaw/pkg/channels/cli"
	"cclaw/pkg/channels/telegram"
	"cclaw/pkg/channels/ws"
	"cclaw/pkg/config"
	"cclaw/pkg/llm"
	_ "cclaw/pkg/llm/claude"
	_ "cclaw/pkg/llm/openai"
	"cclaw/pkg/memory"
	"cclaw/pkg/monitor"
	"cclaw/pkg/scheduler"
	"cclaw/pkg/tools"
)

const version = "cclaw 0.1.0"

const systemPrompt = "You are a helpful assistant with access to shell, file_read, and file_write tools."

func main() {
	os.Exit(run(os.Args[1:]))
}

// run wires and drives a single process lifetime, returning the process
// exit code (spec §6: 0 normal, 1 fatal startup error).
func run(args []string) int {
	opts, err := parseFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if opts.showHelp {
		printUsage(os.Stdout)
		return 0
	}
	if opts.showVersion {
		fmt.Println(version)
		return 0
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		monitor.PrintBanner()
		monitor.SetupSlog("info")
		slog.Error("config-missing", "error", err)
		return 1
	}
	if opts.workspace != "" {
		cfg.Workspace = opts.workspace
	}
	if opts.model != "" {
		cfg.Model = opts.model
	}
	if opts.telegram {
		cfg.TelegramEnabled = true
	}
	if opts.gatewayPort != 0 {
		cfg.GatewayPort = opts.gatewayPort
	}

	mon := monitor.SetupEnvironment(cfg.LogLevel)
	mon.Start()
	defer mon.Stop()
	if config.BothCredentialEnvsSet() {
		slog.Warn("both ANTHROPIC_API_KEY and OPENAI_API_KEY set; using configured provider's credential")
	}

	client, err := llm.NewFromConfig(cfg)
	if err != nil {
		slog.Error("config-missing", "error", err)
		return 1
	}

	registry := tools.NewRegistry()
	if cfg.MemoryDB != "" {
		mem, err := memory.Open(cfg.MemoryDB)
		if err != nil {
			slog.Error("storage", "error", err)
		} else {
			defer mem.Close()
			registry.RegisterMemory(mem)
		}
	}

	engine := agent.New(client, registry, systemPrompt, cfg.Workspace, cfg.Temperature)
	sessions := llm.NewSessionManager(cfg.Workspace)

	// The scheduler runs on its own thread per the concurrency model even
	// with no jobs registered yet; Add is available for callers that embed
	// this runtime and want periodic callbacks.
	sched := scheduler.New()
	go sched.Run(time.Now)
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.configFile != "" {
		watchConfigReload(ctx, opts.configFile, cfg, engine)
	}

	if opts.prompt != "" {
		session := sessions.Ephemeral("oneshot")
		reply := cli.RunOnceShot(ctx, opts.prompt, func(ctx context.Context, text string, onTextDelta func(string)) string {
			return engine.Run(ctx, session, text, onTextDelta).Text
		})
		fmt.Println(reply)
		return 0
	}

	var telegramCh *telegram.Channel
	if cfg.TelegramEnabled {
		telegramCh, err = telegram.New(cfg.TelegramToken, cfg.TelegramAllowed, func(ctx context.Context, sessionKey, text string) string {
			session := sessions.Get(sessionKey)
			reply := engine.Run(ctx, session, text, nil)
			sessions.Save(sessionKey)
			reportTurn(mon, "telegram", sessionKey, text, reply.Text)
			return reply.Text
		})
		if err != nil {
			slog.Error("config-missing", "error", err)
			return 1
		}
		go telegramCh.Run(ctx)
		defer telegramCh.Stop()
	}

	if cfg.GatewayPort != 0 {
		srv := ws.New(cfg.GatewayToken, func(ctx context.Context, sessionKey, text string) string {
			session := sessions.Get(sessionKey)
			reply := engine.Run(ctx, session, text, nil)
			sessions.Save(sessionKey)
			reportTurn(mon, "websocket", sessionKey, text, reply.Text)
			return reply.Text
		})
		addr := fmt.Sprintf(":%d", cfg.GatewayPort)
		if err := srv.Start(addr); err != nil {
			slog.Error("config-missing", "error", err)
			return 1
		}
		slog.Info("websocket gateway listening", "addr", addr)
		defer srv.Stop()
	}

	cliSession := sessions.Get("cli")
	cli.RunInteractive(ctx, os.Stdin, os.Stdout, func(ctx context.Context, text string, onTextDelta func(string)) string {
		reply := engine.Run(ctx, cliSession, text, onTextDelta).Text
		sessions.Save("cli")
		return reply
	}, cli.Commands{
		Reset: func() {
			sessions.Close("cli")
			cliSession = sessions.Get("cli")
		},
		Summarize: func(ctx context.Context) string {
			summary, err := engine.Summarize(ctx, cliSession)
			if err != nil {
				return "summary failed: " + err.Error()
			}
			sessions.Save("cli")
			return summary
		},
	})

	slog.Info("shutting down")
	return 0
}

// watchConfigReload wires pkg/config's fsnotify-based watcher to the
// running engine: the only setting it is safe to hot-swap without
// re-dialing a provider or restarting a channel is sampling temperature,
// so that's all a reload touches. cfg is overwritten in place with the
// reloaded values so any future reader of cfg sees them too.
func watchConfigReload(ctx context.Context, path string, cfg *config.Config, engine *agent.Engine) {
	reloadCh := config.WatchReload(ctx, path)
	go func() {
		for newCfg := range reloadCh {
			*cfg = *newCfg
			engine.SetTemperature(cfg.Temperature)
			slog.Info("configuration reloaded", "temperature", cfg.Temperature, "model", cfg.Model)
		}
	}()
}

// reportTurn feeds one user/assistant exchange to the cross-channel
// monitor pane. The CLI channel is excluded — its own terminal already
// shows the exchange, so mirroring it through the monitor would just
// double-print it.
func reportTurn(mon monitor.Monitor, channelID, sessionKey, userText, replyText string) {
	now := time.Now()
	mon.OnMessage(monitor.MonitorMessage{Timestamp: now, MessageType: "USER", ChannelID: channelID, Username: sessionKey, Content: userText})
	mon.OnMessage(monitor.MonitorMessage{Timestamp: now, MessageType: "ASSISTANT", ChannelID: channelID, Username: sessionKey, Content: replyText})
}

type cliOptions struct {
	showHelp    bool
	showVersion bool
	configFile  string
	workspace   string
	model       string
	telegram    bool
	gatewayPort int
	prompt      string
}

// parseFlags implements spec §6's flag set by hand (rather than flag.Parse
// on os.Args directly) so it can be exercised by tests without touching
// process-global state.
func parseFlags(args []string) (*cliOptions, error) {
	opts := &cliOptions{}
	var promptParts []string

	i := 0
	for i < len(args) {
		arg := args[i]
		switch {
		case arg == "--help" || arg == "-h":
			opts.showHelp = true
		case arg == "--version" || arg == "-v":
			opts.showVersion = true
		case arg == "--telegram":
			opts.telegram = true
		case arg == "--config":
			val, n, err := flagValue(args, i, "--config")
			if err != nil {
				return nil, err
			}
			opts.configFile = val
			i += n
		case arg == "--workspace":
			val, n, err := flagValue(args, i, "--workspace")
			if err != nil {
				return nil, err
			}
			opts.workspace = val
			i += n
		case arg == "--model":
			val, n, err := flagValue(args, i, "--model")
			if err != nil {
				return nil, err
			}
			opts.model = val
			i += n
		case arg == "--gateway-port":
			val, n, err := flagValue(args, i, "--gateway-port")
			if err != nil {
				return nil, err
			}
			port, convErr := parsePort(val)
			if convErr != nil {
				return nil, convErr
			}
			opts.gatewayPort = port
			i += n
		case strings.HasPrefix(arg, "-"):
			return nil, fmt.Errorf("unknown flag: %s", arg)
		default:
			promptParts = append(promptParts, arg)
		}
		i++
	}

	opts.prompt = strings.Join(promptParts, " ")
	return opts, nil
}

// flagValue returns the value for a "--flag value" pair starting at index i
// and the number of extra args consumed.
func flagValue(args []string, i int, name string) (string, int, error) {
	if i+1 >= len(args) {
		return "", 0, fmt.Errorf("%s requires a value", name)
	}
	return args[i+1], 1, nil
}

func parsePort(val string) (int, error) {
	var port int
	if _, err := fmt.Sscanf(val, "%d", &port); err != nil {
		return 0, fmt.Errorf("--gateway-port: invalid port %q", val)
	}
	return port, nil
}

func printUsage(w *os.File) {
	fmt.Fprintln(w, version)
	fmt.Fprintln(w, "usage: cclaw [flags] [prompt]")
	fmt.Fprintln(w, "  --help, -h            show this help and exit")
	fmt.Fprintln(w, "  --version, -v         print version and exit")
	fmt.Fprintln(w, "  --config <file>       configuration file path")
	fmt.Fprintln(w, "  --workspace <dir>     identity/session root")
	fmt.Fprintln(w, "  --model <name>        override model from config")
	fmt.Fprintln(w, "  --telegram            enable the Telegram channel")
	fmt.Fprintln(w, "  --gateway-port <n>    WebSocket gateway port (default 8765; gateway_port=0 in the config file turns it off)")
	fmt.Fprintln(w, "a positional prompt runs a single ephemeral one-shot turn")
}
