package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Zacy-Sokach/chatbox/internal/api"
	"github.com/Zacy-Sokach/chatbox/internal/config"
	"github.com/Zacy-Sokach/chatbox/internal/query"
	"github.com/Zacy-Sokach/chatbox/internal/tui"
	"github.com/Zacy-Sokach/chatbox/internal/utils"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// errReported 错误已经输出给用户，main 只需要设置退出码
var errReported = errors.New("reported")

// flags 命令行参数，优先级最高
type flags struct {
	apiBase string
	topK    int
	debug   bool
	logFile string
}

// app 一次命令执行所需的依赖
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	close  func() error
}

func (f *flags) load() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	if f.apiBase != "" {
		cfg.APIBase = strings.TrimRight(strings.TrimSpace(f.apiBase), "/")
	}
	if f.topK > 0 {
		cfg.TopK = f.topK
	}
	if f.debug {
		cfg.Debug = true
	}
	if f.logFile != "" {
		cfg.LogFile = f.logFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, closeFn, err := utils.NewLogger(cfg.LogFile, cfg.Debug)
	if err != nil {
		return nil, err
	}
	logger.Debug("config loaded", "api_base", cfg.APIBase, "top_k", cfg.TopK)
	return &app{cfg: cfg, logger: logger, close: closeFn}, nil
}

func (rt *app) client(opts ...api.ClientOption) *api.Client {
	opts = append([]api.ClientOption{api.WithLogger(rt.logger)}, opts...)
	return api.NewClient(rt.cfg.APIBase, opts...)
}

func (rt *app) widget() *query.Widget {
	return query.New(rt.client(),
		query.WithTopK(rt.cfg.TopK),
		query.WithLogger(rt.logger),
	)
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:     "chatbox",
		Short:   "chatbox - ask the Q&A service from your terminal",
		Long:    "chatbox sends a question to the Q&A service (POST /api/chat) and shows the answer.",
		Version: Version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := f.load()
			if err != nil {
				return err
			}
			defer rt.close()
			return runTUI(cmd.OutOrStdout(), rt)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&f.apiBase, "api-base", "", "Q&A service base URL (default from config, "+config.EnvAPIBase+" or "+api.DefaultBaseURL+")")
	root.PersistentFlags().IntVar(&f.topK, "top-k", 0, "Number of passages the service should retrieve (0 = service default)")
	root.PersistentFlags().BoolVar(&f.debug, "debug", false, "Write debug logs to a file")
	root.PersistentFlags().StringVar(&f.logFile, "log-file", "", "Debug log path (default in config dir)")

	root.AddCommand(newAskCommand(f))
	root.AddCommand(newHealthCommand(f))
	return root
}

func runTUI(out io.Writer, rt *app) error {
	if !isTerminal() {
		// 非交互式环境，使用简单模式
		fmt.Fprintln(out, "chatbox 运行在非交互式模式")
		fmt.Fprintln(out, "请在交互式终端中运行，或使用: chatbox ask \"<question>\"")
		fmt.Fprintf(out, "当前服务地址: %s\n", rt.cfg.APIBase)
		fmt.Fprintf(out, "配置文件: %s\n", utils.GetConfigPathForDisplay())
		return nil
	}

	model := tui.InitialModel(rt.widget(), tui.Options{
		Title:        rt.cfg.Title,
		ExportDir:    rt.cfg.ExportDir,
		ExportFormat: rt.cfg.ExportFormat,
		Logger:       rt.logger,
	})
	p := tea.NewProgram(&model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("程序运行错误: %w", err)
	}
	return nil
}

func newAskCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask one question and print the answer",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := f.load()
			if err != nil {
				return err
			}
			defer rt.close()

			w := rt.widget()
			w.SetInput(strings.Join(args, " "))
			st := w.Submit(cmd.Context())

			switch st.Phase() {
			case query.PhaseErrored:
				fmt.Fprintln(cmd.ErrOrStderr(), "Error: "+st.ErrorText())
				return errReported
			case query.PhaseAnswered:
				renderAnswer(cmd.OutOrStdout(), st)
			}
			// 空问题不发请求，也不输出
			return nil
		},
	}
}

func renderAnswer(out io.Writer, st query.State) {
	if answer := st.AnswerText(); answer != "" {
		fmt.Fprintln(out, answer)
	}
	citations := st.Citations()
	if len(citations) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Sources:")
	for _, c := range citations {
		fmt.Fprintf(out, "  [%d] %s (chunk %d, score %.2f)\n", c.Rank, c.Source, c.ChunkID, c.Score)
	}
}

func newHealthCommand(f *flags) *cobra.Command {
	var (
		retries int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the Q&A service is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := f.load()
			if err != nil {
				return err
			}
			defer rt.close()

			retryCfg := utils.ProbeRetryConfig(retries)
			retryCfg.OnRetry = func(attempt int, err error) {
				rt.logger.Info("health retry", "attempt", attempt, "error", err)
			}
			client := rt.client(api.WithDoer(utils.NewRetryableHTTPClient(nil, retryCfg)))

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			health, err := client.Health(ctx)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("✗ "+client.BaseURL()+": "+err.Error()))
				return errReported
			}

			status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("✓ ok")
			if !health.OK {
				status = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Render("! not ok")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", status, client.BaseURL(), health.Service)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Give up after this long, retries included")
	cmd.Flags().IntVar(&retries, "retries", 3, "Retries while the service is starting (502/503/504 or connection errors)")
	return cmd
}
