package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/report"
	"storefront/internal/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type Runner struct {
	options Options
	cfg     config.Config
	logger  *zap.Logger
	store   *cart.Store
	catalog *catalog.Catalog
	memo    *report.Memo
	session *session.State
	history *History
}

func NewRunner(cfg config.Config, logger *zap.Logger, store *cart.Store, cat *catalog.Catalog, memo *report.Memo, sess *session.State) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		options: optionsFromConfig(cfg),
		cfg:     cfg,
		logger:  logger,
		store:   store,
		catalog: cat,
		memo:    memo,
		session: sess,
		history: NewHistory(cfg.HistorySize, logger),
	}
}

func (r *Runner) Execute() error {
	cmd := r.Command()
	cmd.SetArgs(os.Args[1:])
	return cmd.ExecuteContext(context.Background())
}

// Command builds the root command. Flags start from the loaded config.
func (r *Runner) Command() *cobra.Command {
	opts := r.options

	cmd := &cobra.Command{
		Use:   "storefront [flags] [command...]",
		Short: "Terminal storefront with a shopping cart and live reports",
		Long: `Browse the product catalog, manage a shopping cart and inspect cart reports.

Without arguments an interactive shell is started. With arguments they are run
as shell commands and the program exits; separate several commands with ';'.`,
		Example: `  storefront
  storefront products --band premium
  storefront "add 1; add 1; add 5; report"`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return r.run(ctx, &opts, args, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()
	fs.SetInterspersed(false)
	fs.BoolVar(&opts.JSON, "json", opts.JSON, "Output JSON")
	fs.StringVar(&opts.CatalogFile, "catalog", opts.CatalogFile, "Catalog YAML file (CATALOG_FILE)")
	fs.StringVar(&opts.Mode, "mode", opts.Mode, "Report analysis mode: value or quantity (ANALYSIS_MODE)")
	fs.Float64Var(&opts.Threshold, "threshold", opts.Threshold, "High-value price threshold (HIGH_VALUE_THRESHOLD)")
	fs.StringVar(&opts.SortBy, "sort", opts.SortBy, "Report sort key: subtotal, quantity or name (SORT_BY)")
	fs.StringVar(&opts.Theme, "theme", opts.Theme, "Color theme: light or dark (THEME)")

	return cmd
}

func (r *Runner) run(ctx context.Context, opts *Options, args []string, in io.Reader, out io.Writer) error {
	params, err := paramsFromOptions(opts)
	if err != nil {
		return err
	}

	theme, err := session.ParseTheme(opts.Theme)
	if err != nil {
		return err
	}
	r.session.SetTheme(theme)

	cat := r.catalog
	if strings.TrimSpace(opts.CatalogFile) != strings.TrimSpace(r.cfg.CatalogFile) {
		if cat, err = catalog.Open(opts.CatalogFile, r.logger); err != nil {
			return err
		}
	}

	sh := newShell(shellDeps{
		out:     out,
		json:    opts.JSON,
		logger:  r.logger.With(zap.String("session_id", r.session.ID())),
		store:   r.store,
		catalog: cat,
		memo:    r.memo,
		session: r.session,
		history: r.history,
		params:  params,
	})

	if len(args) == 0 {
		return sh.repl(ctx, in)
	}

	err = sh.runLine(ctx, oneShotLine(args))
	if errors.Is(err, errExit) {
		return nil
	}
	return err
}

func paramsFromOptions(opts *Options) (report.Params, error) {
	params := report.DefaultParams()

	if strings.TrimSpace(opts.Mode) != "" {
		mode, err := report.ParseMode(opts.Mode)
		if err != nil {
			return report.Params{}, err
		}
		params.Mode = mode
	}
	if strings.TrimSpace(opts.SortBy) != "" {
		key, err := report.ParseSortKey(opts.SortBy)
		if err != nil {
			return report.Params{}, err
		}
		params.SortBy = key
	}
	threshold, err := validThreshold(opts.Threshold)
	if err != nil {
		return report.Params{}, err
	}
	params.HighValueThreshold = threshold

	return params, nil
}

// repl returns on exit, end of input or cancellation. Input is read on its own
// goroutine so an interrupt does not wait for the next line.
func (sh *shell) repl(ctx context.Context, in io.Reader) error {
	if !sh.json {
		fmt.Fprintln(sh.out, sh.styles.title.Render("Storefront")+" (type 'help' for commands, 'exit' or Ctrl-C to quit)")
	}

	var scanErr error
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr = scanner.Err()
	}()

	for {
		if !sh.json {
			fmt.Fprint(sh.out, sh.prompt())
		}

		var line string
		select {
		case <-ctx.Done():
			sh.logger.Info("shell interrupted")
			return nil
		case l, ok := <-lines:
			if !ok {
				return scanErr
			}
			line = l
		}

		err := sh.runLine(ctx, line)
		switch {
		case errors.Is(err, errExit):
			return nil
		case err != nil:
			sh.logger.Warn("command failed", zap.Error(err))
			sh.printError(err)
		}
	}
}

func (sh *shell) runLine(ctx context.Context, line string) error {
	sh.history.Append(line)
	commands, err := parseLine(line)
	if err != nil {
		return err
	}
	for _, args := range commands {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := sh.exec(args); err != nil {
			return err
		}
	}
	return nil
}
