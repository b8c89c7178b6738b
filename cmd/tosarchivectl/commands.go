package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/tosarchive/internal/corpus"
	"github.com/kailas-cloud/tosarchive/internal/domain/snapshot"
	logpkg "github.com/kailas-cloud/tosarchive/internal/logger"
	"github.com/kailas-cloud/tosarchive/internal/version"
	tosarchive "github.com/kailas-cloud/tosarchive/pkg/sdk"
)

// Exit codes.
const (
	exitOK        = 0
	exitFailure   = 1
	exitBadInput  = 2
	exitBadCorpus = 3
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	root           string
	layout         string
	readme         string
	workers        int
	skipUnreadable bool
	marker         string
	redisAddr      string
	redisPassword  string
	cacheTTL       time.Duration
	logLevel       string
	pretty         bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "tosarchivectl",
		Short:         "Query a terms-of-service snapshot corpus on disk",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.root, "root", "./dataset", "corpus root directory")
	pf.StringVar(&g.layout, "layout", snapshot.DefaultLayout, "Go reference layout of snapshot file names")
	pf.StringVar(&g.readme, "readme", corpus.DefaultReadme, "file allowed at the corpus root")
	pf.IntVar(&g.workers, "workers", 0, "files matched concurrently (0 = GOMAXPROCS)")
	pf.BoolVar(&g.skipUnreadable, "skip-unreadable", false, "treat unreadable snapshots as non-matching")
	pf.StringVar(&g.marker, "marker", "", "file holding the dataset release URL (enables scan caching)")
	pf.StringVar(&g.redisAddr, "redis-addr", "", "Redis address for the scan cache (empty disables)")
	pf.StringVar(&g.redisPassword, "redis-password", "", "Redis password")
	pf.DurationVar(&g.cacheTTL, "cache-ttl", 24*time.Hour, "lifetime of cached scans")
	pf.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.BoolVar(&g.pretty, "pretty", false, "indent JSON output")

	root.AddCommand(
		newResolveCmd(g),
		newFirstOccurrenceCmd(g),
		newAllOccurrencesCmd(g),
		newListServicesCmd(g),
		newStatsCmd(g),
	)
	return root
}

func newResolveCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <service> <document_type> <YYYY-MM-DD>",
		Short: "Show the version in effect at the end of a day",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, done, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			v, err := client.Resolve(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			return g.print(cmd.OutOrStdout(), versionOutput{
				Service:       v.Service,
				DocType:       v.DocumentType,
				Date:          v.QueriedAt.Format(snapshot.WireLayout),
				VersionAtDate: wireTime{v.Version},
				Data:          v.Data,
				NextVersion:   wireTime{v.Next},
			})
		},
	}
}

type versionOutput struct {
	Service       string   `json:"service"`
	DocType       string   `json:"doc_type"`
	Date          string   `json:"date"`
	VersionAtDate wireTime `json:"version_at_date"`
	Data          string   `json:"data"`
	NextVersion   wireTime `json:"next_version"`
}

// wireTime renders a capture time in the API layout, or false when absent.
type wireTime struct{ t *time.Time }

func (w wireTime) MarshalJSON() ([]byte, error) {
	if w.t == nil {
		return []byte("false"), nil
	}
	return json.Marshal(w.t.UTC().Format(snapshot.WireLayout))
}

func newFirstOccurrenceCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "first-occurrence <term[,term...]>",
		Short: "Earliest capture containing any term, per service and document type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, done, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			first, err := client.FirstOccurrence(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := make(map[string]map[string]wireTime, len(first))
			for svc, docs := range first {
				out[svc] = make(map[string]wireTime, len(docs))
				for doc, at := range docs {
					out[svc][doc] = wireTime{at}
				}
			}
			return g.print(cmd.OutOrStdout(), out)
		},
	}
}

func newAllOccurrencesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "all-occurrences <term[,term...]>",
		Short: "Whether each snapshot contains any term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, done, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			occurrences, err := client.AllOccurrences(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := make(map[string]map[string]map[string]bool)
			for _, o := range occurrences {
				docs, ok := out[o.Service]
				if !ok {
					docs = make(map[string]map[string]bool)
					out[o.Service] = docs
				}
				if docs[o.DocumentType] == nil {
					docs[o.DocumentType] = make(map[string]bool)
				}
				docs[o.DocumentType][o.CapturedAt.Format(snapshot.WireLayout)] = o.Matched
			}
			return g.print(cmd.OutOrStdout(), out)
		},
	}
}

func newListServicesCmd(g *globalFlags) *cobra.Command {
	var multipleVersionsOnly bool
	cmd := &cobra.Command{
		Use:   "list-services",
		Short: "List services with their document types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, done, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			services, err := client.ListServices(cmd.Context(), multipleVersionsOnly)
			if err != nil {
				return err
			}
			return g.print(cmd.OutOrStdout(), services)
		},
	}
	cmd.Flags().BoolVar(&multipleVersionsOnly, "multiple-versions-only", false,
		"leave out pairs with a single snapshot")
	return cmd
}

func newStatsCmd(g *globalFlags) *cobra.Command {
	var monthly bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print one row per snapshot, or monthly service activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, done, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			if monthly {
				months, err := client.Monthly(cmd.Context())
				if err != nil {
					return err
				}
				out := make([]monthOutput, len(months))
				for i, m := range months {
					out[i] = monthOutput{m.YearMonth, m.ServicesActive, m.ServicesTracked}
				}
				return g.print(cmd.OutOrStdout(), out)
			}
			snapshots, err := client.Snapshots(cmd.Context())
			if err != nil {
				return err
			}
			out := make([]snapshotOutput, len(snapshots))
			for i, s := range snapshots {
				out[i] = snapshotOutput{s.Service, s.DocumentType, s.CapturedAt.Format(snapshot.WireLayout)}
			}
			return g.print(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().BoolVar(&monthly, "monthly", false, "aggregate by month")
	return cmd
}

type snapshotOutput struct {
	Service      string `json:"service"`
	DocumentType string `json:"document_type"`
	CapturedAt   string `json:"captured_at"`
}

type monthOutput struct {
	YearMonth       string `json:"year_month"`
	ServicesActive  int    `json:"n_services_active"`
	ServicesTracked int    `json:"n_services_tracked"`
}

// open builds an SDK client from the global flags. done flushes the logger
// and releases the client.
func (g *globalFlags) open(ctx context.Context) (*tosarchive.Client, func(), error) {
	logger, err := logpkg.NewLogger("cli", g.logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	if _, err := snapshot.NewLayout(g.layout); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", errUsage, err)
	}

	opts := []tosarchive.Option{
		tosarchive.WithCorpus(g.root),
		tosarchive.WithLayout(g.layout),
		tosarchive.WithReadme(g.readme),
		tosarchive.WithWorkers(g.workers),
		tosarchive.WithMarker(g.marker),
		tosarchive.WithZapLogger(logger),
	}
	if g.skipUnreadable {
		opts = append(opts, tosarchive.WithSkipUnreadable())
	}
	if g.redisAddr != "" {
		opts = append(opts, tosarchive.WithRedisCache(g.redisAddr, g.redisPassword, g.cacheTTL))
	}

	client, err := tosarchive.New(ctx, opts...)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	done := func() {
		client.Close()
		_ = logger.Sync()
	}
	return client, done, nil
}

func (g *globalFlags) print(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if g.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

var errUsage = errors.New("invalid usage")

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage),
		errors.Is(err, tosarchive.ErrMalformedUserDate),
		errors.Is(err, tosarchive.ErrUnknownServiceOrDocumentType),
		errors.Is(err, tosarchive.ErrInvalidTerms):
		return exitBadInput
	case errors.Is(err, tosarchive.ErrInvalidCorpusRoot),
		errors.Is(err, tosarchive.ErrMalformedSnapshotName),
		errors.Is(err, tosarchive.ErrCorpusRead):
		return exitBadCorpus
	default:
		return exitFailure
	}
}
