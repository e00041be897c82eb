// Command podbatch reconciles a directory or bucket of proof-of-delivery
// documents against parcels loaded from a YAML fixture or the database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"go.uber.org/zap"

	"podrecon/internal/config"
	"podrecon/internal/domain"
	"podrecon/internal/logger"
	"podrecon/internal/matcher"
	"podrecon/internal/parser"
	_ "podrecon/internal/parser/claude"
	_ "podrecon/internal/parser/gemini"
	_ "podrecon/internal/parser/openai"
	"podrecon/internal/pdftext"
	"podrecon/internal/pipeline"
	"podrecon/internal/repository/postgres"
	"podrecon/internal/service"
	"podrecon/internal/source"
	"podrecon/internal/textparse"
)

func main() {
	flags := flag.NewFlagSet("podbatch", flag.ExitOnError)
	src := flags.String("src", "", "document location: local path, file://, s3://, gs:// (required)")
	parcelsPath := flags.String("parcels", "", "YAML parcel fixture; parcels are read from the database when empty")
	apply := flags.Bool("apply", false, "write enrichment and results to the database (database mode only)")
	format := flags.String("format", "text", "report format: text or json")
	workers := flags.Int("workers", 0, "concurrent documents (default from config)")
	_ = flags.Parse(os.Args[1:])

	if *src == "" {
		fmt.Fprintln(os.Stderr, "Usage: podbatch -src <location> [-parcels parcels.yaml] [-apply] [-format text|json]")
		os.Exit(2)
	}
	if *apply && *parcelsPath != "" {
		fmt.Fprintln(os.Stderr, "-apply cannot be combined with -parcels")
		os.Exit(2)
	}

	if err := run(*src, *parcelsPath, *apply, *format, *workers); err != nil {
		fmt.Fprintf(os.Stderr, "podbatch: %v\n", err)
		os.Exit(1)
	}
}

func run(src, parcelsPath string, apply bool, format string, workers int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	zl, err := logger.Init(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	if workers > 0 {
		cfg.Extraction.Workers = workers
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	docs, err := source.NewDocuments().Load(ctx, src)
	if err != nil {
		return err
	}

	extractor, err := parser.NewExtractorFromConfig(&cfg.Extraction)
	if err != nil {
		return fmt.Errorf("failed to initialize extraction: %w", err)
	}
	pipe := pipeline.New(pdftext.NewExtractor(), extractor, textparse.NewParser(),
		pipeline.WithWorkers(cfg.Extraction.Workers),
		pipeline.WithPreflight(cfg.Extraction.Preflight),
		pipeline.WithMatcher(matcher.New(matcher.WithMinCandidateLength(cfg.Matcher.MinCandidateLength))),
	)

	var outcomes []pipeline.Outcome
	if parcelsPath != "" {
		parcels, err := source.LoadParcels(parcelsPath)
		if err != nil {
			return err
		}
		outcomes, err = pipe.ProcessBatch(ctx, docs, parcels)
		if err != nil {
			return err
		}
	} else {
		db, err := postgres.NewDB(&cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		parcelRepo := postgres.NewParcelRepo(db)
		if apply {
			podSvc := service.NewPODService(parcelRepo, postgres.NewPODResultRepo(db), postgres.NewTransactor(db), nil, pipe,
				&cfg.S3, &config.UploadConfig{}, &cfg.Matcher)
			report, err := podSvc.ProcessBatch(ctx, uploadsFrom(docs))
			if err != nil {
				return err
			}
			zap.L().Info("podbatch: results stored", zap.String("batch_id", report.BatchID.String()))
			outcomes = report.Outcomes
		} else {
			parcels, err := parcelRepo.ListAll(ctx)
			if err != nil {
				return err
			}
			outcomes, err = pipe.ProcessBatch(ctx, docs, parcels)
			if err != nil {
				return err
			}
		}
	}

	return writeReport(os.Stdout, format, outcomes)
}

func uploadsFrom(docs []domain.RawDocument) []service.PODUpload {
	out := make([]service.PODUpload, len(docs))
	for i, d := range docs {
		out[i] = service.PODUpload{FileName: d.FileName, ContentType: d.MediaType, Content: d.Content}
	}
	return out
}

func writeReport(w io.Writer, format string, outcomes []pipeline.Outcome) error {
	if strings.EqualFold(format, "json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(outcomes)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tFILE\tSTATUS\tMODALITY\tPARCEL\tDETAIL")
	counts := map[domain.OutcomeStatus]int{}
	for _, o := range outcomes {
		counts[o.Status]++
		parcel, detail := "-", o.Hint
		if o.Match != nil {
			if o.Match.Parcel != nil {
				parcel = o.Match.Parcel.ID
			}
			detail = o.Match.Reason
		}
		if o.Failed() {
			detail = string(o.ErrorKind) + ": " + o.Hint
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", o.Position, o.FileName, o.Status, o.Modality, parcel, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d documents: %d matched, %d unmatched, %d failed\n", len(outcomes),
		counts[domain.OutcomeMatched], counts[domain.OutcomeUnmatched], counts[domain.OutcomeFailed])
	return err
}
