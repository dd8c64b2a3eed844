package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"trend-finder-be/internal/config"
	"trend-finder-be/internal/constant"
	"trend-finder-be/internal/entity"
	"trend-finder-be/internal/pkg/logger"
	"trend-finder-be/pkg/analysis"
	"trend-finder-be/pkg/audio"
	"trend-finder-be/pkg/gemini"
	"trend-finder-be/pkg/i18n"
	"trend-finder-be/pkg/speech"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type options struct {
	text      string
	imagePath string
	lang      string
	wavPath   string
	rate      float64
}

func newRootCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "analyze [topic]",
		Short:         "Run one discourse analysis against Gemini and print it",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.text = args[0]
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.imagePath, "image", "", "Image file to analyze with the topic")
	cmd.Flags().StringVarP(&opts.lang, "lang", "l", string(i18n.DefaultLanguage), "Response language (he, en, ru)")
	cmd.Flags().StringVar(&opts.wavPath, "speak", "", "Write the spoken summary to this WAV file")
	cmd.Flags().Float64Var(&opts.rate, "rate", 1, "Reading speed of the spoken summary")

	return cmd
}

func run(ctx context.Context, opts options) error {
	lang, ok := i18n.ParseLanguage(opts.lang)
	if !ok {
		return fmt.Errorf("unsupported language %q", opts.lang)
	}
	if opts.rate <= 0 {
		return fmt.Errorf("rate must be positive")
	}

	cfg := config.Load()
	log := logger.NewIsolatedLogger(cfg.App.LogFilePath)
	defer log.Sync()

	client := gemini.NewClient(gemini.Config{
		APIKey:         cfg.Gemini.APIKey,
		BaseURL:        cfg.Gemini.BaseURL,
		Timeout:        cfg.Gemini.Timeout,
		RPM:            cfg.Gemini.RPM,
		MaxRetries:     cfg.Gemini.MaxRetries,
		RetryBaseDelay: cfg.Gemini.RetryBase,
	}, log)

	var image *analysis.Image
	if opts.imagePath != "" {
		data, err := os.ReadFile(opts.imagePath)
		if err != nil {
			return err
		}
		image, err = analysis.NewImage(data)
		if err != nil {
			return err
		}
	}

	color.Cyan("Analyzing %q (%s)...", displayQuery(opts.text), lang)
	result, err := analysis.NewAnalyzer(client, cfg.Gemini.AnalysisModel, log).Analyze(ctx, opts.text, image, lang)
	if err != nil {
		return err
	}
	printResult(os.Stdout, result)

	if opts.wavPath != "" {
		return writeSpeech(ctx, client, cfg, log, result, opts)
	}
	return nil
}

func writeSpeech(ctx context.Context, gen gemini.Generator, cfg *config.Config, log logger.ILogger, result *entity.AnalysisResult, opts options) (err error) {
	pcm, err := speech.NewSynthesizer(gen, cfg.Gemini.TTSModel, cfg.Gemini.Voice, log).Synthesize(ctx, result.Summary)
	if err != nil {
		return err
	}

	f, err := os.Create(opts.wavPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	buf := audio.DecodePCM16(pcm)
	if err := audio.EncodeWAV(f, buf, opts.rate); err != nil {
		return err
	}
	played := time.Duration(float64(buf.Duration()) / opts.rate)
	color.Green("Wrote %s (%s)", opts.wavPath, played.Round(100*time.Millisecond))
	return nil
}

func displayQuery(text string) string {
	if text == "" {
		return constant.ImageOnlyQuery
	}
	return text
}
