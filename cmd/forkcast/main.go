package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	json "github.com/goccy/go-json"

	"github.com/forkcast/forkcast/internal/artifact"
	"github.com/forkcast/forkcast/internal/config"
	"github.com/forkcast/forkcast/internal/ingest"
	"github.com/forkcast/forkcast/internal/normalize"
	"github.com/forkcast/forkcast/internal/profile"
	"github.com/forkcast/forkcast/internal/recommend"
	"github.com/forkcast/forkcast/internal/spinner"
	"github.com/forkcast/forkcast/internal/tfidf"
)

// setupLogger configures the default slog logger based on debug mode
func setupLogger(debug bool) {
	level := slog.LevelError
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// loadConfig reads the config file and layers flag overrides on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if cmd.Flags().Changed("models") {
		cfg.ModelsDir, _ = cmd.Flags().GetString("models")
	}
	if cmd.Flags().Changed("w-sim") {
		cfg.Weights.Similarity, _ = cmd.Flags().GetFloat64("w-sim")
	}
	if cmd.Flags().Changed("w-rating") {
		cfg.Weights.Rating, _ = cmd.Flags().GetFloat64("w-rating")
	}
	if cmd.Flags().Changed("w-pop") {
		cfg.Weights.Popularity, _ = cmd.Flags().GetFloat64("w-pop")
	}
	return cfg, nil
}

// loadEngine restores persisted artifacts and wraps them in a query engine.
func loadEngine(cfg config.Config) (*recommend.Engine, error) {
	model, err := artifact.Load(cfg.ModelsDir)
	if err != nil {
		return nil, err
	}
	return &recommend.Engine{
		Profiles:   model.Profiles,
		Vectorizer: model.Vectorizer,
		Matrix:     model.Matrix,
		Index:      model.Index,
		Weights: recommend.Weights{
			Similarity: cfg.Weights.Similarity,
			Rating:     cfg.Weights.Rating,
			Popularity: cfg.Weights.Popularity,
		},
	}, nil
}

// printResults renders recommendations as text or JSON.
func printResults(cmd *cobra.Command, results []recommend.Result) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for i, r := range results {
		fmt.Printf("%2d. %s  (score %.4f | similarity %.4f | rating %.2f | %d reviews)\n",
			i+1, r.Restaurant, r.FinalScore, r.Similarity, r.AvgRating, r.NumReviews)
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "forkcast",
	Short: "Restaurant recommendations from review text",
	Long: `Forkcast recommends restaurants from a corpus of customer reviews,
blending review-text similarity with rating and popularity signals.

Build the model once from a reviews CSV, then query it:

  forkcast build -i reviews.csv
  forkcast similar "Beyond Flavours"
  forkcast query "spicy biryani late night"`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		setupLogger(debug)
	},
	SilenceUsage: true,
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build model artifacts from a reviews CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("min-df") {
			cfg.Vectorizer.MinDF, _ = cmd.Flags().GetInt("min-df")
		}
		if cmd.Flags().Changed("stem") {
			cfg.Vectorizer.Stem, _ = cmd.Flags().GetBool("stem")
		}

		input, _ := cmd.Flags().GetString("input")
		quiet, _ := cmd.Flags().GetBool("quiet")

		records, err := ingest.Load(input)
		if err != nil {
			return err
		}
		reviews := normalize.Reviews(records)
		if len(reviews) == 0 {
			return fmt.Errorf("no usable reviews in %s", input)
		}

		profiles := profile.BuildProfiles(reviews)
		entries := profile.BuildCorpus(reviews)

		corpus := make([]tfidf.Entry, len(entries))
		for i, e := range entries {
			corpus[i] = tfidf.Entry{Restaurant: e.Restaurant, Text: e.Text}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var sp *spinner.Spinner
		if !quiet {
			sp = spinner.New(ctx, os.Stderr, "Fitting term-weight index...")
			sp.Start()
		}
		vectorizer, matrix, index, err := tfidf.Fit(corpus, tfidf.Options{
			MinDF:      cfg.Vectorizer.MinDF,
			MaxDFRatio: cfg.Vectorizer.MaxDFRatio,
			Stem:       cfg.Vectorizer.Stem,
		})
		if sp != nil {
			sp.Stop()
		}
		if err != nil {
			return err
		}

		model := &artifact.Model{
			Vectorizer: vectorizer,
			Matrix:     matrix,
			Index:      index,
			Profiles:   profiles,
		}
		if err := artifact.Save(cfg.ModelsDir, model); err != nil {
			return err
		}

		if !quiet {
			fmt.Fprintf(os.Stderr, "Built model: %d restaurants, %d reviews, %d vocabulary terms -> %s\n",
				matrix.Rows, len(reviews), matrix.Cols, cfg.ModelsDir)
		}
		return nil
	},
}

var similarCmd = &cobra.Command{
	Use:   "similar <restaurant>",
	Short: "Recommend restaurants similar to a seed restaurant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		engine, err := loadEngine(cfg)
		if err != nil {
			return err
		}

		topN, _ := cmd.Flags().GetInt("top")
		results, err := engine.SimilarTo(args[0], topN)
		if err != nil {
			return err
		}
		return printResults(cmd, results)
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <preference text>",
	Short: "Recommend restaurants matching a free-text preference",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		engine, err := loadEngine(cfg)
		if err != nil {
			return err
		}

		topN, _ := cmd.Flags().GetInt("top")
		results, err := engine.FromText(args[0], topN)
		if err != nil {
			return err
		}
		return printResults(cmd, results)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().StringP("models", "m", "models", "Model artifact directory")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress progress messages")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "Enable debug logging")
	_ = rootCmd.PersistentFlags().MarkHidden("debug")

	buildCmd.Flags().StringP("input", "i", "", "Reviews CSV file")
	_ = buildCmd.MarkFlagRequired("input")
	buildCmd.Flags().Int("min-df", 0, "Minimum document frequency for vocabulary terms (0 = adaptive)")
	buildCmd.Flags().Bool("stem", false, "Stem tokens before indexing")

	for _, cmd := range []*cobra.Command{similarCmd, queryCmd} {
		cmd.Flags().IntP("top", "n", 10, "Number of recommendations")
		cmd.Flags().Bool("json", false, "Output results as JSON")
		cmd.Flags().Float64("w-sim", 0.65, "Weight for text similarity")
		cmd.Flags().Float64("w-rating", 0.25, "Weight for average rating")
		cmd.Flags().Float64("w-pop", 0.10, "Weight for review-count popularity")
	}

	rootCmd.AddCommand(buildCmd, similarCmd, queryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
