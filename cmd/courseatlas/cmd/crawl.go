package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yigit/courseatlas/internal/app/models"
	"github.com/yigit/courseatlas/internal/app/repositories"
	"github.com/yigit/courseatlas/internal/bootstrap"
	"github.com/yigit/courseatlas/internal/browser"
	"github.com/yigit/courseatlas/internal/config"
	"github.com/yigit/courseatlas/internal/crawl"
	"github.com/yigit/courseatlas/internal/identity"
	"github.com/yigit/courseatlas/internal/pkg/helpers"
	"github.com/yigit/courseatlas/internal/profile"
)

// applyCrawlFlags copies explicitly set flags over the crawl configuration
func applyCrawlFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	set := func(name string, apply func() error) {
		if err == nil && flags.Changed(name) {
			err = apply()
		}
	}

	set("semester", func() (e error) { cfg.Crawl.Semester, e = flags.GetString("semester"); return })
	set("year", func() (e error) { cfg.Crawl.Year, e = flags.GetInt("year"); return })
	set("limit", func() (e error) { cfg.Crawl.MatchLimit, e = flags.GetInt("limit"); return })
	set("stagnation-limit", func() (e error) { cfg.Crawl.StagnationLimit, e = flags.GetInt("stagnation-limit"); return })
	set("school-id", func() (e error) { cfg.Crawl.SchoolID, e = flags.GetString("school-id"); return })
	set("headless", func() (e error) { cfg.Crawl.Headless, e = flags.GetBool("headless"); return })
	set("dry-run", func() (e error) { cfg.Crawl.DryRun, e = flags.GetBool("dry-run"); return })
	return err
}

func newCrawlCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the professor directory and store instructor ratings",
		Long: `Crawl opens the school's professor directory, repeatedly expands the result
list and matches each card against the instructors teaching in the target
term. Every match has its profile page fetched and parsed, and the rating
snapshot is written onto the instructor row.

The run ends after consecutive cycles without new cards or a successful
expansion (stagnation), when the match limit is reached, or on interrupt.`,
		Example: `  # Crawl for Fall 2024 instructors
  courseatlas crawl --semester Fall --year 2024

  # Preview the first 20 matches without writing, with a visible browser
  courseatlas crawl --semester Spring --year 2025 --limit 20 --dry-run --headless=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := applyCrawlFlags(cmd, app.cfg); err != nil {
				return err
			}
			return app.runCrawl(cmd)
		},
	}

	cmd.Flags().String("semester", "", "target term semester: Spring, Summer, Fall or Winter")
	cmd.Flags().Int("year", 0, "target term year")
	cmd.Flags().Int("limit", 0, "stop after this many matches (0 for no limit)")
	cmd.Flags().Int("stagnation-limit", 4, "stop after this many cycles without progress")
	cmd.Flags().String("school-id", "", "directory school id")
	cmd.Flags().Bool("headless", true, "run the browser headless")
	cmd.Flags().Bool("dry-run", false, "parse profiles without writing ratings")

	return cmd
}

func (a *App) runCrawl(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cc := a.cfg.Crawl

	semester, ok := models.ParseSemester(cc.Semester)
	if !ok {
		return fmt.Errorf("a target semester is required (Spring, Summer, Fall or Winter), got %q", cc.Semester)
	}
	if cc.Year <= 0 {
		return fmt.Errorf("a target year is required")
	}
	term := models.Term{Semester: semester, Year: cc.Year}

	database, err := bootstrap.SetupDatabase(ctx, a.cfg, a.log, false)
	if err != nil {
		return err
	}
	defer database.Close()

	instructorRepo := repositories.NewInstructorRepository(database.Pool)
	instructors, err := instructorRepo.ListForTerm(ctx, term.Semester, term.Year)
	if err != nil {
		return err
	}
	index := identity.NewIndex(instructors)
	if index.Len() == 0 {
		return fmt.Errorf("no instructors teach in %s; ingest the term first", term)
	}
	if ambiguous := index.Ambiguous(); len(ambiguous) > 0 {
		a.log.Warn().Strs("keys", ambiguous).Msg("Instructor names share a match key; every row will be updated")
	}
	a.log.Info().
		Str("term", term.String()).
		Int("instructors", index.Len()).
		Int("keys", index.Keys()).
		Msg("Instructor index built")

	chrome, err := browser.Launch(ctx, browser.Options{
		Headless:  cc.Headless,
		UserAgent: cc.UserAgent,
	})
	if err != nil {
		return err
	}
	defer chrome.Close()

	fetcher := crawl.NewHTTPFetcher(crawl.HTTPFetcherOptions{
		UserAgent: cc.UserAgent,
		Timeout:   helpers.ParseDuration(cc.FetchTimeout, 30*time.Second),
	})
	parser := profile.NewParser(cc.BaseURL, cc.RatingsLimit)

	var writer crawl.RatingWriter
	if !cc.DryRun {
		writer = instructorRepo
	}

	crawler := crawl.NewCrawler(chrome, fetcher, parser, writer, index, crawl.Options{
		BaseURL:            cc.BaseURL,
		SchoolID:           cc.SchoolID,
		StagnationLimit:    cc.StagnationLimit,
		MatchLimit:         cc.MatchLimit,
		InitialLoadTimeout: helpers.ParseDuration(cc.InitialLoadTimeout, 25*time.Second),
		ActionTimeout:      helpers.ParseDuration(cc.ActionTimeout, 1500*time.Millisecond),
		SettleDelay:        helpers.ParseDuration(cc.SettleDelay, 900*time.Millisecond),
		DryRun:             cc.DryRun,
	}, a.log)

	result, runErr := crawler.Run(ctx)
	if result != nil {
		if err := renderCrawlResult(cmd.OutOrStdout(), a.output, result); err != nil {
			return err
		}
	}
	return runErr
}
