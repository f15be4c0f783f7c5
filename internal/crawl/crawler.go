// Package crawl walks the rating directory for a school, matches cards against
// catalog instructors and stores a rating snapshot for every match.
package crawl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/courseatlas/internal/app/models"
	"github.com/yigit/courseatlas/internal/identity"
	"github.com/yigit/courseatlas/internal/pkg/apperrors"
	"github.com/yigit/courseatlas/internal/profile"
)

// State is a step of the crawl state machine
type State int

// Crawl states
const (
	StateInit State = iota
	StateWaitForCards
	StateScan
	StateExpand
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateWaitForCards:
		return "WAIT_FOR_CARDS"
	case StateScan:
		return "SCAN"
	case StateExpand:
		return "EXPAND"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Reason explains why a run stopped
type Reason string

// Termination reasons
const (
	ReasonStagnation  Reason = "stagnation"
	ReasonCeiling     Reason = "ceiling"
	ReasonCanceled    Reason = "canceled"
	ReasonInitialLoad Reason = "initial_load_failed"
)

// Status is the outcome of one matched instructor row
type Status string

// Match outcomes
const (
	StatusParsed      Status = "parsed"
	StatusParseFailed Status = "parse_failed"
)

// RatingWriter stores a rating snapshot on an instructor row
type RatingWriter interface {
	UpdateRating(ctx context.Context, instructorID int64, rating *models.InstructorRating) error
}

// Options tunes a crawl. Zero durations and limits fall back to defaults.
type Options struct {
	BaseURL            string
	SchoolID           string
	ExpandLabel        string
	StagnationLimit    int
	MatchLimit         int
	InitialLoadTimeout time.Duration
	ActionTimeout      time.Duration
	SettleDelay        time.Duration
	DryRun             bool
}

func (o *Options) applyDefaults() {
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.ExpandLabel == "" {
		o.ExpandLabel = "Show More"
	}
	if o.StagnationLimit <= 0 {
		o.StagnationLimit = 4
	}
	if o.InitialLoadTimeout <= 0 {
		o.InitialLoadTimeout = 25 * time.Second
	}
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = 1500 * time.Millisecond
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	}
}

// Outcome records what happened to one matched instructor row
type Outcome struct {
	InstructorID   int64
	InstructorName string
	CardName       string
	URL            string
	Status         Status
	Rating         *models.InstructorRating
	Err            error
}

// Result summarizes a run
type Result struct {
	RunID          string
	Reason         Reason
	Cycles         int
	StagnantCycles int
	CardsSeen      int
	NoMatch        int
	Outcomes       []Outcome
}

// Parsed counts outcomes that were parsed (and written unless dry run)
func (r *Result) Parsed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == StatusParsed {
			n++
		}
	}
	return n
}

// Crawler drives one Page through the directory
type Crawler struct {
	page       Page
	fetcher    ProfileFetcher
	parser     *profile.Parser
	writer     RatingWriter
	index      *identity.Index
	strategies []ExpandStrategy
	opts       Options
	log        zerolog.Logger
}

// NewCrawler wires a crawler. writer may be nil when opts.DryRun is set.
func NewCrawler(page Page, fetcher ProfileFetcher, parser *profile.Parser, writer RatingWriter,
	index *identity.Index, opts Options, log zerolog.Logger) *Crawler {
	opts.applyDefaults()
	return &Crawler{
		page:       page,
		fetcher:    fetcher,
		parser:     parser,
		writer:     writer,
		index:      index,
		strategies: DefaultStrategies(opts.ExpandLabel),
		opts:       opts,
		log:        log,
	}
}

// WithStrategies replaces the expansion chain
func (c *Crawler) WithStrategies(strategies ...ExpandStrategy) *Crawler {
	c.strategies = strategies
	return c
}

// StartURL is the wildcard directory search for the school
func (c *Crawler) StartURL() string {
	return fmt.Sprintf("%s/search/professors/%s?q=*", c.opts.BaseURL, c.opts.SchoolID)
}

// runState is threaded through every transition of one run
type runState struct {
	state     State
	seen      map[string]struct{}
	processed int // largest card count listed so far
	grew      bool
	stagnant  int
	matches   int
	result    *Result
	err       error
	log       zerolog.Logger
}

func (st *runState) finish(reason Reason, err error) {
	st.state = StateDone
	st.result.Reason = reason
	st.err = err
}

// Run crawls until stagnation, the match ceiling or cancellation. The error is
// non-nil only for a failed initial load or a canceled context; the result is
// always returned.
func (c *Crawler) Run(ctx context.Context) (*Result, error) {
	st := &runState{
		state:  StateInit,
		seen:   make(map[string]struct{}),
		result: &Result{RunID: uuid.NewString()},
	}
	st.log = c.log.With().Str("component", "crawl").Str("run_id", st.result.RunID).Logger()
	st.log.Info().
		Int("instructors", c.index.Len()).
		Bool("dry_run", c.opts.DryRun).
		Msg("Starting crawl")

	for st.state != StateDone {
		if err := ctx.Err(); err != nil {
			st.finish(ReasonCanceled, err)
			break
		}

		switch st.state {
		case StateInit:
			c.init(ctx, st)
		case StateWaitForCards:
			c.waitForCards(ctx, st)
		case StateScan:
			c.scan(ctx, st)
		case StateExpand:
			c.expand(ctx, st)
		}
	}

	st.log.Info().
		Str("reason", string(st.result.Reason)).
		Int("cycles", st.result.Cycles).
		Int("cards", st.result.CardsSeen).
		Int("matches", len(st.result.Outcomes)).
		Int("parsed", st.result.Parsed()).
		Int("no_match", st.result.NoMatch).
		Msg("Crawl finished")
	return st.result, st.err
}

func (c *Crawler) init(ctx context.Context, st *runState) {
	url := c.StartURL()
	st.log.Info().Str("url", url).Msg("Opening directory")

	navCtx, cancel := context.WithTimeout(ctx, c.opts.InitialLoadTimeout)
	defer cancel()
	if err := c.page.Navigate(navCtx, url); err != nil {
		c.failInitial(ctx, st, err)
		return
	}

	for _, label := range overlayLabels {
		actCtx, cancel := context.WithTimeout(ctx, c.opts.ActionTimeout)
		err := c.page.ClickRole(actCtx, "button", label)
		cancel()
		if err == nil {
			st.log.Debug().Str("label", label).Msg("Dismissed overlay")
			break
		}
	}

	st.state = StateWaitForCards
}

func (c *Crawler) waitForCards(ctx context.Context, st *runState) {
	waitCtx, cancel := context.WithTimeout(ctx, c.opts.InitialLoadTimeout)
	defer cancel()
	if err := c.page.WaitForCards(waitCtx); err != nil {
		c.failInitial(ctx, st, err)
		return
	}
	st.state = StateScan
}

func (c *Crawler) failInitial(ctx context.Context, st *runState, err error) {
	if ctx.Err() != nil {
		st.finish(ReasonCanceled, ctx.Err())
		return
	}
	st.log.Error().Err(err).Msg("Directory did not load")
	st.finish(ReasonInitialLoad, fmt.Errorf("%w: %w", apperrors.ErrInitialLoad, err))
}

func (c *Crawler) scan(ctx context.Context, st *runState) {
	st.result.Cycles++
	st.grew = false

	cards, err := c.page.Cards(ctx)
	if err != nil {
		st.log.Warn().Err(err).Msg("Failed to enumerate cards")
		st.state = StateExpand
		return
	}

	// Cards still rendering come back without a name or link; they are left
	// unseen so a later scan picks them up.
	total := len(cards)
	for _, card := range cards {
		name, href := strings.TrimSpace(card.Name), strings.TrimSpace(card.Href)
		if name == "" || href == "" {
			continue
		}

		id := CardID(href)
		if _, ok := st.seen[id]; ok {
			continue
		}
		st.seen[id] = struct{}{}
		st.result.CardsSeen++

		rows := c.index.Lookup(name)
		if len(rows) == 0 {
			st.result.NoMatch++
			continue
		}

		for _, inst := range rows {
			outcome := c.process(ctx, st.log, inst, name, href)
			if ctx.Err() != nil {
				st.finish(ReasonCanceled, ctx.Err())
				return
			}
			st.result.Outcomes = append(st.result.Outcomes, outcome)
			st.matches++

			if c.opts.MatchLimit > 0 && st.matches >= c.opts.MatchLimit {
				st.log.Info().Int("matches", st.matches).Msg("Match ceiling reached")
				st.finish(ReasonCeiling, nil)
				return
			}
		}
	}

	st.grew = total > st.processed
	if total > st.processed {
		st.processed = total
	}
	st.state = StateExpand
}

// process fetches, parses and stores the profile for one matched row
func (c *Crawler) process(ctx context.Context, runLog zerolog.Logger, inst *models.Instructor, cardName, href string) Outcome {
	out := Outcome{
		InstructorID:   inst.ID,
		InstructorName: inst.Name,
		CardName:       cardName,
		URL:            c.absolute(href),
	}
	log := runLog.With().
		Int64("instructor_id", inst.ID).
		Str("instructor", inst.Name).
		Str("card", CardID(href)).
		Logger()

	fail := func(err error) Outcome {
		out.Status = StatusParseFailed
		out.Err = err
		log.Warn().Err(err).Msg("Profile skipped")
		return out
	}

	body, err := c.fetcher.Fetch(ctx, out.URL)
	if err != nil {
		return fail(err)
	}

	prof, err := c.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return fail(err)
	}
	out.Rating = prof.Rating(c.opts.BaseURL, out.URL)
	if id, err := strconv.ParseInt(CardID(href), 10, 64); err == nil {
		out.Rating.ProfileID = &id
	}

	if !c.opts.DryRun {
		if err := c.writer.UpdateRating(ctx, inst.ID, out.Rating); err != nil {
			return fail(fmt.Errorf("storing rating: %w", err))
		}
	}

	out.Status = StatusParsed
	log.Info().
		Interface("avg", out.Rating.Average).
		Interface("count", out.Rating.Count).
		Interface("difficulty", out.Rating.Difficulty).
		Msg("Matched instructor")
	return out
}

func (c *Crawler) expand(ctx context.Context, st *runState) {
	before, _ := c.page.CardCount(ctx)

	clicked := false
	for i, strategy := range c.strategies {
		actCtx, cancel := context.WithTimeout(ctx, c.opts.ActionTimeout)
		err := strategy(actCtx, c.page)
		cancel()
		if err == nil {
			clicked = true
			st.log.Debug().Int("strategy", i).Msg("Expanded results")
			break
		}
		if ctx.Err() != nil {
			return
		}
	}

	actCtx, cancel := context.WithTimeout(ctx, c.opts.ActionTimeout)
	if err := c.page.ScrollToBottom(actCtx); err != nil {
		st.log.Debug().Err(err).Msg("Scroll failed")
	}
	cancel()

	if !sleep(ctx, c.opts.SettleDelay) {
		return
	}

	after, err := c.page.CardCount(ctx)
	if err != nil {
		after = before
	}

	if st.grew || clicked || after > before {
		st.stagnant = 0
	} else {
		st.stagnant++
		st.result.StagnantCycles++
	}

	if st.stagnant >= c.opts.StagnationLimit {
		st.log.Info().Int("cycles", st.stagnant).Msg("No more growth, stopping")
		st.finish(ReasonStagnation, nil)
		return
	}
	st.state = StateScan
}

func (c *Crawler) absolute(href string) string {
	if strings.HasPrefix(href, "/") {
		return c.opts.BaseURL + href
	}
	return href
}

var professorPath = regexp.MustCompile(`/professor/(\d+)`)

// CardID is the numeric id in /professor/<id>, else the raw href
func CardID(href string) string {
	if m := professorPath.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return href
}

// sleep waits d or until ctx is done, reporting whether the full delay elapsed
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// IsFatal reports whether err ended the run before any card was scanned
func IsFatal(err error) bool {
	return errors.Is(err, apperrors.ErrInitialLoad)
}
