// Package profile extracts rating fields from a professor profile page.
//
// The page ships hashed CSS class names, so every selector matches on a class
// substring and every field has at least one fallback. Fields are independent:
// a selector that finds nothing leaves its field nil and parsing carries on.
package profile

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yigit/courseatlas/internal/app/models"
)

const (
	// DefaultRatingsLimit caps the individual ratings kept per profile
	DefaultRatingsLimit = 10
	maxTopTags          = 10
	maxSimilar          = 10
)

var (
	professorIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`/professor/(\d+)`),
		regexp.MustCompile(`/compare/professors/(\d+)`),
		regexp.MustCompile(`/add/professor-rating/(\d+)`),
	}
	schoolIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`/school/(\d+)`),
		regexp.MustCompile(`/search/professors/(\d+)`),
	}
	professorHref = regexp.MustCompile(`/professor/(\d+)`)
	decimalToken  = regexp.MustCompile(`\d+(?:\.\d+)?`)
	integerToken  = regexp.MustCompile(`\d+`)
)

// Ordered selector lists; the first one yielding non-empty text wins.
var (
	nameSelectors = []string{
		`[class*="NameTitle__NameWrapper"] h1`,
		`[class*="HeaderDescription__NameWrapper"]`,
		`[class*="MiniStickyHeader__MiniNameWrapper"]`,
	}
	departmentSelectors = []string{
		`a[class*="TeacherDepartment__StyledDepartmentLink"]`,
		`[class*="TeacherTitles__StyledDepartmentName"]`,
	}
	schoolSelectors = []string{
		`a[href*="/school/"]`,
	}
	avgRatingSelectors = []string{
		`[class*="RatingValue__Numerator"]`,
		`[class*="RatingValue__AvgRating"]`,
	}
	numRatingsSelectors = []string{
		`[class*="RatingValue__NumRatings"]`,
		`[class*="NumRatings"]`,
	}
	topTagSelectors = []string{
		`[class*="TeacherTags__TagsContainer"] span[class*="Tag-"]`,
		`span[class*="Tag-"]`,
	}
	ratingsListSelectors = []string{
		`ul#ratingsList`,
		`[id*="ratingsList"]`,
	}
	thumbsUpSelectors = []string{
		`#thumbs_up ~ *`,
		`[id*="thumbs_up"] ~ *`,
	}
	thumbsDownSelectors = []string{
		`#thumbs_down ~ *`,
		`[id*="thumbs_down"] ~ *`,
	}
)

// SimilarProfessor is an entry of the "similar professors" sidebar
type SimilarProfessor struct {
	Name  string   `json:"name"`
	ID    *int64   `json:"id,omitempty"`
	Score *float64 `json:"score,omitempty"`
	URL   *string  `json:"url,omitempty"`
}

// Links are the absolute URLs found on the page
type Links struct {
	Profile *string `json:"profile,omitempty"`
	Rate    *string `json:"rate,omitempty"`
	Compare *string `json:"compare,omitempty"`
}

// Profile holds every field extracted from a profile page. Any field may be nil.
type Profile struct {
	ProfessorID    *int64                    `json:"professorId,omitempty"`
	SchoolID       *int64                    `json:"schoolId,omitempty"`
	Name           *string                   `json:"name,omitempty"`
	Department     *string                   `json:"department,omitempty"`
	School         *string                   `json:"school,omitempty"`
	AvgRating      *float64                  `json:"avgRating,omitempty"`
	NumRatings     *int                      `json:"numRatings,omitempty"`
	WouldTakeAgain *float64                  `json:"wouldTakeAgain,omitempty"`
	Difficulty     *float64                  `json:"difficulty,omitempty"`
	TopTags        []string                  `json:"topTags"`
	Distribution   models.RatingDistribution `json:"distribution"`
	Similar        []SimilarProfessor        `json:"similar"`
	Ratings        []models.IndividualRating `json:"ratings"`
	Links          Links                     `json:"links"`
}

// Parser turns profile HTML into a Profile
type Parser struct {
	baseURL      string
	ratingsLimit int
}

// NewParser creates a parser resolving relative links against baseURL.
// A non-positive ratingsLimit falls back to DefaultRatingsLimit.
func NewParser(baseURL string, ratingsLimit int) *Parser {
	if ratingsLimit <= 0 {
		ratingsLimit = DefaultRatingsLimit
	}
	return &Parser{
		baseURL:      strings.TrimRight(baseURL, "/"),
		ratingsLimit: ratingsLimit,
	}
}

// Parse reads the whole page and extracts every field it can. The only error
// is an unreadable document; missing fields are reported as nil.
func (p *Parser) Parse(r io.Reader) (*Profile, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile html: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile html: %w", err)
	}

	html := string(raw)
	prof := &Profile{
		ProfessorID: firstID(html, professorIDPatterns),
		SchoolID:    firstID(html, schoolIDPatterns),
	}

	root := doc.Selection
	prof.Name = firstText(root, nameSelectors)
	prof.Department = firstText(root, departmentSelectors)
	prof.School = firstText(root, schoolSelectors)
	prof.AvgRating = ToFloat(firstText(root, avgRatingSelectors))
	prof.NumRatings = ToInt(firstText(root, numRatingsSelectors))
	prof.WouldTakeAgain, prof.Difficulty = parseFeedback(root)
	prof.TopTags = parseTopTags(root)
	prof.Distribution = parseDistribution(root)
	prof.Similar = p.parseSimilar(root)
	prof.Ratings = p.parseRatings(root)
	prof.Links = p.parseLinks(root)

	return prof, nil
}

// ParseString is Parse over an in-memory page
func (p *Parser) ParseString(html string) (*Profile, error) {
	return p.Parse(strings.NewReader(html))
}

// Rating converts the profile into the snapshot stored on the instructor row.
// The URL falls back to the /professor/<id> form and then to fallbackURL.
func (p *Profile) Rating(baseURL, fallbackURL string) *models.InstructorRating {
	url := p.Links.Profile
	if url == nil && p.ProfessorID != nil {
		u := fmt.Sprintf("%s/professor/%d", strings.TrimRight(baseURL, "/"), *p.ProfessorID)
		url = &u
	}
	if url == nil && fallbackURL != "" {
		url = &fallbackURL
	}

	return &models.InstructorRating{
		ProfileID:      p.ProfessorID,
		SchoolID:       p.SchoolID,
		URL:            url,
		Department:     p.Department,
		Average:        p.AvgRating,
		Count:          p.NumRatings,
		WouldTakeAgain: p.WouldTakeAgain,
		Difficulty:     p.Difficulty,
		TopTags:        p.TopTags,
		Distribution:   p.Distribution,
		Recent:         p.Ratings,
	}
}

func firstID(html string, patterns []*regexp.Regexp) *int64 {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(html); m != nil {
			if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				return &id
			}
		}
	}
	return nil
}

// text returns the whitespace-collapsed text of the first matched node, or nil when empty
func text(s *goquery.Selection) *string {
	if s.Length() == 0 {
		return nil
	}
	t := strings.Join(strings.Fields(s.First().Text()), " ")
	if t == "" {
		return nil
	}
	return &t
}

func firstText(root *goquery.Selection, selectors []string) *string {
	for _, sel := range selectors {
		if t := text(root.Find(sel)); t != nil {
			return t
		}
	}
	return nil
}

// parseFeedback pairs each feedback number with its label; the lists must line up
func parseFeedback(root *goquery.Selection) (wouldTakeAgain, difficulty *float64) {
	numbers := root.Find(`[class*="TeacherFeedback"] [class*="FeedbackItem"] [class*="FeedbackNumber"]`)
	labels := root.Find(`[class*="TeacherFeedback"] [class*="FeedbackItem"] [class*="FeedbackDescription"]`)
	if numbers.Length() == 0 || numbers.Length() != labels.Length() {
		return nil, nil
	}

	numbers.Each(func(i int, n *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(labels.Eq(i).Text()))
		value := ToFloat(text(n))
		switch {
		case strings.Contains(label, "would take again"):
			wouldTakeAgain = value
		case strings.Contains(label, "difficulty"):
			difficulty = value
		}
	})
	return wouldTakeAgain, difficulty
}

func parseTopTags(root *goquery.Selection) []string {
	for _, sel := range topTagSelectors {
		tags := collectText(root.Find(sel), maxTopTags)
		if len(tags) > 0 {
			return tags
		}
	}
	return []string{}
}

func collectText(s *goquery.Selection, limit int) []string {
	out := make([]string, 0)
	s.EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if t := text(el); t != nil {
			out = append(out, *t)
		}
		return limit <= 0 || len(out) < limit
	})
	return out
}

// parseDistribution reads bucket counts; every bucket stays nil when the chart is absent
func parseDistribution(root *goquery.Selection) models.RatingDistribution {
	var dist models.RatingDistribution

	list := root.Find(`[class*="RatingDistributionChart__MeterList"]`).First()
	if list.Length() == 0 {
		return dist
	}

	list.Find("li").Each(func(_ int, li *goquery.Selection) {
		label := ""
		if t := text(li.Find(`[class*="RatingDistributionChart__LabelText"]`)); t != nil {
			label = strings.ToLower(*t)
		}
		count := ToInt(firstText(li, []string{"b", `[class*="LabelValue"]`}))

		switch {
		case strings.Contains(label, "awesome"):
			dist.Awesome = count
		case strings.Contains(label, "great"):
			dist.Great = count
		case strings.Contains(label, "good"):
			dist.Good = count
		case label == "ok" || label == "okay":
			dist.OK = count
		case strings.Contains(label, "awful"):
			dist.Awful = count
		}
	})
	return dist
}

func (p *Parser) parseSimilar(root *goquery.Selection) []SimilarProfessor {
	out := make([]SimilarProfessor, 0)
	root.Find(`[class*="SimilarProfessors"] a[href*="/professor/"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		name := firstText(a, []string{`[class*="TeacherNameSpan"]`, `[class*="SimilarProfessorListItem"]`})
		if name == nil {
			return true
		}

		href, _ := a.Attr("href")
		sp := SimilarProfessor{
			Name:  *name,
			Score: ToFloat(text(a.Find(`[class*="TeacherScoreSpan"]`))),
			URL:   p.absolute(href),
		}
		if m := professorHref.FindStringSubmatch(href); m != nil {
			if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				sp.ID = &id
			}
		}
		out = append(out, sp)
		return len(out) < maxSimilar
	})
	return out
}

func (p *Parser) parseRatings(root *goquery.Selection) []models.IndividualRating {
	out := make([]models.IndividualRating, 0)

	var list *goquery.Selection
	for _, sel := range ratingsListSelectors {
		if s := root.Find(sel).First(); s.Length() > 0 {
			list = s
			break
		}
	}
	if list == nil {
		return out
	}

	items := list.Find(`li div[class*="Rating__StyledRating"]`)
	if items.Length() == 0 {
		items = list.Find("li")
	}

	items.EachWithBreak(func(_ int, item *goquery.Selection) bool {
		out = append(out, parseRating(item))
		return len(out) < p.ratingsLimit
	})
	return out
}

func parseRating(item *goquery.Selection) models.IndividualRating {
	r := models.IndividualRating{
		Course:  text(item.Find(`[class*="RatingHeader__StyledClass"]`)),
		Date:    text(item.Find(`[class*="RatingHeader__RatingTimeStamp"]`)),
		Comment: text(item.Find(`[class*="Comments__StyledComments"]`)),
		Tags:    collectText(item.Find(`[class*="RatingTags"] span[class*="Tag-"]`), 0),
	}

	headers := item.Find(`[class*="CardNumRating__CardNumRatingHeader"]`)
	numbers := item.Find(`[class*="CardNumRating__CardNumRatingNumber"]`)
	if headers.Length() > 0 && headers.Length() == numbers.Length() {
		headers.Each(func(i int, h *goquery.Selection) {
			label := strings.ToLower(strings.TrimSpace(h.Text()))
			value := ToFloat(text(numbers.Eq(i)))
			switch {
			case strings.Contains(label, "quality"):
				r.Quality = value
			case strings.Contains(label, "difficulty"):
				r.Difficulty = value
			}
		})
	}

	item.Find(`[class*="CourseMeta"] [class*="MetaItem"]`).Each(func(_ int, el *goquery.Selection) {
		t := strings.Join(strings.Fields(el.Text()), " ")
		key, value, ok := strings.Cut(t, ":")
		if !ok {
			return
		}
		if r.Meta == nil {
			r.Meta = make(map[string]string)
		}
		r.Meta[strings.TrimSpace(key)] = strings.TrimSpace(value)
	})

	r.ThumbsUp = ToInt(firstText(item, thumbsUpSelectors))
	r.ThumbsDown = ToInt(firstText(item, thumbsDownSelectors))
	return r
}

func (p *Parser) parseLinks(root *goquery.Selection) Links {
	var links Links
	if href, ok := root.Find(`link[rel="canonical"]`).First().Attr("href"); ok && href != "" {
		links.Profile = &href
	}
	if href, ok := root.Find(`a[href*="/add/professor-rating/"]`).First().Attr("href"); ok {
		links.Rate = p.absolute(href)
	}
	if href, ok := root.Find(`a[href*="/compare/professors/"]`).First().Attr("href"); ok {
		links.Compare = p.absolute(href)
	}
	return links
}

func (p *Parser) absolute(href string) *string {
	href = strings.TrimSpace(href)
	if href == "" {
		return nil
	}
	if strings.HasPrefix(href, "/") {
		href = p.baseURL + href
	}
	return &href
}

// ToFloat parses a bare number, else the first decimal token in the text
// ("4.9 / 5", "99%"). Nil in, nil out.
func ToFloat(s *string) *float64 {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if v, err := strconv.ParseFloat(t, 64); err == nil {
		return &v
	}
	tok := decimalToken.FindString(t)
	if tok == "" {
		return nil
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ToInt returns the first integer token after dropping thousands separators
// ("Based on 1,234 ratings" -> 1234).
func ToInt(s *string) *int {
	if s == nil {
		return nil
	}
	tok := integerToken.FindString(strings.ReplaceAll(*s, ",", ""))
	if tok == "" {
		return nil
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return nil
	}
	return &v
}
