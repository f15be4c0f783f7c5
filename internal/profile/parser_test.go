package profile

import (
	"os"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/courseatlas/internal/app/models"
	"github.com/yigit/courseatlas/internal/pkg/helpers"
)

const baseURL = "https://www.ratemyprofessors.com"

func parseFixture(t *testing.T, limit int) *Profile {
	t.Helper()
	f, err := os.Open("testdata/profile.html")
	require.NoError(t, err)
	defer f.Close()

	prof, err := NewParser(baseURL, limit).Parse(f)
	require.NoError(t, err)
	return prof
}

func TestParseFullProfile(t *testing.T) {
	prof := parseFixture(t, 0)

	assert.Equal(t, int64(2345678), *prof.ProfessorID)
	assert.Equal(t, int64(1320), *prof.SchoolID)
	assert.Equal(t, "Jane Doe", *prof.Name)
	assert.Equal(t, "Computer Science department", *prof.Department)
	assert.Equal(t, "University of Vermont", *prof.School)
	assert.Equal(t, 4.7, *prof.AvgRating)
	assert.Equal(t, 1234, *prof.NumRatings)
	assert.Equal(t, 92.0, *prof.WouldTakeAgain)
	assert.Equal(t, 2.8, *prof.Difficulty)
	assert.Equal(t, []string{"Amazing lectures", "Caring", "Clear grading criteria"}, prof.TopTags)

	assert.Equal(t, models.RatingDistribution{
		Awesome: helpers.Ptr(800),
		Great:   helpers.Ptr(250),
		Good:    helpers.Ptr(100),
		OK:      helpers.Ptr(50),
		Awful:   helpers.Ptr(34),
	}, prof.Distribution)

	require.Len(t, prof.Similar, 2, "entries without a name are dropped")
	assert.Equal(t, "Alan Turing", prof.Similar[0].Name)
	assert.Equal(t, int64(111), *prof.Similar[0].ID)
	assert.Equal(t, 4.5, *prof.Similar[0].Score)
	assert.Equal(t, baseURL+"/professor/111", *prof.Similar[0].URL)

	require.Len(t, prof.Ratings, 3)
	first := prof.Ratings[0]
	assert.Equal(t, "CS021", *first.Course)
	assert.Equal(t, "Sep 3rd, 2024", *first.Date)
	assert.Equal(t, 5.0, *first.Quality)
	assert.Equal(t, 3.0, *first.Difficulty)
	assert.Equal(t, "Great class, explains everything.", *first.Comment)
	assert.Equal(t, []string{"Caring"}, first.Tags)
	assert.Equal(t, map[string]string{"For Credit": "Yes", "Grade": "A"}, first.Meta)
	assert.Equal(t, 3, *first.ThumbsUp)
	assert.Equal(t, 1, *first.ThumbsDown)

	second := prof.Ratings[1]
	assert.Equal(t, 2.0, *second.Quality)
	assert.Nil(t, second.Difficulty)
	assert.Nil(t, second.Comment)
	assert.Nil(t, second.ThumbsUp)

	assert.Equal(t, baseURL+"/professor/2345678", *prof.Links.Profile)
	assert.Equal(t, baseURL+"/add/professor-rating/2345678", *prof.Links.Rate)
	assert.Equal(t, baseURL+"/compare/professors/2345678", *prof.Links.Compare)
}

func TestRatingsLimit(t *testing.T) {
	prof := parseFixture(t, 2)
	assert.Len(t, prof.Ratings, 2)
	assert.Equal(t, "CS124", *prof.Ratings[1].Course)
}

func TestMissingBlocksSoftFail(t *testing.T) {
	html := `<html><body>
		<div class="HeaderDescription__NameWrapper-x">John Smith</div>
		<div class="RatingValue__Numerator-x">3.1</div>
		<span class="Tag-abc">Tough grader</span>
	</body></html>`

	prof, err := NewParser(baseURL, 10).ParseString(html)
	require.NoError(t, err)

	assert.Equal(t, "John Smith", *prof.Name, "fallback name selector")
	assert.Equal(t, 3.1, *prof.AvgRating)
	assert.Equal(t, []string{"Tough grader"}, prof.TopTags, "fallback tag selector")

	assert.Equal(t, models.RatingDistribution{}, prof.Distribution)
	assert.Nil(t, prof.ProfessorID)
	assert.Nil(t, prof.NumRatings)
	assert.Nil(t, prof.WouldTakeAgain)
	assert.Nil(t, prof.Difficulty)
	assert.Empty(t, prof.Similar)
	assert.Empty(t, prof.Ratings)
	assert.Nil(t, prof.Links.Profile)
}

func TestMissingDistributionLeavesOtherFields(t *testing.T) {
	body, err := os.ReadFile("testdata/profile.html")
	require.NoError(t, err)
	html := regexp.MustCompile(`(?s)<ul class="RatingDistributionChart__MeterList.*?</ul>`).
		ReplaceAllString(string(body), "")
	require.NotContains(t, html, "RatingDistributionChart")

	prof, err := NewParser(baseURL, 0).ParseString(html)
	require.NoError(t, err)

	assert.Equal(t, models.RatingDistribution{}, prof.Distribution)

	assert.Equal(t, int64(2345678), *prof.ProfessorID)
	assert.Equal(t, int64(1320), *prof.SchoolID)
	assert.Equal(t, "Jane Doe", *prof.Name)
	assert.Equal(t, "Computer Science department", *prof.Department)
	assert.Equal(t, "University of Vermont", *prof.School)
	assert.Equal(t, 4.7, *prof.AvgRating)
	assert.Equal(t, 1234, *prof.NumRatings)
	assert.Equal(t, 92.0, *prof.WouldTakeAgain)
	assert.Equal(t, 2.8, *prof.Difficulty)
	assert.Len(t, prof.TopTags, 3)
	assert.Len(t, prof.Similar, 2)
	assert.Len(t, prof.Ratings, 3)
	assert.NotNil(t, prof.Links.Profile)
	assert.NotNil(t, prof.Links.Rate)
	assert.NotNil(t, prof.Links.Compare)
}

func TestMismatchedFeedbackIsIgnored(t *testing.T) {
	html := `<div class="TeacherFeedback__x"><div class="FeedbackItem__x">
		<div class="FeedbackItem__FeedbackNumber">80%</div>
		<div class="FeedbackItem__FeedbackNumber">3.0</div>
		<div class="FeedbackItem__FeedbackDescription">Would take again</div>
	</div></div>`

	prof, err := NewParser(baseURL, 10).ParseString(html)
	require.NoError(t, err)
	assert.Nil(t, prof.WouldTakeAgain)
	assert.Nil(t, prof.Difficulty)
}

func TestNumericCoercion(t *testing.T) {
	floats := map[string]*float64{
		"4.9":        helpers.Ptr(4.9),
		" 4.9 / 5 ":  helpers.Ptr(4.9),
		"99%":        helpers.Ptr(99.0),
		"N/A":        nil,
		"difficulty": nil,
	}
	for in, want := range floats {
		t.Run("float "+in, func(t *testing.T) {
			assert.Equal(t, want, ToFloat(&in))
		})
	}

	ints := map[string]*int{
		"53":                     helpers.Ptr(53),
		"Based on 53 ratings":    helpers.Ptr(53),
		"Based on 1,234 ratings": helpers.Ptr(1234),
		"none yet":               nil,
	}
	for in, want := range ints {
		t.Run("int "+in, func(t *testing.T) {
			assert.Equal(t, want, ToInt(&in))
		})
	}

	assert.Nil(t, ToFloat(nil))
	assert.Nil(t, ToInt(nil))
}

func TestProfileRating(t *testing.T) {
	prof := parseFixture(t, 0)
	rating := prof.Rating(baseURL, "")

	assert.Equal(t, prof.ProfessorID, rating.ProfileID)
	assert.Equal(t, baseURL+"/professor/2345678", *rating.URL)
	assert.Equal(t, 4.7, *rating.Average)
	assert.Equal(t, 1234, *rating.Count)
	assert.Equal(t, "Computer Science department", *rating.Department)
	assert.Len(t, rating.Recent, 3)
	assert.Nil(t, rating.LastRefreshed)

	t.Run("url falls back to professor id", func(t *testing.T) {
		p := &Profile{ProfessorID: helpers.Ptr(int64(42))}
		assert.Equal(t, baseURL+"/professor/42", *p.Rating(baseURL+"/", "").URL)
	})

	t.Run("url falls back to the fetched page", func(t *testing.T) {
		p := &Profile{}
		assert.Equal(t, "https://example.test/p", *p.Rating(baseURL, "https://example.test/p").URL)
		assert.Nil(t, (&Profile{}).Rating(baseURL, "").URL)
	})
}
