// Package scoring ranks videos by technical relevance on a 0-100 scale.
//
// The score is the sum of six independent criteria:
//
//	view velocity (views per day, log-normalized)  25
//	like ratio (5% likes/views is the maximum)     20
//	technical keywords in title and tags           25
//	duration of at least ten minutes               10
//	chapters in the description                    10
//	number of distinct topics detected             10
package scoring

import (
	"math"
	"strings"
	"time"

	"YTVeille/internal/domain"
)

const (
	maxViewScore     = 25.0
	maxLikeScore     = 20.0
	maxAdvancedScore = 15.0
	maxKeywordScore  = 10.0
	durationScore    = 10.0
	chaptersScore    = 10.0
	maxTopicsScore   = 10.0

	referenceViewsPerDay = 1000.0
	referenceLikeRatio   = 0.05
	advancedHitsCap      = 5.0
	keywordHitsCap       = 10.0
	topicsCap            = 3.0
	minLongDuration      = 600
)

// Breakdown exposes the individual criteria behind a score.
type Breakdown struct {
	Views    float64
	Likes    float64
	Keywords float64
	Duration float64
	Chapters float64
	Topics   float64
}

// Sum adds every criterion.
func (b Breakdown) Sum() float64 {
	return b.Views + b.Likes + b.Keywords + b.Duration + b.Chapters + b.Topics
}

// Result is the outcome of scoring one video.
type Result struct {
	Score     float64
	Topics    []string
	Breakdown Breakdown
}

// Score computes the relevance score and topics of v relative to now.
func Score(v domain.Video, now time.Time) Result {
	text := searchableText(v)
	topics := DetectTopics(text)

	ageDays := now.Sub(v.PublishedAt).Hours() / 24

	b := Breakdown{
		Views:    viewScore(v.ViewCount, ageDays),
		Likes:    likeRatioScore(v.LikeCount, v.ViewCount),
		Keywords: KeywordScore(text),
		Duration: durationScoreFor(v.DurationSeconds),
		Chapters: chaptersScoreFor(v.HasChapters),
		Topics:   topicsScore(len(topics)),
	}

	return Result{
		Score:     round(math.Min(b.Sum(), 100), 1),
		Topics:    topics,
		Breakdown: b,
	}
}

// Apply scores v and attaches the result.
func Apply(v domain.Video, now time.Time) domain.ScoredVideo {
	res := Score(v, now)
	return domain.ScoredVideo{Video: v, Score: res.Score, Topics: res.Topics}
}

// DetectTopics returns the topics whose keywords appear in text, in taxonomy order.
func DetectTopics(text string) []string {
	lower := strings.ToLower(text)
	topics := []string{}
	for _, t := range taxonomy {
		if containsAny(lower, t.Keywords) {
			topics = append(topics, t.ID)
		}
	}
	return topics
}

// KeywordScore rates the technical vocabulary of text (0-25).
func KeywordScore(text string) float64 {
	lower := strings.ToLower(text)
	advanced := countHits(lower, advancedKeywords)
	total := countHits(lower, allKeywords)

	score := math.Min(float64(advanced)/advancedHitsCap, 1)*maxAdvancedScore +
		math.Min(float64(total)/keywordHitsCap, 1)*maxKeywordScore
	return round(score, 2)
}

func searchableText(v domain.Video) string {
	return v.Title + " " + strings.Join(v.Tags, " ")
}

func viewScore(views int64, ageDays float64) float64 {
	if ageDays < 1 {
		ageDays = 1
	}
	perDay := float64(max(views, 0)) / ageDays
	score := math.Min(math.Log1p(perDay)/math.Log1p(referenceViewsPerDay), 1) * maxViewScore
	return round(score, 2)
}

func likeRatioScore(likes, views int64) float64 {
	if views <= 0 {
		return 0
	}
	ratio := float64(max(likes, 0)) / float64(views)
	return round(math.Min(ratio/referenceLikeRatio, 1)*maxLikeScore, 2)
}

func durationScoreFor(seconds int) float64 {
	if seconds >= minLongDuration {
		return durationScore
	}
	return 0
}

func chaptersScoreFor(has bool) float64 {
	if has {
		return chaptersScore
	}
	return 0
}

func topicsScore(n int) float64 {
	return round(math.Min(float64(n)/topicsCap, 1)*maxTopicsScore, 2)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func countHits(text string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
