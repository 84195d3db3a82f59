package harvester

import (
	"math"

	"github.com/FranksOps/gleaner/internal/storage"
)

// TopN is how many keywords the statistics report as top-ranked.
const TopN = 20

// TopKeyword is one entry of the top-relevance list.
type TopKeyword struct {
	Keyword   string `json:"keyword"`
	Relevance int    `json:"relevance"`
	Depth     int    `json:"depth"`
}

// Stats aggregates a finished result list. All averages are zero on
// empty input.
type Stats struct {
	TotalKeywords      int          `json:"total_keywords"`
	UniqueKeywords     int          `json:"unique_keywords"`
	AverageRelevance   float64      `json:"average_relevance"`
	AverageLength      float64      `json:"average_keyword_length"`
	AverageWordCount   float64      `json:"average_word_count"`
	DepthDistribution  map[int]int  `json:"depth_distribution"`
	TopKeywords        []TopKeyword `json:"top_keywords"`
	LongTailPercentage float64      `json:"long_tail_percentage"`
}

// Collect derives statistics from a harvest result list. uniqueTotal is
// the size of the run's seen set (seeds included), which exceeds
// len(results) because seeds are deduplicated but never emitted as
// results. Pure; results are not modified.
func Collect(results []*storage.Keyword, uniqueTotal int) Stats {
	s := Stats{
		UniqueKeywords:    uniqueTotal,
		DepthDistribution: map[int]int{},
		TopKeywords:       []TopKeyword{},
	}
	if len(results) == 0 {
		s.UniqueKeywords = 0
		return s
	}

	s.TotalKeywords = len(results)

	var relevanceSum, lengthSum, wordSum, longTail int
	for _, k := range results {
		relevanceSum += k.Relevance
		lengthSum += len(k.Keyword)
		wc := k.WordCount()
		wordSum += wc
		if wc >= 3 {
			longTail++
		}
		s.DepthDistribution[k.Depth]++
	}

	n := float64(len(results))
	s.AverageRelevance = round2(float64(relevanceSum) / n)
	s.AverageLength = round1(float64(lengthSum) / n)
	s.AverageWordCount = round1(float64(wordSum) / n)
	s.LongTailPercentage = round1(float64(longTail) / n * 100)

	// Harvest output is already ranked, but re-sort a copy so Collect
	// also works on raw backend query results.
	ranked := make([]*storage.Keyword, len(results))
	copy(ranked, results)
	storage.SortByRelevance(ranked)
	for i, k := range ranked {
		if i >= TopN {
			break
		}
		s.TopKeywords = append(s.TopKeywords, TopKeyword{
			Keyword:   k.Keyword,
			Relevance: k.Relevance,
			Depth:     k.Depth,
		})
	}

	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
