// Package ranker scores document sentences against a query and keeps the relevant ones.
package ranker

import (
	"runtime"
	"slices"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"

	"reportgen/internal/domain"
	"reportgen/internal/sentence"
	"reportgen/internal/similarity"
	"reportgen/internal/tokenize"
)

const (
	// DefaultThreshold is the score a sentence must exceed to be reported.
	DefaultThreshold = 0.1

	defaultParallelMin = 64
)

// Ranker splits text into sentences and orders them by similarity to a query.
// A Ranker holds only its worker pool; every Rank call is independent.
type Ranker struct {
	pool        *ants.Pool
	parallelMin int
	logger      *logrus.Entry
}

// Option configures a Ranker.
type Option func(*Ranker) error

// WithWorkers sets the size of the scoring pool. Zero or less scores inline.
func WithWorkers(n int) Option {
	return func(r *Ranker) error {
		if r.pool != nil {
			r.pool.Release()
			r.pool = nil
		}
		if n <= 0 {
			return nil
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		r.pool = pool
		return nil
	}
}

// WithParallelMin sets the candidate count below which scoring stays inline.
func WithParallelMin(n int) Option {
	return func(r *Ranker) error {
		if n < 1 {
			n = 1
		}
		r.parallelMin = n
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(r *Ranker) error {
		if logger != nil {
			r.logger = logger.WithField("component", "ranker")
		}
		return nil
	}
}

// New creates a Ranker. The default pool size is runtime.NumCPU().
func New(opts ...Option) (*Ranker, error) {
	r := &Ranker{
		parallelMin: defaultParallelMin,
		logger:      logrus.WithField("component", "ranker"),
	}
	if err := WithWorkers(runtime.NumCPU())(r); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			r.Release()
			return nil, err
		}
	}
	return r, nil
}

// Release stops the worker pool.
func (r *Ranker) Release() {
	if r.pool != nil {
		r.pool.Release()
	}
}

// Rank returns the sentences of documentText scoring strictly above threshold,
// highest first, ties in document order. An empty Ranking means no results.
func (r *Ranker) Rank(documentText, query string, threshold float64) domain.Ranking {
	candidates := sentence.Split(documentText)
	querySet := tokenize.NewSet(query)
	scored := r.score(candidates, querySet)
	kept := Filter(scored, threshold)
	Sort(kept)
	r.logger.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"kept":       len(kept),
	}).Debug("ranked sentences")
	return domain.Ranking{Sentences: kept}
}

// Rank ranks without a worker pool.
func Rank(documentText, query string, threshold float64) domain.Ranking {
	scored := Score(sentence.Split(documentText), tokenize.NewSet(query))
	kept := Filter(scored, threshold)
	Sort(kept)
	return domain.Ranking{Sentences: kept}
}

// Score computes the similarity of each candidate to the query set, in candidate order.
func Score(candidates []string, query tokenize.Set) []domain.ScoredSentence {
	out := make([]domain.ScoredSentence, len(candidates))
	for i, c := range candidates {
		out[i] = scoreOne(i, c, query)
	}
	return out
}

// Filter keeps sentences scoring strictly above threshold, preserving order.
func Filter(scored []domain.ScoredSentence, threshold float64) []domain.ScoredSentence {
	kept := make([]domain.ScoredSentence, 0, len(scored))
	for _, s := range scored {
		if s.Score > threshold {
			kept = append(kept, s)
		}
	}
	return kept
}

// Sort orders sentences by descending score. The sort is stable, so equal
// scores keep their incoming (document) order.
func Sort(scored []domain.ScoredSentence) {
	slices.SortStableFunc(scored, func(a, b domain.ScoredSentence) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
}

func scoreOne(i int, text string, query tokenize.Set) domain.ScoredSentence {
	return domain.ScoredSentence{
		Index: i,
		Text:  text,
		Score: similarity.Jaccard(query, tokenize.NewSet(text)),
	}
}

// score fans candidates out to the pool and gathers results by index.
func (r *Ranker) score(candidates []string, query tokenize.Set) []domain.ScoredSentence {
	if r.pool == nil || len(candidates) < r.parallelMin {
		return Score(candidates, query)
	}
	out := make([]domain.ScoredSentence, len(candidates))
	var wg sync.WaitGroup
	for i, c := range candidates {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			out[i] = scoreOne(i, c, query)
		}
		if err := r.pool.Submit(task); err != nil {
			r.logger.WithError(err).Warn("pool rejected task, scoring inline")
			task()
		}
	}
	wg.Wait()
	return out
}
