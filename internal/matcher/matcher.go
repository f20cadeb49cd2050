// Package matcher identifies which stored template a screenshot shows.
// Every feature region of a template is compared against the same region of
// the screenshot with normalized cross correlation, and a template matches
// only when all of its features clear the score threshold.
package matcher

import (
	"context"
	"fmt"
	"log"
	"sort"

	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"hmi-config/internal/imaging"
	"hmi-config/internal/store"
)

// Options tune a Matcher.
type Options struct {
	// Threshold is the minimum correlation score a feature must reach.
	Threshold float64
	// Workers bounds how many templates are scored concurrently.
	Workers int
}

// DefaultOptions returns the settings used in production.
func DefaultOptions() Options {
	return Options{
		Threshold: 0.9,
		Workers:   4,
	}
}

// FeatureScore is the correlation result of one feature region.
type FeatureScore struct {
	ItemID store.ItemID
	Name   string
	Score  float64
}

// Result describes the outcome of scoring one template.
type Result struct {
	TemplateID store.TemplateID
	Found      bool
	Scores     []FeatureScore
	// MinScore and MeanScore summarize Scores for logging and the debug CLI.
	MinScore  float64
	MeanScore float64
}

// Matcher scores screenshots against a template document.
type Matcher struct {
	opts Options
}

// New returns a matcher with the given options. Zero fields fall back to
// their defaults.
func New(opts Options) *Matcher {
	def := DefaultOptions()
	if opts.Threshold <= 0 {
		opts.Threshold = def.Threshold
	}
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	return &Matcher{opts: opts}
}

// Match scores the screenshot at inputPath against every template of the
// document and returns the matching template with the lowest ID, or a result
// with Found false when nothing matches. Templates without features never
// match.
func (m *Matcher) Match(ctx context.Context, inputPath string, doc *store.Document) (Result, error) {
	input, err := imaging.ReadMat(inputPath)
	if err != nil {
		return Result{}, err
	}
	defer input.Close()

	ids := doc.TemplateIDs()
	results := make([]*Result, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := m.scoreTemplate(input, id, doc.Images[id])
			if err != nil {
				return fmt.Errorf("template %d: %w", id, err)
			}
			results[i] = &res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	for _, res := range results {
		if res != nil && res.Found {
			log.Printf("input %s matched template %d (min %.3f)", inputPath, res.TemplateID, res.MinScore)
			return *res, nil
		}
	}
	return Result{Found: false}, nil
}

// ScoreAll returns the per-template results for a screenshot in ascending
// template ID order, matched or not. The debug CLI uses it to show why a
// template was rejected.
func (m *Matcher) ScoreAll(ctx context.Context, inputPath string, doc *store.Document) ([]Result, error) {
	input, err := imaging.ReadMat(inputPath)
	if err != nil {
		return nil, err
	}
	defer input.Close()

	var out []Result
	for _, id := range doc.TemplateIDs() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := m.scoreTemplate(input, id, doc.Images[id])
		if err != nil {
			return nil, fmt.Errorf("template %d: %w", id, err)
		}
		out = append(out, res)
	}
	return out, nil
}

// scoreTemplate compares the input against one template. The input is scaled
// to the template's recorded capture size first, so feature rectangles address
// the same pixels in both images.
func (m *Matcher) scoreTemplate(input gocv.Mat, id store.TemplateID, t *store.Template) (Result, error) {
	res := Result{TemplateID: id}
	if len(t.Features) == 0 {
		return res, nil
	}

	ref, err := imaging.ReadMat(t.Path)
	if err != nil {
		return res, err
	}
	defer ref.Close()

	scaled := imaging.ResizeTo(input, t.Size)
	defer scaled.Close()
	inGray := imaging.ToGray(scaled)
	defer inGray.Close()
	refGray := imaging.ToGray(ref)
	defer refGray.Close()

	ids := make([]store.ItemID, 0, len(t.Features))
	for iid := range t.Features {
		ids = append(ids, iid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	matched := 0
	for _, iid := range ids {
		feat := t.Features[iid]
		score, err := m.scoreFeature(inGray, refGray, feat)
		if err != nil {
			return res, fmt.Errorf("feature %q: %w", feat.Name, err)
		}
		res.Scores = append(res.Scores, FeatureScore{ItemID: iid, Name: feat.Name, Score: score})
		if score >= m.opts.Threshold {
			matched++
		}
	}

	vals := make([]float64, len(res.Scores))
	for i, fs := range res.Scores {
		vals[i] = fs.Score
	}
	res.MinScore = floats.Min(vals)
	res.MeanScore = stat.Mean(vals, nil)
	res.Found = matched == len(t.Features)
	return res, nil
}

// scoreFeature crops the feature rectangle out of both grayscale images and
// returns the peak normalized cross correlation.
func (m *Matcher) scoreFeature(input, ref gocv.Mat, feat store.Item) (float64, error) {
	inRegion, err := imaging.CropBox(input, feat.Position)
	if err != nil {
		return 0, err
	}
	defer inRegion.Close()
	refRegion, err := imaging.CropBox(ref, feat.Position)
	if err != nil {
		return 0, err
	}
	defer refRegion.Close()

	scores := gocv.NewMat()
	defer scores.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.MatchTemplate(inRegion, refRegion, &scores, gocv.TmCcoeffNormed, mask)
	_, maxVal, _, _ := gocv.MinMaxLoc(scores)
	return float64(maxVal), nil
}
