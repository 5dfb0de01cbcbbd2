package aggregate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ziltek/calcombine/internal/models"
	"github.com/ziltek/calcombine/internal/output"
	"go.uber.org/zap"
)

// Combiner runs an Aggregator over a fixed list of sources and publishes the table as a CSV
// artifact. Runs are serialised, so the watcher and the HTTP API may trigger it concurrently.
type Combiner struct {
	mu         sync.Mutex
	aggregator *Aggregator
	sources    []models.SourceFile
	outputPath string
	logger     *zap.Logger
}

// NewCombiner returns a Combiner writing to outputPath.
func NewCombiner(agg *Aggregator, sources []models.SourceFile, outputPath string, logger *zap.Logger) *Combiner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Combiner{
		aggregator: agg,
		sources:    append([]models.SourceFile(nil), sources...),
		outputPath: outputPath,
		logger:     logger,
	}
}

// Sources returns a copy of the configured sources.
func (c *Combiner) Sources() []models.SourceFile {
	return append([]models.SourceFile(nil), c.sources...)
}

// OutputPath returns the artifact path.
func (c *Combiner) OutputPath() string { return c.outputPath }

// Combine aggregates the sources and replaces the artifact. Unless force is set, the run is
// skipped when no source is newer than the existing artifact. On error the previous artifact
// is left as it was.
func (c *Combiner) Combine(ctx context.Context, force bool) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	artifact, err := output.Stat(c.outputPath)
	if err != nil {
		return nil, err
	}
	last := artifact.ModTime
	if force {
		last = time.Time{}
	}
	res, err := c.aggregator.Aggregate(ctx, c.sources, last)
	if err != nil {
		return nil, err
	}
	if res.Skipped {
		c.logger.Info("combine skipped, output is up to date", zap.String("output", c.outputPath))
		return res, nil
	}
	if err := output.WriteFileAtomic(c.outputPath, res.Table); err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}
	c.logger.Info("combine finished",
		zap.String("output", c.outputPath),
		zap.Int("files", len(c.sources)),
		zap.Int("sheets", res.SheetsProcessed),
		zap.Int("warnings", len(res.Warnings)),
		zap.Duration("took", time.Since(start)))
	return res, nil
}
