package pipeline

import (
	"context"
	"fmt"

	"github.com/framegrid/framegrid/internal/compose"
	"github.com/framegrid/framegrid/internal/config"
	"github.com/framegrid/framegrid/internal/errors"
	"github.com/framegrid/framegrid/internal/logging"
	"github.com/framegrid/framegrid/internal/reporter"
	"github.com/framegrid/framegrid/internal/sizetarget"
	"github.com/framegrid/framegrid/internal/util"
)

// fitOutputBudget re-encodes the surface at reduced qualities until the
// output fits cfg.MaxOutputBytes, keeping the highest quality that fits.
// data is the attempt at cfg.Quality that came in over budget. When even
// the smallest attempt stays over, the smallest is kept and a warning
// reported; the budget never fails a generation.
func fitOutputBudget(ctx context.Context, canvas compose.Canvas, surface compose.Surface, cfg *config.MosaicConfig, data []byte, rep reporter.Reporter) ([]byte, error) {
	budget := cfg.MaxOutputBytes

	if cfg.Format == config.FormatPNG {
		rep.Warning(fmt.Sprintf("Output is %s, over the %s cap; PNG does not respond to quality",
			util.FormatBytes(uint64(len(data))), util.FormatBytes(uint64(budget))))
		return data, nil
	}

	st := sizetarget.NewState(budget, cfg.Quality)
	st.Record(cfg.Quality, int64(len(data)))

	var bestData []byte
	smallestData := data

	for !st.Done() {
		if ctx.Err() != nil {
			return nil, errors.NewCancelledError()
		}
		q := st.Next()
		if st.Probed(q) {
			break
		}

		encoded, err := canvas.Export(surface, cfg.Format, q)
		if err != nil {
			return nil, errors.NewImageGenerationError("exporting surface", err)
		}
		st.Record(q, int64(len(encoded)))
		logging.Debug("size budget probe",
			"quality", q, "bytes", len(encoded), "budget", budget)

		if best, ok := st.Best(); ok && best.Quality == q {
			bestData = encoded
		}
		if len(encoded) < len(smallestData) {
			smallestData = encoded
		}
	}

	if bestData != nil {
		best, _ := st.Best()
		logging.Debug("size budget met",
			"quality", best.Quality, "bytes", best.Bytes, "rounds", st.Round)
		return bestData, nil
	}

	rep.Warning(fmt.Sprintf("Could not fit output under %s; keeping the smallest attempt at %s",
		util.FormatBytes(uint64(budget)), util.FormatBytes(uint64(len(smallestData)))))
	return smallestData, nil
}
