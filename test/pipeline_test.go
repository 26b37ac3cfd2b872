package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yyyoichi/svdlab"
	"github.com/yyyoichi/svdlab/internal/property"
	"github.com/yyyoichi/svdlab/internal/signal"
	"github.com/yyyoichi/svdlab/internal/svd"
)

// TestPipeline runs every preset through the whole pipeline and checks the
// identities that hold for any input.
func TestPipeline(t *testing.T) {
	ctx := context.Background()
	for _, preset := range signal.Presets() {
		t.Run(preset, func(t *testing.T) {
			res, err := svdlab.Run(ctx,
				svdlab.WithPreset(preset),
				svdlab.WithSize(36, 28),
				svdlab.WithNoise(0.1),
				svdlab.WithRank(2),
				svdlab.WithMaxRank(10),
			)
			require.NoError(t, err)
			require.Len(t, res.Reports, 10)
			assert.Equal(t, res.Reports[1], res.Report)
			assert.Equal(t, 28, res.NumericalRank)

			// the thin factorization holds the whole spectrum, so A_k is
			// optimal at every rank
			dec := res.Decomposition
			require.Equal(t, svd.Thin, dec.Method())
			for _, k := range []int{1, 2, 5, 10} {
				c, err := property.EckartYoung(res.Noisy, dec, k)
				require.NoError(t, err)
				assert.True(t, c.Pass, c.String())
			}

			c, err := property.RotationInvariance(res.Noisy, signal.NewSource(3))
			require.NoError(t, err)
			assert.True(t, c.Pass, c.String())

			c, err = property.ProjectionIdempotence(dec, 2)
			require.NoError(t, err)
			assert.True(t, c.Pass, c.String())
		})
	}
}
