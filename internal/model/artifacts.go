package model

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sipca/backend/pkg/logger"
)

// ErrModelUnavailable wraps any artifact-load failure. It is fatal for the
// whole pipeline: the service must refuse to serve predictions rather than
// return undefined results.
var ErrModelUnavailable = errors.New("model artifacts unavailable")

// Artifacts bundles the two read-only blobs loaded at startup. Both are
// immutable after Load and safe for concurrent use without locking.
type Artifacts struct {
	Scaler *Scaler
	Forest *Forest
}

func Load(scalerPath, forestPath string) (*Artifacts, error) {
	scaler, err := LoadScaler(scalerPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	forest, err := LoadForest(forestPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	if len(scaler.Features) != forest.NumFeatures {
		return nil, fmt.Errorf("%w: scaler has %d features, forest expects %d",
			ErrModelUnavailable, len(scaler.Features), forest.NumFeatures)
	}

	logger.Info("Model artifacts loaded",
		zap.String("scaler", scalerPath),
		zap.String("forest", forestPath),
		zap.Int("features", forest.NumFeatures),
		zap.Int("trees", len(forest.Trees)),
	)

	return &Artifacts{Scaler: scaler, Forest: forest}, nil
}
