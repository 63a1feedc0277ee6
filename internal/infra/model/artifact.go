package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/yanqian/price-predictor/internal/domain/pricing"
)

const (
	TypeLinear = "linear"
	TypeForest = "forest"
)

// Artifact is the JSON export of a trained regressor.
type Artifact struct {
	Type     string   `json:"type"`
	Version  string   `json:"version,omitempty"`
	Features []string `json:"features,omitempty"`

	Intercept    float64   `json:"intercept,omitempty"`
	Coefficients []float64 `json:"coefficients,omitempty"`

	Trees []Tree `json:"trees,omitempty"`
}

// Tree mirrors the parallel node arrays of a fitted scikit-learn decision tree.
// A node is a leaf when its left child is -1.
type Tree struct {
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
	Value         []float64 `json:"value"`
}

// Load reads the artifact at path and returns a ready regressor.
func Load(path string) (pricing.Regressor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("decode model artifact %s: %w", path, err)
	}
	return artifact.Regressor()
}

// Regressor validates the artifact and builds the matching implementation.
func (a Artifact) Regressor() (pricing.Regressor, error) {
	if err := a.checkFeatures(); err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(a.Type)) {
	case TypeLinear:
		return newLinear(a.Intercept, a.Coefficients)
	case TypeForest:
		return newForest(a.Trees)
	case "":
		return nil, errors.New("model artifact type is required")
	default:
		return nil, fmt.Errorf("unsupported model type %q", a.Type)
	}
}

func (a Artifact) checkFeatures() error {
	if len(a.Features) == 0 {
		return nil
	}
	order := pricing.FeatureOrder()
	if len(a.Features) != len(order) {
		return fmt.Errorf("model expects %d features, service provides %d", len(a.Features), len(order))
	}
	for i, name := range a.Features {
		if name != string(order[i]) {
			return fmt.Errorf("model feature %d is %q, service provides %q", i, name, order[i])
		}
	}
	return nil
}

func checkRow(row []float64) error {
	if len(row) != pricing.FeatureCount {
		return fmt.Errorf("row has %d features, want %d", len(row), pricing.FeatureCount)
	}
	return nil
}
