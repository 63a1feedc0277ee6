package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/yanqian/price-predictor/internal/domain/pricing"
)

const leaf = -1

// Forest averages the output of its trees.
type Forest struct {
	trees []Tree
}

func newForest(trees []Tree) (*Forest, error) {
	if len(trees) == 0 {
		return nil, errors.New("forest model has no trees")
	}
	for i, tree := range trees {
		if err := tree.validate(); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return &Forest{trees: trees}, nil
}

// PredictBatch scores every row.
func (f *Forest) PredictBatch(ctx context.Context, rows [][]float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		if err := checkRow(row); err != nil {
			return nil, err
		}
		var sum float64
		for _, tree := range f.trees {
			sum += tree.predict(row)
		}
		out[i] = sum / float64(len(f.trees))
	}
	return out, nil
}

// predict walks from the root; x <= threshold goes left.
func (t Tree) predict(row []float64) float64 {
	node := 0
	for t.ChildrenLeft[node] != leaf {
		if row[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return t.Value[node]
}

// validate requires children to point forward so every walk terminates.
func (t Tree) validate() error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return errors.New("empty tree")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return errors.New("node arrays differ in length")
	}
	for i := 0; i < n; i++ {
		left, right := t.ChildrenLeft[i], t.ChildrenRight[i]
		if left == leaf {
			if right != leaf {
				return fmt.Errorf("node %d has a right child but no left child", i)
			}
			continue
		}
		if left <= i || left >= n || right <= i || right >= n {
			return fmt.Errorf("node %d has out of order children %d/%d", i, left, right)
		}
		if f := t.Feature[i]; f < 0 || f >= pricing.FeatureCount {
			return fmt.Errorf("node %d splits on unknown feature %d", i, f)
		}
	}
	return nil
}
