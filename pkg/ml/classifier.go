package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/dmitryikh/leaves"
)

const (
	KindLightGBM = "lightgbm"
	KindXGBoost  = "xgboost"
	KindLogistic = "logistic"
)

// Classifier 返回“有风险”这一类的概率
type Classifier interface {
	PredictProba(x []float64) (float64, error)
	Kind() string
	NumFeatures() int
}

type ensembleClassifier struct {
	ensemble *leaves.Ensemble
	kind     string
}

// LoadClassifier 按 kind 读取模型文件
func LoadClassifier(kind, path string) (Classifier, error) {
	switch kind {
	case KindLightGBM:
		ens, err := leaves.LGEnsembleFromFile(path, true)
		if err != nil {
			return nil, fmt.Errorf("load lightgbm model %s: %w", path, err)
		}
		return &ensembleClassifier{ensemble: ens, kind: kind}, nil
	case KindXGBoost:
		ens, err := leaves.XGEnsembleFromFile(path, true)
		if err != nil {
			return nil, fmt.Errorf("load xgboost model %s: %w", path, err)
		}
		return &ensembleClassifier{ensemble: ens, kind: kind}, nil
	case KindLogistic:
		return LoadLogistic(path)
	default:
		return nil, fmt.Errorf("unknown model kind %q", kind)
	}
}

func (c *ensembleClassifier) PredictProba(x []float64) (float64, error) {
	if n := c.ensemble.NFeatures(); n != len(x) {
		return 0, fmt.Errorf("model expects %d features, got %d", n, len(x))
	}
	return c.ensemble.PredictSingle(x, 0), nil
}

func (c *ensembleClassifier) Kind() string {
	return c.kind
}

func (c *ensembleClassifier) NumFeatures() int {
	return c.ensemble.NFeatures()
}

// Logistic 导出的逻辑回归系数 {intercept, coefficients}
type Logistic struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

func LoadLogistic(path string) (*Logistic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read logistic model %s: %w", path, err)
	}
	var m Logistic
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse logistic model %s: %w", path, err)
	}
	if len(m.Coefficients) == 0 {
		return nil, fmt.Errorf("logistic model %s has no coefficients", path)
	}
	return &m, nil
}

func (m *Logistic) PredictProba(x []float64) (float64, error) {
	if len(x) != len(m.Coefficients) {
		return 0, fmt.Errorf("model expects %d features, got %d", len(m.Coefficients), len(x))
	}
	z := m.Intercept
	for i, c := range m.Coefficients {
		z += c * x[i]
	}
	return 1 / (1 + math.Exp(-z)), nil
}

func (m *Logistic) Kind() string {
	return KindLogistic
}

func (m *Logistic) NumFeatures() int {
	return len(m.Coefficients)
}
