package ml

import (
	"fmt"
	"math"
	"smart_lms_analytics/internal/model"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

type Paths struct {
	Kind     string
	Model    string
	Scaler   string
	Encoders string
}

// Artifacts 启动时加载一次，之后只读
type Artifacts struct {
	Classifier Classifier
	Scaler     *Scaler
	Encoders   LabelEncoders
	log        *zap.Logger
}

func LoadArtifacts(p Paths, log *zap.Logger) (*Artifacts, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("Loading model", zap.String("kind", p.Kind), zap.String("path", p.Model))
	clf, err := LoadClassifier(p.Kind, p.Model)
	if err != nil {
		return nil, err
	}

	log.Info("Loading scaler", zap.String("path", p.Scaler))
	scaler, err := LoadScaler(p.Scaler)
	if err != nil {
		return nil, err
	}

	log.Info("Loading encoders", zap.String("path", p.Encoders))
	enc, err := LoadEncoders(p.Encoders)
	if err != nil {
		return nil, err
	}

	return NewArtifacts(clf, scaler, enc, log)
}

func NewArtifacts(clf Classifier, scaler *Scaler, enc LabelEncoders, log *zap.Logger) (*Artifacts, error) {
	width := len(model.NumericFeatures) + len(model.CategoricalFeatures)
	if clf.NumFeatures() != width {
		return nil, fmt.Errorf("model has %d features, expected %d", clf.NumFeatures(), width)
	}
	if len(scaler.Mean) != width {
		return nil, fmt.Errorf("scaler has %d features, expected %d", len(scaler.Mean), width)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Artifacts{Classifier: clf, Scaler: scaler, Encoders: enc, log: log}, nil
}

func (a *Artifacts) Kind() string {
	return a.Classifier.Kind()
}

// Vector 按模型顺序组装未缩放的特征向量
func (a *Artifacts) Vector(record model.FeatureRecord) ([]float64, error) {
	x := make([]float64, 0, len(model.NumericFeatures)+len(model.CategoricalFeatures))

	for _, name := range model.NumericFeatures {
		v, ok := record[name]
		if !ok || v == nil {
			a.log.Warn("Feature not found, using 0", zap.String("feature", name))
			x = append(x, 0)
			continue
		}
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, fmt.Errorf("feature %s is not numeric: %v", name, v)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("feature %s is not finite", name)
		}
		x = append(x, f)
	}

	for _, name := range model.CategoricalFeatures {
		raw := cast.ToString(record[name])
		code, ok := a.Encoders.Encode(name, raw)
		if !ok {
			a.log.Warn("Unknown category, using 0",
				zap.String("feature", name),
				zap.String("value", raw))
		}
		x = append(x, float64(code))
	}

	return x, nil
}

// Preprocess 编码并缩放
func (a *Artifacts) Preprocess(record model.FeatureRecord) ([]float64, error) {
	x, err := a.Vector(record)
	if err != nil {
		return nil, fmt.Errorf("feature preprocessing failed: %w", err)
	}
	return a.Scaler.Transform(x)
}

// Probability 有风险的概率
func (a *Artifacts) Probability(record model.FeatureRecord) (float64, error) {
	x, err := a.Preprocess(record)
	if err != nil {
		return 0, err
	}
	p, err := a.Classifier.PredictProba(x)
	if err != nil {
		return 0, fmt.Errorf("prediction failed: %w", err)
	}
	return p, nil
}
