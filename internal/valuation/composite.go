package valuation

import (
	"math"
	"sort"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/models"
)

// BlendInputs are the market and quality signals used by the composite adjustments
type BlendInputs struct {
	Price        *float64
	Beta         *float64
	GrowthScore  *float64
	ROE          *float64
	NetMargin    *float64
	DebtToEquity *float64
}

// Blend is the outcome of combining method results
type Blend struct {
	Methods           []models.ValuationMethodResult
	Value             *float64
	Buckets           []models.BucketSummary
	CrossMedian       *float64
	GrowthAdjustment  float64
	QualityAdjustment float64
	RiskAdjustment    float64
	RegimeAdjustment  float64
	PriceAnchorWeight float64
}

// bucketOrder fixes summary ordering
var bucketOrder = []models.BucketType{models.BucketCashflow, models.BucketRelative, models.BucketAnalyst}

// blendBucket maps conservative methods into the cashflow bucket
func blendBucket(b models.BucketType) models.BucketType {
	if b == models.BucketConservative {
		return models.BucketCashflow
	}
	return b
}

// Calibrate bounds a raw value to the configured multiple range of price.
// Without a price the raw value passes through.
func Calibrate(p Params, raw, price *float64) *float64 {
	if raw == nil || !common.IsFinite(*raw) {
		return nil
	}
	if !common.Positive(price) {
		return common.Ptr(*raw)
	}
	return common.Ptr(common.Clamp(*raw, p.CalibrationLow**price, p.CalibrationHigh**price))
}

// Reliability down-weights a value by its log distance from the bucket median
func Reliability(p Params, value, median float64) float64 {
	if value <= 0 || median <= 0 {
		return 0
	}
	return 1 / (1 + p.ReliabilitySlope*math.Abs(math.Log(value/median)))
}

// BlendMethods calibrates each method, blends valid ones within and across
// buckets, then applies the anchor, growth, quality, risk and regime
// adjustments. The result is always within [ClampLow, ClampHigh] times the
// cross-bucket median of the contributing calibrated values.
func BlendMethods(p Params, methods []models.ValuationMethodResult, in BlendInputs) Blend {
	out := Blend{Methods: make([]models.ValuationMethodResult, len(methods))}
	copy(out.Methods, methods)

	type member struct {
		index int
		value float64
	}
	members := map[models.BucketType][]member{}
	var all []float64

	for i := range out.Methods {
		m := &out.Methods[i]
		m.CalibratedValue = Calibrate(p, m.RawValue, in.Price)
		m.DynamicWeight = 0
		if m.Weight <= 0 {
			continue // disabled in config
		}
		if !common.Positive(m.CalibratedValue) || !common.Positive(m.RawValue) {
			continue
		}
		b := blendBucket(m.BucketType)
		members[b] = append(members[b], member{index: i, value: *m.CalibratedValue})
		all = append(all, *m.CalibratedValue)
	}
	if len(all) == 0 {
		return out
	}

	totalBucketWeight, present := 0.0, 0
	for _, b := range bucketOrder {
		if len(members[b]) > 0 {
			totalBucketWeight += p.BucketWeights[b]
			present++
		}
	}

	blended := 0.0
	bucketMeans := map[models.BucketType]float64{}
	for _, b := range bucketOrder {
		ms := members[b]
		if len(ms) == 0 {
			continue
		}
		values := make([]float64, len(ms))
		for i, m := range ms {
			values[i] = m.value
		}
		med := common.Median(values)

		weights := make([]float64, len(ms))
		sumW, sumWV := 0.0, 0.0
		for i, m := range ms {
			weights[i] = out.Methods[m.index].Weight * Reliability(p, m.value, med)
			sumW += weights[i]
			sumWV += weights[i] * m.value
		}
		mean := med
		if sumW > 0 {
			mean = sumWV / sumW
		}

		bw := 1.0 / float64(present)
		if totalBucketWeight > 0 {
			bw = p.BucketWeights[b] / totalBucketWeight
		}
		for i, m := range ms {
			if sumW > 0 {
				out.Methods[m.index].DynamicWeight = weights[i] / sumW * bw
			}
		}

		bucketMeans[b] = mean
		blended += bw * mean
		out.Buckets = append(out.Buckets, models.BucketSummary{
			Bucket:  b,
			Value:   mean,
			Median:  med,
			Weight:  bw,
			Methods: len(ms),
		})
	}

	cm := common.Median(all)
	out.CrossMedian = common.Ptr(cm)

	value := blended*(1-p.MedianAnchorWeight) + cm*p.MedianAnchorWeight

	if in.GrowthScore != nil {
		out.GrowthAdjustment = common.Clamp(*in.GrowthScore*0.4, p.MinGrowthAdjustment, p.MaxGrowthAdjustment)
	}
	out.QualityAdjustment = qualityAdjustment(p, in)
	out.RiskAdjustment = riskAdjustment(p, in)
	value *= (1 + out.GrowthAdjustment) * (1 + out.QualityAdjustment) * (1 + out.RiskAdjustment)

	cash, hasCash := bucketMeans[models.BucketCashflow]
	rel, hasRel := bucketMeans[models.BucketRelative]
	if hasCash && hasRel {
		switch {
		case rel > cash*p.RegimeThreshold:
			out.RegimeAdjustment = p.RegimeDamping - 1
		case cash > rel*p.RegimeThreshold && in.GrowthScore != nil && *in.GrowthScore >= p.RegimeBoostMinGrowth:
			out.RegimeAdjustment = p.RegimeBoost - 1
		}
	}
	value *= 1 + out.RegimeAdjustment

	if common.Positive(in.Price) {
		out.PriceAnchorWeight = priceAnchor(p, bucketMeans, cm, in.Beta)
		value = value*(1-out.PriceAnchorWeight) + *in.Price*out.PriceAnchorWeight
	}

	value = common.Clamp(value, p.ClampLow*cm, p.ClampHigh*cm)
	out.Value = common.Ptr(value)
	return out
}

func qualityAdjustment(p Params, in BlendInputs) float64 {
	var signals []float64
	if in.ROE != nil && common.IsFinite(*in.ROE) {
		signals = append(signals, common.Clamp((*in.ROE-0.12)/0.12, -1, 1))
	}
	if in.NetMargin != nil && common.IsFinite(*in.NetMargin) {
		signals = append(signals, common.Clamp((*in.NetMargin-0.08)/0.08, -1, 1))
	}
	if len(signals) == 0 {
		return 0
	}
	return common.Mean(signals) * p.MaxQualityAdjustment
}

func riskAdjustment(p Params, in BlendInputs) float64 {
	penalty := 0.0
	if in.Beta != nil && common.IsFinite(*in.Beta) {
		penalty += 0.03 * math.Max(*in.Beta-1, 0)
	}
	if in.DebtToEquity != nil && common.IsFinite(*in.DebtToEquity) {
		penalty += 0.02 * math.Max(*in.DebtToEquity-1, 0)
	}
	return -math.Min(penalty, p.MaxRiskPenalty)
}

// priceAnchor grows with inter-bucket disagreement and excess beta
func priceAnchor(p Params, bucketMeans map[models.BucketType]float64, cm float64, beta *float64) float64 {
	means := make([]float64, 0, len(bucketMeans))
	for _, v := range bucketMeans {
		means = append(means, v)
	}
	sort.Float64s(means)

	disagreement := 0.0
	if len(means) > 1 && cm > 0 {
		disagreement = common.Clamp((means[len(means)-1]-means[0])/cm, 0, 1)
	}
	excessBeta := 0.0
	if beta != nil && common.IsFinite(*beta) {
		excessBeta = math.Max(*beta-1, 0)
	}
	return math.Min(p.PriceAnchorBase+p.PriceAnchorDisagreement*disagreement+p.PriceAnchorBeta*excessBeta, p.PriceAnchorCap)
}

// GrowthScore averages the available growth signals, each bounded to [-50%, 50%]
func GrowthScore(signals ...*float64) *float64 {
	var values []float64
	for _, s := range signals {
		if s != nil && common.IsFinite(*s) {
			values = append(values, common.Clamp(*s, -0.5, 0.5))
		}
	}
	if len(values) == 0 {
		return nil
	}
	return common.Ptr(common.Mean(values))
}
