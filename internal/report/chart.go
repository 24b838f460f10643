package report

import (
	"bytes"
	"encoding/base64"
	"errors"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
)

const (
	barWidth   = 48
	barSpacing = 24
)

// ErrNoChartData is returned when every value is zero or negative.
var ErrNoChartData = errors.New("no positive values to chart")

// Slice is one labelled value of a breakdown.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Breakdown sums values by label and returns the slices sorted by value,
// largest first (ties by label).
func Breakdown[T any](items []T, key func(T) string, value func(T) float64) []Slice {
	sums := map[string]float64{}
	for _, it := range items {
		sums[key(it)] += value(it)
	}
	out := make([]Slice, 0, len(sums))
	for k, v := range sums {
		out = append(out, Slice{Label: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func positive(slices []Slice) []chart.Value {
	vals := make([]chart.Value, 0, len(slices))
	for _, s := range slices {
		if s.Value > 0 {
			label := s.Label
			if label == "" {
				label = "(none)"
			}
			vals = append(vals, chart.Value{Label: label, Value: s.Value})
		}
	}
	return vals
}

// PieChartPNG renders slices as a pie chart.
func PieChartPNG(title string, slices []Slice) ([]byte, error) {
	vals := positive(slices)
	if len(vals) == 0 {
		return nil, ErrNoChartData
	}
	pie := chart.PieChart{
		Title:  title,
		Width:  600,
		Height: 480,
		Values: vals,
	}
	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BarChartPNG renders slices as a vertical bar chart with a y axis starting
// at zero.
func BarChartPNG(title string, slices []Slice) ([]byte, error) {
	vals := positive(slices)
	if len(vals) == 0 {
		return nil, ErrNoChartData
	}
	top := 0.0
	for _, v := range vals {
		if v.Value > top {
			top = v.Value
		}
	}
	width := 160 + len(vals)*(barWidth+barSpacing)
	if width < 720 {
		width = 720
	}
	bar := chart.BarChart{
		Title:      title,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Width:      width,
		Height:     480,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1}},
		Bars:       vals,
	}
	var buf bytes.Buffer
	if err := bar.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Base64 encodes chart bytes for embedding in JSON.
func Base64(png []byte) string {
	if len(png) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(png)
}
