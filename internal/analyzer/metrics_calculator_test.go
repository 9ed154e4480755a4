package analyzer

import (
	"context"
	"math"
	"testing"
)

func TestCalculateColorStatistics(t *testing.T) {
	calc := NewMetricsCalculator()
	img := rgbFromRows([3][][]float64{
		{{0, 10}},
		{{0, 0}},
		{{20, 20}},
	})

	avg, variation := calc.CalculateColorStatistics(img)

	if avg != [3]float64{5, 0, 20} {
		t.Errorf("Expected avg color [5 0 20], got %v", avg)
	}
	if math.Abs(variation-5.0/3) > 1e-12 {
		t.Errorf("Expected variation 5/3, got %v", variation)
	}
}

func TestCalculateAsymmetry(t *testing.T) {
	calc := NewMetricsCalculator()

	tests := []struct {
		name string
		rows [3][][]float64
		want float64
	}{
		{
			name: "two columns",
			rows: [3][][]float64{{{0, 10}}, {{0, 0}}, {{20, 20}}},
			want: 10.0 / 3,
		},
		{
			name: "odd width ignores centre column",
			rows: [3][][]float64{{{0, 7, 4}}, {{1, 9, 1}}, {{5, 0, 5}}},
			want: 4.0 / 3,
		},
		{
			name: "single column",
			rows: [3][][]float64{{{200}}, {{10}}, {{90}}},
			want: 0,
		},
		{
			name: "mirrored rows",
			rows: [3][][]float64{
				{{1, 2, 2, 1}, {9, 8, 8, 9}},
				{{4, 5, 5, 4}, {0, 0, 0, 0}},
				{{7, 3, 3, 7}, {6, 6, 6, 6}},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.CalculateAsymmetry(rgbFromRows(tt.rows))
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCalculateBorderIrregularity_Uniform(t *testing.T) {
	calc := NewMetricsCalculator()
	luma := newPlane(6, 4)
	for i := range luma.pix {
		luma.pix[i] = 180
	}

	got, err := calc.CalculateBorderIrregularity(context.Background(), luma, 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("Expected 0 for a uniform plane, got %v", got)
	}
}

func TestCalculateBorderIrregularity_VerticalEdge(t *testing.T) {
	calc := NewMetricsCalculator()
	luma := newPlane(10, 3)
	for y := 0; y < luma.height; y++ {
		for x := 5; x < luma.width; x++ {
			luma.pix[y*luma.width+x] = 255
		}
	}

	got, err := calc.CalculateBorderIrregularity(context.Background(), luma, 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Columns 4 and 5 saturate, the other eight are flat
	want := 255 * math.Sqrt(0.2*0.8)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestCalculateSobel(t *testing.T) {
	mc := &metricsCalculator{}
	p := newPlane(3, 3)
	copy(p.pix, []float64{
		0, 0, 10,
		0, 0, 10,
		0, 0, 10,
	})

	if gx := mc.calculateSobelX(p, 1, 1); gx != 40 {
		t.Errorf("Expected gx 40, got %v", gx)
	}
	if gy := mc.calculateSobelY(p, 1, 1); gy != 0 {
		t.Errorf("Expected gy 0, got %v", gy)
	}
}
