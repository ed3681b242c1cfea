package coordconv

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForward_Beijing(t *testing.T) {
	x, y := Forward(116.3913, 39.9075)

	assert.InDelta(t, 12956761.227333, x, 1e-3)
	assert.InDelta(t, 4824839.634924, y, 1e-3)
	assert.True(t, x > 1.29e7 && x < 1.30e7, "x = %v", x)
	assert.True(t, y > 4.8e6 && y < 4.9e6, "y = %v", y)
}

func TestRoundTrip_Cities(t *testing.T) {
	tests := []struct {
		name     string
		lng, lat float64
	}{
		{"beijing", 116.3913, 39.9075},
		{"shanghai", 121.4737, 31.2304},
		{"shenzhen", 113.9334, 22.3115},
		{"san francisco", -122.4194, 37.7749},
		{"origin", 0, 0},
		{"south equatorial", 151.2093, -8.8688},
		{"antimeridian", 180, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lng, lat := Inverse(Forward(tt.lng, tt.lat))
			assert.InDelta(t, tt.lng, lng, 1e-6)
			assert.InDelta(t, tt.lat, lat, 1e-6)
		})
	}
}

func TestRoundTrip_NorthernGrid(t *testing.T) {
	// 60 度分带接缝处误差最大，约 5e-5 度
	for lng := -180.0; lng <= 180; lng += 7.5 {
		for lat := 0.0; lat <= MaxLat; lat += 0.5 {
			gotLng, gotLat := Inverse(Forward(lng, lat))
			require.InDelta(t, lng, gotLng, 1e-6, "lng at (%v, %v)", lng, lat)
			require.InDelta(t, lat, gotLat, 1e-4, "lat at (%v, %v)", lng, lat)
		}
	}
}

func TestRoundTrip_SouthernEquatorialBand(t *testing.T) {
	for lng := -180.0; lng <= 180; lng += 15 {
		for lat := -14.5; lat < 0; lat += 0.5 {
			gotLng, gotLat := Inverse(Forward(lng, lat))
			require.InDelta(t, lng, gotLng, 1e-6)
			require.InDelta(t, lat, gotLat, 1e-8)
		}
	}
}

func TestForward_BandContinuity(t *testing.T) {
	tests := []struct {
		lat    float64
		maxGap float64
	}{
		{15, 0.05},
		{30, 0.1},
		{45, 0.5},
		{60, 20},
	}

	for _, tt := range tests {
		_, below := Forward(100, tt.lat-1e-9)
		_, on := Forward(100, tt.lat)
		_, above := Forward(100, tt.lat+1e-9)

		assert.InDelta(t, on, above, 1e-3, "lat %v above", tt.lat)
		assert.InDelta(t, on, below, tt.maxGap, "lat %v below", tt.lat)
	}
}

func TestForward_BandSelection(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		want int
	}{
		{"zero uses equator band", 0, 5},
		{"lower edge inclusive", 15, 4},
		{"just below edge", 14.999, 5},
		{"thirty", 30, 3},
		{"clamped top", 74, 1},
		{"negative uses reverse scan", -10, 5},
		{"negative beyond fifteen still hits zero band", -50, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := ll2mcTable(tt.lat)
			require.True(t, ok)
			assert.Equal(t, &LL2MC[tt.want], f)
		})
	}
}

func TestInverse_BandSelection(t *testing.T) {
	tests := []struct {
		y    float64
		want int
	}{
		{0, 5},
		{1678043.12, 4},
		{-1678043.12, 4},
		{1678043.11, 5},
		{4824839.63, 3},
		{-5591021, 2},
		{13e6, 0},
	}

	for _, tt := range tests {
		f, ok := mc2llTable(tt.y)
		require.True(t, ok)
		assert.Equal(t, &MC2LL[tt.want], f, "y %v", tt.y)
	}
}

func TestForward_SignSymmetry(t *testing.T) {
	for _, lat := range []float64{0.5, 5, 10, 14.9} {
		x, y := Forward(116, lat)
		_, ny := Forward(116, -lat)
		nx, _ := Forward(-116, lat)

		assert.InDelta(t, -y, ny, 1e-9, "lat %v", lat)
		assert.InDelta(t, -x, nx, 1e-9, "lat %v", lat)
	}

	// x 只依赖所选分带，经度取反时始终对称
	for _, lat := range []float64{20, 39.9, 65} {
		x, _ := Forward(116, lat)
		nx, _ := Forward(-116, lat)
		assert.InDelta(t, -x, nx, 1e-9)
	}
}

func TestForward_SignOfZero(t *testing.T) {
	x, y := Forward(0, 10)
	assert.Equal(t, LL2MC[5][0], x)
	assert.Less(t, x, 0.0)
	assert.Greater(t, y, 0.0)

	_, y = Forward(100, 0)
	assert.Equal(t, LL2MC[5][2], y)

	lng, lat := Inverse(0, 0)
	assert.Equal(t, MC2LL[5][0], lng)
	assert.Equal(t, MC2LL[5][2], lat)
}

func TestForward_Wrap(t *testing.T) {
	for _, lat := range []float64{-30, 0, 22.5, 39.9} {
		x1, y1 := Forward(190, lat)
		x2, y2 := Forward(-170, lat)
		assert.InDelta(t, x2, x1, 1e-6)
		assert.Equal(t, y2, y1)

		x3, _ := Forward(116+720, lat)
		x4, _ := Forward(116, lat)
		assert.InDelta(t, x4, x3, 1e-6)
	}

	// 180 不被环绕
	x, _ := Forward(180, 0)
	assert.Greater(t, x, 0.0)
}

func TestForward_Clamp(t *testing.T) {
	x1, y1 := Forward(10, 80)
	x2, y2 := Forward(10, 74)
	assert.Equal(t, x2, x1)
	assert.Equal(t, y2, y1)

	x1, y1 = Forward(10, -89)
	x2, y2 = Forward(10, -74)
	assert.Equal(t, x2, x1)
	assert.Equal(t, y2, y1)
}

func TestForward_PanicsOnNaNLat(t *testing.T) {
	assert.Panics(t, func() { Forward(0, math.NaN()) })
}

func TestPointHelpers(t *testing.T) {
	p := ForwardPoint(orb.Point{116.3913, 39.9075})
	x, y := Forward(116.3913, 39.9075)
	assert.Equal(t, orb.Point{x, y}, p)

	ll := InversePoint(p)
	assert.InDelta(t, 116.3913, ll[0], 1e-6)
	assert.InDelta(t, 39.9075, ll[1], 1e-6)
}

func TestConvert_MatchesExpandedPolynomial(t *testing.T) {
	f := &LL2MC[3]
	lng, lat := 116.3913, 39.9075
	d := lat / f[9]
	want := f[2] + f[3]*d + f[4]*d*d + f[5]*d*d*d + f[6]*d*d*d*d + f[7]*d*d*d*d*d + f[8]*d*d*d*d*d*d

	x, y := convert(lng, lat, f)
	assert.InDelta(t, f[0]+f[1]*lng, x, 1e-9)
	assert.InDelta(t, want, y, 1e-6)
}
