package coordconv

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// 百度墨卡托分段多项式参数，两个方向各 6 个纬度带
var (
	// MCBand 平面坐标 |y| 分带（米，降序）
	MCBand = [6]float64{12890594.86, 8362377.87, 5591021, 3481989.83, 1678043.12, 0}

	// LLBand 纬度分带（度，降序）
	LLBand = [6]float64{75, 60, 45, 30, 15, 0}

	// MC2LL 平面转经纬系数
	MC2LL = [6][10]float64{
		{1.410526172116255e-8, 0.00000898305509648872, -1.9939833816331, 200.9824383106796, -187.2403703815547,
			91.6087516669843, -23.38765649603339, 2.57121317296198, -0.03801003308653, 17337981.2},
		{-7.435856389565537e-9, 0.000008983055097726239, -0.78625201886289, 96.32687599759846, -1.85204757529826,
			-59.36935905485877, 47.40033549296737, -16.50741931063887, 2.28786674699375, 10260144.86},
		{-3.030883460898826e-8, 0.00000898305509983578, 0.30071316287616, 59.74293618442277, 7.357984074871,
			-25.38371002664745, 13.45380521110908, -3.29883767235584, 0.32710905363475, 6856817.37},
		{-1.981981304930552e-8, 0.000008983055099779535, 0.03278182852591, 40.31678527705744, 0.65659298677277,
			-4.44255534477492, 0.85341911805263, 0.12923347998204, -0.04625736007561, 4482777.06},
		{3.09191371068437e-9, 0.000008983055096812155, 0.00006995724062, 23.10934304144901, -0.00023663490511,
			-0.6321817810242, -0.00663494467273, 0.03430082397953, -0.00466043876332, 2555164.4},
		{2.890871144776878e-9, 0.000008983055095805407, -3.068298e-8, 7.47137025468032, -0.00000353937994,
			-0.02145144861037, -0.00001234426596, 0.00010322952773, -0.00000323890364, 826088.5},
	}

	// LL2MC 经纬转平面系数
	LL2MC = [6][10]float64{
		{-0.0015702102444, 111320.7020616939, 1704480524535203, -10338987376042340, 26112667856603880,
			-35149669176653700, 26595700718403920, -10725012454188240, 1800819912950474, 82.5},
		{0.0008277824516172526, 111320.7020463578, 647795574.6671607, -4082003173.641316, 10774905663.51142,
			-15171875531.51559, 12053065338.62167, -5124939663.577472, 913311935.9512032, 67.5},
		{0.00337398766765, 111320.7020202162, 4481351.045890365, -23393751.19931662, 79682215.47186455,
			-115964993.2797253, 97236711.15602145, -43661946.33752821, 8477230.501135234, 52.5},
		{0.00220636496208, 111320.7020209128, 51751.86112841131, 3796837.749470245, 992013.7397791013,
			-1221952.21711287, 1340652.697009075, -620943.6990984312, 144416.9293806241, 37.5},
		{-0.0003441963504368392, 111320.7020576856, 278.2353980772752, 2485758.690035394, 6070.750963243378,
			54821.18345352118, 9540.606633304236, -2710.55326746645, 1405.483844121726, 22.5},
		{-0.0003218135878613132, 111320.7020701615, 0.00369383431289, 823725.6402795718, 0.46104986909093,
			2351.343141331292, 1.58060784298199, 8.77738589078284, 0.37238884252424, 7.45},
	}
)

const (
	// MaxLat 正向转换的纬度钳制范围
	MaxLat = 74.0
	// MaxLng 经度环绕范围
	MaxLng = 180.0
)

// Forward 经纬度转百度墨卡托平面坐标（米）
// 经度按 360 度循环归一到 [-180, 180]，纬度钳制到 [-74, 74]
func Forward(lng, lat float64) (x, y float64) {
	lng = loop(lng, -MaxLng, MaxLng)
	lat = clamp(lat, -MaxLat, MaxLat)

	f, ok := ll2mcTable(lat)
	if !ok {
		panic(fmt.Sprintf("coordconv: no LL2MC band for lat %v", lat))
	}
	return convert(lng, lat, f)
}

// Inverse 百度墨卡托平面坐标转经纬度，不做输入钳制
func Inverse(x, y float64) (lng, lat float64) {
	f, ok := mc2llTable(y)
	if !ok {
		panic(fmt.Sprintf("coordconv: no MC2LL band for y %v", y))
	}
	return convert(x, y, f)
}

// ForwardPoint orb.Projection 形式的正向转换，点为 [lng, lat]
func ForwardPoint(p orb.Point) orb.Point {
	x, y := Forward(p[0], p[1])
	return orb.Point{x, y}
}

// InversePoint orb.Projection 形式的反向转换，点为 [x, y]
func InversePoint(p orb.Point) orb.Point {
	lng, lat := Inverse(p[0], p[1])
	return orb.Point{lng, lat}
}

// ll2mcTable 先按正纬度顺序查找，找不到再对负纬度逆序查找
func ll2mcTable(lat float64) (*[10]float64, bool) {
	for i, b := range LLBand {
		if lat >= b {
			return &LL2MC[i], true
		}
	}
	for i := len(LLBand) - 1; i >= 0; i-- {
		if lat <= -LLBand[i] {
			return &LL2MC[i], true
		}
	}
	return nil, false
}

func mc2llTable(y float64) (*[10]float64, bool) {
	ay := math.Abs(y)
	for i, b := range MCBand {
		if ay >= b {
			return &MC2LL[i], true
		}
	}
	return nil, false
}

// convert 分段多项式计算，两个方向共用
// f[0..1] 为线性项，f[2..8] 为归一化量 d 的 6 次多项式，f[9] 为归一化分母
func convert(px, py float64, f *[10]float64) (float64, float64) {
	a := f[0] + f[1]*math.Abs(px)
	d := math.Abs(py) / f[9]
	b := f[8]
	for i := 7; i >= 2; i-- {
		b = b*d + f[i]
	}

	// 0 视为正号
	if px < 0 {
		a = -a
	}
	if py < 0 {
		b = -b
	}
	return a, b
}

func clamp(v, min, max float64) float64 {
	v = math.Max(v, min)
	return math.Min(v, max)
}

func loop(v, min, max float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	d := max - min
	if math.Abs(v) > 1e6 {
		v = math.Mod(v, d)
	}
	for v > max {
		v -= d
	}
	for v < min {
		v += d
	}
	return v
}
