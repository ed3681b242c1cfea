package coordconv

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
)

// TransformBounds 转换范围的东北角与西南角后重新归一
func TransformBounds(conv DatumConverter, b orb.Bound, from, to Datum) orb.Bound {
	neLng, neLat := conv.Convert(from, to, b.Max[0], b.Max[1])
	swLng, swLat := conv.Convert(from, to, b.Min[0], b.Min[1])
	return orb.Bound{Min: orb.Point{neLng, neLat}, Max: orb.Point{neLng, neLat}}.
		Extend(orb.Point{swLng, swLat})
}

// DatumProjection 以 orb.Projection 形式包装基准转换
func DatumProjection(conv DatumConverter, from, to Datum) orb.Projection {
	return func(p orb.Point) orb.Point {
		lng, lat := conv.Convert(from, to, p[0], p[1])
		return orb.Point{lng, lat}
	}
}

// ProjectFeatureCollection 对要素集合的全部几何原地投影
func ProjectFeatureCollection(fc *geojson.FeatureCollection, proj orb.Projection) *geojson.FeatureCollection {
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		f.Geometry = project.Geometry(f.Geometry, proj)
		if f.BBox != nil {
			f.BBox = geojson.NewBBox(f.Geometry.Bound())
		}
	}
	if fc.BBox != nil {
		var b orb.Bound
		first := true
		for _, f := range fc.Features {
			if f.Geometry == nil {
				continue
			}
			if first {
				b = f.Geometry.Bound()
				first = false
			} else {
				b = b.Union(f.Geometry.Bound())
			}
		}
		fc.BBox = geojson.NewBBox(b)
	}
	return fc
}
