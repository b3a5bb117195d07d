// wx/wind.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import (
	"slices"
	"strconv"
	"strings"

	"github.com/mmp/vnav/math"
	"github.com/mmp/vnav/util"
)

// WindComponent is the along-track wind in knots; positive values are
// tailwinds.
type WindComponent float32

type WindLayer struct {
	Altitude  float32
	Direction float32 // where the wind is coming from
	Speed     float32
}

// vector returns the wind's velocity (where it is blowing towards) as a
// (east, north) vector in knots.
func (l WindLayer) vector() [2]float32 {
	d := math.Radians(l.Direction)
	return [2]float32{-l.Speed * math.Sin(d), -l.Speed * math.Cos(d)}
}

// ParseWindLayers parses a string of the form
// "alt/dir/spd,alt/dir/spd,..." and returns the corresponding WindLayer
// objects, sorted by altitude. Errors are logged to the provided
// ErrorLogger.
func ParseWindLayers(str string, e *util.ErrorLogger) []WindLayer {
	var layers []WindLayer
	if strings.TrimSpace(str) == "" {
		return nil
	}

	for l := range strings.SplitSeq(str, ",") {
		f := strings.Split(l, "/")
		if len(f) != 3 {
			e.ErrorString("expected three numbers separated by '/'s in wind layer %q entry", l)
			continue
		}
		for i := range f {
			f[i] = strings.TrimSpace(f[i])
		}

		var layer WindLayer
		if alt, err := strconv.Atoi(f[0]); err != nil {
			e.ErrorString("invalid altitude %q in wind layer %q", f[0], str)
			continue
		} else {
			layer.Altitude = float32(alt)
		}

		if dir, err := strconv.Atoi(f[1]); err != nil {
			e.ErrorString("invalid direction %q in wind layer %q", f[1], str)
			continue
		} else if dir < 0 || dir > 360 {
			e.ErrorString("wind layer direction %d must be between 0-360", dir)
			continue
		} else {
			layer.Direction = float32(dir)
		}

		if spd, err := strconv.Atoi(f[2]); err != nil {
			e.ErrorString("invalid speed %q in wind layer %q", f[2], str)
			continue
		} else if spd < 0 {
			e.ErrorString("speed %d must be >= 0 in wind layer %q", spd, str)
			continue
		} else {
			layer.Speed = float32(spd)
		}

		layers = append(layers, layer)
	}

	slices.SortFunc(layers, func(a, b WindLayer) int {
		return int(math.Sign(a.Altitude - b.Altitude))
	})
	return layers
}

// WindProfile gives the along-track wind component at altitude for a
// route flown on a constant track.
type WindProfile struct {
	Layers []WindLayer
	Track  float32 // degrees true
}

// ComponentAt interpolates between the bracketing layers and returns the
// along-track component at the given altitude. With no layers, the wind
// is calm.
func (w WindProfile) ComponentAt(alt float32) WindComponent {
	layers := w.Layers
	if len(layers) == 0 {
		return 0
	}

	var v [2]float32
	if alt <= layers[0].Altitude {
		v = layers[0].vector()
	} else if alt >= layers[len(layers)-1].Altitude {
		v = layers[len(layers)-1].vector()
	} else {
		i := 0 // precondition: alt > layers[i].Altitude
		for i = range layers {
			if alt < layers[i].Altitude {
				break
			}
		}

		l0, l1 := layers[i-1], layers[i]
		t := math.InverseLerp(alt, l0.Altitude, l1.Altitude)
		v0, v1 := l0.vector(), l1.vector()
		v = [2]float32{math.Lerp(t, v0[0], v1[0]), math.Lerp(t, v0[1], v1[1])}
	}

	tr := math.Radians(w.Track)
	return WindComponent(v[0]*math.Sin(tr) + v[1]*math.Cos(tr))
}
