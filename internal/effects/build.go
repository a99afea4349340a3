package effects

import (
	"fmt"
	"strings"
)

// New builds an effect by name from positional parameters; missing
// parameters take the defaults listed below. Known names:
//
//	delay       ms=250 feedback=0.4 cross=0.2 wet=0.3
//	reverb      room=0.5 feedback=0.7 wet=0.25
//	chorus      ms=15 feedback=0.3 depthMs=3 rateHz=1.5 wet=0.4
//	distortion  drive=4 level=0.5 cutoffHz=8000   (alias dist)
//	eq          low=1 mid=1 high=1 lowHz=300 highHz=3000
//	compressor  thresholdDB=-20 ratio=4 attackMs=5 releaseMs=100 makeupDB=6   (alias comp)
func New(name string, params []float64, sampleRate int) (Effector, error) {
	arg := func(i int, def float64) float64 {
		if i < len(params) {
			return params[i]
		}
		return def
	}
	f := func(i int, def float64) float32 { return float32(arg(i, def)) }

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "delay":
		return NewDelay(sampleRate, arg(0, 250), f(1, 0.4), f(2, 0.2), f(3, 0.3)), nil
	case "reverb":
		return NewReverb(sampleRate, f(0, 0.5), f(1, 0.7), f(2, 0.25)), nil
	case "chorus":
		return NewChorus(sampleRate, f(0, 15), f(1, 0.3), f(2, 3), f(3, 1.5), f(4, 0.4)), nil
	case "dist", "distortion":
		return NewDistortion(sampleRate, f(0, 4), f(1, 0.5), f(2, 8000)), nil
	case "eq":
		return NewEQ3Band(sampleRate, f(0, 1), f(1, 1), f(2, 1), f(3, 300), f(4, 3000)), nil
	case "comp", "compressor":
		return NewCompressor(sampleRate, f(0, -20), f(1, 4), f(2, 5), f(3, 100), f(4, 6)), nil
	}
	return nil, fmt.Errorf("unknown effect %q", name)
}
