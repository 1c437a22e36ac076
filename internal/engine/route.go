package engine

import "github.com/mjstrand/twindeck/internal/router"

func (e *Engine) routeLocked(mix, bufA, bufB []float32, frames int, out []float32) {
	router.Route(e.chanCfg, mix, bufA, bufB, frames, out)
}
