package eps

import "github.com/ebs-eps/core/internal/ringbuf"

// oscillationWindow tracks the most recent OscillationWindow total
// torque samples and evaluates spec §4.6 step 7's detector: more than
// OscillationSignChangeThreshold sign changes between consecutive
// samples together with a max amplitude above
// OscillationAmplitudeThresholdNm.
type oscillationWindow struct {
	buf *ringbuf.Buffer[float64]
}

func (w *oscillationWindow) push(total float64) {
	if w.buf == nil {
		w.buf = ringbuf.New[float64](OscillationWindow)
	}
	w.buf.Push(total)
}

func (w *oscillationWindow) oscillating() bool {
	if w.buf == nil || w.buf.Len() < 2 {
		return false
	}

	signChanges := 0
	var maxAmplitude float64
	prev := w.buf.At(0)
	if abs(prev) > maxAmplitude {
		maxAmplitude = abs(prev)
	}
	for i := 1; i < w.buf.Len(); i++ {
		cur := w.buf.At(i)
		if abs(cur) > maxAmplitude {
			maxAmplitude = abs(cur)
		}
		if sign(cur) != 0 && sign(prev) != 0 && sign(cur) != sign(prev) {
			signChanges++
		}
		prev = cur
	}

	return signChanges > OscillationSignChangeThreshold && maxAmplitude > OscillationAmplitudeThresholdNm
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
