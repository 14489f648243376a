package video

import (
	"fmt"
	"strconv"
	"strings"
)

// AudioFilter builds the filter graph for input 1's audio: volume, then
// optional fade-in from 0 and fade-out ending at duration, then silence
// padding so a short track never ends the video early. The output pad is
// [aout].
func AudioFilter(a AudioInput, duration float64) string {
	vol := a.Volume
	if vol == 0 {
		vol = 1
	}

	parts := []string{"volume=" + num(vol)}
	if a.FadeIn > 0 {
		parts = append(parts, fmt.Sprintf("afade=t=in:st=0:d=%s", num(a.FadeIn)))
	}
	if a.FadeOut > 0 {
		start := duration - a.FadeOut
		if start < 0 {
			start = 0
		}
		parts = append(parts, fmt.Sprintf("afade=t=out:st=%s:d=%s", num(start), num(a.FadeOut)))
	}
	parts = append(parts, "apad")
	return "[1:a]" + strings.Join(parts, ",") + "[aout]"
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
