package main

import (
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	granular "github.com/cbegin/granular-go"
	"github.com/cbegin/granular-go/internal/effects"
	"github.com/cbegin/granular-go/internal/scope"
)

var (
	bgColor     = color.RGBA{192, 192, 192, 255}
	panelColor  = color.RGBA{192, 192, 192, 255}
	borderColor = color.RGBA{128, 128, 128, 255}

	// 3D bevel colors for old-school embossed look.
	bevelLight  = color.RGBA{255, 255, 255, 255}
	bevelDarker = color.RGBA{64, 64, 64, 255}

	sunkenBgColor   = color.RGBA{24, 24, 32, 255}
	sliderFillColor = color.RGBA{0, 0, 128, 255}
	scopeBgColor    = color.RGBA{14, 16, 22, 255}
)

// sliderTrack is the draggable part of a slider row, right of its label.
func sliderTrack(row image.Rectangle) image.Rectangle {
	y := row.Min.Y + row.Dy()/2 - 4
	return image.Rect(row.Min.X+230, y, row.Max.X-8, y+8)
}

func (g *game) drawSliders(screen *ebiten.Image, rect image.Rectangle) {
	e := g.player.Engine()
	for i, s := range g.sliders {
		row := sliderRow(i, rect)
		v := float64(s.get(e))
		g.drawText(screen, s.label, row.Min.X, row.Min.Y+4)
		track := sliderTrack(row)
		if track.Dx() < 20 {
			continue
		}
		// Sunken groove.
		ebitenutil.DrawRect(screen, float64(track.Min.X), float64(track.Min.Y), float64(track.Dx()), 8, bevelDarker)
		ebitenutil.DrawRect(screen, float64(track.Min.X), float64(track.Min.Y), float64(track.Dx()-1), 1, borderColor)
		fillW := int(float64(track.Dx()) * s.frac(v))
		if fillW > 2 {
			ebitenutil.DrawRect(screen, float64(track.Min.X+1), float64(track.Min.Y+1), float64(fillW-1), 6, sliderFillColor)
		}
		knobX := min(max(track.Min.X+fillW-5, track.Min.X-5), track.Max.X-5)
		knob := image.Rect(knobX, track.Min.Y-4, knobX+10, track.Max.Y+4)
		ebitenutil.DrawRect(screen, float64(knob.Min.X), float64(knob.Min.Y), float64(knob.Dx()), float64(knob.Dy()), panelColor)
		drawBorder(screen, knob)
		g.drawText(screen, fmt.Sprintf(s.format, v), row.Min.X+120, row.Min.Y+4)
	}
}

// eqInner is the area the EQ knobs travel in.
func eqInner(rect image.Rectangle) image.Rectangle {
	return image.Rect(rect.Min.X+8, rect.Min.Y+4+lineH, rect.Max.X-8, rect.Max.Y-8)
}

func (g *game) drawEQ(screen *ebiten.Image, rect image.Rectangle) {
	inner := eqInner(rect)
	bandW := inner.Dx() / effects.Bands
	if bandW < 10 {
		return
	}
	for i := 0; i < effects.Bands; i++ {
		bx := inner.Min.X + i*bandW
		bw := bandW - 4
		bh := inner.Dy()
		g.drawText(screen, eqBandLabels[i], bx+2, rect.Min.Y+2)
		ebitenutil.DrawRect(screen, float64(bx+bw/2-2), float64(inner.Min.Y), 4, float64(bh), bevelDarker)
		// Unity line.
		ebitenutil.DrawRect(screen, float64(bx), float64(inner.Min.Y+bh/2), float64(bw), 1, borderColor)
		frac := clamp(g.eqGains[i]/2, 0, 1)
		knobY := inner.Min.Y + bh - int(frac*float64(bh)) - 4
		knob := image.Rect(bx+2, knobY, bx+bw-2, knobY+8)
		ebitenutil.DrawRect(screen, float64(knob.Min.X), float64(knob.Min.Y), float64(knob.Dx()), float64(knob.Dy()), panelColor)
		drawBorder(screen, knob)
	}
}

// drawGrains plots recent onsets left to right in time; each bar is as long
// as its grain and fades with age. A meter along the bottom shows pool use.
func (g *game) drawGrains(screen *ebiten.Image, rect image.Rectangle) {
	inner := image.Rect(rect.Min.X+8, rect.Min.Y+8, rect.Max.X-8, rect.Max.Y-8)
	if inner.Dx() <= 0 || inner.Dy() <= 40 {
		return
	}
	sr := float64(g.player.SampleRate())
	pxPerTick := float64(inner.Dx()) / grainWindow
	pxPerSample := pxPerTick * float64(ebiten.TPS()) / sr
	rowH := float64(inner.Dy()-24) / 23

	for _, m := range g.marks {
		age := g.frameTick - m.tick
		if age > grainWindow {
			continue
		}
		x := float64(inner.Max.X) - float64(age)*pxPerTick
		w := max(float64(m.duration)*pxPerSample, 2)
		w = min(w, float64(inner.Max.X)-x)
		alpha := uint8(230 * (1 - float64(age)/grainWindow))
		y := float64(inner.Min.Y) + float64(m.row)*rowH
		ebitenutil.DrawRect(screen, x, y, w, max(rowH-2, 2), color.RGBA{80, 200, 255, alpha})
	}

	e := g.player.Engine()
	used := float64(e.ActiveGrains()) / granular.MaxGrains
	meterY := float64(inner.Max.Y - 16)
	ebitenutil.DrawRect(screen, float64(inner.Min.X), meterY, float64(inner.Dx()), 12, sunkenBgColor)
	ebitenutil.DrawRect(screen, float64(inner.Min.X), meterY, used*float64(inner.Dx()), 12, color.RGBA{255, 160, 60, 220})
	g.drawText(screen, fmt.Sprintf("grains %d/%d  total %d", e.ActiveGrains(), granular.MaxGrains, g.player.Grains()), inner.Min.X, inner.Min.Y)
}

func (g *game) drawScope(screen *ebiten.Image, rect image.Rectangle) {
	inner := image.Rect(rect.Min.X+8, rect.Min.Y+8, rect.Max.X-8, rect.Max.Y-8)
	width, height := inner.Dx(), inner.Dy()
	if width <= 0 || height <= 0 {
		return
	}
	if g.scopeImg == nil || g.scopeW != width || g.scopeH != height {
		g.scopeW, g.scopeH = width, height
		g.scopeImg = ebiten.NewImage(width, height)
	}
	g.scopeImg.Fill(scopeBgColor)

	snap := g.analyzer.Snapshot(scope.FFTSize, g.player.PlaybackPosition())
	waveH := int(float64(height) * 0.45)
	g.drawWaveform(g.scopeImg, snap, width, waveH)
	ebitenutil.DrawRect(g.scopeImg, 0, float64(waveH), float64(width), 1, color.RGBA{50, 54, 68, 180})
	g.drawSpectrumBars(g.scopeImg, snap, width, height-waveH-1, waveH+1)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(inner.Min.X), float64(inner.Min.Y))
	screen.DrawImage(g.scopeImg, op)
}

func (g *game) drawWaveform(dst *ebiten.Image, samples []float32, width, height int) {
	if len(samples) < 2 || width < 2 || height < 4 {
		return
	}
	midY := height / 2
	ebitenutil.DrawRect(dst, 0, float64(midY), float64(width), 1, color.RGBA{40, 44, 58, 100})

	// Auto-gain: fast attack, slow release.
	var peak float32
	for _, s := range samples {
		peak = max(peak, s, -s)
	}
	target := max(float64(peak), 0.01)
	if target > g.wavePeak {
		g.wavePeak = g.wavePeak*0.3 + target*0.7
	} else {
		g.wavePeak = g.wavePeak*0.995 + target*0.005
	}
	g.wavePeak = max(g.wavePeak, 0.01)
	gain := float64(midY-2) / g.wavePeak

	waveColor := color.RGBA{80, 200, 255, 220}
	prevY := midY - int(float64(samples[0])*gain)
	for px := 1; px < width; px++ {
		si := min(px*len(samples)/width, len(samples)-1)
		y := midY - int(float64(samples[si])*gain)
		ebitenutil.DrawLine(dst, float64(px-1), float64(prevY), float64(px), float64(y), waveColor)
		prevY = y
	}
}

func (g *game) drawSpectrumBars(dst *ebiten.Image, samples []float32, width, height, yOffset int) {
	if width < 4 || height < 4 {
		return
	}
	numBars := min(max(width/3, 16), 256)
	bars := scope.Spectrum(samples, g.analyzer.SampleRate(), numBars, 18000)
	if bars == nil {
		return
	}
	if len(g.specBins) != numBars {
		g.specBins = make([]float64, numBars)
	}
	barW := float64(width) / float64(numBars)
	for i, v := range bars {
		// Fast attack, slower decay.
		prev := g.specBins[i]
		if v > prev {
			v = prev*0.3 + v*0.7
		} else {
			v = prev*0.85 + v*0.15
		}
		g.specBins[i] = v
		barH := max(v*float64(height-4), 1)
		r, gr, b := spectrumColor(v)
		ebitenutil.DrawRect(dst, float64(i)*barW+1, float64(yOffset)+float64(height-2)-barH, barW-1, barH, color.RGBA{r, gr, b, 220})
	}
}

func spectrumColor(v float64) (uint8, uint8, uint8) {
	if v < 0.33 {
		t := v / 0.33
		return uint8(30 + 20*t), uint8(80 + 120*t), uint8(200 + 55*t)
	}
	if v < 0.66 {
		t := (v - 0.33) / 0.33
		return uint8(50 + 140*t), uint8(200 + 30*t), uint8(255 - 100*t)
	}
	t := (v - 0.66) / 0.34
	return uint8(190 + 65*t), uint8(230 - 100*t), uint8(155 - 100*t)
}

func (g *game) drawStatus(screen *ebiten.Image, rect image.Rectangle) {
	msg := "Status: " + g.status
	if g.statusErr {
		msg = "Status: ERROR - " + g.status
	}
	maxChars := max(8, (rect.Dx()-16)/charW)
	g.drawText(screen, shortenEnd(msg, maxChars), rect.Min.X+8, rect.Min.Y+6)
}

func (g *game) drawPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), panelColor)
	drawBorder(screen, rect)
}

func (g *game) drawSunkenPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), sunkenBgColor)
	drawSunkenBorder(screen, rect)
}

func (g *game) drawDarkPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), color.Black)
	drawSunkenBorder(screen, rect)
}

func (g *game) drawButton(screen *ebiten.Image, rect image.Rectangle, label string) {
	g.drawPanel(screen, rect)
	labelW := len([]rune(label)) * charW
	g.drawText(screen, label, rect.Min.X+(rect.Dx()-labelW)/2, rect.Min.Y+(rect.Dy()-lineH)/2)
}

// drawBorder draws a raised bevel: highlight top/left, shadow bottom/right.
func drawBorder(screen *ebiten.Image, rect image.Rectangle) {
	x, y := float64(rect.Min.X), float64(rect.Min.Y)
	w, h := float64(rect.Dx()), float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, bevelLight)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, bevelLight)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelDarker)
	ebitenutil.DrawRect(screen, x+1, y+h-2, w-3, 1, borderColor)
	ebitenutil.DrawRect(screen, x+w-2, y+1, 1, h-3, borderColor)
}

// drawSunkenBorder is drawBorder with the light source flipped.
func drawSunkenBorder(screen *ebiten.Image, rect image.Rectangle) {
	x, y := float64(rect.Min.X), float64(rect.Min.Y)
	w, h := float64(rect.Dx()), float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, borderColor)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, borderColor)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelLight)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelLight)
	ebitenutil.DrawRect(screen, x+1, y+1, w-3, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+1, y+2, 1, h-4, bevelDarker)
}

func (g *game) drawText(screen *ebiten.Image, msg string, x, y int) {
	if msg == "" {
		return
	}
	img := g.textCache[msg]
	if img == nil {
		img = ebiten.NewImage(max(1, len([]rune(msg))*7), 14)
		ebitenutil.DebugPrintAt(img, msg, 0, 0)
		if len(g.textCache) > 3000 {
			g.textCache = make(map[string]*ebiten.Image, 1024)
		}
		g.textCache[msg] = img
	}
	shadow := &ebiten.DrawImageOptions{}
	shadow.GeoM.Scale(textScale, textScale)
	shadow.GeoM.Translate(float64(x+2), float64(y+2))
	shadow.ColorScale.Scale(0, 0, 0, 1)
	screen.DrawImage(img, shadow)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(textScale, textScale)
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(img, op)
}

func shortenEnd(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return string(r[:max(0, maxChars)])
	}
	return string(r[:maxChars-3]) + "..."
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

func pointInRect(x, y int, rect image.Rectangle) bool {
	return image.Pt(x, y).In(rect)
}
