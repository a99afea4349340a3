package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	granular "github.com/cbegin/granular-go"
	"github.com/cbegin/granular-go/internal/config"
	"github.com/cbegin/granular-go/internal/effects"
	"github.com/cbegin/granular-go/internal/host"
	"github.com/cbegin/granular-go/internal/scope"
)

const (
	windowW    = 1100
	windowH    = 720
	minWindowW = 980
	minWindowH = 680

	textScale = 2
	charW     = 7 * textScale
	lineH     = 14 * textScale

	// grainWindow is how much history the grain view shows, in UI ticks.
	grainWindow = 180
	maxMarks    = 512
)

// paramSlider maps one engine parameter onto a horizontal slider.
type paramSlider struct {
	label    string
	min, max float64
	log      bool // exponential mapping for ranges spanning decades
	format   string
	get      func(*granular.Engine) float32
	set      func(*granular.Engine, float32)
}

func (s paramSlider) frac(v float64) float64 {
	if s.log {
		return clamp(math.Log(v/s.min)/math.Log(s.max/s.min), 0, 1)
	}
	return clamp((v-s.min)/(s.max-s.min), 0, 1)
}

func (s paramSlider) value(frac float64) float64 {
	frac = clamp(frac, 0, 1)
	if s.log {
		return s.min * math.Pow(s.max/s.min, frac)
	}
	return s.min + frac*(s.max-s.min)
}

func sliders(capacity int) []paramSlider {
	return []paramSlider{
		{"Position", 1, float64(capacity), true, "%.0f", (*granular.Engine).Position, (*granular.Engine).SetPosition},
		{"Density", 0.5, 500, true, "%.1f", (*granular.Engine).Density, (*granular.Engine).SetDensity},
		{"Duration", 100, 20000, true, "%.0f", (*granular.Engine).Duration, (*granular.Engine).SetDuration},
		{"Pitch", 0.25, 4, true, "%.2f", (*granular.Engine).Pitch, (*granular.Engine).SetPitch},
		{"Volume", 0, 1, false, "%.2f", (*granular.Engine).Volume, (*granular.Engine).SetVolume},
		{"Feedback", 0, 1, false, "%.2f", (*granular.Engine).Feedback, (*granular.Engine).SetFeedback},
		{"Wet/Dry", 0, 1, false, "%.2f", (*granular.Engine).WetDry, (*granular.Engine).SetWetDry},
	}
}

// grainMark is one onset shown in the grain view.
type grainMark struct {
	tick     int
	duration float32
	row      int
}

type game struct {
	cfg      config.Config
	player   *granular.Player
	input    granular.SampleSource
	events   <-chan granular.PlaybackEvent
	analyzer *scope.Analyzer
	sliders  []paramSlider

	scopeImg *ebiten.Image
	scopeW   int
	scopeH   int
	specBins []float64
	wavePeak float64

	marks    []grainMark
	nextRow  int
	eqGains  [effects.Bands]float64
	dragging int // slider index, or -1
	dragEQ   int // band index, or -1

	playing bool
	paused  bool

	status    string
	statusErr bool

	frameTick int
	textCache map[string]*ebiten.Image
	viewW     int
	viewH     int
}

func newGame(cfg config.Config) (*game, error) {
	a := scope.NewAnalyzer(cfg.Engine.SampleRate)
	opts, err := host.PlayerOptions(cfg)
	if err != nil {
		return nil, err
	}
	opts = append(opts, granular.WithSampleTap(a.Tap))
	pl, err := granular.NewPlayer(opts...)
	if err != nil {
		return nil, err
	}
	input, err := host.Input(cfg.Input, cfg.Engine.SampleRate)
	if err != nil {
		return nil, err
	}
	g := &game{
		cfg:       cfg,
		player:    pl,
		input:     input,
		events:    pl.Watch(),
		analyzer:  a,
		sliders:   sliders(pl.Engine().Capacity()),
		dragging:  -1,
		dragEQ:    -1,
		status:    "Ready",
		textCache: make(map[string]*ebiten.Image, 1024),
		viewW:     windowW,
		viewH:     windowH,
	}
	host.ApplyEQ(pl, cfg.Post.EQ)
	for i := range g.eqGains {
		g.eqGains[i] = float64(pl.EQBand(i))
	}
	return g, nil
}

func (g *game) Update() error {
	g.frameTick++
	g.pollEvents()
	g.handleMouse()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)
	l := g.layoutRects()

	g.drawPanel(screen, l.params)
	g.drawPanel(screen, l.eq)
	g.drawDarkPanel(screen, l.grains)
	g.drawDarkPanel(screen, l.scope)
	g.drawButton(screen, l.play, g.playButtonLabel())
	g.drawButton(screen, l.restart, "Restart")
	g.drawSunkenPanel(screen, l.status)

	g.drawSliders(screen, l.params)
	g.drawEQ(screen, l.eq)
	g.drawGrains(screen, l.grains)
	g.drawScope(screen, l.scope)
	g.drawStatus(screen, l.status)
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	g.viewW = max(outsideW, minWindowW)
	g.viewH = max(outsideH, minWindowH)
	return g.viewW, g.viewH
}

func (g *game) Close() { _ = g.player.Stop() }

func (g *game) pollEvents() {
	for {
		select {
		case ev := <-g.events:
			switch ev.Kind {
			case granular.EventGrain:
				g.addMark(ev.Duration)
			case granular.EventPlaybackEnded:
				g.playing = false
				g.paused = false
				if !g.statusErr {
					g.setStatus("Playback ended")
				}
			}
		default:
			return
		}
	}
}

func (g *game) addMark(duration float32) {
	if len(g.marks) == maxMarks {
		g.marks = g.marks[1:]
	}
	g.marks = append(g.marks, grainMark{tick: g.frameTick, duration: duration, row: g.nextRow})
	g.nextRow = (g.nextRow + 7) % 23
}

func (g *game) handleMouse() {
	mx, my := ebiten.CursorPosition()
	l := g.layoutRects()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		switch {
		case pointInRect(mx, my, l.play):
			g.togglePlayPause()
			return
		case pointInRect(mx, my, l.restart):
			g.restartPlayback()
			return
		case pointInRect(mx, my, l.params):
			g.dragging = g.sliderAt(my, l.params)
		case pointInRect(mx, my, l.eq):
			g.dragEQ = g.eqBandFromMouse(mx, l.eq)
		}
	}
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		g.dragging = -1
		g.dragEQ = -1
	}
	if g.dragging >= 0 {
		g.updateSliderFromMouse(mx, l.params)
	}
	if g.dragEQ >= 0 {
		g.updateEQFromMouse(my, l.eq)
	}
}

type uiLayout struct {
	params, eq, grains, scope image.Rectangle
	play, restart, status     image.Rectangle
}

func (g *game) layoutRects() uiLayout {
	w, h := g.viewW, g.viewH
	pad := 20
	rowH := 44
	statusH := 40

	statusTop := h - pad - statusH
	controlsTop := statusTop - 8 - rowH

	leftW := 460
	eqH := 140
	eqTop := controlsTop - 12 - eqH
	params := image.Rect(pad, pad, pad+leftW, eqTop-12)
	eq := image.Rect(pad, eqTop, pad+leftW, controlsTop-12)

	rightX := params.Max.X + 12
	rightW := max(w-rightX-pad, 320)
	contentBottom := controlsTop - 12
	half := (contentBottom - pad - 12) / 2
	grains := image.Rect(rightX, pad, rightX+rightW, pad+half)
	scopeRect := image.Rect(rightX, grains.Max.Y+12, rightX+rightW, contentBottom)

	return uiLayout{
		params:  params,
		eq:      eq,
		grains:  grains,
		scope:   scopeRect,
		play:    image.Rect(pad, controlsTop, pad+150, controlsTop+rowH),
		restart: image.Rect(pad+162, controlsTop, pad+312, controlsTop+rowH),
		status:  image.Rect(pad, statusTop, w-pad, statusTop+statusH),
	}
}

// sliderRow returns the track rectangle of slider i inside rect.
func sliderRow(i int, rect image.Rectangle) image.Rectangle {
	top := rect.Min.Y + 12 + i*(lineH+22)
	return image.Rect(rect.Min.X+8, top, rect.Max.X-8, top+lineH+16)
}

func (g *game) sliderAt(my int, rect image.Rectangle) int {
	for i := range g.sliders {
		r := sliderRow(i, rect)
		if my >= r.Min.Y && my < r.Max.Y {
			return i
		}
	}
	return -1
}

func (g *game) updateSliderFromMouse(mx int, rect image.Rectangle) {
	s := g.sliders[g.dragging]
	track := sliderTrack(sliderRow(g.dragging, rect))
	v := s.value(float64(mx-track.Min.X) / float64(track.Dx()))
	s.set(g.player.Engine(), float32(v))
	g.setStatus(fmt.Sprintf("%s: "+s.format, s.label, v))
}

func (g *game) eqBandFromMouse(mx int, rect image.Rectangle) int {
	bandW := (rect.Dx() - 16) / effects.Bands
	if bandW <= 0 {
		return -1
	}
	idx := (mx - rect.Min.X - 8) / bandW
	if idx < 0 || idx >= effects.Bands {
		return -1
	}
	return idx
}

var eqBandLabels = [effects.Bands]string{"Lo", "LoM", "Mid", "HiM", "Hi"}

func (g *game) updateEQFromMouse(my int, rect image.Rectangle) {
	inner := eqInner(rect)
	if inner.Dy() <= 0 {
		return
	}
	// Top = 2.0, bottom = 0.0.
	gain := 2 * (1 - clamp(float64(my-inner.Min.Y)/float64(inner.Dy()), 0, 1))
	g.eqGains[g.dragEQ] = gain
	g.player.SetEQBand(g.dragEQ, float32(gain))
	g.setStatus(fmt.Sprintf("EQ %s: %.1f", eqBandLabels[g.dragEQ], gain))
}

func (g *game) togglePlayPause() {
	if !g.playing {
		g.restartPlayback()
		return
	}
	if g.paused {
		g.player.Resume()
		g.paused = false
		g.setStatus("Playing")
		return
	}
	g.player.Pause()
	g.paused = true
	g.setStatus("Paused")
}

func (g *game) restartPlayback() {
	g.analyzer.Reset()
	g.marks = g.marks[:0]
	if err := g.player.Play(g.input); err != nil {
		g.playing = false
		g.paused = false
		g.setError(err.Error())
		return
	}
	g.playing = true
	g.paused = false
	g.setStatus("Playing")
}

func (g *game) playButtonLabel() string {
	switch {
	case !g.playing:
		return "Play"
	case g.paused:
		return "Resume"
	}
	return "Pause"
}

func (g *game) setError(msg string) {
	g.status = msg
	g.statusErr = true
}

func (g *game) setStatus(msg string) {
	g.status = msg
	g.statusErr = false
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if flag.NArg() > 0 {
		cfg.Input.WAV = flag.Arg(0)
	}

	g, err := newGame(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer g.Close()

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(minWindowW, minWindowH, -1, -1)
	ebiten.SetWindowTitle("granular")
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
