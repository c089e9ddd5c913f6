// Package viz renders engine progress and sweep results on a terminal.
package viz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"pdcoea/internal/coea"
)

const (
	defaultFrameInterval = 50 * time.Millisecond
	snapshotBuffer       = 4
	axisMargin           = 6
)

var (
	styleRegion = tcell.StyleDefault.Background(tcell.NewRGBColor(60, 16, 16))
	stylePoint  = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleAxis   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

// Scatter is a coea.Observer that plots every (predator, prey) pair by its
// ones counts. Points in the shaded region have prey <= predator. Pressing
// q, Esc or Ctrl-C calls the cancel function given to NewScatter.
type Scatter struct {
	screen   tcell.Screen
	cancel   context.CancelFunc
	interval time.Duration

	snapshots chan coea.Snapshot
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	latest coea.Snapshot // render goroutine only

	mu      sync.Mutex
	dropped int
}

// NewScatter takes ownership of an initialised screen. interval throttles
// redraws; zero selects a default.
func NewScatter(screen tcell.Screen, cancel context.CancelFunc, interval time.Duration) *Scatter {
	if interval <= 0 {
		interval = defaultFrameInterval
	}
	return &Scatter{
		screen:    screen,
		cancel:    cancel,
		interval:  interval,
		snapshots: make(chan coea.Snapshot, snapshotBuffer),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// OpenScatter creates and initialises a screen on the controlling terminal.
func OpenScatter(cancel context.CancelFunc) (*Scatter, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	s := NewScatter(screen, cancel, 0)
	s.Start()
	return s, nil
}

func (s *Scatter) Start() {
	events := make(chan tcell.Event, 16)
	go s.screen.ChannelEvents(events, s.quit)
	go s.loop(events)
}

// ObserveGeneration never blocks the engine. When the renderer falls behind
// snapshots are dropped; only the most recent one matters for a frame.
func (s *Scatter) ObserveGeneration(snap coea.Snapshot) {
	select {
	case s.snapshots <- snap:
	default:
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
	}
}

func (s *Scatter) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close draws the final frame, stops the render loop and restores the
// terminal.
func (s *Scatter) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
		<-s.done
		s.screen.Fini()
	})
}

func (s *Scatter) loop(events <-chan tcell.Event) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	dirty := true
	for {
		select {
		case <-s.quit:
			s.drain()
			s.draw()
			return
		case snap := <-s.snapshots:
			s.latest = snap
			dirty = true
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if s.handle(ev) {
				dirty = true
			}
		case <-ticker.C:
			if dirty {
				s.draw()
				dirty = false
			}
		}
	}
}

func (s *Scatter) drain() {
	for {
		select {
		case snap := <-s.snapshots:
			s.latest = snap
		default:
			return
		}
	}
}

func (s *Scatter) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
			(ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q')) {
			if s.cancel != nil {
				s.cancel()
			}
		}
	case *tcell.EventResize:
		s.screen.Sync()
		return true
	}
	return false
}

type plotArea struct {
	left, top, width, height int
	n                        int
}

func newPlotArea(width, height, n int) plotArea {
	return plotArea{
		left:   axisMargin,
		top:    1,
		width:  max(width-axisMargin-1, 1),
		height: max(height-3, 1),
		n:      max(n, 1),
	}
}

// Prey grows upwards.
func (p plotArea) cell(pred, prey int) (x, y int) {
	x = p.left + pred*(p.width-1)/p.n
	y = p.top + (p.height - 1) - prey*(p.height-1)/p.n
	return x, y
}

func (p plotArea) shaded(x, y int) bool {
	col := x - p.left
	row := (p.height - 1) - (y - p.top)
	return row*(p.width-1) <= col*(p.height-1)
}

func (s *Scatter) draw() {
	s.screen.Clear()
	width, height := s.screen.Size()
	snap := s.latest
	area := newPlotArea(width, height, snap.N)

	for y := area.top; y < area.top+area.height; y++ {
		for x := area.left; x < area.left+area.width; x++ {
			if area.shaded(x, y) {
				s.screen.SetContent(x, y, ' ', nil, styleRegion)
			}
		}
		s.screen.SetContent(area.left-1, y, '│', nil, styleAxis)
	}
	for x := area.left; x < area.left+area.width; x++ {
		s.screen.SetContent(x, area.top+area.height, '─', nil, styleAxis)
	}
	drawText(s.screen, 0, area.top, styleAxis, fmt.Sprintf("%4d", snap.N))
	drawText(s.screen, 0, area.top+area.height-1, styleAxis, "   0")

	for i := range snap.PredatorOnes {
		if i >= len(snap.PreyOnes) {
			break
		}
		x, y := area.cell(snap.PredatorOnes[i], snap.PreyOnes[i])
		style := stylePoint
		if area.shaded(x, y) {
			style = style.Background(tcell.NewRGBColor(60, 16, 16))
		}
		s.screen.SetContent(x, y, '•', nil, style)
	}

	status := fmt.Sprintf("gen %d  evals %d  x=predator ones  y=prey ones  [q] stop", snap.Generation, snap.PayoffEvals)
	drawText(s.screen, 0, height-1, styleStatus, status)
	s.screen.Show()
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}
