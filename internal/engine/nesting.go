package engine

import (
	"sort"

	"github.com/piwi3910/SlabCost/internal/model"
)

// NestingResult reports how the pieces of one material pack onto its sheets.
// It is informational: costs always come from the area formula.
type NestingResult struct {
	Sheets     int      `json:"sheets"`
	Efficiency float64  `json:"efficiency"` // placed area / used sheet area, percent
	Unplaced   []string `json:"unplaced,omitempty"`
}

type nestItem struct {
	name string
	w, h float64
}

// Nest packs pieces onto as many sheets of m as needed. Each piece is
// expanded by its quantity and may be rotated. Pieces that do not fit an
// empty sheet in either orientation are reported as unplaced.
func Nest(pieces []model.Piece, m model.Material, kerfMm float64) NestingResult {
	sw, sh := m.SheetWidthMm, m.SheetHeightMm
	var res NestingResult
	if sw <= 0 || sh <= 0 {
		return res
	}

	var items []nestItem
	for _, p := range pieces {
		if p.LengthMm <= 0 || p.WidthMm <= 0 {
			continue
		}
		for i := 0; i < p.Quantity; i++ {
			it := nestItem{name: p.Name, w: p.LengthMm, h: p.WidthMm}
			if !fitsEmpty(it, sw, sh, kerfMm) {
				res.Unplaced = append(res.Unplaced, p.Name)
				continue
			}
			items = append(items, it)
		}
	}

	// Largest first packs better.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].w*items[i].h > items[j].w*items[j].h
	})

	var placedArea float64
	for len(items) > 0 {
		placed, rest := packBest(items, sw, sh, kerfMm)
		if len(rest) == len(items) {
			break
		}
		res.Sheets++
		placedArea += placed
		items = rest
	}
	for _, it := range items {
		res.Unplaced = append(res.Unplaced, it.name)
	}
	if res.Sheets > 0 {
		res.Efficiency = placedArea / (float64(res.Sheets) * sw * sh) * 100
	}
	return res
}

func fitsEmpty(it nestItem, sw, sh, kerf float64) bool {
	fit := func(w, h float64) bool { return w+kerf <= sw+0.001 && h+kerf <= sh+0.001 }
	return fit(it.w, it.h) || fit(it.h, it.w)
}

type rotation int

const (
	rotBestFit rotation = iota // tighter of both orientations
	rotNormal                  // as given, rotated only when it does not fit
	rotRotated                 // rotated, as given only when it does not fit
)

// packBest fills one sheet with each rotation strategy and keeps the one that
// places the most area.
func packBest(items []nestItem, sw, sh, kerf float64) (float64, []nestItem) {
	bestArea := -1.0
	var bestRest []nestItem
	for _, r := range []rotation{rotBestFit, rotNormal, rotRotated} {
		area, rest := packSheet(items, sw, sh, kerf, r)
		if area > bestArea {
			bestArea, bestRest = area, rest
		}
	}
	return bestArea, bestRest
}

func packSheet(items []nestItem, sw, sh, kerf float64, r rotation) (float64, []nestItem) {
	p := newPacker(sw, sh, kerf)
	var area float64
	var rest []nestItem
	for _, it := range items {
		if p.place(it.w, it.h, r) {
			area += it.w * it.h
		} else {
			rest = append(rest, it)
		}
	}
	return area, rest
}

// packer keeps the maximal free rectangles of one sheet.
type packer struct {
	free []rect
	kerf float64
}

type rect struct {
	x, y, w, h float64
}

func newPacker(w, h, kerf float64) *packer {
	return &packer{free: []rect{{0, 0, w, h}}, kerf: kerf}
}

func (p *packer) place(w, h float64, r rotation) bool {
	first, second := [2]float64{w, h}, [2]float64{h, w}
	switch r {
	case rotRotated:
		first, second = second, first
	case rotBestFit:
		a, b := p.fitScore(w, h), p.fitScore(h, w)
		if b >= 0 && (a < 0 || b < a) {
			first, second = second, first
		}
	}
	if p.insert(first[0], first[1]) {
		return true
	}
	return w != h && p.insert(second[0], second[1])
}

// fitScore is the leftover area of the best free rect for w x h, or -1.
func (p *packer) fitScore(w, h float64) float64 {
	wk, hk := w+p.kerf, h+p.kerf
	best := -1.0
	for _, r := range p.free {
		if wk <= r.w+0.001 && hk <= r.h+0.001 {
			if fit := r.w*r.h - w*h; best < 0 || fit < best {
				best = fit
			}
		}
	}
	return best
}

// insert places w x h in the best-area-fit free rect and splits every free
// rect it overlaps.
func (p *packer) insert(w, h float64) bool {
	wk, hk := w+p.kerf, h+p.kerf
	idx := -1
	best := 0.0
	for i, r := range p.free {
		if wk <= r.w+0.001 && hk <= r.h+0.001 {
			if fit := r.w*r.h - w*h; idx < 0 || fit < best {
				idx, best = i, fit
			}
		}
	}
	if idx < 0 {
		return false
	}
	at := p.free[idx]
	p.split(rect{x: at.x, y: at.y, w: wk, h: hk})
	return true
}

func (p *packer) split(used rect) {
	var next []rect
	for _, r := range p.free {
		if !overlaps(r, used) {
			next = append(next, r)
			continue
		}
		if used.x > r.x+0.001 {
			next = append(next, rect{r.x, r.y, used.x - r.x, r.h})
		}
		if used.x+used.w < r.x+r.w-0.001 {
			next = append(next, rect{used.x + used.w, r.y, r.x + r.w - used.x - used.w, r.h})
		}
		if used.y > r.y+0.001 {
			next = append(next, rect{r.x, r.y, r.w, used.y - r.y})
		}
		if used.y+used.h < r.y+r.h-0.001 {
			next = append(next, rect{r.x, used.y + used.h, r.w, r.y + r.h - used.y - used.h})
		}
	}
	p.free = prune(next)
}

func overlaps(a, b rect) bool {
	return a.x < b.x+b.w-0.001 && a.x+a.w > b.x+0.001 &&
		a.y < b.y+b.h-0.001 && a.y+a.h > b.y+0.001
}

// prune drops rects contained in another one. Of two equal rects the first is kept.
func prune(rects []rect) []rect {
	kept := make([]rect, 0, len(rects))
	for i, a := range rects {
		drop := false
		for j, b := range rects {
			if i == j || !contains(b, a) {
				continue
			}
			if !contains(a, b) || j < i {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, a)
		}
	}
	return kept
}

func contains(outer, inner rect) bool {
	return outer.x <= inner.x+0.001 && outer.y <= inner.y+0.001 &&
		outer.x+outer.w >= inner.x+inner.w-0.001 &&
		outer.y+outer.h >= inner.y+inner.h-0.001
}
