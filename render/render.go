// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

// Package render draws a traced path on an equirectangular character map.
package render

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/DataDog/datadog-geotrace/result"
)

const (
	DefaultWidth  = 120
	DefaultHeight = 40

	minWidth  = 8
	minHeight = 5
)

const (
	cellEmpty    = ' '
	cellFrameH   = '-'
	cellFrameV   = '|'
	cellCorner   = '+'
	cellEquator  = '-'
	cellMeridian = '|'
	cellCross    = '+'
	cellSegment  = '.'
	cellSource   = '@'
)

// hop markers, reused when a path is longer than the alphabet
const markers = "123456789abcdefghijklmnopqrstuvwxyz"

// Point is a position in encounter order. Label is printed in the legend.
type Point struct {
	Lon   float64
	Lat   float64
	Label string
}

type cell struct{ col, row int }

// WorldMap is a fixed size grid covering longitudes [-180, 180] and
// latitudes [-90, 90]. It is not safe for concurrent use.
type WorldMap struct {
	width, height int
	grid          [][]byte

	source *Point
	hops   []Point
}

// New returns an empty map. Dimensions below 8x5 are raised to that minimum.
func New(width, height int) *WorldMap {
	m := &WorldMap{width: max(width, minWidth), height: max(height, minHeight)}
	m.reset()
	return m
}

func (m *WorldMap) Width() int  { return m.width }
func (m *WorldMap) Height() int { return m.height }

// SetSource marks the origin of the path with '@'.
func (m *WorldMap) SetSource(p Point) {
	m.source = &p
}

// Plot appends points to the path. Consecutive points are joined.
func (m *WorldMap) Plot(path []Point) {
	m.hops = append(m.hops, path...)
}

// PlotResults places the located source and hops of r on the map.
func (m *WorldMap) PlotResults(r *result.Results) {
	if loc := r.Source.Location; loc != nil {
		label := "source"
		if r.Source.PublicIP != "" {
			label = r.Source.PublicIP
		} else if r.Source.IP.IsValid() {
			label = r.Source.IP.String()
		}
		m.SetSource(Point{Lon: loc.Longitude, Lat: loc.Latitude, Label: label})
	}
	for _, hop := range r.Hops {
		if hop.Location == nil {
			continue
		}
		m.Plot([]Point{{
			Lon:   hop.Location.Longitude,
			Lat:   hop.Location.Latitude,
			Label: fmt.Sprintf("ttl %d %s", hop.TTL, hop.IP),
		}})
	}
}

// Marker returns the symbol drawn for the i-th hop.
func Marker(i int) byte {
	return markers[i%len(markers)]
}

// Render draws the grid followed by a legend.
func (m *WorldMap) Render(w io.Writer) error {
	m.reset()
	m.draw()

	bw := bufio.NewWriter(w)
	for _, row := range m.grid {
		if _, err := bw.Write(row); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	if m.source != nil {
		fmt.Fprintf(bw, "%c %s (%.4f, %.4f)\n", cellSource, m.source.Label, m.source.Lat, m.source.Lon)
	}
	for i, p := range m.hops {
		fmt.Fprintf(bw, "%c %s (%.4f, %.4f)\n", Marker(i), p.Label, p.Lat, p.Lon)
	}
	return bw.Flush()
}

// String is Render into a string.
func (m *WorldMap) String() string {
	var sb strings.Builder
	_ = m.Render(&sb)
	return sb.String()
}

func (m *WorldMap) reset() {
	m.grid = make([][]byte, m.height)
	for r := range m.grid {
		row := make([]byte, m.width)
		for c := range row {
			row[c] = cellEmpty
		}
		m.grid[r] = row
	}
}

func (m *WorldMap) draw() {
	m.drawAxes()
	m.drawFrame()

	var path []cell
	if m.source != nil {
		path = append(path, m.project(*m.source))
	}
	for _, p := range m.hops {
		path = append(path, m.project(p))
	}
	for i := 1; i < len(path); i++ {
		m.drawSegment(path[i-1], path[i])
	}

	offset := 0
	if m.source != nil {
		offset = 1
	}
	for i := range m.hops {
		c := path[i+offset]
		m.grid[c.row][c.col] = Marker(i)
	}
	if m.source != nil {
		m.grid[path[0].row][path[0].col] = cellSource
	}
}

func (m *WorldMap) drawFrame() {
	last := m.width - 1
	for c := 0; c < m.width; c++ {
		m.grid[0][c] = cellFrameH
		m.grid[m.height-1][c] = cellFrameH
	}
	for r := 0; r < m.height; r++ {
		m.grid[r][0] = cellFrameV
		m.grid[r][last] = cellFrameV
	}
	m.grid[0][0], m.grid[0][last] = cellCorner, cellCorner
	m.grid[m.height-1][0], m.grid[m.height-1][last] = cellCorner, cellCorner
}

func (m *WorldMap) drawAxes() {
	origin := m.project(Point{})
	for c := 1; c < m.width-1; c++ {
		m.grid[origin.row][c] = cellEquator
	}
	for r := 1; r < m.height-1; r++ {
		m.grid[r][origin.col] = cellMeridian
	}
	m.grid[origin.row][origin.col] = cellCross
}

// project maps a coordinate to a cell inside the frame. Out of range values
// are clamped to the border.
func (m *WorldMap) project(p Point) cell {
	lon := math.Max(-180, math.Min(180, p.Lon))
	lat := math.Max(-90, math.Min(90, p.Lat))
	innerW := float64(m.width - 3)
	innerH := float64(m.height - 3)
	return cell{
		col: 1 + int(math.Round((lon+180)/360*innerW)),
		row: 1 + int(math.Round((90-lat)/180*innerH)),
	}
}

// drawSegment joins two cells with a Bresenham line, leaving the endpoints
// untouched.
func (m *WorldMap) drawSegment(from, to cell) {
	dc := abs(to.col - from.col)
	dr := -abs(to.row - from.row)
	sc, sr := sign(to.col-from.col), sign(to.row-from.row)
	err := dc + dr

	c, r := from.col, from.row
	for {
		if (c != from.col || r != from.row) && (c != to.col || r != to.row) {
			m.grid[r][c] = cellSegment
		}
		if c == to.col && r == to.row {
			return
		}
		e2 := 2 * err
		if e2 >= dr {
			err += dr
			c += sc
		}
		if e2 <= dc {
			err += dc
			r += sr
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
