package server

import (
	"fmt"
	"slices"
	"strconv"
)

// parsePointsList decodes a JSON array of [lat, lon] pairs without reflection.
// It accepts a subset of what encoding/json accepts for [][2]float64 and
// decodes it to the same values.
func parsePointsList(data []byte, result *[][2]float64) error {
	p := pointsParser{data: data}
	*result = slices.Grow(*result, len(data)/16) // n/16 is a heuristic

	p.skipSpace()
	if !p.consume('[') {
		return p.errorf("expected '['")
	}
	p.skipSpace()
	if p.consume(']') {
		return p.end()
	}

	for {
		point, err := p.point()
		if err != nil {
			return err
		}
		*result = append(*result, point)

		p.skipSpace()
		switch {
		case p.consume(','):
		case p.consume(']'):
			return p.end()
		default:
			return p.errorf("expected ',' or ']'")
		}
	}
}

type pointsParser struct {
	data []byte
	pos  int
}

func (p *pointsParser) errorf(format string, args ...any) error {
	return fmt.Errorf("invalid format at offset %d: "+format, append([]any{p.pos}, args...)...)
}

func (p *pointsParser) skipSpace() {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case ' ', '\n', '\t', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *pointsParser) consume(c byte) bool {
	if p.pos < len(p.data) && p.data[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *pointsParser) end() error {
	p.skipSpace()
	if p.pos != len(p.data) {
		return p.errorf("unexpected trailing data")
	}
	return nil
}

func (p *pointsParser) point() ([2]float64, error) {
	var point [2]float64

	p.skipSpace()
	if !p.consume('[') {
		return point, p.errorf("expected '[' for point")
	}
	for j := range point {
		if j > 0 {
			p.skipSpace()
			if !p.consume(',') {
				return point, p.errorf("expected ',' between coordinates")
			}
		}
		p.skipSpace()
		num, err := p.number()
		if err != nil {
			return point, err
		}
		point[j] = num
	}
	p.skipSpace()
	if !p.consume(']') {
		return point, p.errorf("expected ']' at end of point")
	}

	return point, nil
}

// number scans a JSON number: -?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?
func (p *pointsParser) number() (float64, error) {
	start := p.pos

	p.consume('-')
	switch {
	case p.consume('0'):
	case p.digits() == 0:
		return 0, p.errorf("expected number")
	}
	if p.consume('.') && p.digits() == 0 {
		return 0, p.errorf("expected digit after '.'")
	}
	if p.consume('e') || p.consume('E') {
		if !p.consume('+') {
			p.consume('-')
		}
		if p.digits() == 0 {
			return 0, p.errorf("expected exponent digits")
		}
	}

	num, err := strconv.ParseFloat(string(p.data[start:p.pos]), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %w", err)
	}
	return num, nil
}

func (p *pointsParser) digits() int {
	start := p.pos
	for p.pos < len(p.data) && p.data[p.pos] >= '0' && p.data[p.pos] <= '9' {
		p.pos++
	}
	return p.pos - start
}
