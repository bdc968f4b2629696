package geom

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
)

// CoordinateReader loads an airfoil or body outline from a file.
type CoordinateReader interface {
	ReadCoordinates(path string) (x, y []float64, err error)
}

// DatReader reads '.dat' coordinate files: one whitespace separated x y pair
// per line. Non-numeric lines containing letters are skipped and a blank
// line ends the coordinates.
type DatReader struct {
	HeaderLines int
}

func (r DatReader) ReadCoordinates(path string) ([]float64, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var xs, ys []float64
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		if line <= r.HeaderLines {
			continue
		}
		text := sc.Text()
		if strings.TrimSpace(text) == "" {
			break
		}
		x, y, err := parsePair(text)
		if err != nil {
			if strings.IndexFunc(text, unicode.IsLetter) >= 0 {
				continue
			}
			return nil, nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(xs) == 0 {
		return nil, nil, fmt.Errorf("%s: no coordinates", path)
	}
	return xs, ys, nil
}

func parsePair(text string) (float64, float64, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("expected an x y pair")
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}
