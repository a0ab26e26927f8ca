package locator

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/royalcat/geoloc/geomodel"
	"github.com/royalcat/geoloc/i2dtree"
)

// Points files hold one record per line:
//
//	LATITUDE LONGITUDE VALUE
//
// Latitude and longitude are separated by spaces or tabs. VALUE is the rest of
// the line: when it contains a tab it is split on tabs into name, street, house
// number, city and region, otherwise all of it is the name. Blank lines and
// lines starting with '#' are ignored.

const maxLineSize = 1 << 20

// ParsePoints reads a points file.
func ParsePoints(r io.Reader) ([]i2dtree.Item[geomodel.Info], error) {
	return parsePoints(r, nil)
}

func parsePoints(r io.Reader, strs *interner) ([]i2dtree.Item[geomodel.Info], error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	items := []i2dtree.Item[geomodel.Info]{}
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		item, err := parseLine(line, strs)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading points: %w", err)
	}

	return items, nil
}

func parseLine(line string, strs *interner) (i2dtree.Item[geomodel.Info], error) {
	latS, rest := cutField(line)
	lonS, rest := cutField(rest)

	var info geomodel.Info
	rest = strings.TrimLeft(rest, " ")
	if strings.Contains(rest, "\t") {
		columns := []*string{&info.Name, &info.Street, &info.HouseNumber, &info.City, &info.Region}
		for i, f := range strings.Split(rest, "\t") {
			if i >= len(columns) {
				break
			}
			*columns[i] = strs.intern(f)
		}
	} else {
		info.Name = strs.intern(strings.TrimSpace(rest))
	}

	lat, err := strconv.ParseFloat(latS, 64)
	if err != nil {
		return i2dtree.Item[geomodel.Info]{}, fmt.Errorf("invalid latitude %q: %w", latS, err)
	}
	lon, err := strconv.ParseFloat(lonS, 64)
	if err != nil {
		return i2dtree.Item[geomodel.Info]{}, fmt.Errorf("invalid longitude %q: %w", lonS, err)
	}
	if !ValidCoordinate(lat, lon) {
		return i2dtree.Item[geomodel.Info]{}, fmt.Errorf("%w: %s %s", ErrInvalidCoordinate, latS, lonS)
	}

	return i2dtree.NewItem(lat, lon, info), nil
}

// cutField splits off the first field, skipping leading blanks. Exactly one
// separator after the field is consumed so an empty tab column survives.
func cutField(s string) (field, rest string) {
	s = strings.TrimLeft(s, " \t")
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

var columnReplacer = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// WritePoints writes items in the tab separated form ParsePoints reads back.
func WritePoints(w io.Writer, items []i2dtree.Item[geomodel.Info]) error {
	bw := bufio.NewWriter(w)
	for _, item := range items {
		info := item.Value
		_, err := fmt.Fprintf(bw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			strconv.FormatFloat(item.Point.Latitude, 'f', -1, 64),
			strconv.FormatFloat(item.Point.Longitude, 'f', -1, 64),
			columnReplacer.Replace(info.Name),
			columnReplacer.Replace(info.Street),
			columnReplacer.Replace(info.HouseNumber),
			columnReplacer.Replace(info.City),
			columnReplacer.Replace(info.Region),
		)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}
