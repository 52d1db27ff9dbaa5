package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// BarSet is a loaded, normalized feed together with ingest counters.
type BarSet struct {
	Source string
	Path   string
	Bars   []Bar

	duplicates int
	badLines   int
}

// LoadStats reports what the loader saw while reading a file.
type LoadStats struct {
	Rows       int
	Duplicates int // rows sharing a timestamp with an earlier row
	BadLines   int // blank rows skipped
	Start      time.Time
	End        time.Time
}

func (bs *BarSet) Len() int { return len(bs.Bars) }

func (bs *BarSet) Start() time.Time {
	if len(bs.Bars) == 0 {
		return time.Time{}
	}
	return bs.Bars[0].Time
}

func (bs *BarSet) End() time.Time {
	if len(bs.Bars) == 0 {
		return time.Time{}
	}
	return bs.Bars[len(bs.Bars)-1].Time
}

func (bs *BarSet) Closes() []float64 { return Closes(bs.Bars) }

func (bs *BarSet) Stats() LoadStats {
	return LoadStats{
		Rows:       len(bs.Bars),
		Duplicates: bs.duplicates,
		BadLines:   bs.badLines,
		Start:      bs.Start(),
		End:        bs.End(),
	}
}

// Load reads a feed from path. Files ending in .parquet are read as Parquet,
// everything else as a delimited text file.
func Load(path string) (*BarSet, error) {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return LoadParquet(path)
	}
	return LoadCSV(path)
}

// LoadCSV reads a delimited file with at least the columns
//
//	time,close,volumeto
//
// (volume is accepted in place of volumeto). Extra columns are ignored.
func LoadCSV(path string) (*BarSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bs, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	bs.Path = path
	return bs, nil
}

// ReadCSV parses a feed from r. A leading byte order mark is stripped, so
// spreadsheet exports in UTF-8 or UTF-16 load unchanged.
func ReadCSV(r io.Reader) (*BarSet, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}
	if err != nil {
		return nil, err
	}

	cols, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	bs := &BarSet{Source: "csv"}
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, err
		}
		if isBlank(row) {
			bs.badLines++
			continue
		}

		b, err := cols.parse(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bs.Bars = append(bs.Bars, b)
	}

	bs.finish()
	return bs, nil
}

// finish sorts the bars and counts timestamp collisions.
func (bs *BarSet) finish() {
	bs.Bars = Normalize(bs.Bars)
	for i := 1; i < len(bs.Bars); i++ {
		if bs.Bars[i].Time.Equal(bs.Bars[i-1].Time) {
			bs.duplicates++
		}
	}
}

type columns struct {
	time, close, volume int
}

func locateColumns(header []string) (columns, error) {
	c := columns{time: -1, close: -1, volume: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "time":
			c.time = i
		case "close":
			c.close = i
		case "volumeto":
			c.volume = i
		case "volume":
			if c.volume == -1 {
				c.volume = i
			}
		}
	}

	var missing []string
	if c.time == -1 {
		missing = append(missing, "time")
	}
	if c.close == -1 {
		missing = append(missing, "close")
	}
	if c.volume == -1 {
		missing = append(missing, "volumeto")
	}
	if len(missing) > 0 {
		return c, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ","))
	}
	return c, nil
}

func (c columns) parse(row []string) (Bar, error) {
	need := max(c.time, c.close, c.volume)
	if len(row) <= need {
		return Bar{}, fmt.Errorf("short row: want %d fields, got %d", need+1, len(row))
	}

	t, err := ParseTime(row[c.time])
	if err != nil {
		return Bar{}, err
	}
	closeV, err := strconv.ParseFloat(strings.TrimSpace(row[c.close]), 64)
	if err != nil {
		return Bar{}, fmt.Errorf("bad close %q: %w", row[c.close], err)
	}
	vol, err := strconv.ParseFloat(strings.TrimSpace(row[c.volume]), 64)
	if err != nil {
		return Bar{}, fmt.Errorf("bad volume %q: %w", row[c.volume], err)
	}
	return Bar{Time: t, Close: closeV, Volume: vol}, nil
}

var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime accepts unix seconds or one of the common textual layouts and
// returns the instant in UTC. Layouts without a zone are read as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
