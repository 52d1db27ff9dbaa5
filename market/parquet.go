package market

import (
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"
)

// BarRecord is the Parquet schema for an hourly bar file.
type BarRecord struct {
	Time     int64   `parquet:"time"` // unix seconds
	Close    float64 `parquet:"close"`
	VolumeTo float64 `parquet:"volumeto"`
}

// LoadParquet reads bars written with the BarRecord schema.
func LoadParquet(path string) (*BarSet, error) {
	rows, err := parquet.ReadFile[BarRecord](path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	bs := &BarSet{Source: "parquet", Path: path, Bars: make([]Bar, 0, len(rows))}
	for _, r := range rows {
		bs.Bars = append(bs.Bars, Bar{
			Time:   time.Unix(r.Time, 0).UTC(),
			Close:  r.Close,
			Volume: r.VolumeTo,
		})
	}
	bs.finish()
	return bs, nil
}

// WriteParquet stores bars with the BarRecord schema.
func WriteParquet(path string, bars []Bar) error {
	records := make([]BarRecord, len(bars))
	for i, b := range bars {
		records[i] = BarRecord{Time: b.Time.Unix(), Close: b.Close, VolumeTo: b.Volume}
	}
	return parquet.WriteFile(path, records)
}
