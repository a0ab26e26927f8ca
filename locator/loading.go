package locator

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/royalcat/geoloc/geomodel"
	"github.com/royalcat/geoloc/i2dtree"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/exp/mmap"
)

func LoadFromReader(r io.Reader, opts ...Option) (*Locator, error) {
	options := loadOptions(opts...)
	log := options.logger

	log.Info("Loading points from reader")
	items, err := parsePoints(r, newInterner())
	if err != nil {
		return nil, fmt.Errorf("error loading points: %w", err)
	}

	return NewFromItems(items, opts...), nil
}

// LoadFromFiles parses every file concurrently and merges them into one
// locator. The first file is bulk built; points from later files are upserted
// in order, so a later file wins when two files share an exact point.
func LoadFromFiles(ctx context.Context, files []string, opts ...Option) (*Locator, error) {
	options := loadOptions(opts...)
	log := options.logger

	if len(files) == 0 {
		return New(opts...), nil
	}

	strs := newInterner()
	parsed := make([][]i2dtree.Item[geomodel.Info], len(files))

	p := pool.New().WithMaxGoroutines(max(options.workers, 1)).WithContext(ctx).WithCancelOnError()
	for i, name := range files {
		p.Go(func(ctx context.Context) error {
			log.Info("Loading points file", "file", name)
			items, err := readPointsFile(ctx, name, strs)
			if err != nil {
				return fmt.Errorf("error loading points file %s: %w", name, err)
			}
			parsed[i] = items
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	l := NewFromItems(parsed[0], opts...)
	for i, items := range parsed[1:] {
		added := l.UpsertItems(items)
		log.Info("Merged points file", "file", files[i+1], "points", len(items), "new", added)
	}
	log.Info("Points loaded", "points", l.Len(), "height", l.Height(), "unique_strings", strs.size())

	return l, nil
}

// readPointsFile parses a points file, transparently decompressing names that
// end in .zst.
func readPointsFile(ctx context.Context, name string, strs *interner) ([]i2dtree.Item[geomodel.Info], error) {
	reader, err := openReader(name)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return parsePoints(reader, strs)
}

type mmapReadCloser struct {
	*io.SectionReader
	closer io.Closer
}

func (m mmapReadCloser) Close() error {
	return m.closer.Close()
}

func openReader(name string) (io.ReadCloser, error) {
	file, err := mmap.Open(name)
	if err != nil {
		return nil, fmt.Errorf("can`t open file error: %w", err)
	}
	var reader io.ReadCloser = mmapReadCloser{
		SectionReader: io.NewSectionReader(file, 0, int64(file.Len())),
		closer:        file,
	}

	if strings.HasSuffix(name, ".zst") {
		dec, err := zstd.NewReader(reader)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("can`t create zstd reader: %w", err)
		}

		return zstdReadCloser{dec: dec, file: reader}, nil
	}

	return reader, nil
}

type zstdReadCloser struct {
	dec  *zstd.Decoder
	file io.Closer
}

func (z zstdReadCloser) Read(p []byte) (int, error) {
	return z.dec.Read(p)
}

func (z zstdReadCloser) Close() error {
	z.dec.Close()
	return z.file.Close()
}

// CreatePointsFile creates name for writing, compressing with zstd when the
// name ends in .zst. Close the returned writer to flush it.
func CreatePointsFile(name string) (io.WriteCloser, error) {
	file, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("can`t create file error: %w", err)
	}

	if strings.HasSuffix(name, ".zst") {
		enc, err := zstd.NewWriter(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("can`t create zstd writer: %w", err)
		}
		return zstdWriteCloser{enc: enc, file: file}, nil
	}

	return file, nil
}

type zstdWriteCloser struct {
	enc  *zstd.Encoder
	file *os.File
}

func (z zstdWriteCloser) Write(p []byte) (int, error) {
	return z.enc.Write(p)
}

func (z zstdWriteCloser) Close() error {
	if err := z.enc.Close(); err != nil {
		z.file.Close()
		return err
	}
	return z.file.Close()
}
