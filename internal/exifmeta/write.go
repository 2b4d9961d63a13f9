package exifmeta

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	exif3 "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
	"github.com/google/renameio"
	"go.uber.org/zap"
)

const gpsIfdPath = "IFD/GPSInfo"

// JPEGStore keeps attributes in the EXIF APP1 segment of image files. Any
// container the probe recognises can be read; only JPEG can be written.
type JPEGStore struct {
	logger *zap.Logger
}

// NewJPEGStore creates a store. A nil logger disables logging.
func NewJPEGStore(logger *zap.Logger) *JPEGStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JPEGStore{logger: logger}
}

// SetAttributes writes attrs into the GPS IFD of the JPEG at path. The new file
// is written next to the original and renamed over it, so a failure leaves the
// original untouched. Pixel data is copied through unchanged.
func (s *JPEGStore) SetAttributes(ctx context.Context, path string, attrs map[Key]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	values, err := encodeValues(attrs)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the caller
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	format, err := probeImage(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if format != "jpeg" {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	out, err := spliceGPS(data, values)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := renameio.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	s.logger.Debug("wrote GPS attributes", zap.String("path", path), zap.Int("keys", len(values)))
	return nil
}

// spliceGPS returns a copy of the JPEG in data whose GPS IFD carries values.
func spliceGPS(data []byte, values map[Key]any) ([]byte, error) {
	jmp := jpegstructure.NewJpegMediaParser()
	mc, err := jmp.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing JPEG segments: %w", err)
	}
	sl, ok := mc.(*jpegstructure.SegmentList)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected JPEG media context %T", ErrUnsupportedFormat, mc)
	}

	rootIb, err := rootBuilder(sl)
	if err != nil {
		return nil, err
	}

	gpsIb, err := exif3.GetOrCreateIbFromRootIb(rootIb, gpsIfdPath)
	if err != nil {
		return nil, fmt.Errorf("opening GPS IFD: %w", err)
	}

	for _, key := range LocationKeys {
		v, ok := values[key]
		if !ok {
			continue
		}
		if err := gpsIb.SetStandardWithName(string(key), v); err != nil {
			return nil, fmt.Errorf("setting %s: %w", key, err)
		}
	}

	if err := sl.SetExif(rootIb); err != nil {
		return nil, fmt.Errorf("updating EXIF segment: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(data) + 512)
	if err := sl.Write(&buf); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// rootBuilder returns a builder over the existing EXIF block, or an empty one
// when the image has none yet.
func rootBuilder(sl *jpegstructure.SegmentList) (*exif3.IfdBuilder, error) {
	if _, _, err := sl.FindExif(); err != nil {
		if !errors.Is(err, exif3.ErrNoExif) {
			return nil, fmt.Errorf("locating EXIF segment: %w", err)
		}

		im, err := exifcommon.NewIfdMappingWithStandard()
		if err != nil {
			return nil, fmt.Errorf("loading IFD mapping: %w", err)
		}
		ti := exif3.NewTagIndex()
		return exif3.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder), nil
	}

	rootIb, err := sl.ConstructExifBuilder()
	if err != nil {
		return nil, fmt.Errorf("reading existing EXIF: %w", err)
	}
	return rootIb, nil
}

// encodeValues converts the text form of each attribute into the value type
// its EXIF tag expects.
func encodeValues(attrs map[Key]string) (map[Key]any, error) {
	values := make(map[Key]any, len(attrs))
	for key, raw := range attrs {
		if !knownKey(key) {
			return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidValue, key)
		}
		if !isRational(key) {
			values[key] = raw
			continue
		}
		rats, err := parseRationals(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q: %w", ErrInvalidValue, key, raw, err)
		}
		values[key] = rats
	}
	return values, nil
}

func parseRationals(s string) ([]exifcommon.Rational, error) {
	parts := strings.Split(s, ",")
	rats := make([]exifcommon.Rational, 0, len(parts))
	for _, part := range parts {
		num, den, ok := strings.Cut(strings.TrimSpace(part), "/")
		if !ok {
			return nil, fmt.Errorf("missing '/' in %q", part)
		}
		n, err := strconv.ParseUint(strings.TrimSpace(num), 10, 32)
		if err != nil {
			return nil, err
		}
		d, err := strconv.ParseUint(strings.TrimSpace(den), 10, 32)
		if err != nil {
			return nil, err
		}
		if d == 0 {
			return nil, errors.New("zero denominator")
		}
		rats = append(rats, exifcommon.Rational{Numerator: uint32(n), Denominator: uint32(d)})
	}
	return rats, nil
}
