// Package tagger writes capture locations into image metadata and reads them
// back as decimal points.
package tagger

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/photo-map/internal/exifmeta"
	"github.com/kozaktomas/photo-map/internal/geo"
	"go.uber.org/zap"
)

// DiagnosticKind classifies a recovered per-photo problem.
type DiagnosticKind string

const (
	// DiagnosticPartial means some but not all location attributes are present.
	DiagnosticPartial DiagnosticKind = "partial_location"
	// DiagnosticMalformed means the attributes are present but do not decode.
	DiagnosticMalformed DiagnosticKind = "malformed_location"
)

// Diagnostic describes a photo whose location was dropped instead of failing
// the read.
type Diagnostic struct {
	Path string
	Kind DiagnosticKind
	Err  error
}

// DiagnosticFunc receives diagnostics. It may be called from several
// goroutines at once.
type DiagnosticFunc func(Diagnostic)

// Options configures a Tagger.
type Options struct {
	Logger       *zap.Logger
	OnDiagnostic DiagnosticFunc // defaults to a Warn log line
}

// Tagger bridges points and the four GPS attributes of an image file.
type Tagger struct {
	store        exifmeta.Store
	locks        *pathLocks
	logger       *zap.Logger
	onDiagnostic DiagnosticFunc
}

// New creates a Tagger over store.
func New(store exifmeta.Store, opts Options) *Tagger {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tagger{
		store:        store,
		locks:        newPathLocks(),
		logger:       logger,
		onDiagnostic: opts.OnDiagnostic,
	}
	if t.onDiagnostic == nil {
		t.onDiagnostic = t.logDiagnostic
	}
	return t
}

func (t *Tagger) logDiagnostic(d Diagnostic) {
	t.logger.Warn("dropping photo location",
		zap.String("path", d.Path),
		zap.String("kind", string(d.Kind)),
		zap.Error(d.Err))
}

// EncodeAttributes renders p as the four metadata attribute values.
func EncodeAttributes(p geo.Point) map[exifmeta.Key]string {
	lat, lon := geo.Encode(p)
	return map[exifmeta.Key]string{
		exifmeta.KeyLatitude:     lat.String(),
		exifmeta.KeyLatitudeRef:  string(lat.Ref),
		exifmeta.KeyLongitude:    lon.String(),
		exifmeta.KeyLongitudeRef: string(lon.Ref),
	}
}

// DecodeAttributes turns the four attribute values back into a point. It
// returns nil without error when any attribute is missing, and an error
// wrapping geo.ErrMalformedCoordinate when they are present but invalid.
func DecodeAttributes(attrs map[exifmeta.Key]string) (*geo.Point, error) {
	lat, okLat := attrs[exifmeta.KeyLatitude]
	latRef, okLatRef := attrs[exifmeta.KeyLatitudeRef]
	lon, okLon := attrs[exifmeta.KeyLongitude]
	lonRef, okLonRef := attrs[exifmeta.KeyLongitudeRef]
	if !okLat || !okLatRef || !okLon || !okLonRef {
		return nil, nil
	}

	latitude, err := geo.DMSToDecimal(lat, latRef)
	if err != nil {
		return nil, fmt.Errorf("latitude: %w", err)
	}
	longitude, err := geo.DMSToDecimal(lon, lonRef)
	if err != nil {
		return nil, fmt.Errorf("longitude: %w", err)
	}
	return &geo.Point{Lat: latitude, Lon: longitude}, nil
}

// WriteLocation stores p in the metadata of the image at path. Either all four
// attributes are updated or none are.
func (t *Tagger) WriteLocation(ctx context.Context, path string, p geo.Point) error {
	if !p.Valid() {
		return fmt.Errorf("%w: point %v out of range", geo.ErrMalformedCoordinate, p)
	}

	unlock := t.locks.Lock(path)
	defer unlock()

	attrs := EncodeAttributes(p)
	if err := t.store.SetAttributes(ctx, path, attrs); err != nil {
		switch {
		case errors.Is(err, exifmeta.ErrUnreadable):
			return fmt.Errorf("%w: %s: %w", ErrImageUnreadable, path, err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			return fmt.Errorf("%w: %s: %w", ErrMetadataWriteFailed, path, err)
		}
	}

	t.logger.Info("location written",
		zap.String("path", path),
		zap.String("latitude", attrs[exifmeta.KeyLatitude]+" "+attrs[exifmeta.KeyLatitudeRef]),
		zap.String("longitude", attrs[exifmeta.KeyLongitude]+" "+attrs[exifmeta.KeyLongitudeRef]))
	return nil
}

// TagCapture writes fix into the image when the camera produced one. A nil fix
// is a valid state: the image is left untagged and tagged is false.
func (t *Tagger) TagCapture(ctx context.Context, path string, fix *geo.Point) (tagged bool, err error) {
	if fix == nil {
		t.logger.Info("location unavailable, leaving photo untagged", zap.String("path", path))
		return false, nil
	}
	if err := t.WriteLocation(ctx, path, *fix); err != nil {
		return false, err
	}
	return true, nil
}

// ReadLocation returns the location stored in the image at path, or nil when
// the image carries no complete location. Partial or malformed attributes are
// reported through the diagnostic hook and read as absent. Only an unreadable
// image (or a cancelled context) is returned as an error.
func (t *Tagger) ReadLocation(ctx context.Context, path string) (*geo.Point, error) {
	unlock := t.locks.RLock(path)
	defer unlock()

	attrs, err := t.store.GetAttributes(ctx, path, exifmeta.LocationKeys...)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrImageUnreadable, path, err)
	}

	p, err := DecodeAttributes(attrs)
	if err != nil {
		t.onDiagnostic(Diagnostic{Path: path, Kind: DiagnosticMalformed, Err: err})
		return nil, nil
	}
	if p == nil {
		if len(attrs) > 0 {
			t.onDiagnostic(Diagnostic{
				Path: path,
				Kind: DiagnosticPartial,
				Err:  fmt.Errorf("%d of %d location attributes present", len(attrs), len(exifmeta.LocationKeys)),
			})
		}
		return nil, nil
	}

	t.logger.Debug("location read", zap.String("path", path), zap.Stringer("point", p))
	return p, nil
}
