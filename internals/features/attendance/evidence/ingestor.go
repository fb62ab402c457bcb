// file: internals/features/attendance/evidence/ingestor.go
package evidence

import (
	"errors"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rwcarlsen/goexif/exif"
	"go.uber.org/zap"

	"centerku_backend/internals/features/attendance/geo"
)

// LocationShare: share-location eksplisit dari transport.
type LocationShare struct {
	MessageID      string    `validate:"required,max=128"`
	Latitude       *float64  `validate:"required"`
	Longitude      *float64  `validate:"required"`
	AccuracyMeters *float64  `validate:"omitempty,gte=0"`
	SentAt         time.Time `validate:"required"`
}

// PhotoMessage: foto (bytes) + metadata opsional dari transport.
type PhotoMessage struct {
	MessageID string            `validate:"required,max=128"`
	SentAt    time.Time         `validate:"required"`
	Data      []byte
	Metadata  map[string]string
}

type Ingestor struct {
	strategies    []PhotoStrategy
	validate      *validator.Validate
	log           *zap.Logger
	now           func() time.Time
	maxFutureSkew time.Duration
}

func NewIngestor(log *zap.Logger, strategies ...PhotoStrategy) *Ingestor {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingestor{
		strategies:    strategies,
		validate:      validator.New(),
		log:           log,
		now:           time.Now,
		maxFutureSkew: 5 * time.Minute,
	}
}

// FromLocation: lat/lng/accuracy/timestamp diambil langsung dari pesan.
func (in *Ingestor) FromLocation(msg LocationShare) (Evidence, error) {
	msg.MessageID = strings.TrimSpace(msg.MessageID)
	if err := in.validate.Struct(msg); err != nil {
		return Evidence{}, structErr(err)
	}
	if err := in.checkTimestamp(msg.SentAt); err != nil {
		return Evidence{}, err
	}
	c := geo.Coordinate{Lat: *msg.Latitude, Lng: *msg.Longitude}
	if !c.Valid() {
		return Evidence{}, inputErr("coordinates", "latitude/longitude out of range")
	}
	ev := Evidence{
		SourceMessageID: msg.MessageID,
		Coordinate:      geo.Normalize(c),
		HasLocation:     true,
		Timestamp:       msg.SentAt,
		Precision:       PrecisionDevice,
	}
	if msg.AccuracyMeters != nil {
		ev.AccuracyMeters = *msg.AccuracyMeters
	}
	return ev, nil
}

// FromPhoto menjalankan strategi berurutan; yang pertama dapat lat+lng menang.
// Tidak ada yang berhasil → evidence "no-location", koordinat tidak dikarang.
func (in *Ingestor) FromPhoto(msg PhotoMessage) (Evidence, error) {
	msg.MessageID = strings.TrimSpace(msg.MessageID)
	if err := in.validate.Struct(msg); err != nil {
		return Evidence{}, structErr(err)
	}
	if err := in.checkTimestamp(msg.SentAt); err != nil {
		return Evidence{}, err
	}

	photo := in.preparePhoto(msg)
	ev := Evidence{
		SourceMessageID: msg.MessageID,
		Timestamp:       msg.SentAt,
		Precision:       PrecisionNoLocation,
	}
	for _, s := range in.strategies {
		c, ok := s.Extract(photo)
		if !ok {
			continue
		}
		ev.Coordinate = geo.Normalize(c)
		ev.HasLocation = true
		ev.Precision = PrecisionPhotoEXIF
		ev.Strategy = s.Name()
		return ev, nil
	}
	in.log.Info("photo carries no usable GPS metadata",
		zap.String("source_message_id", msg.MessageID),
		zap.String("mime", photo.MIME),
	)
	return ev, nil
}

func (in *Ingestor) preparePhoto(msg PhotoMessage) Photo {
	p := Photo{Data: msg.Data, Metadata: msg.Metadata}
	if len(msg.Data) == 0 {
		return p
	}
	mt := mimetype.Detect(msg.Data)
	p.MIME = mt.String()

	raw := msg.Data
	switch {
	case mt.Is("image/webp"):
		chunk, err := webp.GetMetadata(msg.Data, "EXIF")
		if err != nil || len(chunk) == 0 {
			return p
		}
		raw = chunk
	case mt.Is("image/jpeg"), mt.Is("image/tiff"):
	default:
		return p
	}

	x, err := decodeEXIF(raw)
	if err != nil && !exif.IsCriticalError(err) && x != nil {
		err = nil
	}
	if err != nil {
		in.log.Debug("exif decode failed", zap.String("source_message_id", msg.MessageID), zap.Error(err))
		return p
	}
	p.EXIF = x
	return p
}

func (in *Ingestor) checkTimestamp(ts time.Time) error {
	if ts.IsZero() {
		return inputErr("timestamp", "missing")
	}
	if ts.After(in.now().Add(in.maxFutureSkew)) {
		return inputErr("timestamp", "in the future")
	}
	return nil
}

func structErr(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return inputErr(strings.ToLower(ve[0].Field()), ve[0].Tag())
	}
	return inputErr("payload", err.Error())
}
