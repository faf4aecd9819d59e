package domain

import (
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// Field limits mirror the storage column sizes.
const (
	MaxTechnologyLen    = 10
	MaxPLMNIDLen        = 10
	MaxFrequencyBandLen = 20
)

// NetworkContext identifies the serving network and cell.
type NetworkContext struct {
	PLMNID        *string `json:"plmn_id"`
	LAC           *int64  `json:"lac"`
	RAC           *int64  `json:"rac"`
	TAC           *int64  `json:"tac"`
	CellID        *int64  `json:"cell_id"`
	FrequencyBand *string `json:"frequency_band"`
	ARFCN         *int64  `json:"arfcn"`
}

// SignalQuality holds radio quality metrics.
type SignalQuality struct {
	RSRP  *float64 `json:"rsrp"`  // dBm
	RSRQ  *float64 `json:"rsrq"`  // dB
	RSCP  *float64 `json:"rscp"`  // dBm
	EcNo  *float64 `json:"ec_no"` // dB
	RxLev *float64 `json:"rxlev"` // dBm
}

// Performance holds throughput and latency metrics.
type Performance struct {
	DownloadRate     *float64 `json:"download_rate"`      // Mbps
	UploadRate       *float64 `json:"upload_rate"`        // Mbps
	PingResponseTime *float64 `json:"ping_response_time"` // ms
	DNSResponseTime  *float64 `json:"dns_response_time"`  // ms
	WebResponseTime  *float64 `json:"web_response_time"`  // ms
	SMSDeliveryTime  *float64 `json:"sms_delivery_time"`  // seconds
}

// Measurement is a single stored signal/performance sample.
// Optional fields are nil when the client did not report them.
type Measurement struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Technology string    `json:"technology"`

	NetworkContext
	SignalQuality
	Performance

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MeasurementInput is the client-supplied shape of a new measurement.
// Required fields are pointers so a missing value can be told apart from zero.
type MeasurementInput struct {
	Timestamp  *time.Time `json:"timestamp"`
	Latitude   *float64   `json:"latitude"`
	Longitude  *float64   `json:"longitude"`
	Technology string     `json:"technology"`

	NetworkContext
	SignalQuality
	Performance
}

// Validate checks required fields and column limits without touching storage.
// All violations are reported together.
func (in MeasurementInput) Validate() error {
	var errs []error

	if in.Timestamp == nil || in.Timestamp.IsZero() {
		errs = append(errs, &ValidationError{Field: "timestamp", Reason: "is required"})
	}

	switch {
	case in.Latitude == nil:
		errs = append(errs, &ValidationError{Field: "latitude", Reason: "is required"})
	case math.IsNaN(*in.Latitude) || *in.Latitude < -90 || *in.Latitude > 90:
		errs = append(errs, &ValidationError{Field: "latitude", Reason: "must be between -90 and 90"})
	}

	switch {
	case in.Longitude == nil:
		errs = append(errs, &ValidationError{Field: "longitude", Reason: "is required"})
	case math.IsNaN(*in.Longitude) || *in.Longitude < -180 || *in.Longitude > 180:
		errs = append(errs, &ValidationError{Field: "longitude", Reason: "must be between -180 and 180"})
	}

	technology := strings.TrimSpace(in.Technology)
	switch {
	case technology == "":
		errs = append(errs, &ValidationError{Field: "technology", Reason: "is required"})
	case utf8.RuneCountInString(technology) > MaxTechnologyLen:
		errs = append(errs, &ValidationError{Field: "technology", Reason: "must be at most 10 characters"})
	}

	if in.PLMNID != nil && utf8.RuneCountInString(*in.PLMNID) > MaxPLMNIDLen {
		errs = append(errs, &ValidationError{Field: "plmn_id", Reason: "must be at most 10 characters"})
	}
	if in.FrequencyBand != nil && utf8.RuneCountInString(*in.FrequencyBand) > MaxFrequencyBandLen {
		errs = append(errs, &ValidationError{Field: "frequency_band", Reason: "must be at most 20 characters"})
	}

	return errors.Join(errs...)
}

// NewMeasurement validates the input and builds a measurement stamped with now.
// The ID is left for the repository to assign. Timestamp is stored in UTC at
// microsecond precision, the finest resolution every store keeps.
func NewMeasurement(in MeasurementInput, now time.Time) (*Measurement, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	m := &Measurement{
		Timestamp:      in.Timestamp.UTC().Truncate(time.Microsecond),
		Latitude:       *in.Latitude,
		Longitude:      *in.Longitude,
		Technology:     strings.TrimSpace(in.Technology),
		NetworkContext: in.NetworkContext,
		SignalQuality:  in.SignalQuality,
		Performance:    in.Performance,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return m.Clone(), nil
}

// Clone returns a copy that shares no optional values with m.
func (m *Measurement) Clone() *Measurement {
	out := *m

	out.PLMNID = clonePtr(m.PLMNID)
	out.LAC = clonePtr(m.LAC)
	out.RAC = clonePtr(m.RAC)
	out.TAC = clonePtr(m.TAC)
	out.CellID = clonePtr(m.CellID)
	out.FrequencyBand = clonePtr(m.FrequencyBand)
	out.ARFCN = clonePtr(m.ARFCN)

	out.RSRP = clonePtr(m.RSRP)
	out.RSRQ = clonePtr(m.RSRQ)
	out.RSCP = clonePtr(m.RSCP)
	out.EcNo = clonePtr(m.EcNo)
	out.RxLev = clonePtr(m.RxLev)

	out.DownloadRate = clonePtr(m.DownloadRate)
	out.UploadRate = clonePtr(m.UploadRate)
	out.PingResponseTime = clonePtr(m.PingResponseTime)
	out.DNSResponseTime = clonePtr(m.DNSResponseTime)
	out.WebResponseTime = clonePtr(m.WebResponseTime)
	out.SMSDeliveryTime = clonePtr(m.SMSDeliveryTime)

	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
