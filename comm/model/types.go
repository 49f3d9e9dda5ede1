// Package model defines the shared data model of the comm acquisition and
// delivery pipeline: connection profiles, points, read jobs, sample results
// and run statistics, plus the enums they're built from.
package model

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// DataType is the scalar type a Point decodes its raw buffer into. An
// unrecognized wire value deserializes to Unknown rather than failing
// (spec §9's fail-open policy); validation rejects Unknown explicitly
// before planning and running.
type DataType int

const (
	DataTypeUnknown DataType = iota
	DataTypeBool
	DataTypeInt16
	DataTypeUint16
	DataTypeInt32
	DataTypeUint32
	DataTypeFloat32
	DataTypeInt64
	DataTypeUint64
	DataTypeFloat64
)

var dataTypeNames = map[DataType]string{
	DataTypeUnknown: "Unknown",
	DataTypeBool:    "Bool",
	DataTypeInt16:   "Int16",
	DataTypeUint16:  "Uint16",
	DataTypeInt32:   "Int32",
	DataTypeUint32:  "Uint32",
	DataTypeFloat32: "Float32",
	DataTypeInt64:   "Int64",
	DataTypeUint64:  "Uint64",
	DataTypeFloat64: "Float64",
}

var dataTypeValues = func() map[string]DataType {
	m := make(map[string]DataType, len(dataTypeNames))
	for k, v := range dataTypeNames {
		m[v] = k
	}
	return m
}()

func (d DataType) String() string {
	if s, ok := dataTypeNames[d]; ok {
		return s
	}
	return "Unknown"
}

// RegisterSpan returns the number of 16-bit registers this type occupies
// when read from Holding/Input areas. Bool has no register span (it is
// read from coil/discrete bits only); ok is false for Bool and Unknown.
func (d DataType) RegisterSpan() (span int, ok bool) {
	switch d {
	case DataTypeInt16, DataTypeUint16:
		return 1, true
	case DataTypeInt32, DataTypeUint32, DataTypeFloat32:
		return 2, true
	case DataTypeInt64, DataTypeUint64, DataTypeFloat64:
		return 4, true
	default:
		return 0, false
	}
}

func (d DataType) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *DataType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if v, ok := dataTypeValues[s]; ok {
		*d = v
		return nil
	}
	*d = DataTypeUnknown
	return nil
}

// ByteOrder32 selects the 32-bit word/byte permutation applied when
// decoding multi-register values. Unknown values fail-open at
// deserialization and are rejected explicitly by validation.
type ByteOrder32 int

const (
	ByteOrderUnknown ByteOrder32 = iota
	ByteOrderABCD
	ByteOrderBADC
	ByteOrderCDAB
	ByteOrderDCBA
)

var byteOrderNames = map[ByteOrder32]string{
	ByteOrderUnknown: "Unknown",
	ByteOrderABCD:    "ABCD",
	ByteOrderBADC:    "BADC",
	ByteOrderCDAB:    "CDAB",
	ByteOrderDCBA:    "DCBA",
}

var byteOrderValues = func() map[string]ByteOrder32 {
	m := make(map[string]ByteOrder32, len(byteOrderNames))
	for k, v := range byteOrderNames {
		m[v] = k
	}
	return m
}()

func (b ByteOrder32) String() string {
	if s, ok := byteOrderNames[b]; ok {
		return s
	}
	return "Unknown"
}

func (b ByteOrder32) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *ByteOrder32) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if v, ok := byteOrderValues[s]; ok {
		*b = v
		return nil
	}
	*b = ByteOrderUnknown
	return nil
}

// ReadArea is the Modbus data area a channel is read from.
type ReadArea int

const (
	ReadAreaUnknown ReadArea = iota
	ReadAreaHolding
	ReadAreaInput
	ReadAreaCoil
	ReadAreaDiscrete
)

var readAreaNames = map[ReadArea]string{
	ReadAreaUnknown:  "Unknown",
	ReadAreaHolding:  "Holding",
	ReadAreaInput:    "Input",
	ReadAreaCoil:     "Coil",
	ReadAreaDiscrete: "Discrete",
}

var readAreaValues = func() map[string]ReadArea {
	m := make(map[string]ReadArea, len(readAreaNames))
	for k, v := range readAreaNames {
		m[v] = k
	}
	return m
}()

func (a ReadArea) String() string {
	if s, ok := readAreaNames[a]; ok {
		return s
	}
	return "Unknown"
}

// IsBitArea reports whether the area is read as single bits (Coil/Discrete)
// rather than 16-bit registers (Holding/Input).
func (a ReadArea) IsBitArea() bool {
	return a == ReadAreaCoil || a == ReadAreaDiscrete
}

func (a ReadArea) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *ReadArea) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if v, ok := readAreaValues[s]; ok {
		*a = v
		return nil
	}
	*a = ReadAreaUnknown
	return nil
}

// Parity is the serial parity setting of an RTU485 profile.
type Parity string

const (
	ParityNone Parity = "None"
	ParityEven Parity = "Even"
	ParityOdd  Parity = "Odd"
)

// Quality classifies a SampleResult's outcome.
type Quality int

const (
	QualityOk Quality = iota
	QualityTimeout
	QualityCommError
	QualityDecodeError
	QualityConfigError
)

var qualityNames = map[Quality]string{
	QualityOk:          "Ok",
	QualityTimeout:      "Timeout",
	QualityCommError:    "CommError",
	QualityDecodeError:  "DecodeError",
	QualityConfigError:  "ConfigError",
}

func (q Quality) String() string {
	if s, ok := qualityNames[q]; ok {
		return s
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}

func (q Quality) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.String())
}

func (q *Quality) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for k, v := range qualityNames {
		if v == s {
			*q = k
			return nil
		}
	}
	return fmt.Errorf("model: unknown quality %q", s)
}

// ProfileKind distinguishes the two ConnectionProfile wire variants.
type ProfileKind string

const (
	ProfileTCP    ProfileKind = "TCP"
	ProfileRTU485 ProfileKind = "485"
)

// ConnectionProfile is a tagged union over TCP and RTU485 transport
// parameters plus the channel-level read configuration shared by both.
type ConnectionProfile struct {
	Kind ProfileKind `json:"kind"`

	ChannelName    string   `json:"channelName"`
	ReadArea       ReadArea `json:"readArea"`
	StartAddress   int      `json:"startAddress"`
	Length         int      `json:"length"`
	TimeoutMs      int      `json:"timeoutMs"`
	RetryCount     int      `json:"retryCount"`
	PollIntervalMs int      `json:"pollIntervalMs"`

	// TCP fields
	IP     string `json:"ip,omitempty"`
	Port   int    `json:"port,omitempty"`
	UnitID uint8  `json:"unitId,omitempty"`

	// RTU485 fields
	SerialPort string `json:"serialPort,omitempty"`
	Baud       int    `json:"baud,omitempty"`
	Parity     Parity `json:"parity,omitempty"`
	DataBits   int    `json:"dataBits,omitempty"`
	StopBits   int    `json:"stopBits,omitempty"`
	SlaveID    uint8  `json:"slaveId,omitempty"`
}

// PointKey stably identifies a Point across hmi_name edits.
type PointKey = uuid.UUID

// NewPointKey returns a fresh random PointKey.
func NewPointKey() PointKey { return uuid.New() }

// Point is one addressable value sourced from a channel.
type Point struct {
	PointKey      PointKey    `json:"pointKey"`
	HmiName       string      `json:"hmiName"`
	DataType      DataType    `json:"dataType"`
	ByteOrder     ByteOrder32 `json:"byteOrder"`
	ChannelName   string      `json:"channelName"`
	AddressOffset *int        `json:"addressOffset,omitempty"`
	Scale         float64     `json:"scale"`
}

// ReadJobPoint is one point's slice within a ReadJob's raw buffer.
type ReadJobPoint struct {
	PointKey PointKey `json:"pointKey"`
	Offset   int      `json:"offset"`
	Length   int      `json:"length"`
}

// ReadJob is a single contiguous Modbus read covering one or more points.
type ReadJob struct {
	ChannelName  string         `json:"channelName"`
	ReadArea     ReadArea       `json:"readArea"`
	StartAddress int            `json:"startAddress"`
	Length       int            `json:"length"`
	Points       []ReadJobPoint `json:"points"`
}

// SampleResult is the most recent read outcome for one point.
type SampleResult struct {
	PointKey     PointKey `json:"pointKey"`
	ValueDisplay string   `json:"valueDisplay"`
	Quality      Quality  `json:"quality"`
	Timestamp    string   `json:"timestamp"`
	DurationMs   int64    `json:"durationMs"`
	ErrorMessage string   `json:"errorMessage,omitempty"`
}

// RunStats counts the exact multiplicities of each Quality over a run.
type RunStats struct {
	Total       int `json:"total"`
	Ok          int `json:"ok"`
	Timeout     int `json:"timeout"`
	CommError   int `json:"commError"`
	DecodeError int `json:"decodeError"`
	ConfigError int `json:"configError"`
}

// Add increments the counter matching q and the total.
func (s *RunStats) Add(q Quality) {
	s.Total++
	switch q {
	case QualityOk:
		s.Ok++
	case QualityTimeout:
		s.Timeout++
	case QualityCommError:
		s.CommError++
	case QualityDecodeError:
		s.DecodeError++
	case QualityConfigError:
		s.ConfigError++
	}
}

// Frozen delivery-spreadsheet column contracts (spec §6). The core never
// renders these; it only exposes the fixed column order for an external
// spreadsheet writer to consume.
var (
	TCPAddressSheetColumns = []string{
		"HMI名称", "数据类型", "字节顺序", "通道名称", "比例",
	}
	RTU485AddressSheetColumns = []string{
		"HMI名称", "数据类型", "字节顺序", "通道名称", "比例",
	}
	CommParamsSheetColumns = []string{
		"协议", "通道名称", "设备地址", "读取区域", "起始地址", "长度",
		"串口/IP", "波特率/端口", "校验位", "数据位", "停止位",
		"超时", "重试次数", "轮询间隔",
	}
)
