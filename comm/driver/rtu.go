package driver

import (
	"context"
	"fmt"

	modbus "github.com/hollysys/plc-comm-forge"
	"github.com/hollysys/plc-comm-forge/comm/model"
	"github.com/hollysys/plc-comm-forge/packet"
	"github.com/tarm/serial"
)

// rtuClient wraps the teacher's modbus.SerialClient and the underlying
// tarm/serial port, so Close releases the physical port too.
type rtuClient struct {
	c       *modbus.SerialClient
	port    *serial.Port
	slaveID uint8
}

func (r *rtuClient) Close() error {
	if err := r.c.Close(); err != nil {
		return err
	}
	return r.port.Close()
}

func parityFor(p model.Parity) serial.Parity {
	switch p {
	case model.ParityEven:
		return serial.ParityEven
	case model.ParityOdd:
		return serial.ParityOdd
	default:
		return serial.ParityNone
	}
}

func stopBitsFor(n int) serial.StopBits {
	if n == 2 {
		return serial.Stop2
	}
	return serial.Stop1
}

// ModbusRTU is the CommDriver implementation for Modbus RTU/485, opening a
// tarm/serial port per connection and wrapping it with modbus.SerialClient.
type ModbusRTU struct{}

// NewModbusRTU returns a Modbus RTU CommDriver.
func NewModbusRTU() *ModbusRTU { return &ModbusRTU{} }

func (d *ModbusRTU) ConnectionKey(profile model.ConnectionProfile) ConnectionKey {
	return ConnectionKey(fmt.Sprintf("rtu|%s|%d|%s|%d|%d|%d",
		profile.SerialPort, profile.Baud, profile.Parity, profile.DataBits, profile.StopBits, profile.SlaveID))
}

func (d *ModbusRTU) Connect(ctx context.Context, profile model.ConnectionProfile) (ConnectedClient, error) {
	cfg := &serial.Config{
		Name:     profile.SerialPort,
		Baud:     profile.Baud,
		Parity:   parityFor(profile.Parity),
		Size:     byte(profile.DataBits),
		StopBits: stopBitsFor(profile.StopBits),
	}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, NewCommError("open serial port %s: %s", profile.SerialPort, err)
	}
	client := modbus.NewSerialClient(port)
	return &rtuClient{c: client, port: port, slaveID: profile.SlaveID}, nil
}

func (d *ModbusRTU) ReadWithClient(ctx context.Context, client ConnectedClient, job model.ReadJob) (RawReadData, error) {
	rc, ok := client.(*rtuClient)
	if !ok {
		return RawReadData{}, NewCommError("driver: wrong client type for ModbusRTU")
	}

	switch job.ReadArea {
	case model.ReadAreaHolding:
		req, err := packet.NewReadHoldingRegistersRequestRTU(rc.slaveID, uint16(job.StartAddress), uint16(job.Length))
		if err != nil {
			return RawReadData{}, NewCommError("build request: %s", err)
		}
		resp, err := rc.c.Do(ctx, req)
		if err != nil {
			return RawReadData{}, NewCommError("%s", err)
		}
		r, ok := resp.(*packet.ReadHoldingRegistersResponseRTU)
		if !ok {
			return RawReadData{}, NewCommError("unexpected response type")
		}
		return registersFromResponse(r.Data, uint16(job.StartAddress), job.Length)
	case model.ReadAreaInput:
		req, err := packet.NewReadInputRegistersRequestRTU(rc.slaveID, uint16(job.StartAddress), uint16(job.Length))
		if err != nil {
			return RawReadData{}, NewCommError("build request: %s", err)
		}
		resp, err := rc.c.Do(ctx, req)
		if err != nil {
			return RawReadData{}, NewCommError("%s", err)
		}
		r, ok := resp.(*packet.ReadInputRegistersResponseRTU)
		if !ok {
			return RawReadData{}, NewCommError("unexpected response type")
		}
		return registersFromResponse(r.Data, uint16(job.StartAddress), job.Length)
	case model.ReadAreaCoil:
		req, err := packet.NewReadCoilsRequestRTU(rc.slaveID, uint16(job.StartAddress), uint16(job.Length))
		if err != nil {
			return RawReadData{}, NewCommError("build request: %s", err)
		}
		resp, err := rc.c.Do(ctx, req)
		if err != nil {
			return RawReadData{}, NewCommError("%s", err)
		}
		r, ok := resp.(*packet.ReadCoilsResponseRTU)
		if !ok {
			return RawReadData{}, NewCommError("unexpected response type")
		}
		return bitsFromCoilBytes(r.Data, job.Length), nil
	case model.ReadAreaDiscrete:
		req, err := packet.NewReadDiscreteInputsRequestRTU(rc.slaveID, uint16(job.StartAddress), uint16(job.Length))
		if err != nil {
			return RawReadData{}, NewCommError("build request: %s", err)
		}
		resp, err := rc.c.Do(ctx, req)
		if err != nil {
			return RawReadData{}, NewCommError("%s", err)
		}
		r, ok := resp.(*packet.ReadDiscreteInputsResponseRTU)
		if !ok {
			return RawReadData{}, NewCommError("unexpected response type")
		}
		return bitsFromCoilBytes(r.Data, job.Length), nil
	default:
		return RawReadData{}, NewCommError("unsupported read area %s", job.ReadArea)
	}
}
