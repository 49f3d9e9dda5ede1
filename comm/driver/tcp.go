package driver

import (
	"context"
	"fmt"

	modbus "github.com/hollysys/plc-comm-forge"
	"github.com/hollysys/plc-comm-forge/comm/model"
	"github.com/hollysys/plc-comm-forge/packet"
)

// tcpClient wraps the teacher's modbus.Client behind ConnectedClient,
// carrying the unit id negotiated at Connect time.
type tcpClient struct {
	c      *modbus.Client
	unitID uint8
}

func (t *tcpClient) Close() error { return t.c.Close() }

// ModbusTCP is the CommDriver implementation for Modbus TCP, built directly
// on the package's own modbus.Client and packet.* request/response types.
type ModbusTCP struct{}

// NewModbusTCP returns a Modbus TCP CommDriver.
func NewModbusTCP() *ModbusTCP { return &ModbusTCP{} }

func (d *ModbusTCP) ConnectionKey(profile model.ConnectionProfile) ConnectionKey {
	return ConnectionKey(fmt.Sprintf("tcp|%s|%d|%d", profile.IP, profile.Port, profile.UnitID))
}

func (d *ModbusTCP) Connect(ctx context.Context, profile model.ConnectionProfile) (ConnectedClient, error) {
	c := modbus.NewTCPClient()
	address := fmt.Sprintf("%s:%d", profile.IP, profile.Port)
	if err := c.Connect(ctx, address); err != nil {
		return nil, NewCommError("tcp connect to %s: %s", address, err)
	}
	return &tcpClient{c: c, unitID: profile.UnitID}, nil
}

func (d *ModbusTCP) ReadWithClient(ctx context.Context, client ConnectedClient, job model.ReadJob) (RawReadData, error) {
	tc, ok := client.(*tcpClient)
	if !ok {
		return RawReadData{}, NewCommError("driver: wrong client type for ModbusTCP")
	}
	return readTCP(ctx, tc.c, tc.unitID, job)
}

// readTCP issues the read request matching job.ReadArea and converts the
// response into RawReadData.
func readTCP(ctx context.Context, c *modbus.Client, unitID uint8, job model.ReadJob) (RawReadData, error) {
	switch job.ReadArea {
	case model.ReadAreaHolding:
		req, err := packet.NewReadHoldingRegistersRequestTCP(unitID, uint16(job.StartAddress), uint16(job.Length))
		if err != nil {
			return RawReadData{}, NewCommError("build request: %s", err)
		}
		resp, err := c.Do(ctx, req)
		if err != nil {
			return RawReadData{}, NewCommError("%s", err)
		}
		r, ok := resp.(*packet.ReadHoldingRegistersResponseTCP)
		if !ok {
			return RawReadData{}, NewCommError("unexpected response type")
		}
		return registersFromResponse(r.Data, uint16(job.StartAddress), job.Length)
	case model.ReadAreaInput:
		req, err := packet.NewReadInputRegistersRequestTCP(unitID, uint16(job.StartAddress), uint16(job.Length))
		if err != nil {
			return RawReadData{}, NewCommError("build request: %s", err)
		}
		resp, err := c.Do(ctx, req)
		if err != nil {
			return RawReadData{}, NewCommError("%s", err)
		}
		r, ok := resp.(*packet.ReadInputRegistersResponseTCP)
		if !ok {
			return RawReadData{}, NewCommError("unexpected response type")
		}
		return registersFromResponse(r.Data, uint16(job.StartAddress), job.Length)
	case model.ReadAreaCoil:
		req, err := packet.NewReadCoilsRequestTCP(unitID, uint16(job.StartAddress), uint16(job.Length))
		if err != nil {
			return RawReadData{}, NewCommError("build request: %s", err)
		}
		resp, err := c.Do(ctx, req)
		if err != nil {
			return RawReadData{}, NewCommError("%s", err)
		}
		r, ok := resp.(*packet.ReadCoilsResponseTCP)
		if !ok {
			return RawReadData{}, NewCommError("unexpected response type")
		}
		return bitsFromCoilBytes(r.Data, job.Length), nil
	case model.ReadAreaDiscrete:
		req, err := packet.NewReadDiscreteInputsRequestTCP(unitID, uint16(job.StartAddress), uint16(job.Length))
		if err != nil {
			return RawReadData{}, NewCommError("build request: %s", err)
		}
		resp, err := c.Do(ctx, req)
		if err != nil {
			return RawReadData{}, NewCommError("%s", err)
		}
		r, ok := resp.(*packet.ReadDiscreteInputsResponseTCP)
		if !ok {
			return RawReadData{}, NewCommError("unexpected response type")
		}
		return bitsFromCoilBytes(r.Data, job.Length), nil
	default:
		return RawReadData{}, NewCommError("unsupported read area %s", job.ReadArea)
	}
}

func registersFromResponse(data []byte, startAddress uint16, length int) (RawReadData, error) {
	regs, err := packet.NewRegisters(data, startAddress)
	if err != nil {
		return RawReadData{}, NewCommError("%s", err)
	}
	out := make([]uint16, length)
	for i := 0; i < length; i++ {
		v, err := regs.Uint16(startAddress + uint16(i))
		if err != nil {
			return RawReadData{}, NewCommError("%s", err)
		}
		out[i] = v
	}
	return RawReadData{Registers: out}, nil
}

func bitsFromCoilBytes(data []byte, length int) RawReadData {
	bits := make([]bool, length)
	for i := 0; i < length; i++ {
		byteIdx := i / 8
		bitIdx := uint(i % 8)
		if byteIdx < len(data) {
			bits[i] = data[byteIdx]&(1<<bitIdx) != 0
		}
	}
	return RawReadData{Bits: bits}
}
